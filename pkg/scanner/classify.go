package scanner

import (
	"github.com/tosih/ms42-map-tool/pkg/correlate"
	"github.com/tosih/ms42-map-tool/pkg/models"
)

// Classify assigns a coarse physical meaning to a candidate from its value
// statistics, its X axis if one was found, and the optional disassembler
// export. The rules are evaluated top to bottom, first match wins, and they
// are intentionally weak; downstream tooling may override the label.
func Classify(values []uint16, axisX []float64, hints *models.DisassemblerHints, offset int) models.MapType {
	vals := make([]float64, len(values))
	for i, v := range values {
		vals[i] = float64(v)
	}
	_, maxVal := correlate.MinMax(vals)
	mean := correlate.Mean(vals)

	switch {
	case maxVal > 15000:
		return models.TypeIgnition
	case mean < 50 && maxVal < 3000:
		return models.TypeFuel
	case len(axisX) > 0 && axisX[0] > 1000:
		return models.TypeMAF
	}

	// Code- or label-adjacent offsets: refuse to guess.
	if hints != nil && codeAdjacent(hints, uint32(offset)) {
		return models.TypeUnknown
	}
	return models.TypeUnknown
}

// codeAdjacent reports whether the offset is referenced by or contained in
// any disassembled function, or named by a label.
func codeAdjacent(hints *models.DisassemblerHints, offset uint32) bool {
	for _, f := range hints.Functions {
		for _, ref := range f.DataRefs {
			if ref == offset {
				return true
			}
		}
		if f.StartAddress <= offset && offset <= f.EndAddress {
			return true
		}
	}
	for _, addr := range hints.Labels {
		if addr == offset {
			return true
		}
	}
	return false
}
