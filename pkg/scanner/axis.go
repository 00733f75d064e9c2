package scanner

import (
	"github.com/tosih/ms42-map-tool/pkg/image"
)

// SniffAxes probes the bytes around a candidate table for breakpoint vectors.
// Calibration tables conventionally store the X-axis breakpoints right after
// the table body and the Y-axis breakpoints right before it; monotonicity is
// the only structural invariant a breakpoint vector must satisfy.
//
// Either axis may be absent. The first monotonic hit per axis wins.
func SniffAxes(img *image.ByteImage, offset, rows, cols int) (axisX, axisY []float64) {
	bodyEnd := offset + rows*cols*ElementSize

	for _, trial := range []int{bodyEnd, bodyEnd + cols*ElementSize} {
		if axisX = readAxis(img, trial, cols); axisX != nil {
			break
		}
	}

	// The primary Y trial lands 2*rows elements before the table, clamped
	// to the image start. A weak heuristic for small offsets; kept as-is.
	k := rows * ElementSize
	primary := max(0, offset-k) - k
	if primary < 0 {
		primary = 0
	}
	for _, trial := range []int{primary, max(0, offset - k)} {
		if axisY = readAxis(img, trial, rows); axisY != nil {
			break
		}
	}

	return axisX, axisY
}

// readAxis decodes length u16 values at offset and returns them as a real
// vector when monotonic. Out-of-bounds trials are no hit.
func readAxis(img *image.ByteImage, offset, length int) []float64 {
	arr, err := img.ReadU16LEArray(offset, length)
	if err != nil {
		return nil
	}
	v := make([]float64, length)
	for i, x := range arr {
		v[i] = float64(x)
	}
	if !monotonic(v) {
		return nil
	}
	return v
}

// monotonic reports whether v is non-decreasing or non-increasing across all
// adjacent pairs; equal neighbours count for both directions.
func monotonic(v []float64) bool {
	inc, dec := 0, 0
	for i := 0; i+1 < len(v); i++ {
		if v[i+1] >= v[i] {
			inc++
		}
		if v[i+1] <= v[i] {
			dec++
		}
	}
	return inc >= len(v)-1 || dec >= len(v)-1
}
