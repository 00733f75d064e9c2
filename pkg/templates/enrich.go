package templates

import (
	"github.com/spf13/cast"

	"github.com/tosih/ms42-map-tool/pkg/image"
	"github.com/tosih/ms42-map-tool/pkg/models"
)

// Relocation pairs a relocated template with its rewritten XDF fragment.
type Relocation struct {
	Template models.Template
	XML      string
}

// RescanAll sweeps the catalog one template at a time, feeding each hit back
// as a pinned offset so later templates cannot claim an overlapping region.
// Offsets in knownByOffset are honoured and left untouched.
func (r *Rescanner) RescanAll(catalog []models.Template, knownByOffset map[int]string) map[int]Relocation {
	known := make(map[int]string, len(knownByOffset))
	for off, xml := range knownByOffset {
		known[off] = xml
	}

	out := make(map[int]Relocation)
	for _, tpl := range catalog {
		hits := r.Rescan([]models.Template{tpl}, known)
		for off, xml := range hits {
			known[off] = xml
			out[off] = Relocation{Template: tpl, XML: xml}
		}
	}
	return out
}

// Enrich attaches relocated templates to brute-scan candidates by offset and
// materialises template hits that no candidate covers as fresh candidates.
// Materialisation needs the advertised catalog dimensions and 16-bit
// elements (an unset element size counts as 16-bit); relocations missing
// either still enrich but add nothing.
func Enrich(img *image.ByteImage, maps []*models.DetectedMap, relocations map[int]Relocation) []*models.DetectedMap {
	byOffset := make(map[int]*models.DetectedMap, len(maps))
	for _, m := range maps {
		if _, ok := byOffset[m.Offset]; !ok {
			byOffset[m.Offset] = m
		}
	}

	out := maps
	for off, rel := range relocations {
		tpl := rel.Template
		if m, ok := byOffset[off]; ok {
			m.Datatype = tpl.Datatype
			m.DecimalPlaces = tpl.DecimalPlaces
			m.Units = tpl.Units
			m.RawEmbeddedXML = rel.XML
			if tpl.Title != "" {
				m.Name = tpl.Title
			}
			continue
		}

		rows := cast.ToInt(tpl.Rows)
		cols := cast.ToInt(tpl.Cols)
		if rows <= 0 || cols <= 0 {
			continue
		}
		if tpl.ElementSizeBits != 0 && tpl.ElementSizeBits != 16 {
			continue
		}
		values, err := img.ReadU16LEArray(off, rows*cols)
		if err != nil {
			continue
		}
		ints := make([]int, len(values))
		for i, v := range values {
			ints[i] = int(v)
		}
		name := tpl.Title
		if name == "" {
			name = "Template"
		}
		m := models.NewDetectedMap(name, off, rows, cols, ints)
		m.Score = 1.0
		m.Datatype = tpl.Datatype
		m.DecimalPlaces = tpl.DecimalPlaces
		m.Units = tpl.Units
		m.RawEmbeddedXML = rel.XML
		out = append(out, m)
	}
	return out
}
