// Package export persists scan results: the maps.json session file, the XDF
// document consumed by tuner tooling, and per-map CSV files.
package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/tosih/ms42-map-tool/pkg/models"
)

// ErrWrite marks a failed output write.
var ErrWrite = errors.New("output write failure")

// MarshalMaps encodes detected maps as pretty-printed JSON with sorted keys.
func MarshalMaps(maps []*models.DetectedMap) ([]byte, error) {
	if maps == nil {
		maps = []*models.DetectedMap{}
	}
	return json.MarshalIndent(maps, "", "  ")
}

// WriteMapsJSON persists detected maps to path.
func WriteMapsJSON(path string, maps []*models.DetectedMap) error {
	data, err := MarshalMaps(maps)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return nil
}

// BuildXDF renders the XDF document for the given maps. Emission is
// deterministic apart from the generated timestamp.
func BuildXDF(maps []*models.DetectedMap, tool string, generated time.Time) string {
	var b strings.Builder

	b.WriteString("<?xml version=\"1.0\" encoding=\"utf-8\"?>\n")
	b.WriteString("<XDF>\n")
	b.WriteString("  <Header><Tool>" + escapeXML(tool) + "</Tool><Generated>" +
		generated.UTC().Format(time.RFC3339) + "</Generated></Header>\n")
	b.WriteString("  <Maps>\n")

	for _, m := range maps {
		fmt.Fprintf(&b, "    <Map name=\"%s\" offset=\"0x%x\" rows=\"%d\" cols=\"%d\" elementSize=\"%d\">\n",
			escapeXML(m.Name), m.Offset, m.Rows, m.Cols, m.ElementSize)

		if m.AxisX != nil {
			b.WriteString("      <XAxis>")
			for _, v := range m.AxisX {
				b.WriteString("<V>" + formatAxis(v) + "</V>")
			}
			b.WriteString("</XAxis>\n")
		}
		if m.AxisY != nil {
			b.WriteString("      <YAxis>")
			for _, v := range m.AxisY {
				b.WriteString("<V>" + formatAxis(v) + "</V>")
			}
			b.WriteString("</YAxis>\n")
		}

		b.WriteString("      <Values>\n")
		for r := 0; r < m.Rows; r++ {
			b.WriteString("        <Row>")
			for c := 0; c < m.Cols; c++ {
				b.WriteString("<V>" + strconv.Itoa(m.Value(r, c)) + "</V>")
			}
			b.WriteString("</Row>\n")
		}
		b.WriteString("      </Values>\n")
		b.WriteString("    </Map>\n")
	}

	b.WriteString("  </Maps>\n")
	b.WriteString("</XDF>\n")
	return b.String()
}

// WriteXDF renders and writes the XDF document.
func WriteXDF(path string, maps []*models.DetectedMap, tool string, generated time.Time) error {
	doc := BuildXDF(maps, tool, generated)
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return nil
}

// ExportCSV writes one CSV file per map into dir, metadata comment rows
// included.
func ExportCSV(dir string, maps []*models.DetectedMap) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	for _, m := range maps {
		name := strings.ReplaceAll(strings.ToLower(m.Name), " ", "_")
		path := filepath.Join(dir, fmt.Sprintf("%s_0x%x.csv", name, m.Offset))
		if err := exportMapToCSV(m, path); err != nil {
			return err
		}
	}
	return nil
}

func exportMapToCSV(m *models.DetectedMap, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	writer.Write([]string{fmt.Sprintf("# %s", m.Name)})
	writer.Write([]string{fmt.Sprintf("# Offset: 0x%04X", m.Offset)})
	writer.Write([]string{fmt.Sprintf("# Size: %dx%d", m.Rows, m.Cols)})
	writer.Write([]string{fmt.Sprintf("# Type: %s", m.Type)})
	writer.Write([]string{""})

	// column header from the sniffed X axis, falling back to indices
	header := []string{"Y\\X"}
	for c := 0; c < m.Cols; c++ {
		if m.AxisX != nil {
			header = append(header, formatAxis(m.AxisX[c]))
		} else {
			header = append(header, strconv.Itoa(c))
		}
	}
	writer.Write(header)

	for r := 0; r < m.Rows; r++ {
		label := strconv.Itoa(r)
		if m.AxisY != nil {
			label = formatAxis(m.AxisY[r])
		}
		row := []string{label}
		for c := 0; c < m.Cols; c++ {
			row = append(row, strconv.Itoa(m.Value(r, c)))
		}
		writer.Write(row)
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return nil
}

func formatAxis(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

func escapeXML(s string) string {
	return xmlEscaper.Replace(s)
}
