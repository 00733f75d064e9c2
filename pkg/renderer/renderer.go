package renderer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pterm/pterm"

	"github.com/tosih/ms42-map-tool/pkg/models"
)

// SummaryTable renders the scan result listing.
func SummaryTable(maps []*models.DetectedMap) {
	if len(maps) == 0 {
		pterm.Info.Println("No potential maps found")
		return
	}

	tableData := pterm.TableData{
		{"Offset", "Size", "Type", "Score", "Axes", "Name"},
	}
	for _, m := range maps {
		axes := ""
		if m.AxisX != nil {
			axes += "X"
		}
		if m.AxisY != nil {
			axes += "Y"
		}
		tableData = append(tableData, []string{
			fmt.Sprintf("0x%04X", m.Offset),
			fmt.Sprintf("%dx%d", m.Rows, m.Cols),
			string(m.Type),
			fmt.Sprintf("%.2f", m.Score),
			axes,
			m.Name,
		})
	}

	pterm.DefaultTable.WithHasHeader().WithData(tableData).Render()
	pterm.Info.Printf("\nFound %d potential map(s)\n", len(maps))
}

// RenderMap displays a detected map with the chosen display mode.
func RenderMap(m *models.DetectedMap, displayMode string) {
	min, max := valueRange(m)
	title := fmt.Sprintf("%s | Offset: 0x%04X | %dx%d | Range: %.0f-%.0f",
		m.Name, m.Offset, m.Rows, m.Cols, min, max)

	pterm.DefaultBox.WithTitle(title).WithTitleTopLeft().Println(BuildMapString(m, displayMode, min, max))
}

// BuildMapString creates a formatted string representation of the map.
// Column and row headers come from the sniffed axes when present, indices
// otherwise.
func BuildMapString(m *models.DetectedMap, displayMode string, min, max float64) string {
	var result strings.Builder

	cellWidth := 7
	if displayMode != "values" {
		cellWidth = 4
	}

	// Header
	result.WriteString("    X → |")
	for c := 0; c < m.Cols; c++ {
		result.WriteString(fmt.Sprintf("%*s", cellWidth, colLabel(m, c)))
	}
	result.WriteString("\n")
	result.WriteString("   Y ↓  |" + strings.Repeat("-", m.Cols*cellWidth) + "\n")

	// Data rows
	for r := 0; r < m.Rows; r++ {
		result.WriteString(fmt.Sprintf("%7s |", rowLabel(m, r)))
		for c := 0; c < m.Cols; c++ {
			value := float64(m.Value(r, c))
			switch displayMode {
			case "values":
				color := getColorStyle(value, min, max)
				result.WriteString(color.Sprintf("%7d", m.Value(r, c)))
			case "heatmap":
				result.WriteString(getHeatmapBlock(value, min, max) + "  ")
			default:
				symbol := getSymbolForValue(value, min, max)
				result.WriteString(symbol + symbol + symbol + " ")
			}
		}
		result.WriteString("\n")
	}

	// Legend
	if displayMode == "heatmap" {
		result.WriteString("\n" + getHeatmapLegend())
	} else if displayMode == "symbols" {
		result.WriteString("\nLegend: ")
		result.WriteString(pterm.FgCyan.Sprint("░") + " Low  ")
		result.WriteString(pterm.FgGreen.Sprint("▒") + " Med  ")
		result.WriteString(pterm.FgYellow.Sprint("▓") + " High  ")
		result.WriteString(pterm.FgRed.Sprint("█") + " Max")
	}

	return result.String()
}

func colLabel(m *models.DetectedMap, c int) string {
	if m.AxisX != nil {
		return strconv.FormatFloat(m.AxisX[c], 'g', -1, 64)
	}
	return strconv.Itoa(c)
}

func rowLabel(m *models.DetectedMap, r int) string {
	if m.AxisY != nil {
		return strconv.FormatFloat(m.AxisY[r], 'g', -1, 64)
	}
	return strconv.Itoa(r)
}

func valueRange(m *models.DetectedMap) (float64, float64) {
	min := float64(m.Values[0])
	max := min
	for _, v := range m.Values {
		f := float64(v)
		if f < min {
			min = f
		}
		if f > max {
			max = f
		}
	}
	return min, max
}

func getHeatmapBlock(value, min, max float64) string {
	if max == min {
		return pterm.BgGray.Sprint("  ")
	}

	normalized := (value - min) / (max - min)

	switch {
	case normalized < 0.2:
		return pterm.NewStyle(pterm.BgBlue, pterm.FgWhite).Sprint("▄▄")
	case normalized < 0.4:
		return pterm.NewStyle(pterm.BgCyan, pterm.FgBlack).Sprint("▄▄")
	case normalized < 0.6:
		return pterm.NewStyle(pterm.BgGreen, pterm.FgBlack).Sprint("▄▄")
	case normalized < 0.8:
		return pterm.NewStyle(pterm.BgYellow, pterm.FgBlack).Sprint("▄▄")
	default:
		return pterm.NewStyle(pterm.BgRed, pterm.FgWhite).Sprint("▄▄")
	}
}

func getHeatmapLegend() string {
	var result strings.Builder
	result.WriteString("Heatmap: ")
	result.WriteString(pterm.NewStyle(pterm.BgBlue, pterm.FgWhite).Sprint("▄▄") + " Very Low  ")
	result.WriteString(pterm.NewStyle(pterm.BgCyan, pterm.FgBlack).Sprint("▄▄") + " Low  ")
	result.WriteString(pterm.NewStyle(pterm.BgGreen, pterm.FgBlack).Sprint("▄▄") + " Medium  ")
	result.WriteString(pterm.NewStyle(pterm.BgYellow, pterm.FgBlack).Sprint("▄▄") + " High  ")
	result.WriteString(pterm.NewStyle(pterm.BgRed, pterm.FgWhite).Sprint("▄▄") + " Very High")
	return result.String()
}

func getSymbolForValue(value, min, max float64) string {
	if max == min {
		return pterm.FgGray.Sprint("·")
	}

	normalized := (value - min) / (max - min)

	switch {
	case normalized < 0.25:
		return pterm.FgCyan.Sprint("░")
	case normalized < 0.5:
		return pterm.FgGreen.Sprint("▒")
	case normalized < 0.75:
		return pterm.FgYellow.Sprint("▓")
	default:
		return pterm.FgRed.Sprint("█")
	}
}

func getColorStyle(value, min, max float64) *pterm.Style {
	if max == min {
		return pterm.NewStyle(pterm.FgGray)
	}

	normalized := (value - min) / (max - min)

	switch {
	case normalized < 0.25:
		return pterm.NewStyle(pterm.FgCyan)
	case normalized < 0.5:
		return pterm.NewStyle(pterm.FgGreen)
	case normalized < 0.75:
		return pterm.NewStyle(pterm.FgYellow)
	default:
		return pterm.NewStyle(pterm.FgRed)
	}
}
