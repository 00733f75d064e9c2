// Package compare diffs two scan results by detection key.
package compare

import (
	"fmt"
	"sort"

	"github.com/pterm/pterm"

	"github.com/tosih/ms42-map-tool/pkg/models"
)

// Diff is the outcome of comparing two scans.
type Diff struct {
	Added   []*models.DetectedMap // present only in the second scan
	Removed []*models.DetectedMap // present only in the first scan
	Changed []CellDiff            // shared keys whose values differ
	Same    int                   // shared keys with identical values
}

// CellDiff summarises the value deltas of one shared detection.
type CellDiff struct {
	Key          models.MapKey
	ChangedCells int
	TotalCells   int
	MaxIncrease  int
	MaxDecrease  int
}

// Scans compares two detection sets by (offset, rows, cols).
func Scans(first, second []*models.DetectedMap) Diff {
	byKey := make(map[models.MapKey]*models.DetectedMap, len(first))
	for _, m := range first {
		byKey[m.Key()] = m
	}

	var diff Diff
	seen := make(map[models.MapKey]bool, len(second))
	for _, m := range second {
		seen[m.Key()] = true
		old, ok := byKey[m.Key()]
		if !ok {
			diff.Added = append(diff.Added, m)
			continue
		}
		if cd, changed := diffCells(old, m); changed {
			diff.Changed = append(diff.Changed, cd)
		} else {
			diff.Same++
		}
	}
	for _, m := range first {
		if !seen[m.Key()] {
			diff.Removed = append(diff.Removed, m)
		}
	}

	sort.Slice(diff.Added, func(i, j int) bool { return diff.Added[i].Offset < diff.Added[j].Offset })
	sort.Slice(diff.Removed, func(i, j int) bool { return diff.Removed[i].Offset < diff.Removed[j].Offset })
	sort.Slice(diff.Changed, func(i, j int) bool { return diff.Changed[i].Key.Offset < diff.Changed[j].Key.Offset })
	return diff
}

func diffCells(prev, cur *models.DetectedMap) (CellDiff, bool) {
	cd := CellDiff{Key: cur.Key(), TotalCells: len(cur.Values)}
	for i := range cur.Values {
		d := cur.Values[i] - prev.Values[i]
		if d == 0 {
			continue
		}
		cd.ChangedCells++
		if d > cd.MaxIncrease {
			cd.MaxIncrease = d
		}
		if d < cd.MaxDecrease {
			cd.MaxDecrease = d
		}
	}
	return cd, cd.ChangedCells > 0
}

// Render prints the diff with pterm.
func Render(diff Diff) {
	pterm.DefaultHeader.WithFullWidth().Println("Scan Comparison")

	pterm.Info.Printf("Unchanged detections: %d\n", diff.Same)

	if len(diff.Added) > 0 {
		pterm.DefaultSection.Println("New detections")
		for _, m := range diff.Added {
			pterm.Success.Printf("0x%04X %dx%d %s\n", m.Offset, m.Rows, m.Cols, m.Type)
		}
	}
	if len(diff.Removed) > 0 {
		pterm.DefaultSection.Println("Lost detections")
		for _, m := range diff.Removed {
			pterm.Warning.Printf("0x%04X %dx%d %s\n", m.Offset, m.Rows, m.Cols, m.Type)
		}
	}
	if len(diff.Changed) > 0 {
		pterm.DefaultSection.Println("Changed values")
		for _, cd := range diff.Changed {
			pterm.Info.Printf("0x%04X %dx%d: %d/%d cells (max %+d / %+d)\n",
				cd.Key.Offset, cd.Key.Rows, cd.Key.Cols,
				cd.ChangedCells, cd.TotalCells, cd.MaxIncrease, cd.MaxDecrease)
		}
	}

	total := len(diff.Added) + len(diff.Removed) + len(diff.Changed)
	if total == 0 {
		pterm.Info.Println("Scans are identical")
	} else {
		pterm.Info.Println(fmt.Sprintf("\n%d difference(s)", total))
	}
}
