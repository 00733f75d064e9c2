package models

import (
	"sort"

	"github.com/google/uuid"
)

// MapType is the coarse physical meaning assigned by the classifier.
type MapType string

const (
	TypeUnknown  MapType = "unknown"
	TypeFuel     MapType = "fuel"
	TypeIgnition MapType = "ignition"
	TypeBoost    MapType = "boost"
	TypeMAF      MapType = "maf"
	TypeInjector MapType = "injector"
)

// DetectedMap is a candidate calibration table found in the image.
//
// Struct fields are declared in alphabetical order of their JSON keys so that
// encoded documents come out with sorted keys.
type DetectedMap struct {
	Accepted       bool      `json:"accepted"`
	AxisX          []float64 `json:"axisX"`
	AxisY          []float64 `json:"axisY"`
	Cols           int       `json:"cols"`
	Datatype       string    `json:"datatype"`
	DecimalPlaces  int       `json:"decimalPlaces"`
	ElementSize    int       `json:"elementSize"`
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Offset         int       `json:"offset"`
	RawEmbeddedXML string    `json:"rawEmbeddedXML"`
	Rows           int       `json:"rows"`
	Score          float64   `json:"score"`
	Type           MapType   `json:"type"`
	Units          string    `json:"units"`
	Values         []int     `json:"values"`
}

// NewDetectedMap creates a candidate with a fresh identifier. Values are
// row-major with rows*cols elements.
func NewDetectedMap(name string, offset, rows, cols int, values []int) *DetectedMap {
	return &DetectedMap{
		ID:          uuid.NewString(),
		Name:        name,
		Offset:      offset,
		Rows:        rows,
		Cols:        cols,
		ElementSize: 2,
		Values:      values,
		Type:        TypeUnknown,
	}
}

// MapKey identifies a detection for deduplication. Two candidates with the
// same key are the same detection.
type MapKey struct {
	Offset int
	Rows   int
	Cols   int
}

// Key returns the deduplication key of the candidate.
func (m *DetectedMap) Key() MapKey {
	return MapKey{Offset: m.Offset, Rows: m.Rows, Cols: m.Cols}
}

// Value returns the element at row r, column c.
func (m *DetectedMap) Value(r, c int) int {
	return m.Values[r*m.Cols+c]
}

// SortDetected orders candidates by score descending, then by offset and
// dimensions for a stable listing.
func SortDetected(maps []*DetectedMap) {
	sort.SliceStable(maps, func(i, j int) bool {
		if maps[i].Score != maps[j].Score {
			return maps[i].Score > maps[j].Score
		}
		if maps[i].Offset != maps[j].Offset {
			return maps[i].Offset < maps[j].Offset
		}
		if maps[i].Rows != maps[j].Rows {
			return maps[i].Rows < maps[j].Rows
		}
		return maps[i].Cols < maps[j].Cols
	})
}

// Template is a known-map record harvested from a prior XDF definition. The
// rescanner relies solely on RawXML; the remaining fields are metadata for
// downstream consumers. Rows and Cols arrive as strings in the source catalog.
type Template struct {
	Title           string `json:"title"`
	Offset          int    `json:"offset"`
	Rows            string `json:"rows"`
	Cols            string `json:"cols"`
	ElementSizeBits int    `json:"elementSizeBits"`
	Datatype        string `json:"datatype"`
	DecimalPlaces   int    `json:"decimalPlaces"`
	Units           string `json:"units"`
	RawXML          string `json:"rawXML"`
}

// FunctionHint is one function record from a disassembler export.
type FunctionHint struct {
	Name         string            `json:"name"`
	StartAddress uint32            `json:"start_address"`
	EndAddress   uint32            `json:"end_address"`
	DataRefs     []uint32          `json:"data_refs"`
	Labels       map[string]uint32 `json:"labels"`
}

// DisassemblerHints bundles the optional symbol/xref export.
type DisassemblerHints struct {
	Functions []FunctionHint    `json:"functions"`
	Labels    map[string]uint32 `json:"labels"`
}
