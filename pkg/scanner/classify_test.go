package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tosih/ms42-map-tool/pkg/models"
)

func TestClassifyIgnition(t *testing.T) {
	values := []uint16{20000, 20010, 20001, 20011, 20002, 20012}
	assert.Equal(t, models.TypeIgnition, Classify(values, nil, nil, 0))
}

func TestClassifyFuel(t *testing.T) {
	// small mean, small max
	values := []uint16{10, 20, 11, 21, 12, 22}
	assert.Equal(t, models.TypeFuel, Classify(values, nil, nil, 0))
}

func TestClassifyMAF(t *testing.T) {
	// values escape the fuel rule, axis starts above 1000
	values := []uint16{4000, 4100, 4010, 4110, 4020, 4120}
	axisX := []float64{1200, 2400}
	assert.Equal(t, models.TypeMAF, Classify(values, axisX, nil, 0))
}

func TestClassifyIgnitionBeatsMAF(t *testing.T) {
	// rule order: ignition wins even with a high-start axis
	values := []uint16{20000, 20010, 20001, 20011, 20002, 20012}
	axisX := []float64{1200, 2400}
	assert.Equal(t, models.TypeIgnition, Classify(values, axisX, nil, 0))
}

func TestClassifyHintAdjacentUnknown(t *testing.T) {
	values := []uint16{4000, 4100, 4010, 4110, 4020, 4120}
	hints := &models.DisassemblerHints{
		Functions: []models.FunctionHint{
			{Name: "lookup_kf", StartAddress: 0x1000, EndAddress: 0x2000, DataRefs: []uint32{0x6700}},
		},
		Labels: map[string]uint32{"KFMIRL": 0x7400},
	}

	// data reference
	assert.Equal(t, models.TypeUnknown, Classify(values, nil, hints, 0x6700))
	// inside a function body
	assert.Equal(t, models.TypeUnknown, Classify(values, nil, hints, 0x1800))
	// a label address
	assert.Equal(t, models.TypeUnknown, Classify(values, nil, hints, 0x7400))
	// none of the above
	assert.Equal(t, models.TypeUnknown, Classify(values, nil, hints, 0x9000))
}

func TestClassifyUnknownFallback(t *testing.T) {
	values := []uint16{4000, 4100, 4010, 4110, 4020, 4120}
	assert.Equal(t, models.TypeUnknown, Classify(values, nil, nil, 0))
	assert.Equal(t, models.TypeUnknown, Classify(values, []float64{500, 900}, nil, 0))
}

func TestClassifyPure(t *testing.T) {
	values := []uint16{10, 20, 11, 21, 12, 22}
	first := Classify(values, nil, nil, 0)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Classify(values, nil, nil, 0))
	}
}
