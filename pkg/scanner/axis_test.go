package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tosih/ms42-map-tool/pkg/image"
)

func TestMonotonic(t *testing.T) {
	assert.True(t, monotonic([]float64{1, 2, 3}))
	assert.True(t, monotonic([]float64{3, 2, 1}))
	assert.True(t, monotonic([]float64{1, 1, 2}))  // equality counts
	assert.True(t, monotonic([]float64{5, 5, 5}))  // constant counts both ways
	assert.False(t, monotonic([]float64{1, 3, 2}))
	assert.True(t, monotonic([]float64{7}))
	assert.True(t, monotonic(nil))
}

func TestSniffAxisXAfterTable(t *testing.T) {
	// 3x2 table then increasing X breakpoints
	data := u16le(10, 20, 11, 21, 12, 22, 100, 200)
	img := image.New(data, 0)

	axisX, axisY := SniffAxes(img, 0, 3, 2)
	assert.Equal(t, []float64{100, 200}, axisX)
	assert.Nil(t, axisY)
}

func TestSniffAxisXSecondTrial(t *testing.T) {
	// non-monotonic filler where the first trial looks, axis one row further
	data := u16le(
		10, 20, 30, 11, 21, 31, 12, 22, 32, // 3x3 table
		9, 50, 7, // filler at the first trial offset
		300, 400, 500, // X breakpoints at the second trial offset
	)
	img := image.New(data, 0)

	axisX, _ := SniffAxes(img, 0, 3, 3)
	assert.Equal(t, []float64{300, 400, 500}, axisX)
}

func TestSniffAxisYBeforeTable(t *testing.T) {
	// decreasing Y breakpoints immediately before a 3x2 table at offset 6
	data := u16le(900, 800, 700, 10, 20, 11, 21, 12, 22)
	img := image.New(data, 0)

	_, axisY := SniffAxes(img, 6, 3, 2)
	assert.Equal(t, []float64{900, 800, 700}, axisY)
}

func TestSniffAxisYPrimaryTrial(t *testing.T) {
	// table at offset 12: primary Y trial reads 2*rows elements back, at 0
	data := u16le(100, 200, 300, 7, 99, 7, 10, 20, 11, 21, 12, 22)
	img := image.New(data, 0)

	_, axisY := SniffAxes(img, 12, 3, 2)
	assert.Equal(t, []float64{100, 200, 300}, axisY)
}

func TestSniffAxesOutOfBounds(t *testing.T) {
	// table fills the whole image: every trial is out of bounds or overlaps
	data := u16le(10, 20, 11, 21, 12, 22)
	img := image.New(data, 0)

	axisX, axisY := SniffAxes(img, 0, 3, 2)
	assert.Nil(t, axisX)
	assert.Nil(t, axisY)
}
