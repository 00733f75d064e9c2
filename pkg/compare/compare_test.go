package compare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tosih/ms42-map-tool/pkg/models"
)

func detected(offset int, values []int) *models.DetectedMap {
	return models.NewDetectedMap("AutoDetect", offset, 3, 2, values)
}

func TestScansIdentical(t *testing.T) {
	a := []*models.DetectedMap{detected(0, []int{1, 2, 3, 4, 5, 6})}
	b := []*models.DetectedMap{detected(0, []int{1, 2, 3, 4, 5, 6})}

	diff := Scans(a, b)
	assert.Empty(t, diff.Added)
	assert.Empty(t, diff.Removed)
	assert.Empty(t, diff.Changed)
	assert.Equal(t, 1, diff.Same)
}

func TestScansAddedRemoved(t *testing.T) {
	a := []*models.DetectedMap{detected(0x100, []int{1, 2, 3, 4, 5, 6})}
	b := []*models.DetectedMap{detected(0x200, []int{1, 2, 3, 4, 5, 6})}

	diff := Scans(a, b)
	require.Len(t, diff.Added, 1)
	assert.Equal(t, 0x200, diff.Added[0].Offset)
	require.Len(t, diff.Removed, 1)
	assert.Equal(t, 0x100, diff.Removed[0].Offset)
}

func TestScansChangedCells(t *testing.T) {
	a := []*models.DetectedMap{detected(0, []int{10, 20, 30, 40, 50, 60})}
	b := []*models.DetectedMap{detected(0, []int{10, 25, 30, 40, 45, 60})}

	diff := Scans(a, b)
	require.Len(t, diff.Changed, 1)
	cd := diff.Changed[0]
	assert.Equal(t, 2, cd.ChangedCells)
	assert.Equal(t, 6, cd.TotalCells)
	assert.Equal(t, 5, cd.MaxIncrease)
	assert.Equal(t, -5, cd.MaxDecrease)
	assert.Equal(t, 0, diff.Same)
}

func TestScansIdentifiersIgnored(t *testing.T) {
	// equality is by MapKey, not by id
	a := detected(0, []int{1, 2, 3, 4, 5, 6})
	b := detected(0, []int{1, 2, 3, 4, 5, 6})
	require.NotEqual(t, a.ID, b.ID)

	diff := Scans([]*models.DetectedMap{a}, []*models.DetectedMap{b})
	assert.Equal(t, 1, diff.Same)
}
