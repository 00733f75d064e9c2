package templates

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tosih/ms42-map-tool/pkg/image"
	"github.com/tosih/ms42-map-tool/pkg/models"
)

func u16le(values ...uint16) []byte {
	b := make([]byte, len(values)*2)
	for i, v := range values {
		binary.LittleEndian.PutUint16(b[i*2:], v)
	}
	return b
}

// driftedImage holds the 3x2 test table at offset 16 behind a constant prefix.
func driftedImage() *image.ByteImage {
	data := make([]byte, 16)
	data = append(data, u16le(10, 20, 11, 21, 12, 22)...)
	return image.New(data, 0)
}

const driftedXML = `<EMBEDDEDDATA mmedaddress="0x00000020" mmedcolcount="2" mmedrowcount="3" mmedelementsizebits="16" />`

func TestRescanRelocatesDriftedTable(t *testing.T) {
	r := NewRescanner(driftedImage(), 16, 2)
	out := r.Rescan([]models.Template{{Title: "KFMIRL", RawXML: driftedXML}}, nil)

	require.Len(t, out, 1)
	xml, ok := out[16]
	require.True(t, ok)
	assert.Contains(t, xml, `mmedaddress="0x000010"`)
	assert.NotContains(t, xml, "0x00000020")
}

func TestRescanNoOpAtZeroRange(t *testing.T) {
	// the recorded address already satisfies plausibility; searchRange=0
	// must return the original offset with an identity rewrite
	xml := `<EMBEDDEDDATA mmedaddress="0x000010" mmedcolcount="2" mmedrowcount="3" mmedelementsizebits="16" />`
	r := NewRescanner(driftedImage(), 0, 2)
	out := r.Rescan([]models.Template{{RawXML: xml}}, nil)

	require.Len(t, out, 1)
	assert.Equal(t, xml, out[16])
}

func TestRescanFirstHitWinsAscending(t *testing.T) {
	// a window straddling the constant prefix and the table edge is already
	// plausible (max > min), so the ascending sweep stops before the true
	// table offset
	data := make([]byte, 16)
	for i := range data {
		data[i] = 0xFF
	}
	data = append(data, u16le(10, 20, 11, 21, 12, 22)...)

	r := NewRescanner(image.New(data, 0), 32, 2)
	out := r.Rescan([]models.Template{{RawXML: driftedXML}}, nil)

	require.Len(t, out, 1)
	_, ok := out[6]
	assert.True(t, ok)
}

func TestRescanSkipsPinnedOffset(t *testing.T) {
	r := NewRescanner(driftedImage(), 16, 2)
	out := r.Rescan([]models.Template{{RawXML: driftedXML}}, map[int]string{16: "<XDFTABLE/>"})
	assert.Empty(t, out)
}

func TestRescanAvoidsPinnedOverlap(t *testing.T) {
	r := NewRescanner(driftedImage(), 16, 2)
	out := r.Rescan([]models.Template{{RawXML: driftedXML}}, map[int]string{20: "<XDFTABLE/>"})
	assert.Empty(t, out)
}

func TestRescanAttributeVariants(t *testing.T) {
	// decimal address, single quotes, alternate attribute names, mixed case
	xml := `<embeddeddata MMEDADDRESS='32' colcount='2' rowcount='3' mmedelementsize='16' />`
	r := NewRescanner(driftedImage(), 16, 2)
	out := r.Rescan([]models.Template{{RawXML: xml}}, nil)

	require.Len(t, out, 1)
	rewritten, ok := out[16]
	require.True(t, ok)
	// the decimal form is rewritten too
	assert.Contains(t, rewritten, `MMEDADDRESS='16'`)
}

func TestRescanMalformedTemplatesSkipped(t *testing.T) {
	r := NewRescanner(driftedImage(), 16, 2)
	catalog := []models.Template{
		{RawXML: `<XDFTABLE><units>ms</units></XDFTABLE>`},                                                        // no EMBEDDEDDATA
		{RawXML: `<EMBEDDEDDATA mmedcolcount="2" mmedrowcount="3" mmedelementsizebits="16" />`},                   // missing address
		{RawXML: `<EMBEDDEDDATA mmedaddress="0x20" mmedcolcount="0" mmedrowcount="3" mmedelementsizebits="16"/>`}, // non-positive dims
		{RawXML: `<EMBEDDEDDATA mmedaddress="0x20" mmedcolcount="2" mmedrowcount="3" mmedelementsizebits="13"/>`}, // odd width
		{RawXML: `<EMBEDDEDDATA mmedaddress="nope" mmedcolcount="2" mmedrowcount="3" mmedelementsizebits="16"/>`}, // bad address
	}
	out := r.Rescan(catalog, nil)
	assert.Empty(t, out)
}

func TestRescanSignedBytes(t *testing.T) {
	// int8 template over a region with negative values
	data := []byte{0x80, 0xFF, 0x01, 0x05, 0x10, 0x20}
	xml := `<EMBEDDEDDATA mmedaddress="0" mmedcolcount="3" mmedrowcount="2" mmedelementsizebits="8" />`

	r := NewRescanner(image.New(data, 0), 0, 1)
	out := r.Rescan([]models.Template{{Datatype: "signed", RawXML: xml}}, nil)

	require.Len(t, out, 1)
	_, ok := out[0]
	assert.True(t, ok)
}

func TestPlausible(t *testing.T) {
	assert.False(t, plausible(nil))
	assert.False(t, plausible([]float64{7, 7, 7}))
	assert.False(t, plausible([]float64{0, 3_000_000, 3_000_001}))
	assert.True(t, plausible([]float64{10, 20, 30}))
	assert.True(t, plausible([]float64{-5, 5}))
}

func TestRewriteAddress(t *testing.T) {
	xml := `<EMBEDDEDDATA mmedaddress="0x00000020" /><DALINK index="32" />`
	out := rewriteAddress(xml, 32, 16)
	assert.Equal(t, `<EMBEDDEDDATA mmedaddress="0x000010" /><DALINK index="16" />`, out)

	// padding-insensitive, case-insensitive hex match
	assert.Equal(t, `a="0x0000FF"`, rewriteAddress(`a="0XfF"`, 255, 255))
}
