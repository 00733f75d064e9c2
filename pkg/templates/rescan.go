// Package templates relocates known calibration tables in a drifted image.
//
// A template carries an XDF fragment whose EMBEDDEDDATA attributes record
// where the table used to live. When a new firmware revision shifts the
// table, the rescanner sweeps a window around the recorded address for a
// byte region that still looks like table data at the template's dimensions,
// then rewrites the fragment's address references to the new offset.
package templates

import (
	"encoding/binary"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/cast"

	"github.com/tosih/ms42-map-tool/pkg/correlate"
	"github.com/tosih/ms42-map-tool/pkg/image"
	"github.com/tosih/ms42-map-tool/pkg/models"
)

// ErrMalformedTemplate marks a template whose EMBEDDEDDATA attributes are
// missing or unparseable. Malformed templates are skipped, never fatal.
var ErrMalformedTemplate = errors.New("malformed template")

const (
	// DefaultSearchRange is how far each side of the recorded address is swept.
	DefaultSearchRange = 4096
	// DefaultStride is the sweep step in bytes.
	DefaultStride = 2
)

var embeddedRe = regexp.MustCompile(`(?is)<EMBEDDEDDATA\b[^>]*>`)

// embedded is one parsed EMBEDDEDDATA element.
type embedded struct {
	address int
	rows    int
	cols    int
	width   int // element size in bytes: 1, 2 or 4
}

// Rescanner sweeps templates against one image.
type Rescanner struct {
	img         *image.ByteImage
	searchRange int
	stride      int
}

// NewRescanner creates a Rescanner; a negative searchRange or a non-positive
// stride selects the default. A zero searchRange sweeps only the recorded
// address.
func NewRescanner(img *image.ByteImage, searchRange, stride int) *Rescanner {
	if searchRange < 0 {
		searchRange = DefaultSearchRange
	}
	if stride <= 0 {
		stride = DefaultStride
	}
	return &Rescanner{img: img, searchRange: searchRange, stride: stride}
}

// Rescan sweeps every template and returns address-rewritten XDF fragments
// keyed by the offset where the table was relocated. Offsets already pinned
// in knownByOffset are never reused or overlapped. Malformed templates are
// skipped; the rescan itself never fails.
func (r *Rescanner) Rescan(catalog []models.Template, knownByOffset map[int]string) map[int]string {
	out := make(map[int]string)
	for _, tpl := range catalog {
		off, xml, err := r.rescanTemplate(tpl, knownByOffset)
		if err != nil || xml == "" {
			continue
		}
		out[off] = xml
	}
	return out
}

// rescanTemplate sweeps one template; the first plausible offset wins.
func (r *Rescanner) rescanTemplate(tpl models.Template, known map[int]string) (int, string, error) {
	tags := embeddedRe.FindAllString(tpl.RawXML, -1)
	if len(tags) == 0 {
		return 0, "", fmt.Errorf("%w: no EMBEDDEDDATA element", ErrMalformedTemplate)
	}

	signed := strings.EqualFold(tpl.Datatype, "signed")

	for _, tag := range tags {
		emb, err := parseEmbedded(tag)
		if err != nil {
			return 0, "", err
		}

		bytesNeeded := emb.cols * emb.rows * emb.width
		lo := emb.address - r.searchRange
		if lo < 0 {
			lo = 0
		}
		hi := emb.address + r.searchRange
		if m := r.img.Size() - bytesNeeded; hi > m {
			hi = m
		}

		for off := lo; off <= hi; off += r.stride {
			if _, pinned := known[off]; pinned {
				continue
			}
			values, err := r.readValues(off, emb.cols*emb.rows, emb.width, signed)
			if err != nil {
				continue
			}
			if !plausible(values) {
				continue
			}
			if overlapsKnown(off, bytesNeeded, known) {
				continue
			}
			return off, rewriteAddress(tpl.RawXML, emb.address, off), nil
		}
	}
	return 0, "", nil
}

// parseEmbedded extracts address and dimensions from one EMBEDDEDDATA tag.
func parseEmbedded(tag string) (embedded, error) {
	addrStr, ok := attrValue(tag, "mmedaddress")
	if !ok {
		return embedded{}, fmt.Errorf("%w: missing mmedaddress", ErrMalformedTemplate)
	}
	addr, err := strconv.ParseInt(strings.TrimSpace(addrStr), 0, 64)
	if err != nil || addr < 0 {
		return embedded{}, fmt.Errorf("%w: bad mmedaddress %q", ErrMalformedTemplate, addrStr)
	}

	cols := intAttr(tag, "colcount", "mmedcolcount")
	rows := intAttr(tag, "rowcount", "mmedrowcount")
	bits := intAttr(tag, "mmedelementsizebits", "mmedelementsize")
	if cols <= 0 || rows <= 0 || bits <= 0 {
		return embedded{}, fmt.Errorf("%w: non-positive dimensions", ErrMalformedTemplate)
	}
	width := bits / 8
	if bits%8 != 0 || (width != 1 && width != 2 && width != 4) {
		return embedded{}, fmt.Errorf("%w: unsupported element size %d bits", ErrMalformedTemplate, bits)
	}

	return embedded{address: int(addr), rows: rows, cols: cols, width: width}, nil
}

// attrValue finds a named attribute in a tag, case-insensitively, accepting
// single or double quotes.
func attrValue(tag, name string) (string, bool) {
	re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(name) + `\s*=\s*(?:"([^"]*)"|'([^']*)')`)
	m := re.FindStringSubmatch(tag)
	if m == nil {
		return "", false
	}
	if m[1] != "" {
		return m[1], true
	}
	return m[2], true
}

// intAttr returns the value of the first of the named attributes present in
// the tag, as an int. It returns 0 when none is present or when that first
// present value does not parse; later names are not tried in that case.
func intAttr(tag string, names ...string) int {
	for _, name := range names {
		if s, ok := attrValue(tag, name); ok {
			return cast.ToInt(strings.TrimSpace(s))
		}
	}
	return 0
}

// readValues decodes count little-endian elements of the given width.
func (r *Rescanner) readValues(offset, count, width int, signed bool) ([]float64, error) {
	b, err := r.img.Slice(offset, count*width)
	if err != nil {
		return nil, err
	}
	values := make([]float64, count)
	for i := 0; i < count; i++ {
		chunk := b[i*width : (i+1)*width]
		var v float64
		switch width {
		case 1:
			if signed {
				v = float64(int8(chunk[0]))
			} else {
				v = float64(chunk[0])
			}
		case 2:
			u := binary.LittleEndian.Uint16(chunk)
			if signed {
				v = float64(int16(u))
			} else {
				v = float64(u)
			}
		case 4:
			u := binary.LittleEndian.Uint32(chunk)
			if signed {
				v = float64(int32(u))
			} else {
				v = float64(u)
			}
		}
		values[i] = v
	}
	return values, nil
}

// plausible rejects constant blocks and obvious garbage such as pointer
// tables with huge magnitudes.
func plausible(values []float64) bool {
	if len(values) == 0 {
		return false
	}
	min, max := correlate.MinMax(values)
	if max-min <= 0 {
		return false
	}
	mean := correlate.Mean(values)
	if mean < 0 {
		mean = -mean
	}
	return mean <= 1_000_000
}

// overlapsKnown reports whether [off, off+n) intersects any pinned region.
func overlapsKnown(off, n int, known map[int]string) bool {
	for koff := range known {
		if off < koff+n && koff < off+n {
			return true
		}
	}
	return false
}

// rewriteAddress replaces every occurrence of the original address in the
// fragment, both as zero-padded hex and as decimal, with the new offset.
func rewriteAddress(xml string, orig, off int) string {
	hexRe := regexp.MustCompile(`(?i)\b0x0*` + strconv.FormatInt(int64(orig), 16) + `\b`)
	out := hexRe.ReplaceAllLiteralString(xml, fmt.Sprintf("0x%06X", off))

	decRe := regexp.MustCompile(`\b` + strconv.Itoa(orig) + `\b`)
	return decRe.ReplaceAllLiteralString(out, strconv.Itoa(off))
}
