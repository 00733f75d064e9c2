package image

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrOutOfBounds is returned when a read extends past the image buffer.
var ErrOutOfBounds = errors.New("read out of image bounds")

// ByteImage is an immutable random-access view over a loaded firmware image.
// Offsets are byte offsets into the buffer; the base address is informational
// only and never shifts reads.
type ByteImage struct {
	data []byte
	base uint32
}

// New wraps raw image bytes in a ByteImage.
func New(data []byte, baseAddress uint32) *ByteImage {
	return &ByteImage{data: data, base: baseAddress}
}

// Size returns the image length in bytes.
func (img *ByteImage) Size() int {
	return len(img.data)
}

// BaseAddress returns the informational load address of the image.
func (img *ByteImage) BaseAddress() uint32 {
	return img.base
}

// Slice returns the byte range [offset, offset+length).
func (img *ByteImage) Slice(offset, length int) ([]byte, error) {
	if offset < 0 || length < 0 || offset+length > len(img.data) {
		return nil, fmt.Errorf("%w: offset=%d length=%d size=%d", ErrOutOfBounds, offset, length, len(img.data))
	}
	return img.data[offset : offset+length], nil
}

// ReadU16LE reads one little-endian uint16 at offset. No alignment is required.
func (img *ByteImage) ReadU16LE(offset int) (uint16, error) {
	b, err := img.Slice(offset, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadU16LEArray reads count consecutive little-endian uint16 values at offset.
func (img *ByteImage) ReadU16LEArray(offset, count int) ([]uint16, error) {
	b, err := img.Slice(offset, count*2)
	if err != nil {
		return nil, err
	}
	values := make([]uint16, count)
	for i := 0; i < count; i++ {
		values[i] = binary.LittleEndian.Uint16(b[i*2 : i*2+2])
	}
	return values, nil
}
