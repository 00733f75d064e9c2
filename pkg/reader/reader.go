// Package reader loads the session inputs: the firmware image, the optional
// templates catalog, the optional disassembler export, and previously
// persisted scan results. All failures here surface to the caller before the
// core is entered.
package reader

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/tosih/ms42-map-tool/pkg/image"
	"github.com/tosih/ms42-map-tool/pkg/models"
)

var (
	// ErrRead marks a file that could not be opened or read.
	ErrRead = errors.New("input read failure")
	// ErrDecode marks malformed JSON input.
	ErrDecode = errors.New("input decode failure")
)

// LoadImage reads a firmware binary into a ByteImage.
func LoadImage(path string, baseAddress uint32) (*image.ByteImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRead, err)
	}
	return image.New(data, baseAddress), nil
}

// LoadTemplates reads a JSON catalog of known-map templates. Unknown fields
// are ignored.
func LoadTemplates(path string) ([]models.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRead, err)
	}
	var catalog []models.Template
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	return catalog, nil
}

// LoadHints reads a disassembler symbol/xref export.
func LoadHints(path string) (*models.DisassemblerHints, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRead, err)
	}
	var hints models.DisassemblerHints
	if err := json.Unmarshal(data, &hints); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	return &hints, nil
}

// LoadMaps reads a maps.json file produced by a prior scan.
func LoadMaps(path string) ([]*models.DetectedMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRead, err)
	}
	var maps []*models.DetectedMap
	if err := json.Unmarshal(data, &maps); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	return maps, nil
}
