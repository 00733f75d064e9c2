// Package scanner locates candidate calibration tables in a firmware image.
//
// The brute scanner slides over every byte offset and tries every column
// count, accepting a region when all adjacent rows correlate strongly. Work
// is split across parallel workers over disjoint byte ranges with a bounded
// overlap so candidates straddling a cut are not lost.
package scanner

import (
	"context"
	"math"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/tosih/ms42-map-tool/pkg/correlate"
	"github.com/tosih/ms42-map-tool/pkg/image"
	"github.com/tosih/ms42-map-tool/pkg/models"
)

// ElementSize is the table element width in bytes. The brute path scans
// little-endian unsigned 16-bit elements only.
const ElementSize = 2

const (
	corrThreshold    = 0.85
	maxOverlap       = 4096
	progressInterval = 10000
)

// Options configures a scan. Zero values select the defaults.
type Options struct {
	MinRows int // minimum (and emitted) row count, default 3
	MaxCols int // largest column count tried per offset, default 128
	Workers int // parallel workers, default number of CPUs

	// Hints is the optional disassembler export consulted by the classifier.
	Hints *models.DisassemblerHints

	// Progress, when set, receives (scanned, limit) every 10000 offset
	// visits. Advisory only; it may be called from multiple goroutines.
	Progress func(scanned, limit int)
}

// Scanner runs the brute-force table search over one image.
type Scanner struct {
	img  *image.ByteImage
	opts Options
}

// New creates a Scanner, applying defaults for unset options.
func New(img *image.ByteImage, opts Options) *Scanner {
	if opts.MinRows <= 0 {
		opts.MinRows = 3
	}
	if opts.MaxCols <= 0 {
		opts.MaxCols = 128
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	return &Scanner{img: img, opts: opts}
}

// Scan enumerates candidate tables and returns them deduplicated by
// (offset, rows, cols). The result order is unspecified. An empty result is
// legitimate; the only error returned is a cancelled context.
func (s *Scanner) Scan(ctx context.Context) ([]*models.DetectedMap, error) {
	minRows := s.opts.MinRows
	size := s.img.Size()

	// the smallest emittable table is minRows x 2 elements
	if size < ElementSize*minRows*2 {
		return nil, nil
	}
	limit := size - ElementSize*minRows
	if limit <= 0 {
		return nil, nil
	}

	workers := s.opts.Workers
	chunkSize := limit / workers
	if chunkSize < 1 {
		chunkSize = 1
	}

	// A candidate starting near a worker's cut needs up to
	// maxCols*minRows*ElementSize bytes of body past it, so workers scan
	// that many extra start offsets; deduplication absorbs the redundancy.
	overlap := s.opts.MaxCols * minRows * ElementSize
	if overlap > maxOverlap {
		overlap = maxOverlap
	}

	var (
		mu      sync.Mutex
		found   []*models.DetectedMap
		scanned atomic.Int64
	)

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		start := i * chunkSize
		if start >= limit {
			break
		}
		end := limit
		if i != workers-1 {
			end = start + chunkSize + overlap
			if end > limit {
				end = limit
			}
		}
		if end <= start {
			continue
		}
		g.Go(func() error {
			local, err := s.scanRange(ctx, start, end, limit, &scanned)
			if err != nil {
				return err
			}
			mu.Lock()
			found = append(found, local...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return dedupe(found), nil
}

// scanRange runs the per-offset inner loop over [start, end).
func (s *Scanner) scanRange(ctx context.Context, start, end, limit int, scanned *atomic.Int64) ([]*models.DetectedMap, error) {
	minRows := s.opts.MinRows
	size := s.img.Size()

	var local []*models.DetectedMap
	for o := start; o < end; o++ {
		if o&0x0FFF == 0 && ctx.Err() != nil {
			return nil, ctx.Err()
		}

		for cols := 2; cols <= s.opts.MaxCols; cols++ {
			if o+cols*minRows*ElementSize > size {
				break
			}
			arr, err := s.img.ReadU16LEArray(o, cols*minRows)
			if err != nil {
				continue
			}
			if !rowsCorrelated(arr, minRows, cols) {
				continue
			}

			values := make([]int, len(arr))
			for i, v := range arr {
				values[i] = int(v)
			}
			m := models.NewDetectedMap("AutoDetect", o, minRows, cols, values)
			m.Score = 1.0
			m.AxisX, m.AxisY = SniffAxes(s.img, o, minRows, cols)
			m.Type = Classify(arr, m.AxisX, s.opts.Hints, o)
			local = append(local, m)
		}

		if n := scanned.Add(1); s.opts.Progress != nil && n%progressInterval == 0 {
			s.opts.Progress(int(n), limit)
		}
	}
	return local, nil
}

// rowsCorrelated reports whether every adjacent row pair of the row-major
// rows*cols block correlates with |r| >= 0.85.
func rowsCorrelated(arr []uint16, rows, cols int) bool {
	vals := make([]float64, len(arr))
	for i, v := range arr {
		vals[i] = float64(v)
	}
	for r := 0; r < rows-1; r++ {
		c := correlate.Pearson(vals[r*cols:(r+1)*cols], vals[(r+1)*cols:(r+2)*cols])
		if math.Abs(c) < corrThreshold {
			return false
		}
	}
	return true
}

// dedupe keeps one representative per MapKey, first wins.
func dedupe(maps []*models.DetectedMap) []*models.DetectedMap {
	seen := make(map[models.MapKey]struct{}, len(maps))
	var out []*models.DetectedMap
	for _, m := range maps {
		if _, ok := seen[m.Key()]; ok {
			continue
		}
		seen[m.Key()] = struct{}{}
		out = append(out, m)
	}
	return out
}
