package tiler

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/imtiler/pkg/errors"
	"github.com/matzehuels/imtiler/pkg/grid"
	"github.com/matzehuels/imtiler/pkg/observability"
)

// CoverageSampler places tiles that each contain at least a fixed fraction
// of all valid pixels. It suits small regions such as a single labelled
// instance, where every tile should show most of the region.
type CoverageSampler struct {
	opts    Options
	dim     int
	rows    int
	cols    int
	valid   *grid.Integral
	total   int
	minimum int

	// candidate upper-left points span [row0, row1] x [col0, col1]
	row0, col0 int
	width      int
	exclude    map[Point]struct{}
	visit      *shuffler

	rng    *rand.Rand
	logger *log.Logger
	hooks  observability.TilerHooks

	done   bool
	result Collection
}

// NewCoverageSampler returns a sampler over mask for tiles of size dim.
// It fails with EMPTY_MASK when mask has no valid pixel.
func NewCoverageSampler(mask *grid.Mask, dim int, opts Options) (*CoverageSampler, error) {
	if err := validateDim(dim, mask.Rows, mask.Cols); err != nil {
		return nil, err
	}
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	bounds, ok := mask.Bounds()
	if !ok {
		return nil, errors.New(errors.ErrCodeEmptyMask, "mask has no valid pixels")
	}

	s := &CoverageSampler{
		opts:    opts,
		dim:     dim,
		rows:    mask.Rows,
		cols:    mask.Cols,
		valid:   mask.Integral(),
		exclude: make(map[Point]struct{}, len(opts.Exclude)),
		rng:     newRand(opts.Seed, opts.stream),
		logger:  opts.Logger,
		hooks:   opts.Hooks,
	}
	s.total = s.valid.Total()
	s.minimum = max(1, int(math.Ceil(opts.MinCoverage*float64(s.total)-fracEps)))
	for _, p := range opts.Exclude {
		s.exclude[p] = struct{}{}
	}

	lastRow, lastCol := s.rows-dim, s.cols-dim
	s.row0, s.col0 = min(bounds.Row0, lastRow), min(bounds.Col0, lastCol)
	row1, col1 := min(bounds.Row1-1, lastRow), min(bounds.Col1-1, lastCol)
	s.width = col1 - s.col0 + 1
	s.visit = newShuffler((row1-s.row0+1)*s.width, s.rng)
	return s, nil
}

// Dim returns the tile dimension.
func (s *CoverageSampler) Dim() int { return s.dim }

// Threshold returns the number of valid pixels a tile must contain.
func (s *CoverageSampler) Threshold() int { return s.minimum }

// Next returns the next unvisited candidate meeting the coverage threshold.
// A single call examines at most one full pass over the candidates.
func (s *CoverageSampler) Next() (Tile, bool) {
	for range s.visit.n {
		idx, ok := s.visit.next()
		if !ok {
			s.visit.reset()
			idx, _ = s.visit.next()
		}
		t := Tile{Row: s.row0 + idx/s.width, Col: s.col0 + idx%s.width, Dim: s.dim}
		if _, skip := s.exclude[t.UL()]; skip {
			continue
		}
		if s.valid.Sum(t.Rect()) >= s.minimum {
			return t, true
		}
	}
	return Tile{}, false
}

// Collect runs up to NumTiles searches and returns the accepted tiles.
// Scores hold the fraction of the valid pixels inside each tile.
func (s *CoverageSampler) Collect() Collection {
	if s.done {
		return s.result
	}
	start := time.Now()
	b := newBuilder(true)
	for range s.opts.NumTiles {
		t, ok := s.Next()
		if !ok {
			s.logger.Warn("no candidate meets coverage", "collected", b.len(),
				"requested", s.opts.NumTiles, "threshold", s.minimum)
			s.hooks.OnExhausted("coverage", b.len(), s.opts.NumTiles)
			break
		}
		b.add(t.UL(), float64(s.valid.Sum(t.Rect()))/float64(s.total))
	}

	s.result = b.collection()
	s.done = true
	s.hooks.OnCollect("coverage", s.opts.NumTiles, s.result.Len(), time.Since(start))
	s.logger.Debug("collected tiles", "sampler", "coverage", "tiles", s.result.Len(), "requested", s.opts.NumTiles)
	return s.result
}
