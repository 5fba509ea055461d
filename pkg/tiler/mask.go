package tiler

import (
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/imtiler/pkg/grid"
	"github.com/matzehuels/imtiler/pkg/observability"
)

// MaskSampler places tiles over a validity mask so that each accepted tile
// overlaps previously claimed pixels by at most a bounded fraction.
//
// Candidates are drawn from a coarse grid of tile-aligned positions shifted
// by a fine offset. The sampler keeps a seen counter, initialised with the
// invalid pixels, and increments it over every accepted footprint unless
// sampling with replacement.
type MaskSampler struct {
	opts Options
	dim  int
	rows int
	cols int
	area int

	strict  bool
	maxSeen int
	reinit  bool
	valid   int

	skip *grid.Counter
	seen *grid.Counter

	rowOffsets []int
	colOffsets []int
	tileRows   int
	tileCols   int

	rng    *rand.Rand
	logger *log.Logger
	hooks  observability.TilerHooks

	done   bool
	result Collection
}

// NewMaskSampler returns a sampler over mask for tiles of size dim.
// The mask is copied; later changes to it do not affect the sampler.
func NewMaskSampler(mask *grid.Mask, dim int, opts Options) (*MaskSampler, error) {
	if err := validateDim(dim, mask.Rows, mask.Cols); err != nil {
		return nil, err
	}
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}

	s := &MaskSampler{
		opts:   opts,
		dim:    dim,
		rows:   mask.Rows,
		cols:   mask.Cols,
		area:   dim * dim,
		strict: opts.Accept.Strict(),
		valid:  mask.Count(),
		skip:   grid.SkipCounter(mask),
		rng:    newRand(opts.Seed, opts.stream),
		logger: opts.Logger,
		hooks:  opts.Hooks,
	}
	s.seen = s.skip.Clone()
	s.reinit = *opts.ReinitOnExhaustion && !s.strict

	invalid := 1 - float64(s.valid)/float64(s.rows*s.cols)
	s.maxSeen = opts.Accept.MaxSeen(s.area, invalid)

	rowStep, colStep := axisStrides(s.rows, s.cols)
	s.rowOffsets = blockPermute(stridedRange(dim, rowStep), blockLen, s.rng)
	s.colOffsets = blockPermute(stridedRange(dim, colStep), blockLen, s.rng)
	s.tileRows = ceilDiv(s.rows, dim) + 1
	s.tileCols = ceilDiv(s.cols, dim) + 1
	return s, nil
}

// Dim returns the tile dimension.
func (s *MaskSampler) Dim() int { return s.dim }

// MaxSeen returns the largest number of claimed pixels an accepted tile may
// contain.
func (s *MaskSampler) MaxSeen() int { return s.maxSeen }

// Strict reports whether the sampler runs with the "none" acceptance.
func (s *MaskSampler) Strict() bool { return s.strict }

// SeenFraction returns the fraction of the grid currently claimed.
func (s *MaskSampler) SeenFraction() float64 {
	return float64(s.seen.Integral().Total()) / float64(s.rows*s.cols)
}

// Next searches for a single tile. It returns the tile, the number of
// claimed pixels in its footprint at acceptance, and false if no tile
// could be placed.
func (s *MaskSampler) Next() (Tile, int, bool) {
	nOffsets := len(s.rowOffsets) * len(s.colOffsets)
	nCells := s.tileRows * s.tileCols
	if s.valid == 0 || nOffsets == 0 || nCells == 0 {
		s.logger.Warn("nothing to sample", "valid", s.valid, "offsets", nOffsets, "cells", nCells)
		return Tile{}, 0, false
	}

	offsets := newShuffler(nOffsets, s.rng)
	r, c, _ := s.offset(offsets)
	cells := newShuffler(nCells, s.rng)

	var (
		best     Tile
		bestSeen int
		found    bool
		reinits  int
		draws    int
	)
	for {
		if draws >= s.opts.MaxSearch {
			saturated := found && float64(bestSeen)/float64(s.area) > saturation
			if !s.reinit || (found && !saturated) {
				break
			}
			reinits++
			if reinits > s.opts.MaxReinit {
				s.logger.Warn("reinit limit reached", "reinits", s.opts.MaxReinit)
				return Tile{}, 0, false
			}
			var ok bool
			if r, c, ok = s.offset(offsets); !ok {
				s.logger.Warn("offset pool exhausted")
				return Tile{}, 0, false
			}
			if found {
				cov := s.SeenFraction()
				s.seen.Reset(s.skip)
				s.hooks.OnReinit("mask", cov)
				s.logger.Debug("reinitialised seen state", "coverage", cov, "reinit", reinits)
			}
			cells.reset()
			found, draws = false, 0
			continue
		}

		idx, ok := cells.next()
		if !ok {
			cells.reset()
			r, c = s.perturb(r, c)
			idx, _ = cells.next()
		}
		draws++

		t := Tile{Row: (idx/s.tileCols)*s.dim + r, Col: (idx%s.tileCols)*s.dim + c, Dim: s.dim}
		if !t.Within(s.rows, s.cols) {
			continue
		}
		n := s.seen.Nonzero(t.Rect())
		if !found || s.better(t, n, best, bestSeen) {
			best, bestSeen, found = t, n, true
			if n <= s.maxSeen {
				break
			}
		}
	}
	if !found {
		return Tile{}, 0, false
	}

	if !s.opts.WithReplacement {
		s.seen.Add(best.Rect(), 1)
	}
	return best, bestSeen, true
}

// better reports whether candidate t with n claimed pixels beats best.
// Equal claim counts go to the footprint whose most-claimed pixel has the
// lower count, so stacked overlaps lose to single ones.
func (s *MaskSampler) better(t Tile, n int, best Tile, bestSeen int) bool {
	if n != bestSeen {
		return n < bestSeen
	}
	return s.seen.Peak(t.Rect()) < s.seen.Peak(best.Rect())
}

func (s *MaskSampler) offset(pool *shuffler) (row, col int, ok bool) {
	idx, ok := pool.next()
	if !ok {
		return 0, 0, false
	}
	return s.rowOffsets[idx/len(s.colOffsets)], s.colOffsets[idx%len(s.colOffsets)], true
}

// perturb shifts the offset by one stride along a random axis.
func (s *MaskSampler) perturb(r, c int) (int, int) {
	if s.rng.IntN(2) == 0 {
		r = (r + s.rowOffsets[s.rng.IntN(len(s.rowOffsets))]) % s.dim
	} else {
		c = (c + s.colOffsets[s.rng.IntN(len(s.colOffsets))]) % s.dim
	}
	return r, c
}

// Collect runs up to NumTiles searches and returns the accepted tiles.
// The first call does the work; later calls return the same collection.
func (s *MaskSampler) Collect() Collection {
	if s.done {
		return s.result
	}
	start := time.Now()
	b := newBuilder(true)
	for range s.opts.NumTiles {
		t, seen, ok := s.Next()
		if !ok {
			s.logger.Warn("search exhausted", "collected", b.len(), "requested", s.opts.NumTiles)
			s.hooks.OnExhausted("mask", b.len(), s.opts.NumTiles)
			break
		}
		if s.strict && seen > s.maxSeen {
			s.logger.Debug("discarded overlapping tile", "tile", t, "seen", seen)
			continue
		}
		b.add(t.UL(), float64(seen)/float64(s.area))
	}

	s.result = b.collection()
	s.done = true
	s.hooks.OnCollect("mask", s.opts.NumTiles, s.result.Len(), time.Since(start))
	s.logger.Debug("collected tiles", "sampler", "mask", "tiles", s.result.Len(),
		"requested", s.opts.NumTiles, "coverage", s.SeenFraction())
	return s.result
}
