package io

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/matzehuels/imtiler/pkg/errors"
	"github.com/matzehuels/imtiler/pkg/tiler"
)

// TilesCategory names the collection of single-sampler runs.
const TilesCategory tiler.Category = "tiles"

// Result is the serialised form of one placement run.
type Result struct {
	RunID      string               `json:"run_id"`
	Mode       string               `json:"mode"`
	Source     string               `json:"source,omitempty"`
	Dim        int                  `json:"dim"`
	Rows       int                  `json:"rows"`
	Cols       int                  `json:"cols"`
	Seed       uint64               `json:"seed"`
	CreatedAt  time.Time            `json:"created_at"`
	Categories map[string][][2]int  `json:"categories"`
	Scores     map[string][]float64 `json:"scores,omitempty"`
}

// Meta describes the run a result came from.
type Meta struct {
	Mode   string
	Source string
	Dim    int
	Rows   int
	Cols   int
	Seed   uint64
}

// NewResult builds a result document with a fresh run ID.
func NewResult(meta Meta, cats tiler.Categories) *Result {
	r := &Result{
		RunID:      uuid.NewString(),
		Mode:       meta.Mode,
		Source:     meta.Source,
		Dim:        meta.Dim,
		Rows:       meta.Rows,
		Cols:       meta.Cols,
		Seed:       meta.Seed,
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
		Categories: make(map[string][][2]int, len(cats)),
	}
	for name, c := range cats {
		pts := make([][2]int, len(c.Points))
		for i, p := range c.Points {
			pts[i] = [2]int{p.Row, p.Col}
		}
		r.Categories[string(name)] = pts
		if len(c.Scores) > 0 {
			if r.Scores == nil {
				r.Scores = make(map[string][]float64)
			}
			r.Scores[string(name)] = slices.Clone(c.Scores)
		}
	}
	return r
}

// Single wraps one collection as a result under [TilesCategory].
func Single(meta Meta, c tiler.Collection) *Result {
	return NewResult(meta, tiler.Categories{TilesCategory: c})
}

// TileCategories converts the document back into collections.
func (r *Result) TileCategories() tiler.Categories {
	out := make(tiler.Categories, len(r.Categories))
	for name, pts := range r.Categories {
		c := tiler.Collection{Points: make([]tiler.Point, len(pts))}
		for i, p := range pts {
			c.Points[i] = tiler.Point{Row: p[0], Col: p[1]}
		}
		if s, ok := r.Scores[name]; ok && len(s) == len(pts) {
			c.Scores = slices.Clone(s)
		}
		out[tiler.Category(name)] = c
	}
	return out
}

// Total returns the number of tiles across all categories.
func (r *Result) Total() int {
	n := 0
	for _, pts := range r.Categories {
		n += len(pts)
	}
	return n
}

// Names returns the category names in display order.
func (r *Result) Names() []string {
	var out []string
	for _, name := range r.TileCategories().Names() {
		out = append(out, string(name))
	}
	return out
}

// ScoreStats returns the mean and standard deviation of the scores of a
// category. ok is false when the category has no scores.
func (r *Result) ScoreStats(category string) (mean, std float64, ok bool) {
	s := r.Scores[category]
	if len(s) == 0 {
		return 0, 0, false
	}
	if len(s) == 1 {
		return s[0], 0, true
	}
	mean, std = stat.MeanStdDev(s, nil)
	return mean, std, true
}

// Validate checks that the document describes in-bounds tiles.
func (r *Result) Validate() error {
	if err := errors.ValidateTileDim(r.Dim, r.Rows, r.Cols); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidResult, err, "result %s", r.RunID)
	}
	for name, pts := range r.Categories {
		for _, p := range pts {
			if p[0] < 0 || p[1] < 0 || p[0]+r.Dim > r.Rows || p[1]+r.Dim > r.Cols {
				return errors.New(errors.ErrCodeInvalidResult,
					"%s tile at (%d, %d) exceeds grid %dx%d", name, p[0], p[1], r.Rows, r.Cols)
			}
		}
	}
	for name, s := range r.Scores {
		if len(s) != len(r.Categories[name]) {
			return errors.New(errors.ErrCodeInvalidResult, "%s has %d scores for %d tiles", name, len(s), len(r.Categories[name]))
		}
	}
	return nil
}
