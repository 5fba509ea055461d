package tiler

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/imtiler/pkg/grid"
	"github.com/matzehuels/imtiler/pkg/observability"
)

// RectPlacer centres tiles on the centroid of every labelled region and,
// depending on the connectivity, adds satellite tiles around it.
//
//	conn 1  the centre tile only
//	conn 4  plus four tiles offset by a quarter tile diagonally
//	conn 8  plus four more offset by an eighth tile
//
// Placement is deterministic.
type RectPlacer struct {
	labels  *grid.Labels
	dim     int
	conn    int
	subset  []int
	exclude *grid.Integral

	logger *log.Logger
	hooks  observability.TilerHooks

	done   bool
	result Collection
}

// NewRectPlacer returns a placer over labels for tiles of size dim.
func NewRectPlacer(labels *grid.Labels, dim int, opts Options) (*RectPlacer, error) {
	if err := validateDim(dim, labels.Rows, labels.Cols); err != nil {
		return nil, err
	}
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	p := &RectPlacer{
		labels: labels.Clone(),
		dim:    dim,
		conn:   opts.Conn,
		subset: opts.Labels,
		logger: opts.Logger,
		hooks:  opts.Hooks,
	}
	if opts.Exclusion != nil {
		if err := validateShape("exclusion", opts.Exclusion, labels.Rows, labels.Cols); err != nil {
			return nil, err
		}
		p.exclude = opts.Exclusion.Integral()
	}
	if p.subset == nil {
		p.subset = p.labels.Unique()
	}
	return p, nil
}

// Dim returns the tile dimension.
func (p *RectPlacer) Dim() int { return p.dim }

// offsets returns the (row, col) shifts applied to the centre tile.
func (p *RectPlacer) offsets() [][2]int {
	out := [][2]int{{0, 0}}
	if p.conn >= 4 {
		q := p.dim / 4
		out = append(out, [2]int{-q, -q}, [2]int{-q, q}, [2]int{q, -q}, [2]int{q, q})
	}
	if p.conn >= 8 {
		e := p.dim / 8
		out = append(out, [2]int{-e, -e}, [2]int{-e, e}, [2]int{e, -e}, [2]int{e, e})
	}
	return out
}

// Place returns the tiles for a single label, or nil if the label has no
// pixels.
func (p *RectPlacer) Place(label int) []Tile {
	cr, cc, ok := p.labels.Centroid(label)
	if !ok {
		return nil
	}
	var out []Tile
	for _, off := range p.offsets() {
		t := Tile{
			Row: clamp(cr-p.dim/2+off[0], 0, p.labels.Rows-p.dim),
			Col: clamp(cc-p.dim/2+off[1], 0, p.labels.Cols-p.dim),
			Dim: p.dim,
		}
		if p.exclude != nil && p.exclude.Sum(t.Rect()) > 0 {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Collect places tiles for every label and returns them in label order.
func (p *RectPlacer) Collect() Collection {
	if p.done {
		return p.result
	}
	start := time.Now()
	b := newBuilder(false)
	for _, label := range p.subset {
		for _, t := range p.Place(label) {
			b.add(t.UL(), 0)
		}
	}
	p.result = b.collection()
	p.done = true
	p.hooks.OnCollect("rect", len(p.subset), p.result.Len(), time.Since(start))
	p.logger.Debug("placed tiles", "sampler", "rect", "labels", len(p.subset), "tiles", p.result.Len(), "conn", p.conn)
	return p.result
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
