package tiler

import (
	"fmt"
	"slices"

	"github.com/matzehuels/imtiler/pkg/grid"
)

// Point is the upper-left coordinate of a tile.
type Point struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Tile is an axis-aligned square covering rows [Row, Row+Dim) and
// columns [Col, Col+Dim).
type Tile struct {
	Row, Col, Dim int
}

// UL returns the tile's upper-left corner.
func (t Tile) UL() Point { return Point{Row: t.Row, Col: t.Col} }

// Rect returns the footprint of t.
func (t Tile) Rect() grid.Rect { return grid.Square(t.Row, t.Col, t.Dim) }

// Within reports whether t fits inside a rows x cols grid.
func (t Tile) Within(rows, cols int) bool {
	return t.Row >= 0 && t.Col >= 0 && t.Row+t.Dim <= rows && t.Col+t.Dim <= cols
}

// String formats t as "row_start row_stop col_start col_stop".
func (t Tile) String() string {
	return fmt.Sprintf("%d %d %d %d", t.Row, t.Row+t.Dim, t.Col, t.Col+t.Dim)
}

// Collection is an ordered, duplicate-free list of accepted upper-left
// coordinates. Scores, when present, runs parallel to Points.
type Collection struct {
	Points []Point
	Scores []float64
}

// Len returns the number of tiles in c.
func (c Collection) Len() int { return len(c.Points) }

// Tiles expands the coordinates into tiles of the given dimension.
func (c Collection) Tiles(dim int) []Tile {
	out := make([]Tile, len(c.Points))
	for i, p := range c.Points {
		out[i] = Tile{Row: p.Row, Col: p.Col, Dim: dim}
	}
	return out
}

// Contains reports whether p is in c.
func (c Collection) Contains(p Point) bool {
	return slices.Contains(c.Points, p)
}

// builder accumulates a Collection while dropping repeated coordinates.
type builder struct {
	seen   map[Point]struct{}
	points []Point
	scores []float64
	scored bool
}

func newBuilder(scored bool) *builder {
	return &builder{seen: make(map[Point]struct{}), scored: scored}
}

// add appends p unless it is already present and reports whether it did.
func (b *builder) add(p Point, score float64) bool {
	if _, dup := b.seen[p]; dup {
		return false
	}
	b.seen[p] = struct{}{}
	b.points = append(b.points, p)
	if b.scored {
		b.scores = append(b.scores, score)
	}
	return true
}

func (b *builder) extend(c Collection) {
	for i, p := range c.Points {
		score := 0.0
		if i < len(c.Scores) {
			score = c.Scores[i]
		}
		b.add(p, score)
	}
}

func (b *builder) len() int { return len(b.points) }

func (b *builder) collection() Collection {
	c := Collection{Points: b.points}
	if b.scored {
		c.Scores = b.scores
	}
	if c.Points == nil {
		c.Points = []Point{}
	}
	return c
}

// Category names one class of sampled tiles.
type Category string

// Tile categories produced by [ClassMaskTiler] and [DetectionTiler].
const (
	Positive      Category = "positive"
	Negative      Category = "negative"
	FalsePositive Category = "falsePositive"
)

// Categories maps each category to its collection.
type Categories map[Category]Collection

// Total returns the number of tiles across all categories.
func (c Categories) Total() int {
	n := 0
	for _, col := range c {
		n += col.Len()
	}
	return n
}

// Names returns the category names: the known categories first, then any
// others sorted.
func (c Categories) Names() []Category {
	known := []Category{Positive, Negative, FalsePositive}
	out := make([]Category, 0, len(c))
	for _, name := range known {
		if _, ok := c[name]; ok {
			out = append(out, name)
		}
	}
	var extra []Category
	for name := range c {
		if !slices.Contains(known, name) {
			extra = append(extra, name)
		}
	}
	slices.Sort(extra)
	return append(out, extra...)
}
