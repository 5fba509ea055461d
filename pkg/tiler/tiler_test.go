package tiler

import (
	"io"
	"slices"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/imtiler/pkg/grid"
)

var quiet = log.New(io.Discard)

func overlaps(a, b Tile) bool {
	return !a.Rect().Intersect(b.Rect()).Empty()
}

func assertInBounds(t *testing.T, c Collection, dim, rows, cols int) {
	t.Helper()
	for _, tile := range c.Tiles(dim) {
		if !tile.Within(rows, cols) {
			t.Errorf("tile %v out of bounds for %dx%d", tile, rows, cols)
		}
	}
}

func assertDistinct(t *testing.T, c Collection) {
	t.Helper()
	seen := make(map[Point]bool)
	for _, p := range c.Points {
		if seen[p] {
			t.Errorf("duplicate point %v", p)
		}
		seen[p] = true
	}
}

func blobs(rows, cols, size int, corners ...Point) *grid.Labels {
	l := grid.NewLabels(rows, cols)
	for i, p := range corners {
		l.Fill(grid.Square(p.Row, p.Col, size), i+1)
	}
	return l
}

func TestShuffler(t *testing.T) {
	s := newShuffler(50, newRand(1, 0))
	var got []int
	for {
		v, ok := s.next()
		if !ok {
			break
		}
		got = append(got, v)
	}
	if len(got) != 50 {
		t.Fatalf("drew %d values, want 50", len(got))
	}
	sorted := slices.Sorted(slices.Values(got))
	for i, v := range sorted {
		if v != i {
			t.Fatalf("not a permutation: %v", sorted)
		}
	}
	if s.remaining() != 0 {
		t.Errorf("remaining = %d, want 0", s.remaining())
	}

	s.reset()
	if s.remaining() != 50 {
		t.Errorf("remaining after reset = %d, want 50", s.remaining())
	}
}

func TestShufflerEmpty(t *testing.T) {
	s := newShuffler(0, newRand(1, 0))
	if _, ok := s.next(); ok {
		t.Error("empty shuffler should not yield")
	}
}

func TestBlockPermute(t *testing.T) {
	tests := []struct {
		n     int
		block int
	}{
		{100, blockLen},
		{30, blockLen},
		{7, blockLen},
		{1, blockLen},
	}
	for _, tt := range tests {
		got := blockPermute(stridedRange(tt.n, 1), tt.block, newRand(7, 0))
		if !slices.Equal(slices.Sorted(slices.Values(got)), stridedRange(tt.n, 1)) {
			t.Errorf("n=%d: blockPermute should permute its input: %v", tt.n, got)
		}
		// Values stay inside their source block.
		b := max(min(tt.n/2, tt.block), 1)
		for i, v := range got {
			if v/b != i/b {
				t.Errorf("n=%d: value %d moved from block %d to %d", tt.n, v, v/b, i/b)
			}
		}
	}
}

func TestAxisStrides(t *testing.T) {
	tests := []struct {
		rows, cols   int
		rowStep, col int
	}{
		{100, 100, 1, 1},
		{300, 100, 3, 1},
		{100, 250, 1, 3},
		{10, 11, 1, 2},
	}
	for _, tt := range tests {
		r, c := axisStrides(tt.rows, tt.cols)
		if r != tt.rowStep || c != tt.col {
			t.Errorf("axisStrides(%d, %d) = %d, %d; want %d, %d", tt.rows, tt.cols, r, c, tt.rowStep, tt.col)
		}
	}
}

func TestStridedRange(t *testing.T) {
	if got := stridedRange(10, 3); !slices.Equal(got, []int{0, 3, 6, 9}) {
		t.Errorf("stridedRange(10, 3) = %v", got)
	}
}

func TestCollectionTiles(t *testing.T) {
	c := Collection{Points: []Point{{1, 2}, {3, 4}}}
	tiles := c.Tiles(5)
	if len(tiles) != 2 || tiles[1] != (Tile{Row: 3, Col: 4, Dim: 5}) {
		t.Errorf("Tiles = %v", tiles)
	}
	if !c.Contains(Point{3, 4}) || c.Contains(Point{4, 3}) {
		t.Error("Contains mismatch")
	}
	if got := tiles[0].String(); got != "1 6 2 7" {
		t.Errorf("String = %q", got)
	}
}

func TestBuilderDropsDuplicates(t *testing.T) {
	b := newBuilder(true)
	b.add(Point{1, 1}, 0.1)
	b.add(Point{2, 2}, 0.2)
	if b.add(Point{1, 1}, 0.3) {
		t.Error("duplicate add should report false")
	}
	c := b.collection()
	if !slices.Equal(c.Points, []Point{{1, 1}, {2, 2}}) {
		t.Errorf("Points = %v", c.Points)
	}
	if !slices.Equal(c.Scores, []float64{0.1, 0.2}) {
		t.Errorf("Scores = %v", c.Scores)
	}
}

func TestCategoriesNames(t *testing.T) {
	c := Categories{"zeta": {}, Negative: {}, Positive: {}, "alpha": {}}
	got := c.Names()
	want := []Category{Positive, Negative, "alpha", "zeta"}
	if !slices.Equal(got, want) {
		t.Errorf("Names = %v, want %v", got, want)
	}
}

func TestOptionsDefaults(t *testing.T) {
	o, err := Options{}.withDefaults()
	if err != nil {
		t.Fatal(err)
	}
	if o.NumTiles != DefaultNumTiles || o.MaxSearch != DefaultMaxSearch || o.MaxReinit != DefaultMaxReinit {
		t.Errorf("unexpected defaults: %+v", o)
	}
	if o.MinCoverage != DefaultMinCoverage || o.Conn != DefaultConn {
		t.Errorf("unexpected defaults: %+v", o)
	}
	if o.ReinitOnExhaustion == nil || !*o.ReinitOnExhaustion {
		t.Error("ReinitOnExhaustion should default to true")
	}
	if o.Logger == nil || o.Hooks == nil {
		t.Error("Logger and Hooks should be set")
	}
}

func TestOptionsPercentCoverage(t *testing.T) {
	o, err := Options{MinCoverage: 60}.withDefaults()
	if err != nil {
		t.Fatal(err)
	}
	if o.MinCoverage != 0.6 {
		t.Errorf("MinCoverage = %v, want 0.6", o.MinCoverage)
	}
}
