package tiler

import (
	"maps"
	"reflect"
	"slices"
	"testing"

	"github.com/matzehuels/imtiler/pkg/errors"
	"github.com/matzehuels/imtiler/pkg/grid"
)

func classMasks() (pos, neg, fp *grid.Mask) {
	pos = grid.NewMask(100, 100)
	pos.Fill(grid.Square(20, 20, 10), true)
	pos.Fill(grid.Square(60, 60, 10), true)
	fp = grid.NewMask(100, 100)
	fp.Fill(grid.Square(80, 10, 10), true)
	// Touches the positive region, so every tile centred on it is excluded.
	fp.Fill(grid.Square(30, 22, 4), true)
	return pos, pos.Not(), fp
}

func classOptions() ClassOptions {
	opts := DefaultClassOptions()
	opts.Seed = 21
	opts.Logger = quiet
	return opts
}

func TestClassMaskTilerKeys(t *testing.T) {
	pos, neg, fp := classMasks()
	tl, err := NewClassMaskTiler(pos, neg, fp, 10, classOptions())
	if err != nil {
		t.Fatal(err)
	}
	got := tl.Collect()
	keys := slices.Sorted(maps.Keys(got))
	want := []Category{FalsePositive, Negative, Positive}
	if !slices.Equal(keys, want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}
	if again := tl.Collect(); !reflect.DeepEqual(got, again) {
		t.Error("Collect should return the cached categories")
	}
	for _, c := range got {
		assertInBounds(t, c, 10, 100, 100)
		assertDistinct(t, c)
	}
}

func TestClassMaskTilerCategories(t *testing.T) {
	pos, neg, fp := classMasks()
	tl, err := NewClassMaskTiler(pos, neg, fp, 10, classOptions())
	if err != nil {
		t.Fatal(err)
	}
	got := tl.Collect()

	positive := got[Positive]
	// Centroid tiles come first: nine per region.
	if positive.Len() < 18 {
		t.Errorf("got %d positive tiles, want at least 18", positive.Len())
	}
	if positive.Points[0] != (Point{19, 19}) {
		t.Errorf("first positive tile = %v, want {19 19}", positive.Points[0])
	}

	negative := got[Negative]
	if negative.Len() == 0 || negative.Len() > 25 {
		t.Errorf("got %d negative tiles, want 1..25", negative.Len())
	}
	posIntegral := pos.Integral()
	for _, tile := range negative.Tiles(10) {
		if posIntegral.Sum(tile.Rect()) != 0 {
			t.Errorf("negative tile %v touches the positive mask", tile)
		}
	}

	if fps := got[FalsePositive]; !slices.Equal(fps.Points, []Point{{79, 9}}) {
		t.Errorf("false positives = %v, want [{79 9}]", fps.Points)
	}
}

func TestClassMaskTilerMatchPositive(t *testing.T) {
	pos, neg, _ := classMasks()
	opts := classOptions()
	opts.NumNegative = MatchPositive
	opts.NumExtraPositive = 0
	opts.PositiveConn = 1
	tl, err := NewClassMaskTiler(pos, neg, nil, 10, opts)
	if err != nil {
		t.Fatal(err)
	}
	got := tl.Collect()
	if got[Positive].Len() != 2 {
		t.Errorf("got %d positive tiles, want 2", got[Positive].Len())
	}
	if n := got[Negative].Len(); n == 0 || n > 2 {
		t.Errorf("got %d negative tiles, want 1..2", n)
	}
	if got[FalsePositive].Len() != 0 {
		t.Errorf("expected no false positives, got %v", got[FalsePositive].Points)
	}
}

func TestClassMaskTilerFalsePositiveCap(t *testing.T) {
	pos := grid.NewMask(100, 100)
	pos.Fill(grid.Square(0, 0, 5), true)
	fp := grid.NewMask(100, 100)
	for i := range 5 {
		fp.Fill(grid.Square(20+i*15, 50, 3), true)
	}
	opts := classOptions()
	opts.MaxFalsePositive = 2
	opts.NumExtraPositive = 0
	tl, err := NewClassMaskTiler(pos, pos.Not(), fp, 10, opts)
	if err != nil {
		t.Fatal(err)
	}
	if n := tl.Collect()[FalsePositive].Len(); n != 2 {
		t.Errorf("got %d false positive tiles, want 2", n)
	}
}

func TestClassMaskTilerLabeler(t *testing.T) {
	pos, neg, _ := classMasks()
	calls := 0
	opts := classOptions()
	opts.NumExtraPositive = 0
	opts.PositiveConn = 1
	opts.Labeler = LabelerFunc(func(m *grid.Mask) *grid.Labels {
		calls++
		// Treat the whole foreground as a single region.
		l := grid.NewLabels(m.Rows, m.Cols)
		for r := range m.Rows {
			for c := range m.Cols {
				if m.At(r, c) {
					l.Set(r, c, 1)
				}
			}
		}
		return l
	})
	tl, err := NewClassMaskTiler(pos, neg, nil, 10, opts)
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("labeler called %d times, want 1", calls)
	}
	if n := tl.Collect()[Positive].Len(); n != 1 {
		t.Errorf("got %d positive tiles, want 1", n)
	}
}

func TestClassMaskTilerErrors(t *testing.T) {
	pos, _, _ := classMasks()
	if _, err := NewClassMaskTiler(pos, grid.NewMask(50, 100), nil, 10, classOptions()); !errors.Is(err, errors.ErrCodeShapeMismatch) {
		t.Errorf("expected SHAPE_MISMATCH, got %v", err)
	}
	opts := classOptions()
	opts.PositiveConn = 2
	if _, err := NewClassMaskTiler(pos, pos.Not(), nil, 10, opts); !errors.Is(err, errors.ErrCodeInvalidConnectivity) {
		t.Errorf("expected INVALID_CONNECTIVITY, got %v", err)
	}
	opts = classOptions()
	opts.ExtraMode = "grid"
	if _, err := NewClassMaskTiler(pos, pos.Not(), nil, 10, opts); !errors.Is(err, errors.ErrCodeInvalidMode) {
		t.Errorf("expected INVALID_MODE, got %v", err)
	}
}

func TestDetectionTiler(t *testing.T) {
	det := grid.NewMask(100, 100)
	det.Fill(grid.Square(10, 10, 6), true)
	det.Fill(grid.Square(70, 40, 6), true)
	tl, err := NewDetectionTiler(det, 10, classOptions())
	if err != nil {
		t.Fatal(err)
	}
	got := tl.Collect()
	keys := slices.Sorted(maps.Keys(got))
	if !slices.Equal(keys, []Category{Negative, Positive}) {
		t.Fatalf("keys = %v, want [negative positive]", keys)
	}
	if !slices.Equal(got[Positive].Points, []Point{{7, 7}, {67, 37}}) {
		t.Errorf("positive = %v", got[Positive].Points)
	}
	if n := got[Negative].Len(); n == 0 || n > 2 {
		t.Errorf("got %d negative tiles, want 1..2", n)
	}
	detIntegral := det.Integral()
	for _, tile := range got[Negative].Tiles(10) {
		if detIntegral.Sum(tile.Rect()) != 0 {
			t.Errorf("negative tile %v touches a detection", tile)
		}
	}
	if again := tl.Collect(); !reflect.DeepEqual(got, again) {
		t.Error("Collect should return the cached categories")
	}
}
