package imageio

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/matzehuels/imtiler/pkg/errors"
	"github.com/matzehuels/imtiler/pkg/grid"
	"github.com/matzehuels/imtiler/pkg/tiler"
)

var quiet = log.New(io.Discard)

func gradient(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetGray(x, y, color.Gray{Y: uint8(1 + (x+y)%250)})
		}
	}
	return img
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestMaskRoundTrip(t *testing.T) {
	m := grid.MaskFromRows([]string{
		"#..#",
		".##.",
		"....",
	})
	path := filepath.Join(t.TempDir(), "mask.png")
	writePNG(t, path, MaskImage(m))

	got, err := LoadMask(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Rows != 3 || got.Cols != 4 || got.Count() != 4 {
		t.Fatalf("mask %dx%d with %d valid pixels", got.Rows, got.Cols, got.Count())
	}
	for r := range m.Rows {
		for c := range m.Cols {
			if got.At(r, c) != m.At(r, c) {
				t.Errorf("pixel (%d, %d) = %v, want %v", r, c, got.At(r, c), m.At(r, c))
			}
		}
	}
}

func TestDecodeFormats(t *testing.T) {
	src := MaskImage(grid.MaskFromRows([]string{"#.", ".#"}))
	encoders := map[string]func(io.Writer, image.Image) error{
		"png":  png.Encode,
		"bmp":  bmp.Encode,
		"tiff": func(w io.Writer, img image.Image) error { return tiff.Encode(w, img, nil) },
	}
	for name, enc := range encoders {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := enc(&buf, src); err != nil {
				t.Fatal(err)
			}
			m, err := DecodeMask(&buf)
			if err != nil {
				t.Fatal(err)
			}
			if m.Count() != 2 || !m.At(0, 0) || !m.At(1, 1) {
				t.Errorf("decoded mask mismatch: %d valid", m.Count())
			}
		})
	}
}

func TestDecodeInvalid(t *testing.T) {
	if _, err := DecodeMask(strings.NewReader("not an image")); !errors.Is(err, errors.ErrCodeInvalidImage) {
		t.Errorf("expected INVALID_IMAGE, got %v", err)
	}
	if _, err := LoadImage(filepath.Join(t.TempDir(), "missing.png")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("expected FILE_NOT_FOUND, got %v", err)
	}
}

func TestLabelsFromImage(t *testing.T) {
	img := image.NewGray16(image.Rect(0, 0, 3, 2))
	img.SetGray16(0, 0, color.Gray16{Y: 1})
	img.SetGray16(2, 1, color.Gray16{Y: 300})
	l := LabelsFromImage(img)
	if l.At(0, 0) != 1 || l.At(1, 2) != 300 || l.At(0, 1) != 0 {
		t.Errorf("labels = %v", l.Unique())
	}

	pal := image.NewPaletted(image.Rect(0, 0, 2, 2), color.Palette{color.Black, color.White, color.Gray{Y: 7}})
	pal.SetColorIndex(1, 1, 2)
	if got := LabelsFromImage(pal).At(1, 1); got != 2 {
		t.Errorf("paletted label = %d, want 2", got)
	}
}

func TestMaskers(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.NRGBA{A: 255})
	if n := AllValid().Mask(img).Count(); n != 2 {
		t.Errorf("AllValid count = %d, want 2", n)
	}
	if n := Opaque().Mask(img).Count(); n != 1 {
		t.Errorf("Opaque count = %d, want 1", n)
	}
	if n := NonZero().Mask(img).Count(); n != 0 {
		t.Errorf("NonZero count = %d, want 0", n)
	}
	if _, ok := ParseMasker("bogus"); ok {
		t.Error("unknown masker should not parse")
	}
}

func TestExtractZeroPadding(t *testing.T) {
	img := gradient(10, 10)
	tests := []struct {
		name string
		tile tiler.Tile
	}{
		{"inside", tiler.Tile{Row: 2, Col: 3, Dim: 4}},
		{"bottom right", tiler.Tile{Row: 8, Col: 8, Dim: 4}},
		{"top left", tiler.Tile{Row: -2, Col: -1, Dim: 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Extract(img, tt.tile).(*image.Gray)
			if b := out.Bounds(); b.Dx() != 4 || b.Dy() != 4 {
				t.Fatalf("bounds = %v", b)
			}
			for y := range 4 {
				for x := range 4 {
					sy, sx := tt.tile.Row+y, tt.tile.Col+x
					want := uint8(0)
					if sy >= 0 && sx >= 0 && sy < 10 && sx < 10 {
						want = img.GrayAt(sx, sy).Y
					}
					if got := out.GrayAt(x, y).Y; got != want {
						t.Errorf("pixel (%d, %d) = %d, want %d", y, x, got, want)
					}
				}
			}
		})
	}
}

func TestExtractOffsetBounds(t *testing.T) {
	img := gradient(20, 20).SubImage(image.Rect(5, 5, 15, 15))
	out := Extract(img, tiler.Tile{Row: 0, Col: 0, Dim: 2}).(*image.Gray)
	if got, want := out.GrayAt(0, 0).Y, img.(*image.Gray).GrayAt(5, 5).Y; got != want {
		t.Errorf("origin pixel = %d, want %d", got, want)
	}
}

func TestSaveTiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	img := gradient(40, 40)
	cats := tiler.Categories{
		tiler.Positive: {Points: []tiler.Point{{Row: 10, Col: 10}, {Row: 0, Col: 0}}},
		tiler.Negative: {Points: []tiler.Point{{Row: 30, Col: 30}}},
		"empty":        {Points: []tiler.Point{}},
	}
	opts := SaveOptions{Prefix: "t", Workers: 2, Logger: quiet}
	stats, err := SaveTiles(ctx, img, cats, 10, dir, opts)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Written != 3 || stats.Skipped != 0 {
		t.Errorf("stats = %+v", stats)
	}
	for _, p := range []string{"positive/t0_0.png", "positive/t10_10.png", "negative/t30_30.png"} {
		if _, err := os.Stat(filepath.Join(dir, p)); err != nil {
			t.Errorf("missing %s: %v", p, err)
		}
	}
	info, err := os.ReadFile(filepath.Join(dir, "positive", TileInfoFile))
	if err != nil {
		t.Fatal(err)
	}
	want := "tileid,row_start,row_stop,col_start,col_stop\n0,0,10,0,10\n1,10,20,10,20\n"
	if string(info) != want {
		t.Errorf("tileinfo = %q, want %q", info, want)
	}

	stats, err = SaveTiles(ctx, img, cats, 10, dir, opts)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Written != 0 || stats.Skipped != 3 {
		t.Errorf("second run without overwrite: %+v", stats)
	}

	opts.Overwrite = true
	stats, err = SaveTiles(ctx, img, cats, 10, dir, opts)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Written != 3 || stats.Removed != 3 {
		t.Errorf("overwrite run: %+v", stats)
	}

	f, err := os.Open(filepath.Join(dir, "negative", "t30_30.png"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	tile, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if b := tile.Bounds(); b.Dx() != 10 || b.Dy() != 10 {
		t.Errorf("tile bounds = %v", b)
	}
}

func TestSaveTilesOptions(t *testing.T) {
	ctx := context.Background()
	cats := tiler.Categories{"tiles": {Points: []tiler.Point{{Row: 0, Col: 0}}}}
	if _, err := SaveTiles(ctx, gradient(4, 4), cats, 2, t.TempDir(), SaveOptions{Prefix: "../x", Logger: quiet}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT for traversal prefix, got %v", err)
	}
	if _, err := SaveTiles(ctx, gradient(4, 4), cats, 2, t.TempDir(), SaveOptions{Format: "gif", Logger: quiet}); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("expected UNSUPPORTED, got %v", err)
	}
	dir := t.TempDir()
	if _, err := SaveTiles(ctx, gradient(4, 4), cats, 2, dir, SaveOptions{Format: FormatTIFF, Logger: quiet}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "tiles", "tile0_0.tiff")); err != nil {
		t.Errorf("tiff tile missing: %v", err)
	}
}

func TestSaveTilesCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cats := tiler.Categories{"tiles": {Points: []tiler.Point{{Row: 0, Col: 0}, {Row: 2, Col: 2}}}}
	_, err := SaveTiles(ctx, gradient(4, 4), cats, 2, t.TempDir(), SaveOptions{Logger: quiet})
	if err == nil {
		t.Error("expected context error")
	}
}

func TestThumbnail(t *testing.T) {
	th := Thumbnail(gradient(100, 50), 20, 20)
	if b := th.Bounds(); b.Dx() != 20 || b.Dy() != 10 {
		t.Errorf("thumbnail bounds = %v, want 20x10", b)
	}
}
