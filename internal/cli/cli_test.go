package cli

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

	"github.com/matzehuels/imtiler/pkg/grid"
	"github.com/matzehuels/imtiler/pkg/imageio"
	tileio "github.com/matzehuels/imtiler/pkg/io"
)

// runCLI executes the command tree with args and returns its output.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := New(io.Discard, LogInfo).RootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
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

func writeMask(t *testing.T, path string, m *grid.Mask) {
	t.Helper()
	writePNG(t, path, imageio.MaskImage(m))
}

func gradient(rows, cols int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, cols, rows))
	for y := range rows {
		for x := range cols {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

func TestSampleCommand(t *testing.T) {
	dir := t.TempDir()
	mask := filepath.Join(dir, "mask.png")
	out := filepath.Join(dir, "out.json")
	writeMask(t, mask, grid.Full(64, 64))

	if _, err := runCLI(t, "sample", mask, "-d", "16", "-n", "4", "--accept", "none", "--no-cache", "-o", out); err != nil {
		t.Fatalf("sample: %v", err)
	}
	doc, err := tileio.ImportJSON(out)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Mode != "mask" || doc.Dim != 16 {
		t.Errorf("document = %+v", doc)
	}
	if n := len(doc.Categories["tiles"]); n == 0 || n > 4 {
		t.Errorf("got %d tiles, want 1..4", n)
	}
}

func TestSampleConfigOverride(t *testing.T) {
	dir := t.TempDir()
	mask := filepath.Join(dir, "mask.png")
	cfg := filepath.Join(dir, "run.toml")
	out := filepath.Join(dir, "out.json")
	writeMask(t, mask, grid.Full(64, 64))
	if err := os.WriteFile(cfg, []byte("dim = 32\nnum_tiles = 2\nseed = 5\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := runCLI(t, "sample", mask, "--config", cfg, "-d", "16", "--no-cache", "-o", out); err != nil {
		t.Fatalf("sample: %v", err)
	}
	doc, err := tileio.ImportJSON(out)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Dim != 16 {
		t.Errorf("dim = %d, want the flag value 16", doc.Dim)
	}
	if doc.Seed != 5 {
		t.Errorf("seed = %d, want the config value 5", doc.Seed)
	}
	if n := len(doc.Categories["tiles"]); n > 2 {
		t.Errorf("got %d tiles, want at most the configured 2", n)
	}
}

func TestSampleRejectsClassModes(t *testing.T) {
	dir := t.TempDir()
	mask := filepath.Join(dir, "mask.png")
	writeMask(t, mask, grid.Full(32, 32))
	if _, err := runCLI(t, "sample", mask, "--mode", "classes", "--no-cache"); err == nil {
		t.Error("sample --mode classes should fail")
	}
}

func TestClassesAndExtract(t *testing.T) {
	dir := t.TempDir()
	pos := grid.NewMask(100, 100)
	pos.Fill(grid.Square(20, 20, 15), true)
	writeMask(t, filepath.Join(dir, "pos.png"), pos)
	writeMask(t, filepath.Join(dir, "neg.png"), pos.Not())
	writePNG(t, filepath.Join(dir, "slide.png"), gradient(100, 100))
	result := filepath.Join(dir, "classes.json")

	_, err := runCLI(t, "classes",
		"--pos", filepath.Join(dir, "pos.png"),
		"--neg", filepath.Join(dir, "neg.png"),
		"-d", "10", "--num-negative", "5", "--no-extra", "--no-cache", "-o", result)
	if err != nil {
		t.Fatalf("classes: %v", err)
	}
	doc, err := tileio.ImportJSON(result)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Categories["positive"]) == 0 {
		t.Fatal("expected positive tiles")
	}

	tiles := filepath.Join(dir, "tiles")
	if _, err := runCLI(t, "extract", filepath.Join(dir, "slide.png"), result, "-o", tiles); err != nil {
		t.Fatalf("extract: %v", err)
	}
	for _, name := range []string{"positive", "negative"} {
		info, err := os.ReadFile(filepath.Join(tiles, name, imageio.TileInfoFile))
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if lines := strings.Count(string(info), "\n"); lines != len(doc.Categories[name])+1 {
			t.Errorf("%s tileinfo has %d lines, want header plus %d tiles", name, lines, len(doc.Categories[name]))
		}
	}
}

func TestDetectCommand(t *testing.T) {
	dir := t.TempDir()
	det := grid.NewMask(80, 80)
	det.Fill(grid.Square(10, 10, 6), true)
	det.Fill(grid.Square(50, 40, 6), true)
	writeMask(t, filepath.Join(dir, "det.png"), det)
	out := filepath.Join(dir, "det.json")

	if _, err := runCLI(t, "detect", filepath.Join(dir, "det.png"), "-d", "8", "--no-cache", "-o", out); err != nil {
		t.Fatalf("detect: %v", err)
	}
	doc, err := tileio.ImportJSON(out)
	if err != nil {
		t.Fatal(err)
	}
	if got := len(doc.Categories["positive"]); got != 2 {
		t.Errorf("got %d positive tiles, want one per detection", got)
	}
}

func TestBatchCommand(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a", "b"} {
		writePNG(t, filepath.Join(dir, name+".png"), gradient(48, 48))
		writeMask(t, filepath.Join(dir, name+"_mask.png"), grid.Full(48, 48))
	}
	out := filepath.Join(dir, "out")

	if _, err := runCLI(t, "batch", dir, "--mask-suffix", "_mask", "-d", "8", "-n", "3", "--no-cache", "-o", out, "--extract"); err != nil {
		t.Fatalf("batch: %v", err)
	}
	for _, name := range []string{"a", "b"} {
		doc, err := tileio.ImportJSON(filepath.Join(out, name+".json"))
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if _, err := os.Stat(filepath.Join(out, name, "tiles", imageio.TileInfoFile)); err != nil {
			t.Errorf("%s: tiles not extracted: %v", name, err)
		}
		if doc.Source != filepath.Join(dir, name+".png") {
			t.Errorf("%s: source = %q", name, doc.Source)
		}
	}
	if _, err := os.Stat(filepath.Join(out, "a_mask.json")); err == nil {
		t.Error("mask files should not be batch inputs")
	}
}

func TestCompletionCommand(t *testing.T) {
	out, err := runCLI(t, "completion", "bash")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "imtiler") {
		t.Error("bash completion should mention the binary")
	}
}
