package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/imtiler/pkg/cache"
	"github.com/matzehuels/imtiler/pkg/errors"
	"github.com/matzehuels/imtiler/pkg/grid"
	tileio "github.com/matzehuels/imtiler/pkg/io"
	"github.com/matzehuels/imtiler/pkg/tiler"
)

var quiet = log.New(io.Discard)

// square returns a rows x cols mask with one filled square.
func square(rows, cols, row, col, size int) *grid.Mask {
	m := grid.NewMask(rows, cols)
	m.Fill(grid.Square(row, col, size), true)
	return m
}

func TestValidateMode(t *testing.T) {
	tests := []struct {
		mode    string
		wantErr bool
	}{
		{"mask", false},
		{"coverage", false},
		{"rect", false},
		{"region", false},
		{"classes", false},
		{"detection", false},
		{"MASK", true}, // case-sensitive
		{"", true},
		{"random", true},
	}

	for _, tt := range tests {
		err := ValidateMode(tt.mode)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateMode(%q) error = %v, wantErr %v", tt.mode, err, tt.wantErr)
		}
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults: %v", err)
	}
	if opts.Mode != DefaultMode {
		t.Errorf("Mode = %q, want %q", opts.Mode, DefaultMode)
	}
	if opts.Dim != DefaultDim {
		t.Errorf("Dim = %d, want %d", opts.Dim, DefaultDim)
	}
	if opts.Seed != DefaultSeed {
		t.Errorf("Seed = %d, want %d", opts.Seed, DefaultSeed)
	}
}

func TestOptionsInvalid(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"mode", Options{Mode: "grid"}, errors.ErrCodeInvalidMode},
		{"dim", Options{Dim: -4}, errors.ErrCodeInvalidTileDim},
		{"accept", Options{Accept: "most"}, errors.ErrCodeInvalidAccept},
		{"conn", Options{Conn: 6}, errors.ErrCodeInvalidConnectivity},
		{"region mode", Options{RegionMode: "bbox"}, errors.ErrCodeInvalidMode},
		{"false positive conn", Options{FalsePositiveConn: 3}, errors.ErrCodeInvalidConnectivity},
		{"num tiles", Options{NumTiles: -1}, errors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestOptionsValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := Options{Mode: ModeCoverage, Accept: "min"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	first := opts.KeyParams()
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	second := opts.KeyParams()
	if first.Mode != second.Mode || first.Dim != second.Dim || first.Seed != second.Seed {
		t.Errorf("second call changed options: %+v vs %+v", first, second)
	}
}

func TestClassOptions(t *testing.T) {
	opts := Options{MatchNegative: true, NoExtraPositive: true, MaxFalsePositive: 12, Seed: 3}
	copts := opts.ClassOptions()
	if copts.NumNegative != tiler.MatchPositive {
		t.Errorf("NumNegative = %d, want MatchPositive", copts.NumNegative)
	}
	if copts.NumExtraPositive != 0 {
		t.Errorf("NumExtraPositive = %d, want 0", copts.NumExtraPositive)
	}
	if copts.MaxFalsePositive != 12 || copts.Seed != 3 {
		t.Errorf("ClassOptions = %+v", copts)
	}

	def := (&Options{}).ClassOptions()
	if def.NumNegative != tiler.DefaultNumTiles {
		t.Errorf("default NumNegative = %d, want %d", def.NumNegative, tiler.DefaultNumTiles)
	}
}

func TestTilerOptions(t *testing.T) {
	opts := Options{NoReinit: true, Accept: "none"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	topts := opts.TilerOptions()
	if topts.ReinitOnExhaustion == nil || *topts.ReinitOnExhaustion {
		t.Error("NoReinit should disable reinitialisation")
	}
	if !topts.Accept.Strict() {
		t.Errorf("Accept = %v, want strict", topts.Accept)
	}
}

func TestInputValidate(t *testing.T) {
	m := square(10, 10, 0, 0, 5)
	tests := []struct {
		mode    string
		in      Input
		wantErr bool
	}{
		{ModeMask, Input{Mask: m}, false},
		{ModeMask, Input{Positive: m}, true},
		{ModeRegion, Input{Mask: m}, false},
		{ModeRect, Input{Labels: grid.Label(m, grid.Conn8)}, false},
		{ModeRect, Input{}, true},
		{ModeClasses, Input{Positive: m, Negative: m.Not()}, false},
		{ModeClasses, Input{Positive: m}, true},
		{ModeDetection, Input{Positive: m}, false},
	}

	for _, tt := range tests {
		err := tt.in.Validate(tt.mode)
		if (err != nil) != tt.wantErr {
			t.Errorf("Validate(%s) error = %v, wantErr %v", tt.mode, err, tt.wantErr)
		}
	}
}

func TestInputHash(t *testing.T) {
	a := Input{Source: "a.png", Mask: square(20, 20, 2, 2, 6)}
	b := Input{Source: "b.png", Mask: square(20, 20, 2, 2, 6)}
	c := Input{Mask: square(20, 20, 3, 2, 6)}
	d := Input{Positive: square(20, 20, 2, 2, 6)}

	ha, _ := a.Hash()
	hb, _ := b.Hash()
	hc, _ := c.Hash()
	hd, _ := d.Hash()
	if ha != hb {
		t.Error("source should not affect the hash")
	}
	if ha == hc {
		t.Error("different masks should hash differently")
	}
	if ha == hd {
		t.Error("the same mask in a different role should hash differently")
	}
}

func TestPlaceModes(t *testing.T) {
	r := NewRunner(nil, nil, quiet)
	pos := square(100, 100, 20, 20, 15)
	in := Input{Mask: pos, Positive: pos, Negative: pos.Not()}

	tests := []struct {
		mode string
		want []string
	}{
		{ModeMask, []string{"tiles"}},
		{ModeCoverage, []string{"tiles"}},
		{ModeRect, []string{"tiles"}},
		{ModeRegion, []string{"tiles"}},
		{ModeClasses, []string{"positive", "negative", "falsePositive"}},
		{ModeDetection, []string{"positive", "negative"}},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			cats, err := r.Place(in, Options{Mode: tt.mode, Dim: 10, MinCoverage: 0.2})
			if err != nil {
				t.Fatalf("Place: %v", err)
			}
			names := cats.Names()
			if len(names) != len(tt.want) {
				t.Fatalf("categories = %v, want %v", names, tt.want)
			}
			for i := range names {
				if string(names[i]) != tt.want[i] {
					t.Errorf("categories = %v, want %v", names, tt.want)
				}
			}
		})
	}
}

func TestPlaceRectFromMask(t *testing.T) {
	r := NewRunner(nil, nil, quiet)
	cats, err := r.Place(Input{Mask: square(80, 80, 30, 30, 20)}, Options{Mode: ModeRect, Dim: 20, Conn: 1})
	if err != nil {
		t.Fatal(err)
	}
	got := cats[tileio.TilesCategory].Points
	want := []tiler.Point{{Row: 29, Col: 29}} // centroid (39, 39) truncated
	if len(got) != 1 || got[0] != want[0] {
		t.Errorf("points = %v, want %v", got, want)
	}
}

func TestExecuteCacheHit(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(c, nil, quiet)
	defer r.Close()

	ctx := context.Background()
	in := Input{Source: "mask.png", Mask: grid.Full(60, 60)}
	opts := Options{Mode: ModeMask, Dim: 10, NumTiles: 8}

	first, err := r.Execute(ctx, in, opts)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.CacheHit {
		t.Error("first run should miss the cache")
	}

	second, err := r.Execute(ctx, in, opts)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !second.CacheHit {
		t.Fatal("second run should hit the cache")
	}
	if second.Document.RunID != first.Document.RunID {
		t.Errorf("cached run id = %s, want %s", second.Document.RunID, first.Document.RunID)
	}
	if second.Document.Total() != first.Document.Total() {
		t.Errorf("cached total = %d, want %d", second.Document.Total(), first.Document.Total())
	}

	opts.Refresh = true
	third, err := r.Execute(ctx, in, opts)
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheHit {
		t.Error("refresh should bypass the cache")
	}
	if third.CacheKey != first.CacheKey {
		t.Error("refresh should not change the cache key")
	}

	opts.Refresh = false
	opts.Seed = 9
	fourth, _ := r.Execute(ctx, in, opts)
	if fourth.CacheHit {
		t.Error("a different seed should miss the cache")
	}
}

func TestExecuteDocument(t *testing.T) {
	r := NewRunner(nil, nil, quiet)
	pos := square(100, 100, 20, 20, 15)
	res, err := r.Execute(context.Background(), Input{Source: "slide", Positive: pos, Negative: pos.Not()},
		Options{Mode: ModeClasses, Dim: 10})
	if err != nil {
		t.Fatal(err)
	}
	doc := res.Document
	if doc.Mode != ModeClasses || doc.Source != "slide" || doc.Rows != 100 || doc.Cols != 100 || doc.Dim != 10 {
		t.Errorf("document meta = %+v", doc)
	}
	if err := doc.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.toml")
	data := `mode = "classes"
dim = 32
seed = 7
accept = "none"

[[job]]
name = "slide-01"
positive = "pos.png"
negative = "neg.png"

[[job]]
name = "slide-02"
positive = "pos2.png"
negative = "neg2.png"

[job.options]
dim = 48
match_negative = true
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Mode != ModeClasses || cfg.Dim != 32 || cfg.Seed != 7 || cfg.Accept != "none" {
		t.Errorf("options = %+v", cfg.Options)
	}
	if len(cfg.Jobs) != 2 || cfg.Jobs[0].Positive != "pos.png" {
		t.Fatalf("jobs = %+v", cfg.Jobs)
	}

	first := cfg.JobOptions(0)
	if first.Dim != 32 {
		t.Errorf("job 0 dim = %d, want 32", first.Dim)
	}
	second := cfg.JobOptions(1)
	if second.Dim != 48 || !second.MatchNegative || second.Seed != 7 {
		t.Errorf("job 1 options = %+v", second)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(path, []byte("dimm = 32\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("unknown key: error = %v, want INVALID_CONFIG", err)
	}

	if _, err := LoadConfig(filepath.Join(dir, "missing.toml")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file: error = %v, want FILE_NOT_FOUND", err)
	}

	if err := os.WriteFile(path, []byte("dim = \n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("syntax error: error = %v, want INVALID_CONFIG", err)
	}
}

func TestDeriveSeed(t *testing.T) {
	a := DeriveSeed(42, "a.png")
	if a != DeriveSeed(42, "a.png") {
		t.Error("DeriveSeed is not deterministic")
	}
	if a == DeriveSeed(42, "b.png") {
		t.Error("different names should give different seeds")
	}
	if DeriveSeed(0, "a.png") != a {
		t.Error("zero seed should use the default seed")
	}
}

func TestBatch(t *testing.T) {
	r := NewRunner(nil, nil, quiet)
	jobs := []Job{
		{Name: "a", Input: Input{Mask: grid.Full(50, 50)}, Options: Options{Dim: 10, NumTiles: 5}},
		{Name: "b", Input: Input{}, Options: Options{Dim: 10}},
		{Name: "c", Input: Input{Mask: grid.Full(40, 40)}, Options: Options{Dim: 10, NumTiles: 4}},
	}

	results, err := r.Batch(context.Background(), jobs, 2)
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	for i, name := range []string{"a", "b", "c"} {
		if results[i].Name != name {
			t.Errorf("results[%d].Name = %q, want %q", i, results[i].Name, name)
		}
	}
	if results[0].Err != nil || results[2].Err != nil {
		t.Errorf("unexpected job errors: %v, %v", results[0].Err, results[2].Err)
	}
	if results[1].Err == nil {
		t.Error("job without a mask should fail")
	}
	if results[0].Result.Document.Seed != DeriveSeed(DefaultSeed, "a") {
		t.Errorf("seed = %d, want derived seed", results[0].Result.Document.Seed)
	}
}

func TestBatchCancelled(t *testing.T) {
	r := NewRunner(nil, nil, quiet)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Batch(ctx, []Job{{Name: "a", Input: Input{Mask: grid.Full(20, 20)}}}, 1)
	if err == nil {
		t.Error("cancelled batch should return an error")
	}
}
