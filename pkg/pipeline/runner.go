package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/imtiler/pkg/cache"
	"github.com/matzehuels/imtiler/pkg/errors"
	"github.com/matzehuels/imtiler/pkg/imageio"
	tileio "github.com/matzehuels/imtiler/pkg/io"
	"github.com/matzehuels/imtiler/pkg/observability"
	"github.com/matzehuels/imtiler/pkg/tiler"
)

// Result is the outcome of [Runner.Execute].
type Result struct {
	Document *tileio.Result
	CacheKey string
	CacheHit bool
	Duration time.Duration
}

// Runner encapsulates placement with caching.
// Both CLI and API use it to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL of stored results. Zero uses DefaultTTL; negative never expires.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute places tiles on in, serving the result from the cache when an
// identical run was stored before.
func (r *Runner) Execute(ctx context.Context, in Input, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if err := in.Validate(opts.Mode); err != nil {
		return nil, err
	}

	hooks := observability.Pipeline()
	cacheHooks := observability.Cache()
	hooks.OnRunStart(ctx, opts.Mode, opts.Dim)
	start := time.Now()

	inputHash, err := in.Hash()
	if err != nil {
		hooks.OnRunComplete(ctx, opts.Mode, 0, time.Since(start), err)
		return nil, err
	}
	key := r.Keyer.ResultKey(opts.Mode, inputHash, opts.KeyParams())

	if !opts.Refresh {
		if doc, ok := r.lookup(ctx, key); ok {
			cacheHooks.OnCacheHit(ctx, "result")
			r.Logger.Debug("cache hit", "key", key)
			res := &Result{Document: doc, CacheKey: key, CacheHit: true, Duration: time.Since(start)}
			hooks.OnRunComplete(ctx, opts.Mode, doc.Total(), res.Duration, nil)
			return res, nil
		}
		cacheHooks.OnCacheMiss(ctx, "result")
	}

	cats, err := r.Place(in, opts)
	if err != nil {
		hooks.OnRunComplete(ctx, opts.Mode, 0, time.Since(start), err)
		return nil, err
	}

	rows, cols := in.Shape()
	doc := tileio.NewResult(tileio.Meta{
		Mode:   opts.Mode,
		Source: in.Source,
		Dim:    opts.Dim,
		Rows:   rows,
		Cols:   cols,
		Seed:   opts.Seed,
	}, cats)
	r.store(ctx, key, doc)

	res := &Result{Document: doc, CacheKey: key, Duration: time.Since(start)}
	r.Logger.Info("placed tiles",
		"mode", opts.Mode,
		"tiles", doc.Total(),
		"duration", res.Duration)
	hooks.OnRunComplete(ctx, opts.Mode, doc.Total(), res.Duration, nil)
	return res, nil
}

func (r *Runner) lookup(ctx context.Context, key string) (*tileio.Result, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "err", err)
		return nil, false
	}
	if !hit {
		return nil, false
	}
	doc, err := tileio.ReadJSON(bytes.NewReader(data))
	if err != nil {
		// A corrupt entry is treated as a miss and overwritten.
		r.Logger.Debug("discarding cache entry", "key", key, "err", err)
		return nil, false
	}
	return doc, true
}

func (r *Runner) store(ctx context.Context, key string, doc *tileio.Result) {
	var buf bytes.Buffer
	if err := tileio.WriteJSON(doc, &buf); err != nil {
		r.Logger.Warn("encode result for cache", "err", err)
		return
	}
	ttl := r.TTL
	if ttl == 0 {
		ttl = DefaultTTL
	}
	if err := r.Cache.Set(ctx, key, buf.Bytes(), ttl); err != nil {
		r.Logger.Warn("cache write failed", "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, "result", buf.Len())
}

// Place runs the placement selected by opts.Mode without touching the
// cache. Single-sampler modes return one category named "tiles".
func (r *Runner) Place(in Input, opts Options) (tiler.Categories, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if err := in.Validate(opts.Mode); err != nil {
		return nil, err
	}

	var (
		s   interface{ Collect() tiler.Collection }
		err error
	)
	topts := opts.TilerOptions()
	switch opts.Mode {
	case ModeMask:
		s, err = tiler.NewMaskSampler(in.Mask, opts.Dim, topts)
	case ModeCoverage:
		s, err = tiler.NewCoverageSampler(in.Mask, opts.Dim, topts)
	case ModeRect:
		s, err = tiler.NewRectPlacer(in.labels(), opts.Dim, topts)
	case ModeRegion:
		var mode tiler.Mode
		if mode, err = tiler.ParseMode(opts.RegionMode); err == nil {
			s, err = tiler.NewRegionTiler(in.labels(), opts.Dim, mode, topts)
		}
	case ModeClasses:
		t, err := tiler.NewClassMaskTiler(in.Positive, in.Negative, in.FalsePositive, opts.Dim, opts.ClassOptions())
		if err != nil {
			return nil, err
		}
		return t.Collect(), nil
	case ModeDetection:
		t, err := tiler.NewDetectionTiler(in.Positive, opts.Dim, opts.ClassOptions())
		if err != nil {
			return nil, err
		}
		return t.Collect(), nil
	default:
		return nil, ValidateMode(opts.Mode)
	}
	if err != nil {
		return nil, err
	}
	return tiler.Categories{tileio.TilesCategory: s.Collect()}, nil
}

// Save extracts the tiles of doc from img and writes them to dir.
func (r *Runner) Save(ctx context.Context, img image.Image, doc *tileio.Result, dir string, opts imageio.SaveOptions) (imageio.SaveStats, error) {
	if doc == nil {
		return imageio.SaveStats{}, errors.New(errors.ErrCodeInvalidInput, "no result to save")
	}
	b := img.Bounds()
	if b.Dy() != doc.Rows || b.Dx() != doc.Cols {
		return imageio.SaveStats{}, errors.New(errors.ErrCodeShapeMismatch,
			"image is %dx%d, placement was computed on %dx%d", b.Dy(), b.Dx(), doc.Rows, doc.Cols)
	}
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}

	hooks := observability.Pipeline()
	hooks.OnSaveStart(ctx, doc.Total())
	start := time.Now()
	stats, err := imageio.SaveTiles(ctx, img, doc.TileCategories(), doc.Dim, dir, opts)
	hooks.OnSaveComplete(ctx, stats.Written, time.Since(start), err)
	if err != nil {
		return stats, fmt.Errorf("save tiles: %w", err)
	}
	r.Logger.Info("saved tiles",
		"dir", dir,
		"written", stats.Written,
		"skipped", stats.Skipped,
		"duration", time.Since(start))
	return stats, nil
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
