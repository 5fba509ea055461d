// Package pipeline runs tile placement end to end for the CLI and the API.
//
// # Architecture
//
// A run has three stages:
//
//  1. Load: decode masks and label grids into an [Input]
//  2. Place: run the sampler, placer or orchestrator selected by the mode
//  3. Save: optionally extract the tiles from an image and write them out
//
// Placement results are cached by a hash of the input grids and the
// options, so repeating a run with the same seed is free.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{Mode: pipeline.ModeClasses, Dim: 64}
//	res, err := runner.Execute(ctx, pipeline.Input{
//	    Positive: pos, Negative: neg, FalsePositive: fp,
//	}, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.Document.Total(), "tiles")
//
// Options can also be read from a TOML file with [LoadConfig].
package pipeline

import (
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/imtiler/pkg/errors"
	"github.com/matzehuels/imtiler/pkg/tiler"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultDim is the default tile edge length in pixels.
	DefaultDim = 64

	// DefaultSeed is the default random seed for reproducibility.
	DefaultSeed = uint64(42)

	// DefaultMode is the default placement mode.
	DefaultMode = ModeMask

	// DefaultTTL is how long placement results stay cached.
	DefaultTTL = 7 * 24 * time.Hour
)

// Placement modes.
const (
	ModeMask      = "mask"
	ModeCoverage  = "coverage"
	ModeRect      = "rect"
	ModeRegion    = "region"
	ModeClasses   = "classes"
	ModeDetection = "detection"
)

// Modes lists every placement mode.
var Modes = []string{ModeMask, ModeCoverage, ModeRect, ModeRegion, ModeClasses, ModeDetection}

// ValidateMode checks that a mode is valid.
func ValidateMode(mode string) error {
	if !slices.Contains(Modes, mode) {
		return errors.New(errors.ErrCodeInvalidMode, "invalid mode: %q (must be one of: mask, coverage, rect, region, classes, detection)", mode)
	}
	return nil
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one placement run.
// It supports JSON for API requests and TOML for configuration files.
type Options struct {
	Mode string `json:"mode,omitempty" toml:"mode"`
	Dim  int    `json:"dim,omitempty" toml:"dim"`
	Seed uint64 `json:"seed,omitempty" toml:"seed"`

	// Sampler options
	NumTiles        int     `json:"num_tiles,omitempty" toml:"num_tiles"`
	MaxSearch       int     `json:"max_search,omitempty" toml:"max_search"`
	Accept          string  `json:"accept,omitempty" toml:"accept"`
	WithReplacement bool    `json:"with_replacement,omitempty" toml:"with_replacement"`
	NoReinit        bool    `json:"no_reinit,omitempty" toml:"no_reinit"`
	MaxReinit       int     `json:"max_reinit,omitempty" toml:"max_reinit"`
	MinCoverage     float64 `json:"min_coverage,omitempty" toml:"min_coverage"`

	// Placer and fan-out options
	Conn       int    `json:"conn,omitempty" toml:"conn"`
	RegionMode string `json:"region_mode,omitempty" toml:"region_mode"`
	Labels     []int  `json:"labels,omitempty" toml:"labels"`

	// Category options
	NumNegative       int     `json:"num_negative,omitempty" toml:"num_negative"`
	MatchNegative     bool    `json:"match_negative,omitempty" toml:"match_negative"`
	NumExtraPositive  int     `json:"num_extra_positive,omitempty" toml:"num_extra_positive"`
	NoExtraPositive   bool    `json:"no_extra_positive,omitempty" toml:"no_extra_positive"`
	ExtraAccept       float64 `json:"extra_accept,omitempty" toml:"extra_accept"`
	ExtraMode         string  `json:"extra_mode,omitempty" toml:"extra_mode"`
	PositiveConn      int     `json:"positive_conn,omitempty" toml:"positive_conn"`
	FalsePositiveConn int     `json:"false_positive_conn,omitempty" toml:"false_positive_conn"`
	MaxFalsePositive  int     `json:"max_false_positive,omitempty" toml:"max_false_positive"`

	// Refresh skips the cache lookup and recomputes the placement.
	Refresh bool `json:"refresh,omitempty" toml:"refresh"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-" toml:"-"`

	accept    tiler.Accept
	validated bool
}

// ValidateAndSetDefaults checks all fields and applies defaults.
// It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Mode == "" {
		o.Mode = DefaultMode
	}
	if err := ValidateMode(o.Mode); err != nil {
		return err
	}
	if o.Dim == 0 {
		o.Dim = DefaultDim
	}
	if o.Dim < 0 {
		return errors.New(errors.ErrCodeInvalidTileDim, "tile dim must be positive, got %d", o.Dim)
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	accept, err := tiler.ParseAccept(o.Accept)
	if err != nil {
		return err
	}
	o.accept = accept
	if _, err := tiler.ParseMode(o.RegionMode); err != nil {
		return err
	}
	if _, err := tiler.ParseMode(o.ExtraMode); err != nil {
		return err
	}
	// The tiler validates the remaining ranges; do it once here so that
	// configuration errors surface before any input is loaded.
	if err := o.TilerOptions().Validate(); err != nil {
		return err
	}
	if err := o.ClassOptions().Validate(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// TilerOptions converts o into sampler options.
func (o *Options) TilerOptions() tiler.Options {
	topts := tiler.Options{
		NumTiles:        o.NumTiles,
		MaxSearch:       o.MaxSearch,
		Accept:          o.accept,
		WithReplacement: o.WithReplacement,
		MaxReinit:       o.MaxReinit,
		MinCoverage:     o.MinCoverage,
		Conn:            o.Conn,
		Labels:          o.Labels,
		Seed:            o.Seed,
		Logger:          o.Logger,
	}
	if o.NoReinit {
		topts.ReinitOnExhaustion = tiler.Bool(false)
	}
	return topts
}

// ClassOptions converts o into orchestrator options.
func (o *Options) ClassOptions() tiler.ClassOptions {
	copts := tiler.DefaultClassOptions()
	if o.NumNegative != 0 {
		copts.NumNegative = o.NumNegative
	}
	if o.MatchNegative {
		copts.NumNegative = tiler.MatchPositive
	}
	if o.NumExtraPositive != 0 {
		copts.NumExtraPositive = o.NumExtraPositive
	}
	if o.NoExtraPositive {
		copts.NumExtraPositive = 0
	}
	if o.ExtraAccept != 0 {
		copts.ExtraAccept = o.ExtraAccept
	}
	if o.ExtraMode != "" {
		copts.ExtraMode = tiler.Mode(o.ExtraMode)
	}
	if o.PositiveConn != 0 {
		copts.PositiveConn = o.PositiveConn
	}
	if o.FalsePositiveConn != 0 {
		copts.FalsePositiveConn = o.FalsePositiveConn
	}
	if o.MaxFalsePositive != 0 {
		copts.MaxFalsePositive = o.MaxFalsePositive
	}
	copts.MaxSearch = o.MaxSearch
	copts.Seed = o.Seed
	copts.Logger = o.Logger
	return copts
}

// KeyParams returns the options that affect placement, for cache keys.
// Runtime-only fields are excluded.
func (o *Options) KeyParams() Options {
	k := *o
	k.Logger = nil
	k.Refresh = false
	k.validated = false
	return k
}
