package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/imtiler/pkg/pipeline"
	"github.com/matzehuels/imtiler/pkg/tiler"
)

// optionFlags binds pipeline options to command flags. Values from a
// --config file are the base; flags given on the command line override them.
type optionFlags struct {
	config string
	output string
	flags  pipeline.Options
	apply  map[string]func(dst *pipeline.Options)
}

func newOptionFlags() *optionFlags {
	return &optionFlags{apply: make(map[string]func(dst *pipeline.Options))}
}

// bind registers one option flag. define creates the flag on a field of
// the flag-backed options; field selects the same field on any options.
func bind[T any](f *optionFlags, name string, field func(*pipeline.Options) *T, define func(p *T)) {
	define(field(&f.flags))
	f.apply[name] = func(dst *pipeline.Options) { *field(dst) = *field(&f.flags) }
}

// registerCommon adds the flags every placement command shares.
func (f *optionFlags) registerCommon(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.config, "config", "", "read options from a TOML file")
	fs.StringVarP(&f.output, "output", "o", "", "write the result document to this file")
	bind(f, "dim", func(o *pipeline.Options) *int { return &o.Dim }, func(p *int) {
		fs.IntVarP(p, "dim", "d", pipeline.DefaultDim, "tile edge length in pixels")
	})
	bind(f, "seed", func(o *pipeline.Options) *uint64 { return &o.Seed }, func(p *uint64) {
		fs.Uint64Var(p, "seed", pipeline.DefaultSeed, "random seed")
	})
	bind(f, "max-search", func(o *pipeline.Options) *int { return &o.MaxSearch }, func(p *int) {
		fs.IntVar(p, "max-search", tiler.DefaultMaxSearch, "draws per tile before giving up")
	})
	bind(f, "refresh", func(o *pipeline.Options) *bool { return &o.Refresh }, func(p *bool) {
		fs.BoolVar(p, "refresh", false, "recompute even if the result is cached")
	})
}

// registerSampler adds the single-sampler flags.
func (f *optionFlags) registerSampler(cmd *cobra.Command) {
	fs := cmd.Flags()
	bind(f, "mode", func(o *pipeline.Options) *string { return &o.Mode }, func(p *string) {
		fs.StringVarP(p, "mode", "m", pipeline.ModeMask, "sampler: mask, coverage, rect or region")
	})
	bind(f, "num-tiles", func(o *pipeline.Options) *int { return &o.NumTiles }, func(p *int) {
		fs.IntVarP(p, "num-tiles", "n", tiler.DefaultNumTiles, "number of tiles to place")
	})
	bind(f, "accept", func(o *pipeline.Options) *string { return &o.Accept }, func(p *string) {
		fs.StringVar(p, "accept", "", "accepted overlap: none, min, max, mask, a fraction or a percentage (default 0.5)")
	})
	bind(f, "with-replacement", func(o *pipeline.Options) *bool { return &o.WithReplacement }, func(p *bool) {
		fs.BoolVar(p, "with-replacement", false, "allow tiles to overlap freely")
	})
	bind(f, "no-reinit", func(o *pipeline.Options) *bool { return &o.NoReinit }, func(p *bool) {
		fs.BoolVar(p, "no-reinit", false, "stop instead of resetting when the mask is saturated")
	})
	bind(f, "max-reinit", func(o *pipeline.Options) *int { return &o.MaxReinit }, func(p *int) {
		fs.IntVar(p, "max-reinit", tiler.DefaultMaxReinit, "maximum resets per collect run")
	})
	bind(f, "min-coverage", func(o *pipeline.Options) *float64 { return &o.MinCoverage }, func(p *float64) {
		fs.Float64Var(p, "min-coverage", tiler.DefaultMinCoverage, "minimum valid fraction of a coverage tile")
	})
	bind(f, "conn", func(o *pipeline.Options) *int { return &o.Conn }, func(p *int) {
		fs.IntVar(p, "conn", tiler.DefaultConn, "tiles per region for rect placement: 1, 4 or 8")
	})
	bind(f, "region-mode", func(o *pipeline.Options) *string { return &o.RegionMode }, func(p *string) {
		fs.StringVar(p, "region-mode", string(tiler.ModeCoverage), "sampler run per region: coverage or mask")
	})
	bind(f, "labels", func(o *pipeline.Options) *[]int { return &o.Labels }, func(p *[]int) {
		fs.IntSliceVar(p, "labels", nil, "restrict rect and region placement to these labels")
	})
}

// registerClasses adds the category flags.
func (f *optionFlags) registerClasses(cmd *cobra.Command) {
	fs := cmd.Flags()
	bind(f, "num-negative", func(o *pipeline.Options) *int { return &o.NumNegative }, func(p *int) {
		fs.IntVar(p, "num-negative", tiler.DefaultNumTiles, "number of negative tiles")
	})
	bind(f, "match-negative", func(o *pipeline.Options) *bool { return &o.MatchNegative }, func(p *bool) {
		fs.BoolVar(p, "match-negative", false, "place as many negative tiles as positive ones")
	})
	bind(f, "max-false-positive", func(o *pipeline.Options) *int { return &o.MaxFalsePositive }, func(p *int) {
		fs.IntVar(p, "max-false-positive", tiler.MaxFalsePositive, "cap on false-positive regions")
	})
	bind(f, "num-extra", func(o *pipeline.Options) *int { return &o.NumExtraPositive }, func(p *int) {
		fs.IntVar(p, "num-extra", tiler.DefaultNumTiles, "extra positive tiles per region")
	})
	bind(f, "no-extra", func(o *pipeline.Options) *bool { return &o.NoExtraPositive }, func(p *bool) {
		fs.BoolVar(p, "no-extra", false, "place only the centred positive tiles")
	})
	bind(f, "extra-accept", func(o *pipeline.Options) *float64 { return &o.ExtraAccept }, func(p *float64) {
		fs.Float64Var(p, "extra-accept", tiler.DefaultMinCoverage, "minimum region coverage of extra positive tiles")
	})
	bind(f, "extra-mode", func(o *pipeline.Options) *string { return &o.ExtraMode }, func(p *string) {
		fs.StringVar(p, "extra-mode", string(tiler.ModeCoverage), "sampler for extra positive tiles: coverage or mask")
	})
	bind(f, "pos-conn", func(o *pipeline.Options) *int { return &o.PositiveConn }, func(p *int) {
		fs.IntVar(p, "pos-conn", 8, "tiles per positive region: 1, 4 or 8")
	})
	bind(f, "fp-conn", func(o *pipeline.Options) *int { return &o.FalsePositiveConn }, func(p *int) {
		fs.IntVar(p, "fp-conn", 1, "tiles per false-positive region: 1, 4 or 8")
	})
}

// options returns the effective options of cmd. A non-empty mode is
// fixed by the command and overrides both sources.
func (f *optionFlags) options(cmd *cobra.Command, mode string) (pipeline.Options, error) {
	var opts pipeline.Options
	if f.config != "" {
		cfg, err := pipeline.LoadConfig(f.config)
		if err != nil {
			return opts, err
		}
		opts = cfg.Options
	}
	f.overlay(cmd, &opts)
	if mode != "" {
		opts.Mode = mode
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return opts, fmt.Errorf("invalid options: %w", err)
	}
	return opts, nil
}

// overlay copies the flags given on the command line into opts.
func (f *optionFlags) overlay(cmd *cobra.Command, opts *pipeline.Options) {
	for name, apply := range f.apply {
		if cmd.Flags().Changed(name) {
			apply(opts)
		}
	}
}
