package tiler

import (
	"math/rand/v2"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/imtiler/pkg/errors"
	"github.com/matzehuels/imtiler/pkg/grid"
	"github.com/matzehuels/imtiler/pkg/observability"
)

// Defaults applied to zero-valued [Options] fields.
const (
	DefaultNumTiles    = 25
	DefaultMaxSearch   = 1000
	DefaultAccept      = 0.5
	DefaultMaxReinit   = 10
	DefaultMinCoverage = 0.75
	DefaultConn        = 8

	// MaxFalsePositive caps the false-positive instances placed by
	// [ClassMaskTiler] unless overridden.
	MaxFalsePositive = 200
)

// saturation is the seen fraction above which an exhausted search
// reinitialises its seen state.
const saturation = 0.95

// blockLen is the block size used when shuffling the fine offset pool.
const blockLen = 25

// Options configures the samplers, the placer and the fan-out combinator.
// Zero values select the documented defaults.
type Options struct {
	// NumTiles is the number of tiles requested from a sampler.
	NumTiles int
	// MaxSearch bounds the candidate draws of a single search.
	MaxSearch int
	// Accept is the acceptance specification of [MaskSampler].
	Accept Accept
	// WithReplacement disables seen-state updates after acceptance.
	WithReplacement bool
	// ReinitOnExhaustion allows [MaskSampler] to reset its seen state when
	// a search saturates. Nil means true.
	ReinitOnExhaustion *bool
	// MaxReinit bounds the reinitialisations of one search.
	MaxReinit int

	// MinCoverage is the fraction of the valid pixels a [CoverageSampler]
	// tile must contain. Values above 1 are read as percentages.
	MinCoverage float64
	// Exclude lists upper-left coordinates a [CoverageSampler] never emits.
	Exclude []Point

	// Conn selects the satellite pattern of [RectPlacer]: 1, 4 or 8.
	Conn int
	// Exclusion discards [RectPlacer] tiles touching a set pixel.
	Exclusion *grid.Mask
	// Labels restricts [RectPlacer] and [RegionTiler] to a label subset.
	Labels []int

	// Seed seeds the random streams of the component.
	Seed uint64

	Logger *log.Logger
	Hooks  observability.TilerHooks

	stream uint64
}

// Bool returns a pointer to v, for [Options.ReinitOnExhaustion].
func Bool(v bool) *bool { return &v }

// Validate reports whether every field of o is in range. Samplers call it
// on construction; callers can use it to fail early.
func (o Options) Validate() error {
	_, err := o.withDefaults()
	return err
}

// withDefaults returns a copy of o with defaults applied, or an error if
// a field is out of range.
func (o Options) withDefaults() (Options, error) {
	if o.NumTiles < 0 {
		return o, errors.New(errors.ErrCodeInvalidInput, "number of tiles must be non-negative, got %d", o.NumTiles)
	}
	if o.NumTiles == 0 {
		o.NumTiles = DefaultNumTiles
	}
	if o.MaxSearch < 0 {
		return o, errors.New(errors.ErrCodeInvalidInput, "max search must be non-negative, got %d", o.MaxSearch)
	}
	if o.MaxSearch == 0 {
		o.MaxSearch = DefaultMaxSearch
	}
	if o.MaxReinit < 0 {
		return o, errors.New(errors.ErrCodeInvalidInput, "max reinit must be non-negative, got %d", o.MaxReinit)
	}
	if o.MaxReinit == 0 {
		o.MaxReinit = DefaultMaxReinit
	}
	if o.ReinitOnExhaustion == nil {
		o.ReinitOnExhaustion = Bool(true)
	}
	if err := o.Accept.validate(); err != nil {
		return o, err
	}
	cov, err := normalizeFraction(o.MinCoverage, DefaultMinCoverage)
	if err != nil {
		return o, err
	}
	o.MinCoverage = cov
	if o.Conn == 0 {
		o.Conn = DefaultConn
	}
	if o.Conn != 1 && o.Conn != 4 && o.Conn != 8 {
		return o, errors.New(errors.ErrCodeInvalidConnectivity, "connectivity must be 1, 4 or 8, got %d", o.Conn)
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	if o.Hooks == nil {
		o.Hooks = observability.Tiler()
	}
	return o, nil
}

func normalizeFraction(v, def float64) (float64, error) {
	switch {
	case v == 0:
		return def, nil
	case v < 0 || v > 100 || v != v:
		return 0, errors.New(errors.ErrCodeInvalidAccept, "coverage %v out of range", v)
	case v > 1:
		return v / 100, nil
	default:
		return v, nil
	}
}

// newRand returns the generator for one component stream.
func newRand(seed, stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^stream^0xdeadbeef))
}

func validateDim(dim, rows, cols int) error {
	return errors.ValidateTileDim(dim, rows, cols)
}

func validateShape(name string, m *grid.Mask, rows, cols int) error {
	return errors.ValidateShape(name, m.Rows, m.Cols, rows, cols)
}
