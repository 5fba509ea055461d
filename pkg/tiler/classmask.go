package tiler

import (
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/imtiler/pkg/errors"
	"github.com/matzehuels/imtiler/pkg/grid"
	"github.com/matzehuels/imtiler/pkg/observability"
)

// MatchPositive requests as many negative tiles as centroid-placed
// positive tiles.
const MatchPositive = -1

// Random streams of the orchestrator's samplers. Region samplers use the
// label value as stream, so these sit above any realistic label.
const (
	streamNegative      uint64 = 1 << 40
	streamFalsePositive uint64 = 1 << 41
)

// Labeler splits a mask into labelled regions.
type Labeler interface {
	Label(m *grid.Mask) *grid.Labels
}

// LabelerFunc adapts a function to [Labeler].
type LabelerFunc func(m *grid.Mask) *grid.Labels

// Label calls f(m).
func (f LabelerFunc) Label(m *grid.Mask) *grid.Labels { return f(m) }

// ConnectedComponents returns a Labeler that labels connected regions.
func ConnectedComponents(conn grid.Connectivity) Labeler {
	return LabelerFunc(func(m *grid.Mask) *grid.Labels { return grid.Label(m, conn) })
}

// ClassOptions configures [ClassMaskTiler]. Counts are taken literally;
// use [DefaultClassOptions] for the usual values. Zero values of the
// remaining fields select their defaults.
type ClassOptions struct {
	// NumNegative is the number of negative tiles, or MatchPositive.
	NumNegative int
	// NumExtraPositive is the number of coverage tiles per positive
	// region. Zero disables the extra positives.
	NumExtraPositive int
	// ExtraAccept is the minimum region coverage of extra positives.
	ExtraAccept float64
	// ExtraMode is the base sampler of the extra positives.
	ExtraMode Mode

	PositiveConn      int
	FalsePositiveConn int
	MaxFalsePositive  int
	MaxSearch         int

	// PositiveLabels and FalsePositiveLabels are precomputed label grids.
	// When nil they are computed with Labeler.
	PositiveLabels      *grid.Labels
	FalsePositiveLabels *grid.Labels
	Labeler             Labeler

	Seed   uint64
	Logger *log.Logger
	Hooks  observability.TilerHooks
}

// DefaultClassOptions returns the default orchestrator configuration.
func DefaultClassOptions() ClassOptions {
	return ClassOptions{
		NumNegative:       DefaultNumTiles,
		NumExtraPositive:  DefaultNumTiles,
		ExtraAccept:       DefaultMinCoverage,
		ExtraMode:         ModeCoverage,
		PositiveConn:      8,
		FalsePositiveConn: 1,
		MaxFalsePositive:  MaxFalsePositive,
	}
}

// Validate reports whether every field of o is in range.
func (o ClassOptions) Validate() error {
	_, err := o.withDefaults()
	return err
}

func (o ClassOptions) withDefaults() (ClassOptions, error) {
	if o.NumNegative < MatchPositive {
		return o, errors.New(errors.ErrCodeInvalidInput, "number of negative tiles must be non-negative, got %d", o.NumNegative)
	}
	if o.NumExtraPositive < 0 {
		return o, errors.New(errors.ErrCodeInvalidInput, "number of extra positive tiles must be non-negative, got %d", o.NumExtraPositive)
	}
	acc, err := normalizeFraction(o.ExtraAccept, DefaultMinCoverage)
	if err != nil {
		return o, err
	}
	o.ExtraAccept = acc
	if o.ExtraMode, err = ParseMode(string(o.ExtraMode)); err != nil {
		return o, err
	}
	if o.PositiveConn == 0 {
		o.PositiveConn = 8
	}
	if o.FalsePositiveConn == 0 {
		o.FalsePositiveConn = 1
	}
	for _, conn := range []int{o.PositiveConn, o.FalsePositiveConn} {
		if conn != 1 && conn != 4 && conn != 8 {
			return o, errors.New(errors.ErrCodeInvalidConnectivity, "connectivity must be 1, 4 or 8, got %d", conn)
		}
	}
	if o.MaxFalsePositive < 0 {
		return o, errors.New(errors.ErrCodeInvalidInput, "false positive cap must be non-negative, got %d", o.MaxFalsePositive)
	}
	if o.MaxFalsePositive == 0 {
		o.MaxFalsePositive = MaxFalsePositive
	}
	if o.Labeler == nil {
		o.Labeler = ConnectedComponents(grid.Conn8)
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	if o.Hooks == nil {
		o.Hooks = observability.Tiler()
	}
	return o, nil
}

// ClassMaskTiler builds positive, negative and false-positive tile sets
// from three masks:
//
//  1. positive tiles centred on every positive region
//  2. extra positive tiles covering each region, excluding those above
//  3. negative tiles fully inside the negative mask
//  4. false-positive tiles centred on false-positive regions that do not
//     touch the positive mask
type ClassMaskTiler struct {
	pos, neg, fp *grid.Mask
	posLabels    *grid.Labels
	fpLabels     *grid.Labels
	dim          int
	opts         ClassOptions
	categories   []Category

	done   bool
	result Categories
}

// NewClassMaskTiler returns an orchestrator over the given masks. fp may be
// nil for no false positives.
func NewClassMaskTiler(pos, neg, fp *grid.Mask, dim int, opts ClassOptions) (*ClassMaskTiler, error) {
	return newClassMaskTiler(pos, neg, fp, dim, opts, []Category{Positive, Negative, FalsePositive})
}

func newClassMaskTiler(pos, neg, fp *grid.Mask, dim int, opts ClassOptions, categories []Category) (*ClassMaskTiler, error) {
	if err := validateDim(dim, pos.Rows, pos.Cols); err != nil {
		return nil, err
	}
	if fp == nil {
		fp = grid.NewMask(pos.Rows, pos.Cols)
	}
	if err := validateShape("negative mask", neg, pos.Rows, pos.Cols); err != nil {
		return nil, err
	}
	if err := validateShape("false positive mask", fp, pos.Rows, pos.Cols); err != nil {
		return nil, err
	}
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}

	t := &ClassMaskTiler{
		pos:        pos.Clone(),
		neg:        neg.Clone(),
		fp:         fp.Clone(),
		dim:        dim,
		opts:       opts,
		categories: categories,
	}
	if t.posLabels, err = t.labels("positive", opts.PositiveLabels, pos); err != nil {
		return nil, err
	}
	if t.fp.Any() {
		if t.fpLabels, err = t.labels("false positive", opts.FalsePositiveLabels, fp); err != nil {
			return nil, err
		}
		opts.Logger.Debug("mask alignment",
			"overlap", t.fp.And(t.pos).Count(),
			"flipped", t.fp.And(t.pos.FlipUD()).Count())
	}
	return t, nil
}

func (t *ClassMaskTiler) labels(name string, given *grid.Labels, m *grid.Mask) (*grid.Labels, error) {
	if given == nil {
		return t.opts.Labeler.Label(m), nil
	}
	if err := errors.ValidateShape(name+" labels", given.Rows, given.Cols, m.Rows, m.Cols); err != nil {
		return nil, err
	}
	return given.Clone(), nil
}

// Dim returns the tile dimension.
func (t *ClassMaskTiler) Dim() int { return t.dim }

func (t *ClassMaskTiler) base() Options {
	return Options{
		MaxSearch: t.opts.MaxSearch,
		Seed:      t.opts.Seed,
		Logger:    t.opts.Logger,
		Hooks:     t.opts.Hooks,
	}
}

// Collect runs all placement steps on the first call and returns the
// cached categories afterwards.
func (t *ClassMaskTiler) Collect() Categories {
	if t.done {
		return t.result
	}
	start := time.Now()
	logger := t.opts.Logger

	positive, nBase := t.positives()
	all := Categories{
		Positive:      positive,
		Negative:      t.negatives(nBase),
		FalsePositive: t.falsePositives(),
	}

	t.result = make(Categories, len(t.categories))
	for _, name := range t.categories {
		t.result[name] = all[name]
	}
	t.done = true
	logger.Debug("collected categories", "positive", all[Positive].Len(),
		"negative", all[Negative].Len(), "falsePositive", all[FalsePositive].Len(),
		"elapsed", time.Since(start))
	return t.result
}

// positives returns the positive collection and the number of
// centroid-placed tiles at its front.
func (t *ClassMaskTiler) positives() (Collection, int) {
	opts := t.base()
	opts.Conn = t.opts.PositiveConn
	rp, err := NewRectPlacer(t.posLabels, t.dim, opts)
	if err != nil {
		t.opts.Logger.Error("positive placement failed", "err", err)
		return Collection{Points: []Point{}}, 0
	}
	placed := rp.Collect()
	if t.opts.NumExtraPositive == 0 {
		return placed, placed.Len()
	}

	extra := t.base()
	extra.NumTiles = t.opts.NumExtraPositive
	extra.MinCoverage = t.opts.ExtraAccept
	extra.Accept = AcceptFraction(t.opts.ExtraAccept)
	extra.Exclude = placed.Points
	rt, err := NewRegionTiler(t.posLabels, t.dim, t.opts.ExtraMode, extra)
	if err != nil {
		t.opts.Logger.Error("extra positive placement failed", "err", err)
		return placed, placed.Len()
	}
	b := newBuilder(false)
	b.extend(placed)
	b.extend(rt.Collect())
	return b.collection(), placed.Len()
}

func (t *ClassMaskTiler) negatives(nBase int) Collection {
	n := t.opts.NumNegative
	if n == MatchPositive {
		n = nBase
	}
	if n == 0 || !t.neg.Any() {
		return Collection{Points: []Point{}}
	}
	opts := t.base()
	opts.NumTiles = n
	opts.Accept = AcceptNone
	opts.WithReplacement = true
	opts.stream = streamNegative
	s, err := NewMaskSampler(t.neg, t.dim, opts)
	if err != nil {
		t.opts.Logger.Error("negative sampling failed", "err", err)
		return Collection{Points: []Point{}}
	}
	return s.Collect()
}

func (t *ClassMaskTiler) falsePositives() Collection {
	if t.fpLabels == nil {
		return Collection{Points: []Point{}}
	}
	labels := t.fpLabels.Under(t.fp)
	if len(labels) == 0 {
		return Collection{Points: []Point{}}
	}
	if len(labels) > t.opts.MaxFalsePositive {
		rng := newRand(t.opts.Seed, streamFalsePositive)
		rng.Shuffle(len(labels), func(i, j int) { labels[i], labels[j] = labels[j], labels[i] })
		labels = labels[:t.opts.MaxFalsePositive]
		slices.Sort(labels)
		t.opts.Logger.Debug("capped false positive regions", "kept", len(labels))
	}
	opts := t.base()
	opts.Conn = t.opts.FalsePositiveConn
	opts.Exclusion = t.pos
	opts.Labels = labels
	rp, err := NewRectPlacer(t.fpLabels, t.dim, opts)
	if err != nil {
		t.opts.Logger.Error("false positive placement failed", "err", err)
		return Collection{Points: []Point{}}
	}
	return rp.Collect()
}

// DetectionTiler specialises [ClassMaskTiler] for a single detection mask:
// one centred positive tile per detection and as many negative tiles from
// the complement.
type DetectionTiler struct {
	*ClassMaskTiler
}

// NewDetectionTiler returns a detection tiler over det. Only the counts and
// connectivity of opts are overridden.
func NewDetectionTiler(det *grid.Mask, dim int, opts ClassOptions) (*DetectionTiler, error) {
	opts.NumExtraPositive = 0
	opts.PositiveConn = 1
	opts.NumNegative = MatchPositive
	t, err := newClassMaskTiler(det, det.Not(), nil, dim, opts, []Category{Positive, Negative})
	if err != nil {
		return nil, err
	}
	return &DetectionTiler{ClassMaskTiler: t}, nil
}
