package tiler

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/imtiler/pkg/errors"
	"github.com/matzehuels/imtiler/pkg/grid"
	"github.com/matzehuels/imtiler/pkg/observability"
)

// Mode selects the base sampler a [RegionTiler] runs per label.
type Mode string

const (
	ModeCoverage Mode = "coverage"
	ModeMask     Mode = "mask"
)

// ParseMode parses a base sampler mode. The empty string selects
// [ModeCoverage].
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeCoverage:
		return ModeCoverage, nil
	case ModeMask:
		return ModeMask, nil
	}
	return "", errors.New(errors.ErrCodeInvalidMode, "unknown region mode %q (want coverage or mask)", s)
}

// RegionTiler runs one base sampler per label and concatenates the results.
// Every sampler sees only the pixels of its own label and draws from its
// own random stream.
type RegionTiler struct {
	labels *grid.Labels
	dim    int
	mode   Mode
	opts   Options
	subset []int

	logger *log.Logger
	hooks  observability.TilerHooks

	done   bool
	result Collection
}

// NewRegionTiler returns a fan-out combinator over labels.
func NewRegionTiler(labels *grid.Labels, dim int, mode Mode, opts Options) (*RegionTiler, error) {
	if err := validateDim(dim, labels.Rows, labels.Cols); err != nil {
		return nil, err
	}
	mode, err := ParseMode(string(mode))
	if err != nil {
		return nil, err
	}
	resolved, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	rt := &RegionTiler{
		labels: labels.Clone(),
		dim:    dim,
		mode:   mode,
		opts:   opts,
		subset: opts.Labels,
		logger: resolved.Logger,
		hooks:  resolved.Hooks,
	}
	rt.opts.Labels = nil
	if rt.subset == nil {
		rt.subset = rt.labels.Unique()
	}
	return rt, nil
}

// Dim returns the tile dimension.
func (rt *RegionTiler) Dim() int { return rt.dim }

// sampler builds the base sampler for one label.
func (rt *RegionTiler) sampler(label int) (Sampler, error) {
	mask := rt.labels.Equal(label)
	if !mask.Any() {
		return nil, nil
	}
	opts := rt.opts
	opts.stream = uint64(label)
	if rt.mode == ModeMask {
		return NewMaskSampler(mask, rt.dim, opts)
	}
	return NewCoverageSampler(mask, rt.dim, opts)
}

// Collect runs the base sampler of every label in order. A coordinate
// already emitted for an earlier label is dropped.
func (rt *RegionTiler) Collect() Collection {
	if rt.done {
		return rt.result
	}
	start := time.Now()
	b := newBuilder(true)
	for _, label := range rt.subset {
		s, err := rt.sampler(label)
		if err != nil {
			rt.logger.Warn("skipping label", "label", label, "err", err)
			continue
		}
		if s == nil {
			continue
		}
		b.extend(s.Collect())
	}
	rt.result = b.collection()
	rt.done = true
	rt.hooks.OnCollect("region", len(rt.subset), rt.result.Len(), time.Since(start))
	rt.logger.Debug("collected tiles", "sampler", "region", "mode", rt.mode, "labels", len(rt.subset), "tiles", rt.result.Len())
	return rt.result
}
