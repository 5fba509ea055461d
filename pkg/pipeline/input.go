package pipeline

import (
	"bytes"

	"github.com/matzehuels/imtiler/pkg/cache"
	"github.com/matzehuels/imtiler/pkg/errors"
	"github.com/matzehuels/imtiler/pkg/grid"
)

// Input holds the grids a run places tiles on. Which fields are required
// depends on the mode:
//
//   - mask, coverage: Mask
//   - rect, region: Labels, or Mask to label its connected components
//   - classes: Positive and Negative, FalsePositive optional
//   - detection: Positive
type Input struct {
	// Source names where the grids came from, for the result document.
	Source string

	Mask          *grid.Mask
	Labels        *grid.Labels
	Positive      *grid.Mask
	Negative      *grid.Mask
	FalsePositive *grid.Mask
}

// Validate checks that in carries what mode needs.
func (in Input) Validate(mode string) error {
	switch mode {
	case ModeMask, ModeCoverage:
		if in.Mask == nil {
			return errors.New(errors.ErrCodeInvalidInput, "%s mode needs a mask", mode)
		}
	case ModeRect, ModeRegion:
		if in.Labels == nil && in.Mask == nil {
			return errors.New(errors.ErrCodeInvalidInput, "%s mode needs a label grid or a mask", mode)
		}
	case ModeClasses:
		if in.Positive == nil || in.Negative == nil {
			return errors.New(errors.ErrCodeInvalidInput, "classes mode needs positive and negative masks")
		}
	case ModeDetection:
		if in.Positive == nil {
			return errors.New(errors.ErrCodeInvalidInput, "detection mode needs a detection mask")
		}
	default:
		return ValidateMode(mode)
	}
	return nil
}

// Shape returns the grid dimensions of the first grid set in in.
func (in Input) Shape() (rows, cols int) {
	for _, m := range []*grid.Mask{in.Mask, in.Positive, in.Negative, in.FalsePositive} {
		if m != nil {
			return m.Rows, m.Cols
		}
	}
	if in.Labels != nil {
		return in.Labels.Rows, in.Labels.Cols
	}
	return 0, 0
}

// labels returns the label grid, labelling the mask if none was given.
func (in Input) labels() *grid.Labels {
	if in.Labels != nil {
		return in.Labels
	}
	return grid.Label(in.Mask, grid.Conn8)
}

// Hash identifies the grid contents of in. Source is not part of it, so
// the same masks loaded from different paths share cache entries.
func (in Input) Hash() (string, error) {
	parts := make([][]byte, 0, 6)
	for _, m := range []*grid.Mask{in.Mask, in.Positive, in.Negative, in.FalsePositive} {
		var buf bytes.Buffer
		if m != nil {
			if _, err := m.WriteTo(&buf); err != nil {
				return "", errors.Wrap(errors.ErrCodeInternal, err, "hash input")
			}
		}
		parts = append(parts, buf.Bytes())
	}
	var buf bytes.Buffer
	if in.Labels != nil {
		if _, err := in.Labels.WriteTo(&buf); err != nil {
			return "", errors.Wrap(errors.ErrCodeInternal, err, "hash input")
		}
	}
	parts = append(parts, buf.Bytes())
	return cache.HashAll(parts...), nil
}
