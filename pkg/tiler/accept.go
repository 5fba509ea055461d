package tiler

import (
	"math"
	"strconv"
	"strings"

	"github.com/matzehuels/imtiler/pkg/errors"
)

type acceptKind int

const (
	acceptDefault acceptKind = iota
	acceptNone
	acceptMin
	acceptMax
	acceptMask
	acceptFraction
)

// Accept is a parsed acceptance specification: the largest fraction of a
// tile footprint that may already be claimed (seen or invalid) for the
// tile to be accepted.
//
// The zero value means the default fraction 0.5.
type Accept struct {
	kind  acceptKind
	value float64
}

// Preset acceptance specifications.
var (
	// AcceptNone accepts only tiles with no claimed pixel and enables
	// strict mode.
	AcceptNone = Accept{kind: acceptNone}
	// AcceptMin tolerates two claimed pixels.
	AcceptMin = Accept{kind: acceptMin}
	// AcceptMax rejects only fully claimed tiles, up to two pixels.
	AcceptMax = Accept{kind: acceptMax}
	// AcceptMask uses the fraction of invalid pixels in the grid.
	AcceptMask = Accept{kind: acceptMask}
)

// AcceptFraction returns an Accept for a fixed fraction in [0, 1].
func AcceptFraction(f float64) Accept {
	return Accept{kind: acceptFraction, value: f}
}

// ParseAccept parses an acceptance specification. Recognised forms are the
// presets "none", "min", "max" and "mask", a fraction in [0, 1], or a
// percentage in (1, 100] with an optional "%" suffix.
func ParseAccept(s string) (Accept, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "":
		return Accept{}, nil
	case "none":
		return AcceptNone, nil
	case "min":
		return AcceptMin, nil
	case "max":
		return AcceptMax, nil
	case "mask":
		return AcceptMask, nil
	}

	percent := strings.HasSuffix(v, "%")
	f, err := strconv.ParseFloat(strings.TrimSuffix(v, "%"), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return Accept{}, errors.New(errors.ErrCodeInvalidAccept, "invalid accept value %q", s)
	}
	if percent || f > 1 {
		if f < 0 || f > 100 {
			return Accept{}, errors.New(errors.ErrCodeInvalidAccept, "accept percentage %q out of range [0, 100]", s)
		}
		f /= 100
	}
	if f < 0 || f > 1 {
		return Accept{}, errors.New(errors.ErrCodeInvalidAccept, "accept value %q out of range", s)
	}
	return AcceptFraction(f), nil
}

// MustParseAccept is like ParseAccept but panics on error.
func MustParseAccept(s string) Accept {
	a, err := ParseAccept(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Strict reports whether a is the "none" preset.
func (a Accept) Strict() bool { return a.kind == acceptNone }

// Resolve returns the accepted fraction for a tile of the given area over
// a grid whose invalid pixel fraction is invalid.
func (a Accept) Resolve(area int, invalid float64) float64 {
	switch a.kind {
	case acceptNone:
		return 0
	case acceptMin:
		return 2 / float64(area)
	case acceptMax:
		return float64(area-2) / float64(area)
	case acceptMask:
		return invalid
	case acceptFraction:
		return a.value
	default:
		return DefaultAccept
	}
}

// fracEps absorbs the rounding error of fraction-times-count products such
// as 0.29*100, which must count as 29.
const fracEps = 1e-9

// MaxSeen returns the number of claimed pixels a tile of the given area
// may contain. The presets resolve to exact counts: none is 0, min is 2
// and max is area-2, clamped to [0, area].
func (a Accept) MaxSeen(area int, invalid float64) int {
	var n int
	switch a.kind {
	case acceptNone:
		n = 0
	case acceptMin:
		n = 2
	case acceptMax:
		n = area - 2
	default:
		n = int(math.Floor(a.Resolve(area, invalid)*float64(area) + fracEps))
	}
	return min(max(n, 0), area)
}

func (a Accept) validate() error {
	if a.kind == acceptFraction && (a.value < 0 || a.value > 1 || math.IsNaN(a.value)) {
		return errors.New(errors.ErrCodeInvalidAccept, "accept fraction %v out of range [0, 1]", a.value)
	}
	return nil
}

// String returns the canonical text form of a.
func (a Accept) String() string {
	switch a.kind {
	case acceptNone:
		return "none"
	case acceptMin:
		return "min"
	case acceptMax:
		return "max"
	case acceptMask:
		return "mask"
	case acceptFraction:
		return strconv.FormatFloat(a.value, 'g', -1, 64)
	default:
		return strconv.FormatFloat(DefaultAccept, 'g', -1, 64)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (a Accept) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Accept) UnmarshalText(text []byte) error {
	v, err := ParseAccept(string(text))
	if err != nil {
		return err
	}
	*a = v
	return nil
}
