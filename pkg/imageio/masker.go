package imageio

import (
	"image"

	"github.com/matzehuels/imtiler/pkg/grid"
)

// Masker derives a validity mask from an image.
type Masker interface {
	Mask(img image.Image) *grid.Mask
}

// MaskerFunc adapts a function to [Masker].
type MaskerFunc func(img image.Image) *grid.Mask

// Mask calls f(img).
func (f MaskerFunc) Mask(img image.Image) *grid.Mask { return f(img) }

// AllValid returns a Masker that marks every pixel valid.
func AllValid() Masker {
	return MaskerFunc(func(img image.Image) *grid.Mask {
		b := img.Bounds()
		return grid.Full(b.Dy(), b.Dx())
	})
}

// Opaque returns a Masker that marks pixels with non-zero alpha valid.
func Opaque() Masker {
	return MaskerFunc(func(img image.Image) *grid.Mask {
		b := img.Bounds()
		m := grid.NewMask(b.Dy(), b.Dx())
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				if _, _, _, a := img.At(x, y).RGBA(); a != 0 {
					m.Set(y-b.Min.Y, x-b.Min.X, true)
				}
			}
		}
		return m
	})
}

// NonZero returns a Masker equivalent to [MaskFromImage].
func NonZero() Masker {
	return MaskerFunc(MaskFromImage)
}

// ParseMasker returns the masker with the given name: "all", "opaque" or
// "nonzero". The empty string selects "all".
func ParseMasker(name string) (Masker, bool) {
	switch name {
	case "", "all":
		return AllValid(), true
	case "opaque":
		return Opaque(), true
	case "nonzero":
		return NonZero(), true
	}
	return nil, false
}
