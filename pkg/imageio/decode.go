package imageio

import (
	"bytes"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/matzehuels/imtiler/pkg/errors"
	"github.com/matzehuels/imtiler/pkg/grid"
)

// Decode decodes an image in any registered format.
func Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", errors.Wrap(errors.ErrCodeInvalidImage, err, "decode image")
	}
	return img, format, nil
}

// LoadImage reads and decodes the image file at path.
func LoadImage(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "image %s", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidImage, err, "read %s", path)
	}
	img, _, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidImage, err, "image %s", path)
	}
	return img, nil
}

// LoadMask reads a validity mask from the image file at path.
func LoadMask(path string) (*grid.Mask, error) {
	img, err := LoadImage(path)
	if err != nil {
		return nil, err
	}
	return MaskFromImage(img), nil
}

// LoadLabels reads a label grid from the image file at path.
func LoadLabels(path string) (*grid.Labels, error) {
	img, err := LoadImage(path)
	if err != nil {
		return nil, err
	}
	return LabelsFromImage(img), nil
}

// DecodeMask decodes a validity mask from r.
func DecodeMask(r io.Reader) (*grid.Mask, error) {
	img, _, err := Decode(r)
	if err != nil {
		return nil, err
	}
	return MaskFromImage(img), nil
}

// MaskFromImage marks every non-black, non-transparent pixel as valid.
func MaskFromImage(img image.Image) *grid.Mask {
	b := img.Bounds()
	m := grid.NewMask(b.Dy(), b.Dx())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			if a != 0 && (r|g|bl) != 0 {
				m.Set(y-b.Min.Y, x-b.Min.X, true)
			}
		}
	}
	return m
}

// LabelsFromImage reads one label per pixel: the palette index of paletted
// images and the 16-bit gray value otherwise.
func LabelsFromImage(img image.Image) *grid.Labels {
	b := img.Bounds()
	l := grid.NewLabels(b.Dy(), b.Dx())
	pal, paletted := img.(*image.Paletted)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			var v int
			if paletted {
				v = int(pal.ColorIndexAt(x, y))
			} else {
				v = int(color.Gray16Model.Convert(img.At(x, y)).(color.Gray16).Y)
			}
			l.Set(y-b.Min.Y, x-b.Min.X, v)
		}
	}
	return l
}

// MaskImage renders m as a black and white image.
func MaskImage(m *grid.Mask) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, m.Cols, m.Rows))
	for r := range m.Rows {
		for c := range m.Cols {
			if m.At(r, c) {
				img.Pix[r*img.Stride+c] = 0xff
			}
		}
	}
	return img
}
