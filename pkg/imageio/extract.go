package imageio

import (
	"image"

	"golang.org/x/image/draw"

	"github.com/matzehuels/imtiler/pkg/tiler"
)

// Extract copies tile t out of img. Tile coordinates are relative to the
// image bounds; parts of the tile outside the image are zero. Gray images
// stay gray, everything else becomes RGBA.
func Extract(img image.Image, t tiler.Tile) image.Image {
	dst := newLike(img, image.Rect(0, 0, t.Dim, t.Dim))
	origin := img.Bounds().Min.Add(image.Pt(t.Col, t.Row))
	draw.Draw(dst, dst.Bounds(), img, origin, draw.Src)
	return dst
}

func newLike(img image.Image, r image.Rectangle) draw.Image {
	switch img.(type) {
	case *image.Gray:
		return image.NewGray(r)
	case *image.Gray16:
		return image.NewGray16(r)
	default:
		return image.NewRGBA(r)
	}
}

// Thumbnail scales img to fit within w x h, keeping the aspect ratio.
// Nearest-neighbour sampling keeps mask edges crisp.
func Thumbnail(img image.Image, w, h int) image.Image {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 || w <= 0 || h <= 0 {
		return image.NewRGBA(image.Rect(0, 0, max(w, 0), max(h, 0)))
	}
	scale := min(float64(w)/float64(b.Dx()), float64(h)/float64(b.Dy()))
	tw := max(1, int(float64(b.Dx())*scale))
	th := max(1, int(float64(b.Dy())*scale))
	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
