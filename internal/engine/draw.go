package engine

import (
	"image"
	"image/draw"
	"math"

	"github.com/anthonynsimon/bild/transform"

	"github.com/ivlev/animcompose/internal/element"
)

func drawElement(dst draw.Image, el *element.Element, img image.Image) {
	if img == nil {
		return
	}
	placeImage(dst, el, rotate(img, el.Rotation))
}

// placeImage draws an already rotated bitmap so that its visual center lands on the
// element's center, whatever bounds growth the rotation introduced.
func placeImage(dst draw.Image, el *element.Element, img image.Image) {
	b := img.Bounds()
	x := el.Left + (el.Width-b.Dx())/2
	y := el.Top + (el.Height-b.Dy())/2
	r := image.Rect(x, y, x+b.Dx(), y+b.Dy())
	draw.Draw(dst, r, img, b.Min, draw.Over)
}

func rotate(img image.Image, degrees float64) image.Image {
	if math.Mod(degrees, 360) == 0 {
		return img
	}
	return transform.Rotate(img, degrees, &transform.RotationOptions{ResizeBounds: true})
}
