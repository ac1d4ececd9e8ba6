package element

import (
	"image"
	"image/draw"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"

	"github.com/ivlev/animcompose/internal/composable"
)

// orient rotates img clockwise by a multiple of 90 degrees. imaging rotates counter-clockwise.
func orient(img image.Image, degrees int) image.Image {
	switch composable.NormalizeDegrees(degrees) {
	case 90:
		return imaging.Rotate270(img)
	case 180:
		return imaging.Rotate180(img)
	case 270:
		return imaging.Rotate90(img)
	}
	return img
}

// scaleTo resamples img to exactly w x h.
func scaleTo(img image.Image, w, h int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	b := img.Bounds()
	if b.Dx() == w && b.Dy() == h {
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
		return dst
	}
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

// centerIn places img in the middle of a transparent w x h box.
func centerIn(img image.Image, w, h int) *image.NRGBA {
	box := image.NewNRGBA(image.Rect(0, 0, w, h))
	b := img.Bounds()
	at := image.Pt((w-b.Dx())/2, (h-b.Dy())/2)
	draw.Draw(box, b.Sub(b.Min).Add(at), img, b.Min, draw.Over)
	return box
}
