package encoder

import (
	"image"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/deepteams/webp"
)

type PNG struct{}

func (*PNG) Encode(w io.Writer, img image.Image, _ int) error {
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	return wrap("png", enc.Encode(w, img))
}

func (*PNG) Extension() string { return ".png" }

type JPEG struct{}

func (*JPEG) Encode(w io.Writer, img image.Image, quality int) error {
	return wrap("jpeg", jpeg.Encode(w, img, &jpeg.Options{Quality: clampQuality(quality)}))
}

func (*JPEG) Extension() string { return ".jpg" }

type WebP struct{}

func (*WebP) Encode(w io.Writer, img image.Image, quality int) error {
	opts := webp.DefaultOptions()
	opts.Quality = float32(clampQuality(quality))
	return wrap("webp", webp.Encode(w, img, opts))
}

func (*WebP) Extension() string { return ".webp" }

func clampQuality(q int) int {
	switch {
	case q <= 0:
		return 90
	case q > 100:
		return 100
	}
	return q
}
