package encoder

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"io"

	"github.com/ericpauley/go-quantize/quantize"
)

// GIF buffers paletted frames and writes the file on Finish. image/gif has no streaming
// writer.
type GIF struct {
	w         io.Writer
	anim      *gif.GIF
	delay     int
	elapsedMs int
	emittedCs int
}

func NewGIF() *GIF { return &GIF{} }

func (e *GIF) Start(_ context.Context, w io.Writer, width, height int) error {
	e.w = w
	e.anim = &gif.GIF{
		Config: image.Config{Width: width, Height: height},
	}
	e.elapsedMs, e.emittedCs = 0, 0
	return nil
}

func (e *GIF) SetFrameDelay(ms int) { e.delay = ms }

func (e *GIF) AddFrame(img image.Image) error {
	if e.anim == nil {
		return wrap("gif", errNotStarted)
	}
	b := img.Bounds()
	transparent := hasAlpha(img)

	size := 256
	if transparent {
		size = 255
	}
	q := quantize.MedianCutQuantizer{}
	palette := q.Quantize(make(color.Palette, 0, size), img)
	if transparent {
		palette = append(palette, color.Transparent)
	}

	frame := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), palette)
	draw.FloydSteinberg.Draw(frame, frame.Bounds(), img, b.Min)

	e.anim.Image = append(e.anim.Image, frame)
	e.anim.Delay = append(e.anim.Delay, e.centiseconds())
	e.anim.Disposal = append(e.anim.Disposal, gif.DisposalBackground)
	return nil
}

// centiseconds converts the pending delay, carrying the rounding error into later frames so
// the total length stays exact.
func (e *GIF) centiseconds() int {
	e.elapsedMs += e.delay
	cs := e.elapsedMs/10 - e.emittedCs
	if cs < 2 {
		cs = 2
	}
	e.emittedCs += cs
	return cs
}

func (e *GIF) Finish() error {
	if e.anim == nil {
		return wrap("gif", errNotStarted)
	}
	return wrap("gif", gif.EncodeAll(e.w, e.anim))
}

func (e *GIF) Extension() string { return ".gif" }

func hasAlpha(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	return true
}
