package encoder

import (
	"context"
	"errors"
	"image"
	"image/draw"
	"io"

	"github.com/kettek/apng"
)

var errNotStarted = errors.New("encoder not started")

type APNG struct {
	w     io.Writer
	anim  apng.APNG
	delay int
	open  bool
}

func NewAPNG() *APNG { return &APNG{} }

func (e *APNG) Start(_ context.Context, w io.Writer, _, _ int) error {
	e.w = w
	e.anim = apng.APNG{}
	e.open = true
	return nil
}

func (e *APNG) SetFrameDelay(ms int) { e.delay = ms }

func (e *APNG) AddFrame(img image.Image) error {
	if !e.open {
		return wrap("apng", errNotStarted)
	}
	// the caller recycles img
	b := img.Bounds()
	own := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(own, own.Bounds(), img, b.Min, draw.Src)

	e.anim.Frames = append(e.anim.Frames, apng.Frame{
		Image:            own,
		DelayNumerator:   uint16(min(e.delay, 65535)),
		DelayDenominator: 1000,
		DisposeOp:        apng.DISPOSE_OP_BACKGROUND,
		BlendOp:          apng.BLEND_OP_SOURCE,
	})
	return nil
}

func (e *APNG) Finish() error {
	if !e.open {
		return wrap("apng", errNotStarted)
	}
	return wrap("apng", apng.Encode(e.w, e.anim))
}

func (e *APNG) Extension() string { return ".png" }
