package encoder

import (
	"context"
	"image"
	"io"
	"time"

	"github.com/deepteams/webp/animation"
)

type AnimatedWebP struct {
	quality int
	enc     *animation.AnimEncoder
	delay   time.Duration
}

func NewAnimatedWebP(quality int) *AnimatedWebP {
	return &AnimatedWebP{quality: clampQuality(quality)}
}

func (e *AnimatedWebP) Start(_ context.Context, w io.Writer, width, height int) error {
	e.enc = animation.NewEncoder(w, width, height, &animation.EncodeOptions{
		Quality:    e.quality,
		AllowMixed: true,
	})
	return nil
}

func (e *AnimatedWebP) SetFrameDelay(ms int) { e.delay = time.Duration(ms) * time.Millisecond }

func (e *AnimatedWebP) AddFrame(img image.Image) error {
	if e.enc == nil {
		return wrap("webp", errNotStarted)
	}
	return wrap("webp", e.enc.AddFrame(img, e.delay))
}

func (e *AnimatedWebP) Finish() error {
	if e.enc == nil {
		return wrap("webp", errNotStarted)
	}
	return wrap("webp", e.enc.Close())
}

func (e *AnimatedWebP) Extension() string { return ".webp" }
