package animated

import (
	"image"

	_ "github.com/deepteams/webp"
	"github.com/deepteams/webp/animation"
)

type webpStepper struct {
	dec    *animation.AnimDecoder
	delays []int
	w, h   int
}

func NewWebPStepper(data []byte) (Stepper, error) {
	anim, err := animation.DecodeBytes(data)
	if err != nil {
		return nil, err
	}
	if len(anim.Frames) == 0 {
		return nil, animation.ErrNoFrames
	}
	if err := anim.DecodeFrames(); err != nil {
		return nil, err
	}
	delays := make([]int, len(anim.Frames))
	for i, f := range anim.Frames {
		delays[i] = int(f.Duration.Milliseconds())
	}
	return &webpStepper{
		dec:    animation.NewAnimDecoder(anim),
		delays: delays,
		w:      anim.CanvasWidth,
		h:      anim.CanvasHeight,
	}, nil
}

func (s *webpStepper) Delays() []int     { return s.delays }
func (s *webpStepper) Size() (int, int) { return s.w, s.h }

func (s *webpStepper) Next() (image.Image, error) {
	if !s.dec.HasNext() {
		s.dec.Reset()
	}
	img, _, err := s.dec.NextFrame()
	if err != nil {
		return nil, err
	}
	return img, nil
}
