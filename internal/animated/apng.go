package animated

import (
	"bytes"
	"errors"
	"image"
	"image/draw"

	"github.com/kettek/apng"
)

type apngStepper struct {
	frames []apng.Frame
	delays []int
	canvas *image.NRGBA
	saved  *image.NRGBA
	pos    int
}

func NewAPNGStepper(data []byte) (Stepper, error) {
	a, err := apng.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var frames []apng.Frame
	for _, f := range a.Frames {
		if f.IsDefault {
			continue
		}
		frames = append(frames, f)
	}
	if len(frames) == 0 {
		return nil, errors.New("apng: no animation frames")
	}

	var w, h int
	for _, f := range frames {
		b := f.Image.Bounds()
		w = max(w, f.XOffset+b.Dx())
		h = max(h, f.YOffset+b.Dy())
	}
	delays := make([]int, len(frames))
	for i, f := range frames {
		delays[i] = int(f.GetDelay() * 1000)
	}
	return &apngStepper{
		frames: frames,
		delays: delays,
		canvas: image.NewNRGBA(image.Rect(0, 0, w, h)),
		pos:    -1,
	}, nil
}

func (s *apngStepper) Delays() []int { return s.delays }

func (s *apngStepper) Size() (int, int) {
	b := s.canvas.Bounds()
	return b.Dx(), b.Dy()
}

func (s *apngStepper) Next() (image.Image, error) {
	if s.pos >= 0 {
		s.dispose(s.pos)
	}
	s.pos = (s.pos + 1) % len(s.frames)
	if s.pos == 0 {
		draw.Draw(s.canvas, s.canvas.Bounds(), image.Transparent, image.Point{}, draw.Src)
	}

	f := s.frames[s.pos]
	if f.DisposeOp == apng.DISPOSE_OP_PREVIOUS {
		if s.saved == nil {
			s.saved = image.NewNRGBA(s.canvas.Bounds())
		}
		copy(s.saved.Pix, s.canvas.Pix)
	}
	op := draw.Over
	if f.BlendOp == apng.BLEND_OP_SOURCE {
		op = draw.Src
	}
	src := f.Image
	dst := src.Bounds().Sub(src.Bounds().Min).Add(image.Pt(f.XOffset, f.YOffset))
	draw.Draw(s.canvas, dst, src, src.Bounds().Min, op)

	out := image.NewNRGBA(s.canvas.Bounds())
	copy(out.Pix, s.canvas.Pix)
	return out, nil
}

func (s *apngStepper) dispose(i int) {
	f := s.frames[i]
	switch f.DisposeOp {
	case apng.DISPOSE_OP_BACKGROUND:
		b := f.Image.Bounds()
		r := b.Sub(b.Min).Add(image.Pt(f.XOffset, f.YOffset))
		draw.Draw(s.canvas, r, image.Transparent, image.Point{}, draw.Src)
	case apng.DISPOSE_OP_PREVIOUS:
		if s.saved != nil {
			copy(s.canvas.Pix, s.saved.Pix)
		}
	}
}
