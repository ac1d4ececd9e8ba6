package animated

import (
	"bytes"
	"image"
	"image/draw"
	"image/gif"
)

// gifStepper composites GIF frames onto a logical screen, honouring disposal.
type gifStepper struct {
	g      *gif.GIF
	delays []int
	canvas *image.NRGBA
	saved  *image.NRGBA // canvas before the current frame, for DisposalPrevious
	pos    int
}

func NewGIFStepper(data []byte) (Stepper, error) {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	w, h := g.Config.Width, g.Config.Height
	if w == 0 || h == 0 {
		b := g.Image[0].Bounds()
		w, h = b.Max.X, b.Max.Y
	}
	delays := make([]int, len(g.Image))
	for i, d := range g.Delay {
		delays[i] = d * 10
	}
	return &gifStepper{
		g:      g,
		delays: delays,
		canvas: image.NewNRGBA(image.Rect(0, 0, w, h)),
		pos:    -1,
	}, nil
}

func (s *gifStepper) Delays() []int { return s.delays }

func (s *gifStepper) Size() (int, int) {
	b := s.canvas.Bounds()
	return b.Dx(), b.Dy()
}

func (s *gifStepper) Next() (image.Image, error) {
	if s.pos >= 0 {
		s.dispose(s.pos)
	}
	s.pos = (s.pos + 1) % len(s.g.Image)
	if s.pos == 0 {
		draw.Draw(s.canvas, s.canvas.Bounds(), image.Transparent, image.Point{}, draw.Src)
	}

	frame := s.g.Image[s.pos]
	if s.disposal(s.pos) == gif.DisposalPrevious {
		if s.saved == nil {
			s.saved = image.NewNRGBA(s.canvas.Bounds())
		}
		copy(s.saved.Pix, s.canvas.Pix)
	}
	draw.Draw(s.canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)

	out := image.NewNRGBA(s.canvas.Bounds())
	copy(out.Pix, s.canvas.Pix)
	return out, nil
}

func (s *gifStepper) disposal(i int) byte {
	if i < len(s.g.Disposal) {
		return s.g.Disposal[i]
	}
	return gif.DisposalNone
}

func (s *gifStepper) dispose(i int) {
	switch s.disposal(i) {
	case gif.DisposalBackground:
		draw.Draw(s.canvas, s.g.Image[i].Bounds(), image.Transparent, image.Point{}, draw.Src)
	case gif.DisposalPrevious:
		if s.saved != nil {
			copy(s.canvas.Pix, s.saved.Pix)
		}
	}
}
