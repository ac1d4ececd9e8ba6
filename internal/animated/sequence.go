package animated

import (
	"fmt"
	"image"
	"image/draw"
	"math"

	"github.com/ivlev/animcompose/internal/composable"
)

// FrameLoader decodes the source of one frame and scales it to the size in meta.
type FrameLoader func(meta composable.FrameMeta) (image.Image, error)

// Sequence is a random-access Timeline over independent image files. Each frame is loaded
// on demand and laid out inside the element box according to its FrameMeta.
type Sequence struct {
	schedule
	metas      []composable.FrameMeta
	load       FrameLoader
	boxW, boxH int

	cachedIdx int
	cached    image.Image
}

func NewSequence(metas []composable.FrameMeta, boxW, boxH int, dir composable.PlayDirection, load FrameLoader) (*Sequence, error) {
	delays := make([]int, len(metas))
	for i, m := range metas {
		delays[i] = m.DelayMillis
	}
	sched, err := newSchedule(delays, dir)
	if err != nil {
		return nil, err
	}
	return &Sequence{
		schedule:  sched,
		metas:     metas,
		load:      load,
		boxW:      boxW,
		boxH:      boxH,
		cachedIdx: -1,
	}, nil
}

func (s *Sequence) Access() Access { return RandomAccess }

func (s *Sequence) FrameAt(ts int) (image.Image, error) {
	src := s.SourceIndex(s.FindFrameByTimestamp(ts))
	if src == s.cachedIdx && s.cached != nil {
		return s.cached, nil
	}

	meta := s.metas[src]
	img, err := s.load(meta)
	if err != nil {
		return nil, fmt.Errorf("frame %d (%s): %w", src, meta.Source, err)
	}
	box := image.NewNRGBA(image.Rect(0, 0, s.boxW, s.boxH))
	at := image.Pt(int(math.Round(meta.Left)), int(math.Round(meta.Top)))
	draw.Draw(box, img.Bounds().Sub(img.Bounds().Min).Add(at), img, img.Bounds().Min, draw.Over)

	s.cachedIdx = src
	s.cached = box
	return box, nil
}
