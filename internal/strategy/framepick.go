package strategy

import (
	"fmt"
	"image"

	"github.com/ivlev/animcompose/internal/element"
)

type FramePickStrategy interface {
	Pick(e *element.Element, ts, total int) (image.Image, error)
}

// Default loops every animated element independently of the total duration.
type Default struct{}

func (Default) Pick(e *element.Element, ts, _ int) (image.Image, error) {
	switch c := e.Content.(type) {
	case *element.Still:
		return c.Image, nil
	case *element.Animated:
		return c.Timeline.FrameAt(ts % (c.Timeline.Duration() + 1))
	}
	return nil, fmt.Errorf("element has no content")
}
