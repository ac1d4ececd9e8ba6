// Package element turns resolution-independent descriptors into drawable, output-scaled
// elements.
package element

import (
	"errors"
	"image"

	"github.com/ivlev/animcompose/internal/animated"
)

var ErrResourceLoad = errors.New("resource load failure")

// Element is the realized counterpart of one descriptor, in output pixels.
type Element struct {
	Width    int
	Height   int
	Left     int
	Top      int
	ZIndex   int
	Rotation float64
	Content  Content
}

// Content is either *Still or *Animated.
type Content interface {
	content()
}

type Still struct {
	Image image.Image
}

type Animated struct {
	Timeline animated.Timeline
}

func (*Still) content()    {}
func (*Animated) content() {}

func (e *Element) IsAnimated() bool {
	_, ok := e.Content.(*Animated)
	return ok
}

// Duration is the timeline duration of an animated element and 0 for a still one.
func (e *Element) Duration() int {
	if a, ok := e.Content.(*Animated); ok {
		return a.Timeline.Duration()
	}
	return 0
}

// AnimatedOnly returns the animated subset of elems, preserving order.
func AnimatedOnly(elems []*Element) []*Element {
	var out []*Element
	for _, e := range elems {
		if e.IsAnimated() {
			out = append(out, e)
		}
	}
	return out
}
