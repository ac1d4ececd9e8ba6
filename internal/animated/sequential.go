package animated

import (
	"fmt"
	"image"

	"github.com/ivlev/animcompose/internal/composable"
)

// Stepper is a forward-only decoder. Next returns the frame after the previous call,
// wrapping to the first frame after the last one.
type Stepper interface {
	Delays() []int
	Size() (int, int)
	Next() (image.Image, error)
}

// Sequential is a Timeline over a Stepper.
type Sequential struct {
	schedule
	stepper Stepper
	place   func(image.Image) image.Image

	cursor   int // source index of the stepper's last frame, -1 before the first advance
	cached   image.Image
	advances int
}

// NewSequential wraps st. place, if non-nil, is applied to every frame handed out.
func NewSequential(st Stepper, dir composable.PlayDirection, place func(image.Image) image.Image) (*Sequential, error) {
	sched, err := newSchedule(st.Delays(), dir)
	if err != nil {
		return nil, err
	}
	return &Sequential{schedule: sched, stepper: st, place: place, cursor: -1}, nil
}

func (s *Sequential) Access() Access { return SequentialAdvanceOnly }

func (s *Sequential) FrameAt(ts int) (image.Image, error) {
	return s.frame(s.SourceIndex(s.FindFrameByTimestamp(ts)))
}

// Advances reports how many times the underlying stepper has been advanced.
func (s *Sequential) Advances() int { return s.advances }

func (s *Sequential) frame(k int) (image.Image, error) {
	n := len(s.stepper.Delays())
	steps := k + 1
	if s.cursor >= 0 {
		steps = ((k-s.cursor)%n + n) % n
	}
	if steps == 0 && s.cached != nil {
		return s.cached, nil
	}

	var img image.Image
	for i := 0; i < steps; i++ {
		next, err := s.stepper.Next()
		if err != nil {
			return nil, fmt.Errorf("advancing to frame %d: %w", k, err)
		}
		img = next
		s.advances++
	}
	if s.place != nil {
		img = s.place(img)
	}
	s.cursor = k
	s.cached = img
	return img, nil
}
