package strategy

import (
	"math"

	"github.com/ivlev/animcompose/internal/animated"
	"github.com/ivlev/animcompose/internal/element"
)

// DefaultMinFrameDelay is the smallest gap between two output timestamps at speed 1.
const DefaultMinFrameDelay = 60

type FrameRateStrategy interface {
	// Calculate returns ascending output timestamps ending at total. speed must be positive.
	Calculate(animated []*element.Element, total int, speed float64) []int
}

// Smooth emits a timestamp at every frame boundary of any element, but never closer than
// MinFrameDelay*speed to the previous one.
type Smooth struct {
	MinFrameDelay int
}

type boundaryCursor struct {
	tl       animated.Timeline
	pos      int
	boundary int
}

func (s Smooth) floor(speed float64) int {
	minDelay := s.MinFrameDelay
	if minDelay <= 0 {
		minDelay = DefaultMinFrameDelay
	}
	return max(1, int(math.Floor(float64(minDelay)*speed)))
}

func (s Smooth) Calculate(elems []*element.Element, total int, speed float64) []int {
	var cursors []*boundaryCursor
	for _, e := range elems {
		a, ok := e.Content.(*element.Animated)
		if !ok || a.Timeline.FrameCount() == 0 {
			continue
		}
		cursors = append(cursors, &boundaryCursor{tl: a.Timeline, boundary: a.Timeline.DelayOfFrame(0)})
	}
	if len(cursors) == 0 || total <= 0 {
		return []int{0}
	}

	floor := s.floor(speed)
	var out []int
	prev := 0
	for {
		next := math.MaxInt
		for _, c := range cursors {
			for c.boundary <= prev {
				c.pos = (c.pos + 1) % c.tl.FrameCount()
				c.boundary += c.tl.DelayOfFrame(c.pos)
			}
			// strict comparison: on equal boundaries the earlier element wins
			if c.boundary < next {
				next = c.boundary
			}
		}
		next = max(next, prev+floor)
		if next >= total {
			break
		}
		out = append(out, next)
		prev = next
	}

	if n := len(out); n > 0 && total-out[n-1] < floor {
		out[n-1] = total
	} else {
		out = append(out, total)
	}
	return out
}

// OutputDelay is the encoded delay of frame i: the gap to the previous timestamp in output
// time, rounded down. A frame is never encoded with a zero delay.
func OutputDelay(timestamps []int, i int, speed float64) int {
	prev := 0
	if i > 0 {
		prev = timestamps[i-1]
	}
	return max(1, int(math.Floor(float64(timestamps[i]-prev)/speed)))
}
