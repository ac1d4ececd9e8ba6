// Package animated exposes heterogeneous animated sources through one time-addressed
// interface. Every Timeline owns a cursor and a one-frame cache and must not be shared
// between goroutines.
package animated

import (
	"fmt"
	"image"
	"sort"

	"github.com/ivlev/animcompose/internal/composable"
)

// DefaultFrameDelay replaces missing or non-positive native frame delays, in milliseconds.
const DefaultFrameDelay = 100

type Access int

const (
	// RandomAccess timelines decode any frame directly.
	RandomAccess Access = iota
	// SequentialAdvanceOnly timelines can only step forward. Reaching an earlier frame means
	// wrapping around through the rest of the source, so callers should query increasing
	// timestamps.
	SequentialAdvanceOnly
)

func (a Access) String() string {
	if a == SequentialAdvanceOnly {
		return "sequential"
	}
	return "random"
}

type Timeline interface {
	FrameCount() int
	DelayOfFrame(i int) int
	// Duration is the sum of all frame delays in milliseconds.
	Duration() int
	// FindFrameByTimestamp returns the first frame whose cumulative end time is not before ts.
	FindFrameByTimestamp(ts int) int
	FrameAt(ts int) (image.Image, error)
	Access() Access
}

// NormalizeDelay maps non-positive delays to DefaultFrameDelay.
func NormalizeDelay(ms int) int {
	if ms <= 0 {
		return DefaultFrameDelay
	}
	return ms
}

// schedule is the play-ordered frame list of a timeline together with its cumulative
// timestamps. It is built once and never changes.
type schedule struct {
	order      []int // play position -> source frame index
	delays     []int // play position -> delay in ms
	cumulative []int
}

func newSchedule(native []int, dir composable.PlayDirection) (schedule, error) {
	if len(native) == 0 {
		return schedule{}, fmt.Errorf("timeline has no frames")
	}
	order, err := playOrder(len(native), dir)
	if err != nil {
		return schedule{}, err
	}
	s := schedule{
		order:      order,
		delays:     make([]int, len(order)),
		cumulative: make([]int, len(order)),
	}
	sum := 0
	for i, src := range order {
		d := NormalizeDelay(native[src])
		s.delays[i] = d
		sum += d
		s.cumulative[i] = sum
	}
	return s, nil
}

// playOrder expands a source of n frames into the index order for dir. Boomerang plays the
// source forward then back without repeating the turning frame: 2n-1 entries.
func playOrder(n int, dir composable.PlayDirection) ([]int, error) {
	dir, err := dir.Normalize()
	if err != nil {
		return nil, err
	}
	order := make([]int, 0, 2*n)
	switch dir {
	case composable.Reverse:
		for i := n - 1; i >= 0; i-- {
			order = append(order, i)
		}
	case composable.Boomerang:
		for i := 0; i < n; i++ {
			order = append(order, i)
		}
		for i := n - 2; i >= 0; i-- {
			order = append(order, i)
		}
	default:
		for i := 0; i < n; i++ {
			order = append(order, i)
		}
	}
	return order, nil
}

func (s *schedule) FrameCount() int { return len(s.order) }

func (s *schedule) DelayOfFrame(i int) int { return s.delays[i] }

func (s *schedule) Duration() int {
	if len(s.cumulative) == 0 {
		return 0
	}
	return s.cumulative[len(s.cumulative)-1]
}

func (s *schedule) FindFrameByTimestamp(ts int) int {
	i := sort.SearchInts(s.cumulative, ts)
	if i >= len(s.cumulative) {
		return len(s.cumulative) - 1
	}
	return i
}

// SourceIndex maps a play position to the frame index in the underlying source.
func (s *schedule) SourceIndex(i int) int { return s.order[i] }

// Cumulative returns a copy of the cumulative timestamps.
func (s *schedule) Cumulative() []int {
	out := make([]int, len(s.cumulative))
	copy(out, s.cumulative)
	return out
}
