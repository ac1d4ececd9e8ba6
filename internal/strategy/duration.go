// Package strategy holds the pluggable policies that merge independent element timelines
// into one output schedule.
package strategy

import "github.com/ivlev/animcompose/internal/element"

// DefaultLCMCap bounds LeastCommonMultiple, in milliseconds.
const DefaultLCMCap = 30000

type DurationStrategy interface {
	Calculate(anchor *element.Element, animated []*element.Element) int
}

// BackgroundFirst lets the anchor (background) element dictate the total length; overlays
// loop or get truncated. A static anchor has no length of its own, so the longest animated
// element is used instead.
type BackgroundFirst struct{}

func (BackgroundFirst) Calculate(anchor *element.Element, animated []*element.Element) int {
	if anchor != nil && anchor.IsAnimated() {
		return anchor.Duration()
	}
	return Longest{}.Calculate(anchor, animated)
}

type Longest struct{}

func (Longest) Calculate(_ *element.Element, animated []*element.Element) int {
	longest := 0
	for _, e := range animated {
		longest = max(longest, e.Duration())
	}
	return longest
}

// LeastCommonMultiple plays until every element completes a whole number of loops, but
// never longer than Cap (or the longest element, when that is larger).
type LeastCommonMultiple struct {
	Cap int
}

func (s LeastCommonMultiple) Calculate(anchor *element.Element, animated []*element.Element) int {
	limit := s.Cap
	if limit <= 0 {
		limit = DefaultLCMCap
	}
	longest := Longest{}.Calculate(anchor, animated)
	limit = max(limit, longest)

	total := 0
	for _, e := range animated {
		d := e.Duration()
		if d <= 0 {
			continue
		}
		if total == 0 {
			total = d
			continue
		}
		total = total / gcd(total, d) * d
		if total > limit {
			return limit
		}
	}
	return total
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
