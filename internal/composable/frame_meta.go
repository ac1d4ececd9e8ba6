package composable

import (
	"fmt"
	"math"
	"strings"
)

// Alignment decides how a frame whose aspect ratio differs from its element box is laid out.
type Alignment string

const (
	// AlignCrop scales the frame so its short axis fills the box and center-crops the rest.
	AlignCrop Alignment = "crop"
	// AlignPad keeps the whole frame visible and pads the remaining box area.
	AlignPad Alignment = "pad"
)

func (a Alignment) Normalize() (Alignment, error) {
	switch Alignment(strings.ToLower(string(a))) {
	case "", AlignCrop:
		return AlignCrop, nil
	case AlignPad:
		return AlignPad, nil
	}
	return "", fmt.Errorf("unknown frame alignment %q", string(a))
}

// FrameMeta is the layout of one frame of a multi-frame element, relative to the element box.
type FrameMeta struct {
	Source      string
	Width       float64
	Height      float64
	Left        float64
	Top         float64
	DelayMillis int
	Orientation int
}

// DeriveFrameMeta lays out a frame whose (already oriented) source is srcW x srcH pixels
// inside a box of boxW x boxH.
func DeriveFrameMeta(f Frame, srcW, srcH int, boxW, boxH float64, a Alignment) FrameMeta {
	meta := FrameMeta{
		Source:      f.Source,
		DelayMillis: f.DelayMillis,
		Orientation: f.Orientation,
		Width:       boxW,
		Height:      boxH,
	}
	if srcW <= 0 || srcH <= 0 {
		return meta
	}
	sx := boxW / float64(srcW)
	sy := boxH / float64(srcH)
	scale := math.Max(sx, sy)
	if a == AlignPad {
		scale = math.Min(sx, sy)
	}
	meta.Width = float64(srcW) * scale
	meta.Height = float64(srcH) * scale
	meta.Left = (boxW - meta.Width) / 2
	meta.Top = (boxH - meta.Height) / 2
	return meta
}

// Scale returns the meta with every length multiplied by ratio.
func (m FrameMeta) Scale(ratio float64) FrameMeta {
	m.Width *= ratio
	m.Height *= ratio
	m.Left *= ratio
	m.Top *= ratio
	return m
}

// OrientedSize swaps width and height for quarter-turn orientations.
func OrientedSize(w, h, orientation int) (int, int) {
	switch NormalizeDegrees(orientation) {
	case 90, 270:
		return h, w
	}
	return w, h
}

func NormalizeDegrees(d int) int {
	d %= 360
	if d < 0 {
		d += 360
	}
	return d
}
