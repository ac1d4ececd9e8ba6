// Package composable describes the things that can be drawn onto a composite, independent of
// output resolution. Every value is expressed in the coordinate space of one editing canvas.
package composable

import (
	"errors"
	"fmt"
	"image/color"
	"strings"
)

var ErrUnknownDescriptor = errors.New("unknown descriptor type")

// Geometry is the placement shared by every descriptor variant.
type Geometry struct {
	Width    float64 `yaml:"width"`
	Height   float64 `yaml:"height"`
	Left     float64 `yaml:"left"`
	Top      float64 `yaml:"top"`
	ZIndex   int     `yaml:"z_index"`
	Rotation float64 `yaml:"rotation"` // degrees, clockwise
}

// Composable is a closed union: Image, MultiFrame, Text and QRCode are its only members.
type Composable interface {
	Bounds() Geometry
	Kind() Kind
	composable()
}

type Kind string

const (
	KindImage      Kind = "image"
	KindMultiFrame Kind = "multi_frame"
	KindText       Kind = "text"
	KindQRCode     Kind = "qr_code"
)

// Image is a single source reference. The source may be a still raster, a document page or
// an animated file with its own frame data.
type Image struct {
	Geometry    `yaml:",inline"`
	Source      string        `yaml:"source"`
	Page        int           `yaml:"page,omitempty"`
	Direction   PlayDirection `yaml:"direction,omitempty"`
	Orientation int           `yaml:"orientation,omitempty"`
}

// MultiFrame is an ordered list of independent images played as an animation.
type MultiFrame struct {
	Geometry  `yaml:",inline"`
	Frames    []Frame       `yaml:"frames"`
	Alignment Alignment     `yaml:"alignment,omitempty"`
	Direction PlayDirection `yaml:"direction,omitempty"`
}

type Frame struct {
	Source      string `yaml:"source"`
	DelayMillis int    `yaml:"delay"`
	Orientation int    `yaml:"orientation,omitempty"`
}

type Text struct {
	Geometry `yaml:",inline"`
	Content  string    `yaml:"content"`
	Color    string    `yaml:"color,omitempty"` // #rrggbb or #rrggbbaa
	FontSize float64   `yaml:"font_size,omitempty"`
	FontPath string    `yaml:"font_path,omitempty"`
	Align    TextAlign `yaml:"align,omitempty"`
}

type QRCode struct {
	Geometry   `yaml:",inline"`
	Content    string `yaml:"content"`
	Level      string `yaml:"level,omitempty"` // low, medium, high, highest
	Foreground string `yaml:"foreground,omitempty"`
	Background string `yaml:"background,omitempty"`
}

func (d *Image) Bounds() Geometry      { return d.Geometry }
func (d *MultiFrame) Bounds() Geometry { return d.Geometry }
func (d *Text) Bounds() Geometry       { return d.Geometry }
func (d *QRCode) Bounds() Geometry     { return d.Geometry }

func (*Image) Kind() Kind      { return KindImage }
func (*MultiFrame) Kind() Kind { return KindMultiFrame }
func (*Text) Kind() Kind       { return KindText }
func (*QRCode) Kind() Kind     { return KindQRCode }

func (*Image) composable()      {}
func (*MultiFrame) composable() {}
func (*Text) composable()       {}
func (*QRCode) composable()     {}

type PlayDirection string

const (
	Forward   PlayDirection = "forward"
	Reverse   PlayDirection = "reverse"
	Boomerang PlayDirection = "boomerang"
)

// Normalize maps the empty direction to Forward and rejects anything else unknown.
func (p PlayDirection) Normalize() (PlayDirection, error) {
	switch PlayDirection(strings.ToLower(string(p))) {
	case "", Forward:
		return Forward, nil
	case Reverse:
		return Reverse, nil
	case Boomerang:
		return Boomerang, nil
	}
	return "", fmt.Errorf("unknown play direction %q", string(p))
}

type TextAlign string

const (
	AlignLeft   TextAlign = "left"
	AlignCenter TextAlign = "center"
	AlignRight  TextAlign = "right"
)

// ParseColor accepts #rgb, #rrggbb and #rrggbbaa. The empty string yields def.
func ParseColor(s string, def color.NRGBA) (color.NRGBA, error) {
	if s == "" {
		return def, nil
	}
	hex := strings.TrimPrefix(s, "#")
	var r, g, b, a uint8 = 0, 0, 0, 255
	var err error
	switch len(hex) {
	case 3:
		_, err = fmt.Sscanf(hex, "%1x%1x%1x", &r, &g, &b)
		r, g, b = r*17, g*17, b*17
	case 6:
		_, err = fmt.Sscanf(hex, "%2x%2x%2x", &r, &g, &b)
	case 8:
		_, err = fmt.Sscanf(hex, "%2x%2x%2x%2x", &r, &g, &b, &a)
	default:
		err = errors.New("unexpected length")
	}
	if err != nil {
		return def, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.NRGBA{R: r, G: g, B: b, A: a}, nil
}
