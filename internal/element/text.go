package element

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/ivlev/animcompose/internal/composable"
)

var defaultTextColor = color.NRGBA{R: 0, G: 0, B: 0, A: 255}

func (r *Realizer) text(ctx context.Context, d *composable.Text, w, h int) (Content, error) {
	ttf := goregular.TTF
	if d.FontPath != "" {
		data, err := r.load(ctx, d.FontPath)
		if err != nil {
			return nil, err
		}
		ttf = data
	}
	f, err := opentype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("%w: font %s: %w", ErrResourceLoad, d.FontPath, err)
	}

	col, err := composable.ParseColor(d.Color, defaultTextColor)
	if err != nil {
		return nil, err
	}

	lines := strings.Split(d.Content, "\n")
	size := d.FontSize * r.Ratio
	if size <= 0 {
		size = 0.8 * float64(h) / float64(len(lines))
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("building font face: %w", err)
	}
	defer face.Close()

	return &Still{Image: drawLines(lines, face, col, d.Align, w, h)}, nil
}

func drawLines(lines []string, face font.Face, col color.Color, align composable.TextAlign, w, h int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	m := face.Metrics()
	lineHeight := m.Height
	block := lineHeight.Mul(fixed.I(len(lines)))
	// vertically centered block
	y := (fixed.I(h)-block)/2 + m.Ascent

	d := &font.Drawer{Dst: dst, Src: image.NewUniform(col), Face: face}
	for _, line := range lines {
		width := d.MeasureString(line)
		x := fixed.I(0)
		switch align {
		case composable.AlignCenter:
			x = (fixed.I(w) - width) / 2
		case composable.AlignRight:
			x = fixed.I(w) - width
		}
		d.Dot = fixed.Point26_6{X: x, Y: y}
		d.DrawString(line)
		y += lineHeight
	}
	return dst
}
