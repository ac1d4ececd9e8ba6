package element

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/ivlev/animcompose/internal/animated"
	"github.com/ivlev/animcompose/internal/composable"
	"github.com/ivlev/animcompose/internal/source"
)

// Realizer resolves and decodes descriptor sources and scales everything by one ratio,
// output width over editing-canvas width.
type Realizer struct {
	Loader source.Loader
	Ratio  float64
	DPI    int
}

func (r *Realizer) Realize(ctx context.Context, c composable.Composable) (*Element, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: nil descriptor", composable.ErrUnknownDescriptor)
	}
	el := r.place(c.Bounds())

	var (
		content Content
		err     error
	)
	switch d := c.(type) {
	case *composable.Image:
		content, err = r.image(ctx, d, el.Width, el.Height)
	case *composable.MultiFrame:
		content, err = r.multiFrame(ctx, d, el.Width, el.Height)
	case *composable.Text:
		content, err = r.text(ctx, d, el.Width, el.Height)
	case *composable.QRCode:
		content, err = r.qrCode(d, el.Width, el.Height)
	default:
		return nil, fmt.Errorf("%w: %T", composable.ErrUnknownDescriptor, c)
	}
	if err != nil {
		return nil, err
	}
	el.Content = content
	return el, nil
}

func (r *Realizer) place(g composable.Geometry) *Element {
	return &Element{
		Width:    max(1, int(math.Round(g.Width*r.Ratio))),
		Height:   max(1, int(math.Round(g.Height*r.Ratio))),
		Left:     int(math.Round(g.Left * r.Ratio)),
		Top:      int(math.Round(g.Top * r.Ratio)),
		ZIndex:   g.ZIndex,
		Rotation: g.Rotation,
	}
}

func (r *Realizer) load(ctx context.Context, ref string) ([]byte, error) {
	data, err := r.Loader.LoadBytes(ctx, ref)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %w", ErrResourceLoad, err)
	}
	return data, nil
}

func (r *Realizer) image(ctx context.Context, d *composable.Image, w, h int) (Content, error) {
	data, err := r.load(ctx, d.Source)
	if err != nil {
		return nil, err
	}

	if source.IsAnimatedFormat(data) {
		st, err := animated.NewStepper(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrResourceLoad, d.Source, err)
		}
		if sw, sh := st.Size(); sw <= 0 || sh <= 0 {
			return nil, fmt.Errorf("%w: %s: empty %dx%d canvas", ErrResourceLoad, d.Source, sw, sh)
		}
		orientation := d.Orientation
		tl, err := animated.NewSequential(st, d.Direction, func(img image.Image) image.Image {
			return scaleTo(orient(img, orientation), w, h)
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrResourceLoad, d.Source, err)
		}
		return &Animated{Timeline: tl}, nil
	}

	img, err := source.DecodeStill(data, d.Page, r.DPI)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrResourceLoad, d.Source, err)
	}
	return &Still{Image: scaleTo(orient(img, d.Orientation), w, h)}, nil
}

func (r *Realizer) multiFrame(ctx context.Context, d *composable.MultiFrame, w, h int) (Content, error) {
	if len(d.Frames) == 0 {
		return nil, fmt.Errorf("%w: multi-frame element without frames", ErrResourceLoad)
	}
	alignment, err := d.Alignment.Normalize()
	if err != nil {
		return nil, err
	}

	metas := make([]composable.FrameMeta, 0, len(d.Frames))
	for _, f := range d.Frames {
		data, err := r.load(ctx, f.Source)
		if err != nil {
			return nil, err
		}
		sw, sh, err := source.DecodeSize(data, 0, r.DPI)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrResourceLoad, f.Source, err)
		}
		sw, sh = composable.OrientedSize(sw, sh, f.Orientation)
		meta := composable.DeriveFrameMeta(f, sw, sh, d.Width, d.Height, alignment)
		metas = append(metas, meta.Scale(r.Ratio))
	}

	tl, err := animated.NewSequence(metas, w, h, d.Direction, func(m composable.FrameMeta) (image.Image, error) {
		data, err := r.load(ctx, m.Source)
		if err != nil {
			return nil, err
		}
		img, err := source.DecodeStill(data, 0, r.DPI)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrResourceLoad, m.Source, err)
		}
		fw := max(1, int(math.Round(m.Width)))
		fh := max(1, int(math.Round(m.Height)))
		return imaging.Resize(orient(img, m.Orientation), fw, fh, imaging.CatmullRom), nil
	})
	if err != nil {
		return nil, err
	}
	return &Animated{Timeline: tl}, nil
}
