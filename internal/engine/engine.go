package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"sort"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ivlev/animcompose/internal/animated"
	"github.com/ivlev/animcompose/internal/composable"
	"github.com/ivlev/animcompose/internal/config"
	"github.com/ivlev/animcompose/internal/element"
	"github.com/ivlev/animcompose/internal/encoder"
	"github.com/ivlev/animcompose/internal/source"
	"github.com/ivlev/animcompose/internal/strategy"
	"github.com/ivlev/animcompose/internal/system"
)

type Kind int

const (
	KindStill Kind = iota
	KindAnimated
)

func (k Kind) String() string {
	if k == KindAnimated {
		return "animated"
	}
	return "still"
}

// ProgressFunc receives a fraction in [0, 1]. It is called from the worker goroutine.
type ProgressFunc func(fraction float64)

// Options carries the collaborators of a Compositor. Zero fields get defaults in
// NewCompositor.
type Options struct {
	Loader    source.Loader
	Duration  strategy.DurationStrategy
	FrameRate strategy.FrameRateStrategy
	FramePick strategy.FramePickStrategy
	Still     encoder.StillEncoder
	Animated  encoder.AnimatedEncoder
	Logger    *log.Logger

	OnLoading     ProgressFunc
	OnCompositing ProgressFunc

	// FreeSpace reports available bytes at a path. Defaults to system.FreeSpace.
	FreeSpace func(path string) (uint64, error)
}

type Result struct {
	Kind       Kind
	Frames     int
	Timestamps []int
	Width      int
	Height     int
	// Extension matches the encoder that produced the artifact, e.g. ".gif".
	Extension string
}

// Compositor runs one composite at a time. Encoders are stateful, so a Compositor must not
// be used by two Runs concurrently.
type Compositor struct {
	cfg  config.Config
	opts Options
	log  *log.Logger
}

func NewCompositor(cfg config.Config, opts Options) (*Compositor, error) {
	if cfg.SpeedRatio < 0 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidSpeed, cfg.SpeedRatio)
	}
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if opts.Loader == nil {
		opts.Loader = source.NewFileLoader("")
	}
	if opts.Duration == nil {
		opts.Duration = strategy.BackgroundFirst{}
	}
	if opts.FrameRate == nil {
		opts.FrameRate = strategy.Smooth{MinFrameDelay: cfg.MinFrameDelay}
	}
	if opts.FramePick == nil {
		opts.FramePick = strategy.Default{}
	}
	if opts.Still == nil {
		enc, err := encoder.NewStill(cfg.StillFormat)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
		}
		opts.Still = enc
	}
	if opts.Animated == nil {
		enc, err := encoder.NewAnimated(cfg.AnimatedFormat, cfg.Quality)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
		}
		opts.Animated = enc
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.FreeSpace == nil {
		opts.FreeSpace = system.FreeSpace
	}
	return &Compositor{cfg: cfg, opts: opts, log: opts.Logger}, nil
}

func (c *Compositor) Config() config.Config { return c.cfg }

// Run realizes descriptors, composites them and writes one artifact to sink. The first
// descriptor is the background: it fixes the canvas size and, for BackgroundFirst, the
// total duration.
func (c *Compositor) Run(ctx context.Context, descriptors []composable.Composable, sink io.Writer) (Result, error) {
	var st stats
	st.start = time.Now()

	if c.cfg.SpeedRatio <= 0 {
		return Result{}, fmt.Errorf("%w: got %v", ErrInvalidSpeed, c.cfg.SpeedRatio)
	}
	if len(descriptors) == 0 {
		return Result{}, fmt.Errorf("%w: nothing to compose", ErrPrecondition)
	}
	if err := c.checkFreeSpace(); err != nil {
		return Result{}, err
	}

	elems, err := c.realize(ctx, descriptors)
	if err != nil {
		return Result{}, err
	}
	st.realized = time.Now()

	background := elems[0]
	res := Result{Width: background.Width, Height: background.Height}
	ordered := zOrder(elems)
	animatedElems := element.AnimatedOnly(elems)

	if len(animatedElems) == 0 {
		res.Kind = KindStill
		err = c.still(ctx, ordered, sink, &res)
	} else {
		res.Kind = KindAnimated
		err = c.animated(ctx, background, ordered, animatedElems, sink, &res)
	}
	if err != nil {
		c.log.Error("composite failed", "kind", res.Kind, "err", err)
		return Result{}, err
	}
	st.composed = time.Now()

	c.log.Info("composite done", "kind", res.Kind, "frames", res.Frames, "size", fmt.Sprintf("%dx%d", res.Width, res.Height))
	if c.cfg.ShowStats {
		c.report(st, len(elems), res)
	}
	return res, nil
}

func (c *Compositor) checkFreeSpace() error {
	if c.cfg.OutputDir == "" {
		return nil
	}
	free, err := c.opts.FreeSpace(c.cfg.OutputDir)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPrecondition, err)
	}
	if free < c.cfg.MinFreeBytes {
		return fmt.Errorf("%w: %d bytes free in %s, need %d", ErrPrecondition, free, c.cfg.OutputDir, c.cfg.MinFreeBytes)
	}
	return nil
}

func (c *Compositor) realize(ctx context.Context, descriptors []composable.Composable) ([]*element.Element, error) {
	r := &element.Realizer{Loader: c.opts.Loader, Ratio: c.cfg.ResizeRatio(), DPI: c.cfg.DPI}
	elems := make([]*element.Element, 0, len(descriptors))
	for i, d := range descriptors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		el, err := r.Realize(ctx, d)
		if err != nil {
			return nil, fmt.Errorf("descriptor %d: %w", i, err)
		}
		c.log.Debug("realized", "index", i, "animated", el.IsAnimated(), "w", el.Width, "h", el.Height)
		elems = append(elems, el)
		c.progress("loading", c.opts.OnLoading, float64(i+1)/float64(len(descriptors)))
	}
	return elems, nil
}

// zOrder sorts by ascending z-index, keeping input order among equals.
func zOrder(elems []*element.Element) []*element.Element {
	out := make([]*element.Element, len(elems))
	copy(out, elems)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ZIndex < out[j].ZIndex })
	return out
}

func (c *Compositor) still(ctx context.Context, ordered []*element.Element, sink io.Writer, res *Result) error {
	canvas := system.GetCanvas(image.Rect(0, 0, res.Width, res.Height))
	defer system.PutCanvas(canvas)

	for _, el := range ordered {
		if err := ctx.Err(); err != nil {
			return err
		}
		img, err := c.opts.FramePick.Pick(el, 0, 0)
		if err != nil {
			return err
		}
		drawElement(canvas, el, img)
	}
	if err := c.opts.Still.Encode(sink, canvas, c.cfg.Quality); err != nil {
		return err
	}

	res.Frames = 1
	res.Timestamps = []int{0}
	res.Extension = c.opts.Still.Extension()
	c.progress("compositing", c.opts.OnCompositing, 1)
	return nil
}

type aborter interface {
	Abort()
}

func (c *Compositor) animated(ctx context.Context, background *element.Element, ordered, animatedElems []*element.Element, sink io.Writer, res *Result) (err error) {
	speed := c.cfg.SpeedRatio
	total := c.opts.Duration.Calculate(background, animatedElems)
	timestamps := c.opts.FrameRate.Calculate(animatedElems, total, speed)
	c.log.Debug("timeline", "total", total, "frames", len(timestamps), "speed", speed)
	for i, el := range animatedElems {
		tl := el.Content.(*element.Animated).Timeline
		c.log.Debug("animated element", "index", i, "access", tl.Access(), "frames", tl.FrameCount(), "duration", tl.Duration())
	}

	enc := c.opts.Animated
	if err := enc.Start(ctx, sink, res.Width, res.Height); err != nil {
		return err
	}
	defer func() {
		if err == nil {
			return
		}
		if a, ok := enc.(aborter); ok {
			a.Abort()
		}
	}()

	rect := image.Rect(0, 0, res.Width, res.Height)
	rotatedStills := make(map[*element.Element]image.Image)
	for i, ts := range timestamps {
		if err := ctx.Err(); err != nil {
			return err
		}
		canvas := system.GetCanvas(rect)
		for _, el := range ordered {
			img, err := c.pick(el, ts, total, rotatedStills)
			if err != nil {
				system.PutCanvas(canvas)
				return fmt.Errorf("frame %d at %dms: %w", i, ts, err)
			}
			if img != nil {
				placeImage(canvas, el, img)
			}
		}
		enc.SetFrameDelay(strategy.OutputDelay(timestamps, i, speed))
		err := enc.AddFrame(canvas)
		system.PutCanvas(canvas)
		if err != nil {
			return err
		}
		c.progress("compositing", c.opts.OnCompositing, float64(i+1)/float64(len(timestamps)))
	}
	if err := enc.Finish(); err != nil {
		return err
	}
	for i, el := range animatedElems {
		// a backwards seek on a forward-only decoder replays the whole loop
		if seq, ok := el.Content.(*element.Animated).Timeline.(*animated.Sequential); ok {
			c.log.Debug("sequential decode", "index", i, "advances", seq.Advances(), "frames", len(timestamps))
		}
	}

	res.Frames = len(timestamps)
	res.Timestamps = timestamps
	res.Extension = enc.Extension()
	return nil
}

// pick resolves an element's rotated bitmap at ts. Still elements are rotated once per run.
func (c *Compositor) pick(el *element.Element, ts, total int, rotatedStills map[*element.Element]image.Image) (image.Image, error) {
	_, isStill := el.Content.(*element.Still)
	if isStill {
		if img, ok := rotatedStills[el]; ok {
			return img, nil
		}
	}
	img, err := c.opts.FramePick.Pick(el, ts, total)
	if err != nil || img == nil {
		return nil, err
	}
	img = rotate(img, el.Rotation)
	if isStill {
		rotatedStills[el] = img
	}
	return img, nil
}

// progress never lets a callback failure reach the pipeline.
func (c *Compositor) progress(stage string, fn ProgressFunc, fraction float64) {
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.log.Warn("progress callback panicked", "stage", stage, "panic", r)
		}
	}()
	fn(fraction)
}

// IsCanceled reports whether err stems from context cancellation or deadline.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
