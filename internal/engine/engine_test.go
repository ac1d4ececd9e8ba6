package engine

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/animcompose/internal/composable"
	"github.com/ivlev/animcompose/internal/config"
	"github.com/ivlev/animcompose/internal/element"
	"github.com/ivlev/animcompose/internal/encoder"
	"github.com/ivlev/animcompose/internal/output"
	"github.com/ivlev/animcompose/internal/source"
)

var (
	red   = color.RGBA{255, 0, 0, 255}
	blue  = color.RGBA{0, 0, 255, 255}
	green = color.RGBA{0, 255, 0, 255}
)

func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func gifBytes(t *testing.T, w, h, frames, delayCs int) []byte {
	t.Helper()
	palette := color.Palette{color.Black}
	for i := 1; i <= frames; i++ {
		palette = append(palette, color.RGBA{uint8(20 * i), 100, 0, 255})
	}
	g := &gif.GIF{}
	for i := 0; i < frames; i++ {
		img := image.NewPaletted(image.Rect(0, 0, w, h), palette)
		for p := range img.Pix {
			img.Pix[p] = uint8(i + 1)
		}
		g.Image = append(g.Image, img)
		g.Delay = append(g.Delay, delayCs)
	}
	var buf bytes.Buffer
	require.NoError(t, gif.EncodeAll(&buf, g))
	return buf.Bytes()
}

func box(w, h float64) composable.Geometry {
	return composable.Geometry{Width: w, Height: h}
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.OutputWidth = 40
	cfg.CanvasWidth = 40
	return cfg
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

// recordingEncoder keeps what the compositor asked for without producing a file.
type recordingEncoder struct {
	started  bool
	finished bool
	aborted  bool
	failAt   int
	delay    int
	delays   []int
	frames   []*image.RGBA
}

func (e *recordingEncoder) Start(context.Context, io.Writer, int, int) error {
	e.started = true
	return nil
}

func (e *recordingEncoder) SetFrameDelay(ms int) { e.delay = ms }

func (e *recordingEncoder) AddFrame(img image.Image) error {
	if e.failAt > 0 && len(e.frames)+1 == e.failAt {
		return errors.Join(encoder.ErrEncode, errors.New("sink closed"))
	}
	own := image.NewRGBA(img.Bounds())
	draw.Draw(own, own.Bounds(), img, img.Bounds().Min, draw.Src)
	e.frames = append(e.frames, own)
	e.delays = append(e.delays, e.delay)
	return nil
}

func (e *recordingEncoder) Finish() error {
	e.finished = true
	return nil
}

func (e *recordingEncoder) Extension() string { return ".rec" }

func (e *recordingEncoder) Abort() { e.aborted = true }

type countingLoader struct {
	source.Loader
	calls atomic.Int32
}

func (l *countingLoader) LoadBytes(ctx context.Context, ref string) ([]byte, error) {
	l.calls.Add(1)
	return l.Loader.LoadBytes(ctx, ref)
}

func TestStillComposite(t *testing.T) {
	loader := source.MemoryLoader{
		"bg.png":    pngBytes(t, 40, 30, red),
		"blue.png":  pngBytes(t, 10, 10, blue),
		"green.png": pngBytes(t, 10, 10, green),
	}
	overlay := composable.Geometry{Width: 10, Height: 10, Left: 5, Top: 5}
	blueTop := overlay
	blueTop.ZIndex = 1

	var loading, compositing []float64
	comp, err := NewCompositor(testConfig(), Options{
		Loader:        loader,
		Logger:        quietLogger(),
		OnLoading:     func(f float64) { loading = append(loading, f) },
		OnCompositing: func(f float64) { compositing = append(compositing, f) },
	})
	require.NoError(t, err)

	descriptors := []composable.Composable{
		&composable.Image{Geometry: box(40, 30), Source: "bg.png"},
		&composable.Image{Geometry: blueTop, Source: "blue.png"},
		&composable.Image{Geometry: overlay, Source: "green.png"},
	}

	var out bytes.Buffer
	res, err := comp.Run(context.Background(), descriptors, &out)
	require.NoError(t, err)

	assert.Equal(t, KindStill, res.Kind)
	assert.Equal(t, 1, res.Frames)
	assert.Equal(t, []int{0}, res.Timestamps)
	assert.Equal(t, ".png", res.Extension)
	assert.Equal(t, []float64{1}, compositing)
	require.Len(t, loading, 3)
	assert.InDelta(t, 1.0/3, loading[0], 1e-9)
	assert.Equal(t, 1.0, loading[2])

	img, err := png.Decode(bytes.NewReader(out.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 40, 30), img.Bounds())
	assert.Equal(t, color.RGBAModel.Convert(red), color.RGBAModel.Convert(img.At(30, 20)))
	// higher z-index wins regardless of input order
	assert.Equal(t, color.RGBAModel.Convert(blue), color.RGBAModel.Convert(img.At(8, 8)))

	var again bytes.Buffer
	_, err = comp.Run(context.Background(), descriptors, &again)
	require.NoError(t, err)
	assert.Equal(t, out.Bytes(), again.Bytes())
}

func TestAnimatedComposite(t *testing.T) {
	loader := source.MemoryLoader{
		"anim.gif": gifBytes(t, 40, 30, 10, 10),
		"logo.png": pngBytes(t, 10, 10, blue),
	}
	rec := &recordingEncoder{}
	var compositing []float64
	comp, err := NewCompositor(testConfig(), Options{
		Loader:        loader,
		Animated:      rec,
		Logger:        quietLogger(),
		OnCompositing: func(f float64) { compositing = append(compositing, f) },
	})
	require.NoError(t, err)

	res, err := comp.Run(context.Background(), []composable.Composable{
		&composable.Image{Geometry: box(40, 30), Source: "anim.gif"},
		&composable.Image{Geometry: composable.Geometry{Width: 10, Height: 10, Left: 2, Top: 2}, Source: "logo.png"},
	}, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, KindAnimated, res.Kind)
	assert.Equal(t, 10, res.Frames)
	assert.Equal(t, []int{100, 200, 300, 400, 500, 600, 700, 800, 900, 1000}, res.Timestamps)
	assert.Equal(t, ".rec", res.Extension)

	assert.True(t, rec.started)
	assert.True(t, rec.finished)
	assert.False(t, rec.aborted)
	require.Len(t, rec.frames, 10)
	for _, d := range rec.delays {
		assert.Equal(t, 100, d)
	}
	require.Len(t, compositing, 10)
	assert.Equal(t, 0.1, compositing[0])
	assert.Equal(t, 1.0, compositing[9])

	for _, f := range rec.frames {
		assert.Equal(t, image.Rect(0, 0, 40, 30), f.Bounds())
		assert.Equal(t, blue, f.RGBAAt(5, 5))
		assert.Equal(t, uint8(255), f.RGBAAt(30, 20).A)
	}
	assert.NotEqual(t, rec.frames[0].RGBAAt(30, 20), rec.frames[1].RGBAAt(30, 20))
}

func TestAnimatedSpeedRatio(t *testing.T) {
	loader := source.MemoryLoader{"anim.gif": gifBytes(t, 40, 30, 10, 10)}
	rec := &recordingEncoder{}
	cfg := testConfig()
	cfg.SpeedRatio = 2
	comp, err := NewCompositor(cfg, Options{Loader: loader, Animated: rec, Logger: quietLogger()})
	require.NoError(t, err)

	_, err = comp.Run(context.Background(), []composable.Composable{
		&composable.Image{Geometry: box(40, 30), Source: "anim.gif"},
	}, io.Discard)
	require.NoError(t, err)

	sum := 0
	for _, d := range rec.delays {
		sum += d
	}
	assert.Equal(t, 500, sum)
}

func TestLoadFailureAbortsBeforeDrawing(t *testing.T) {
	loader := source.MemoryLoader{
		"0.png": pngBytes(t, 40, 30, red),
		"1.png": pngBytes(t, 10, 10, blue),
		"3.png": pngBytes(t, 10, 10, blue),
		"4.png": pngBytes(t, 10, 10, blue),
	}
	rec := &recordingEncoder{}
	var loading []float64
	comp, err := NewCompositor(testConfig(), Options{
		Loader:    loader,
		Animated:  rec,
		Logger:    quietLogger(),
		OnLoading: func(f float64) { loading = append(loading, f) },
	})
	require.NoError(t, err)

	var descriptors []composable.Composable
	for _, name := range []string{"0.png", "1.png", "2.png", "3.png", "4.png"} {
		descriptors = append(descriptors, &composable.Image{Geometry: box(10, 10), Source: name})
	}

	dir := t.TempDir()
	sink, err := output.NewFileSink(filepath.Join(dir, "result"))
	require.NoError(t, err)

	_, err = comp.Run(context.Background(), descriptors, sink)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrResourceLoad)
	assert.ErrorIs(t, err, source.ErrResourceUnavailable)
	assert.Equal(t, []float64{0.2, 0.4}, loading)
	assert.False(t, rec.started)
	assert.Empty(t, rec.frames)

	tmp := sink.TempPath()
	require.NoError(t, sink.Abort())
	_, statErr := os.Stat(tmp)
	assert.True(t, os.IsNotExist(statErr))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestEncoderFailureAborts(t *testing.T) {
	loader := source.MemoryLoader{"anim.gif": gifBytes(t, 40, 30, 5, 10)}
	rec := &recordingEncoder{failAt: 3}
	comp, err := NewCompositor(testConfig(), Options{Loader: loader, Animated: rec, Logger: quietLogger()})
	require.NoError(t, err)

	_, err = comp.Run(context.Background(), []composable.Composable{
		&composable.Image{Geometry: box(40, 30), Source: "anim.gif"},
	}, io.Discard)
	assert.ErrorIs(t, err, ErrEncode)
	assert.True(t, rec.aborted)
	assert.False(t, rec.finished)
	assert.Len(t, rec.frames, 2)
}

func TestRunCanceled(t *testing.T) {
	loader := &countingLoader{Loader: source.MemoryLoader{"bg.png": pngBytes(t, 40, 30, red)}}
	comp, err := NewCompositor(testConfig(), Options{Loader: loader, Logger: quietLogger()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	task := comp.Start(ctx, []composable.Composable{
		&composable.Image{Geometry: box(40, 30), Source: "bg.png"},
	}, io.Discard)
	_, err = task.Wait()
	require.Error(t, err)
	assert.True(t, IsCanceled(err))
	assert.Zero(t, loader.calls.Load())
}

func TestTaskMatchesRun(t *testing.T) {
	loader := source.MemoryLoader{"bg.png": pngBytes(t, 40, 30, red)}
	comp, err := NewCompositor(testConfig(), Options{Loader: loader, Logger: quietLogger()})
	require.NoError(t, err)

	var out bytes.Buffer
	task := comp.Start(context.Background(), []composable.Composable{
		&composable.Image{Geometry: box(40, 30), Source: "bg.png"},
	}, &out)
	<-task.Done()
	res, err := task.Wait()
	require.NoError(t, err)
	assert.Equal(t, KindStill, res.Kind)
	assert.NotZero(t, out.Len())
}

func TestPanickingProgressIsIgnored(t *testing.T) {
	loader := source.MemoryLoader{"bg.png": pngBytes(t, 40, 30, red)}
	comp, err := NewCompositor(testConfig(), Options{
		Loader:        loader,
		Logger:        quietLogger(),
		OnLoading:     func(float64) { panic("boom") },
		OnCompositing: func(float64) { panic("boom") },
	})
	require.NoError(t, err)

	res, err := comp.Run(context.Background(), []composable.Composable{
		&composable.Image{Geometry: box(40, 30), Source: "bg.png"},
	}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Frames)
}

func TestFreeSpacePrecondition(t *testing.T) {
	loader := &countingLoader{Loader: source.MemoryLoader{}}
	cfg := testConfig()
	cfg.OutputDir = t.TempDir()
	comp, err := NewCompositor(cfg, Options{
		Loader:    loader,
		Logger:    quietLogger(),
		FreeSpace: func(string) (uint64, error) { return 1024, nil },
	})
	require.NoError(t, err)

	_, err = comp.Run(context.Background(), []composable.Composable{
		&composable.Image{Geometry: box(40, 30), Source: "bg.png"},
	}, io.Discard)
	assert.ErrorIs(t, err, ErrPrecondition)
	assert.Zero(t, loader.calls.Load())
}

func TestPreconditions(t *testing.T) {
	cfg := testConfig()
	cfg.SpeedRatio = -1
	_, err := NewCompositor(cfg, Options{})
	assert.ErrorIs(t, err, ErrInvalidSpeed)

	cfg = testConfig()
	cfg.AnimatedFormat = "avi"
	_, err = NewCompositor(cfg, Options{})
	assert.ErrorIs(t, err, config.ErrInvalidConfig)

	comp, err := NewCompositor(testConfig(), Options{Logger: quietLogger()})
	require.NoError(t, err)
	_, err = comp.Run(context.Background(), nil, io.Discard)
	assert.ErrorIs(t, err, ErrPrecondition)

	_, err = comp.Run(context.Background(), []composable.Composable{nil}, io.Discard)
	assert.ErrorIs(t, err, ErrUnknownDescriptor)
}

func TestZeroSpeedMeansDefault(t *testing.T) {
	cfg := testConfig()
	cfg.SpeedRatio = 0
	comp, err := NewCompositor(cfg, Options{Logger: quietLogger()})
	require.NoError(t, err)
	assert.Equal(t, 1.0, comp.Config().SpeedRatio)
}

func TestRotatedStillPlacement(t *testing.T) {
	canvas := image.NewRGBA(image.Rect(0, 0, 20, 20))
	src := image.NewRGBA(image.Rect(0, 0, 10, 4))
	draw.Draw(src, src.Bounds(), image.NewUniform(blue), image.Point{}, draw.Src)

	el := &element.Element{Left: 5, Top: 8, Width: 10, Height: 4, Rotation: 90}
	drawElement(canvas, el, src)

	// a quarter turn stands the bar upright around the same center
	for _, p := range []image.Point{{10, 8}, {10, 11}} {
		c := canvas.RGBAAt(p.X, p.Y)
		assert.Greater(t, c.B, uint8(200), "%v", p)
		assert.Greater(t, c.A, uint8(200), "%v", p)
	}
	assert.Zero(t, canvas.RGBAAt(6, 10).A)
}

var errNoSpace = errors.New("no space left on device")

type fullWriter struct{}

func (fullWriter) Write([]byte) (int, error) { return 0, errNoSpace }

func TestSinkErrorStaysMatchable(t *testing.T) {
	loader := source.MemoryLoader{"bg.png": pngBytes(t, 40, 30, red)}
	comp, err := NewCompositor(testConfig(), Options{Loader: loader, Logger: quietLogger()})
	require.NoError(t, err)

	_, err = comp.Run(context.Background(), []composable.Composable{
		&composable.Image{Geometry: box(40, 30), Source: "bg.png"},
	}, fullWriter{})
	assert.ErrorIs(t, err, ErrEncode)
	assert.ErrorIs(t, err, errNoSpace)
}

func TestFreeSpaceProbeErrorStaysMatchable(t *testing.T) {
	cfg := testConfig()
	cfg.OutputDir = t.TempDir()
	comp, err := NewCompositor(cfg, Options{
		Logger:    quietLogger(),
		FreeSpace: func(string) (uint64, error) { return 0, os.ErrPermission },
	})
	require.NoError(t, err)

	_, err = comp.Run(context.Background(), []composable.Composable{
		&composable.Image{Geometry: box(40, 30), Source: "bg.png"},
	}, io.Discard)
	assert.ErrorIs(t, err, ErrPrecondition)
	assert.ErrorIs(t, err, os.ErrPermission)
}

func TestUnknownFormatKeepsCause(t *testing.T) {
	cfg := testConfig()
	cfg.StillFormat = "bmp"
	_, err := NewCompositor(cfg, Options{})
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
	assert.ErrorIs(t, err, encoder.ErrUnknownFormat)
}

func TestDebugLogReportsTimelineAccess(t *testing.T) {
	loader := source.MemoryLoader{"anim.gif": gifBytes(t, 40, 30, 4, 10)}
	var logs bytes.Buffer
	logger := log.New(&logs)
	logger.SetLevel(log.DebugLevel)

	comp, err := NewCompositor(testConfig(), Options{Loader: loader, Animated: &recordingEncoder{}, Logger: logger})
	require.NoError(t, err)
	_, err = comp.Run(context.Background(), []composable.Composable{
		&composable.Image{Geometry: box(40, 30), Source: "anim.gif"},
	}, io.Discard)
	require.NoError(t, err)

	out := logs.String()
	assert.Contains(t, out, "access=sequential")
	assert.Contains(t, out, "sequential decode")
	// timestamps only move forward, so the decoder steps once per frame
	assert.Contains(t, out, "advances=4")
}
