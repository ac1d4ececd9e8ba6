package animated

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/animcompose/internal/composable"
)

// countingStepper yields 1x1 frames whose red channel is the source index.
type countingStepper struct {
	delays []int
	pos    int
	calls  int
}

func newCountingStepper(delays ...int) *countingStepper {
	return &countingStepper{delays: delays, pos: -1}
}

func (s *countingStepper) Delays() []int     { return s.delays }
func (s *countingStepper) Size() (int, int) { return 1, 1 }

func (s *countingStepper) Next() (image.Image, error) {
	s.calls++
	s.pos = (s.pos + 1) % len(s.delays)
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.Pix[0] = uint8(s.pos)
	img.Pix[3] = 255
	return img, nil
}

func frameIndex(t *testing.T, img image.Image) int {
	t.Helper()
	r, _, _, _ := img.At(img.Bounds().Min.X, img.Bounds().Min.Y).RGBA()
	return int(r >> 8)
}

func linearFind(cum []int, ts int) int {
	for i, c := range cum {
		if c >= ts {
			return i
		}
	}
	return len(cum) - 1
}

func TestScheduleBoundaries(t *testing.T) {
	for _, dir := range []composable.PlayDirection{composable.Forward, composable.Reverse, composable.Boomerang} {
		s, err := newSchedule([]int{30, 0, 50, 20}, dir)
		require.NoError(t, err)

		assert.Equal(t, 0, s.FindFrameByTimestamp(0), dir)
		assert.Equal(t, s.FrameCount()-1, s.FindFrameByTimestamp(s.Duration()), dir)
		assert.Equal(t, s.FrameCount()-1, s.FindFrameByTimestamp(s.Duration()+500), dir)

		cum := s.Cumulative()
		for i := 1; i < len(cum); i++ {
			assert.LessOrEqual(t, cum[i-1], cum[i])
		}
		for ts := 0; ts <= s.Duration()+1; ts++ {
			assert.Equal(t, linearFind(cum, ts), s.FindFrameByTimestamp(ts), "%s ts=%d", dir, ts)
		}
	}
}

func TestScheduleTiesGoToLowerIndex(t *testing.T) {
	s, err := newSchedule([]int{100, 100}, composable.Forward)
	require.NoError(t, err)
	assert.Equal(t, 0, s.FindFrameByTimestamp(100))
	assert.Equal(t, 1, s.FindFrameByTimestamp(101))
}

func TestNormalizeDelay(t *testing.T) {
	s, err := newSchedule([]int{0, -5, 40}, composable.Forward)
	require.NoError(t, err)
	assert.Equal(t, []int{100, 200, 240}, s.Cumulative())
}

func TestReverseDirection(t *testing.T) {
	fwd, err := newSchedule([]int{10, 20, 30, 40}, composable.Forward)
	require.NoError(t, err)
	rev, err := newSchedule([]int{10, 20, 30, 40}, composable.Reverse)
	require.NoError(t, err)

	assert.Equal(t, fwd.Duration(), rev.Duration())
	require.Equal(t, fwd.FrameCount(), rev.FrameCount())
	n := fwd.FrameCount()
	for i := 0; i < n; i++ {
		assert.Equal(t, fwd.SourceIndex(n-1-i), rev.SourceIndex(i))
		assert.Equal(t, fwd.DelayOfFrame(n-1-i), rev.DelayOfFrame(i))
	}
}

func TestBoomerangDirection(t *testing.T) {
	b, err := newSchedule([]int{10, 20, 30, 40}, composable.Boomerang)
	require.NoError(t, err)

	assert.Equal(t, 7, b.FrameCount())
	assert.Equal(t, []int{0, 1, 2, 3, 2, 1, 0}, b.order)
	assert.Equal(t, 2*100-40, b.Duration())

	single, err := newSchedule([]int{10}, composable.Boomerang)
	require.NoError(t, err)
	assert.Equal(t, 1, single.FrameCount())
}

func TestEmptySchedule(t *testing.T) {
	_, err := newSchedule(nil, composable.Forward)
	assert.Error(t, err)
	_, err = newSchedule([]int{1}, "diagonal")
	assert.Error(t, err)
}

func TestSequentialForwardAccessIsCheap(t *testing.T) {
	st := newCountingStepper(100, 100, 100, 100, 100)
	tl, err := NewSequential(st, composable.Forward, nil)
	require.NoError(t, err)
	assert.Equal(t, SequentialAdvanceOnly, tl.Access())

	for ts := 0; ts <= tl.Duration(); ts += 50 {
		img, err := tl.FrameAt(ts)
		require.NoError(t, err)
		assert.Equal(t, tl.FindFrameByTimestamp(ts), frameIndex(t, img))
	}
	assert.Equal(t, 5, st.calls, "monotonic traversal advances once per frame")
}

func TestSequentialBackwardAccessWraps(t *testing.T) {
	st := newCountingStepper(100, 100, 100, 100, 100)
	tl, err := NewSequential(st, composable.Forward, nil)
	require.NoError(t, err)

	_, err = tl.FrameAt(350) // frame 3
	require.NoError(t, err)
	assert.Equal(t, 4, tl.Advances())

	img, err := tl.FrameAt(150) // frame 1: (1-3) mod 5 = 3 more steps
	require.NoError(t, err)
	assert.Equal(t, 1, frameIndex(t, img))
	assert.Equal(t, 7, tl.Advances())

	// cached
	_, err = tl.FrameAt(200)
	require.NoError(t, err)
	assert.Equal(t, 7, tl.Advances())
}

func TestSequentialReverse(t *testing.T) {
	st := newCountingStepper(10, 10, 10)
	tl, err := NewSequential(st, composable.Reverse, nil)
	require.NoError(t, err)

	var got []int
	for _, ts := range []int{0, 15, 25} {
		img, err := tl.FrameAt(ts)
		require.NoError(t, err)
		got = append(got, frameIndex(t, img))
	}
	assert.Equal(t, []int{2, 1, 0}, got)
}

func TestSequentialPlace(t *testing.T) {
	st := newCountingStepper(10)
	tl, err := NewSequential(st, composable.Forward, func(image.Image) image.Image {
		return image.NewNRGBA(image.Rect(0, 0, 8, 6))
	})
	require.NoError(t, err)
	img, err := tl.FrameAt(0)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 8, 6), img.Bounds())
}

func TestGIFStepper(t *testing.T) {
	pal := color.Palette{color.Transparent, color.RGBA{255, 0, 0, 255}, color.RGBA{0, 0, 255, 255}}
	g := &gif.GIF{Config: image.Config{Width: 4, Height: 4, ColorModel: pal}}
	for i, idx := range []uint8{1, 2, 1} {
		frame := image.NewPaletted(image.Rect(0, 0, 4, 4), pal)
		for p := range frame.Pix {
			frame.Pix[p] = idx
		}
		g.Image = append(g.Image, frame)
		g.Delay = append(g.Delay, 5*(i+1))
		g.Disposal = append(g.Disposal, gif.DisposalNone)
	}
	var buf bytes.Buffer
	require.NoError(t, gif.EncodeAll(&buf, g))

	st, err := NewStepper(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, []int{50, 100, 150}, st.Delays())
	w, h := st.Size()
	assert.Equal(t, [2]int{4, 4}, [2]int{w, h})

	tl, err := NewSequential(st, composable.Forward, nil)
	require.NoError(t, err)
	assert.Equal(t, 300, tl.Duration())

	img, err := tl.FrameAt(60)
	require.NoError(t, err)
	_, _, b, _ := img.At(1, 1).RGBA()
	assert.Equal(t, uint32(0xffff), b)

	img, err = tl.FrameAt(300)
	require.NoError(t, err)
	r, _, _, _ := img.At(1, 1).RGBA()
	assert.Equal(t, uint32(0xffff), r)
}

func TestNewStepperRejectsStill(t *testing.T) {
	_, err := NewStepper([]byte("not an image"))
	assert.Error(t, err)
}
