package encoder

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os/exec"

	"github.com/ivlev/animcompose/internal/system"
)

// DefaultFFmpegFPS is the constant output rate. Variable frame delays are honoured by
// repeating frames.
const DefaultFFmpegFPS = 50

// FFmpeg streams raw RGBA frames into an ffmpeg process that writes fragmented MP4 to w.
type FFmpeg struct {
	Binary  string
	Codec   string // пусто: выбирается лучший доступный H.264 энкодер
	FPS     int
	Quality int

	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stderr  bytes.Buffer
	raw     *image.RGBA
	delay   int
	elapsed int // ms
	written int // frames
}

func NewFFmpeg(quality int) *FFmpeg {
	return &FFmpeg{Binary: "ffmpeg", FPS: DefaultFFmpegFPS, Quality: quality}
}

func (e *FFmpeg) Start(ctx context.Context, w io.Writer, width, height int) error {
	if e.Codec == "" {
		e.Codec, _ = system.GetBestH264Encoder()
	}
	e.raw = image.NewRGBA(image.Rect(0, 0, width, height))
	e.elapsed, e.written = 0, 0

	e.cmd = exec.CommandContext(ctx, e.Binary, e.buildArgs(width, height)...)
	e.cmd.Stdout = w
	e.cmd.Stderr = &e.stderr

	stdin, err := e.cmd.StdinPipe()
	if err != nil {
		return wrap("ffmpeg", fmt.Errorf("stdin pipe error: %w", err))
	}
	e.stdin = stdin
	if err := e.cmd.Start(); err != nil {
		return wrap("ffmpeg", fmt.Errorf("ffmpeg start error: %w", err))
	}
	return nil
}

func (e *FFmpeg) buildArgs(width, height int) []string {
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", width, height),
		"-framerate", fmt.Sprintf("%d", e.FPS),
		"-i", "-",
		// yuv420p требует чётных размеров
		"-vf", "pad=ceil(iw/2)*2:ceil(ih/2)*2",
		"-pix_fmt", "yuv420p",
		"-c:v", e.Codec,
	}

	// Качество в зависимости от энкодера
	quality := e.crf()
	switch e.Codec {
	case "h264_videotoolbox":
		args = append(args, "-b:v", fmt.Sprintf("%dk", clampQuality(e.Quality)*100))
	case "h264_nvenc":
		args = append(args, "-cq", fmt.Sprintf("%d", quality))
	default: // libx264
		args = append(args, "-crf", fmt.Sprintf("%d", quality), "-preset", "medium")
	}

	return append(args, "-movflags", "frag_keyframe+empty_moov", "-f", "mp4", "pipe:1")
}

// crf maps a 1..100 quality onto the 51..0 H.264 scale.
func (e *FFmpeg) crf() int {
	return 51 - clampQuality(e.Quality)*51/100
}

func (e *FFmpeg) SetFrameDelay(ms int) { e.delay = ms }

func (e *FFmpeg) AddFrame(img image.Image) error {
	if e.stdin == nil {
		return wrap("ffmpeg", errNotStarted)
	}
	e.elapsed += e.delay
	target := e.elapsed * e.FPS / 1000
	repeats := max(1, target-e.written)

	draw.Draw(e.raw, e.raw.Bounds(), img, img.Bounds().Min, draw.Src)
	for i := 0; i < repeats; i++ {
		if _, err := e.stdin.Write(e.raw.Pix); err != nil {
			return wrap("ffmpeg", fmt.Errorf("write raw error: %w: %s", err, e.stderr.String()))
		}
	}
	e.written += repeats
	return nil
}

func (e *FFmpeg) Finish() error {
	if e.stdin == nil {
		return wrap("ffmpeg", errNotStarted)
	}
	e.stdin.Close()
	if err := e.cmd.Wait(); err != nil {
		return wrap("ffmpeg", fmt.Errorf("ffmpeg wait error: %w: %s", err, e.stderr.String()))
	}
	return nil
}

func (e *FFmpeg) Extension() string { return ".mp4" }

// Abort stops ffmpeg without waiting for the stream to be finalized.
func (e *FFmpeg) Abort() {
	if e.cmd == nil || e.cmd.Process == nil {
		return
	}
	if e.stdin != nil {
		e.stdin.Close()
	}
	e.cmd.Process.Kill()
	e.cmd.Wait()
}
