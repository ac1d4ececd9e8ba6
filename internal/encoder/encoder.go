// Package encoder adapts image codecs to the two sink contracts the compositor uses: a
// single-shot still encode and an append-only animated stream.
package encoder

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"sort"
	"strings"
)

var (
	ErrEncode        = errors.New("encode failure")
	ErrUnknownFormat = errors.New("unknown output format")
)

type StillEncoder interface {
	Encode(w io.Writer, img image.Image, quality int) error
	Extension() string
}

// AnimatedEncoder is a sequential sink. SetFrameDelay applies to the next AddFrame. The
// frame passed to AddFrame may be reused by the caller once the call returns.
type AnimatedEncoder interface {
	Start(ctx context.Context, w io.Writer, width, height int) error
	SetFrameDelay(ms int)
	AddFrame(img image.Image) error
	Finish() error
	Extension() string
}

type (
	stillFactory    func(quality int) StillEncoder
	animatedFactory func(quality int) AnimatedEncoder
)

var stillRegistry = map[string]stillFactory{
	"png":  func(int) StillEncoder { return &PNG{} },
	"jpeg": func(int) StillEncoder { return &JPEG{} },
	"jpg":  func(int) StillEncoder { return &JPEG{} },
	"webp": func(int) StillEncoder { return &WebP{} },
}

var animatedRegistry = map[string]animatedFactory{
	"gif":  func(int) AnimatedEncoder { return NewGIF() },
	"webp": func(q int) AnimatedEncoder { return NewAnimatedWebP(q) },
	"apng": func(int) AnimatedEncoder { return NewAPNG() },
	"mp4":  func(q int) AnimatedEncoder { return NewFFmpeg(q) },
}

func NewStill(format string) (StillEncoder, error) {
	f, ok := stillRegistry[strings.ToLower(format)]
	if !ok {
		return nil, fmt.Errorf("%w: still %q (available: %s)", ErrUnknownFormat, format, keys(stillRegistry))
	}
	return f(0), nil
}

func NewAnimated(format string, quality int) (AnimatedEncoder, error) {
	f, ok := animatedRegistry[strings.ToLower(format)]
	if !ok {
		return nil, fmt.Errorf("%w: animated %q (available: %s)", ErrUnknownFormat, format, keys(animatedRegistry))
	}
	return f(quality), nil
}

func keys[V any](m map[string]V) string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return strings.Join(out, ", ")
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrEncode, op, err)
}
