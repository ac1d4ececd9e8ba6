package animated

import (
	"fmt"

	"github.com/ivlev/animcompose/internal/source"
)

// NewStepper picks the decoder for an animated single-file source.
func NewStepper(data []byte) (Stepper, error) {
	switch f := source.Sniff(data); f {
	case source.FormatGIF:
		return NewGIFStepper(data)
	case source.FormatWebP:
		return NewWebPStepper(data)
	case source.FormatAPNG:
		return NewAPNGStepper(data)
	default:
		return nil, fmt.Errorf("%w: %s is not animated", source.ErrUnsupportedFormat, f)
	}
}
