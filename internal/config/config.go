package config

import (
	"errors"
	"fmt"
)

const (
	DefaultOutputWidth   = 480
	DefaultSpeedRatio    = 1.0
	DefaultMinFrameDelay = 60
	DefaultQuality       = 90
	DefaultDPI           = 150
	DefaultMinFreeBytes  = 16 << 20
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	// OutputWidth is the pixel width the editing canvas is scaled to.
	OutputWidth int
	// CanvasWidth is the width of the editing canvas every descriptor is expressed in.
	CanvasWidth float64
	SpeedRatio  float64
	// MinFrameDelay is the smallest advance between two global timestamps, in ms, before
	// the speed ratio is applied.
	MinFrameDelay  int
	Quality        int
	StillFormat    string
	AnimatedFormat string
	// OutputDir is probed for free space before any work starts. Empty skips the check.
	OutputDir    string
	MinFreeBytes uint64
	DPI          int
	ShowStats    bool
	BuildVersion string
}

func Default() Config {
	return Config{
		OutputWidth:    DefaultOutputWidth,
		SpeedRatio:     DefaultSpeedRatio,
		MinFrameDelay:  DefaultMinFrameDelay,
		Quality:        DefaultQuality,
		StillFormat:    "png",
		AnimatedFormat: "gif",
		MinFreeBytes:   DefaultMinFreeBytes,
		DPI:            DefaultDPI,
	}
}

// WithDefaults fills every zero field from Default. CanvasWidth falls back to OutputWidth,
// which makes the resize ratio 1.
func (c Config) WithDefaults() Config {
	d := Default()
	if c.OutputWidth <= 0 {
		c.OutputWidth = d.OutputWidth
	}
	if c.CanvasWidth <= 0 {
		c.CanvasWidth = float64(c.OutputWidth)
	}
	if c.SpeedRatio == 0 {
		c.SpeedRatio = d.SpeedRatio
	}
	if c.MinFrameDelay <= 0 {
		c.MinFrameDelay = d.MinFrameDelay
	}
	if c.Quality <= 0 {
		c.Quality = d.Quality
	}
	if c.StillFormat == "" {
		c.StillFormat = d.StillFormat
	}
	if c.AnimatedFormat == "" {
		c.AnimatedFormat = d.AnimatedFormat
	}
	if c.MinFreeBytes == 0 {
		c.MinFreeBytes = d.MinFreeBytes
	}
	if c.DPI <= 0 {
		c.DPI = d.DPI
	}
	return c
}

func (c Config) Validate() error {
	if c.SpeedRatio <= 0 {
		return fmt.Errorf("%w: speed ratio must be positive, got %v", ErrInvalidConfig, c.SpeedRatio)
	}
	if c.OutputWidth <= 0 {
		return fmt.Errorf("%w: output width must be positive, got %d", ErrInvalidConfig, c.OutputWidth)
	}
	if c.CanvasWidth <= 0 {
		return fmt.Errorf("%w: canvas width must be positive, got %v", ErrInvalidConfig, c.CanvasWidth)
	}
	if c.Quality < 1 || c.Quality > 100 {
		return fmt.Errorf("%w: quality must be within 1..100, got %d", ErrInvalidConfig, c.Quality)
	}
	return nil
}

// ResizeRatio maps editing-canvas units to output pixels.
func (c Config) ResizeRatio() float64 {
	return float64(c.OutputWidth) / c.CanvasWidth
}
