// Package job reads and writes composite jobs: a descriptor list plus the output settings
// it was authored for.
package job

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/animcompose/internal/composable"
	"github.com/ivlev/animcompose/internal/config"
)

const Version = "1.0"

type Job struct {
	Version        string            `yaml:"version"`
	CanvasWidth    float64           `yaml:"canvas_width"`
	OutputWidth    int               `yaml:"output_width,omitempty"`
	SpeedRatio     float64           `yaml:"speed_ratio,omitempty"`
	Quality        int               `yaml:"quality,omitempty"`
	StillFormat    string            `yaml:"still_format,omitempty"`
	AnimatedFormat string            `yaml:"animated_format,omitempty"`
	Elements       []composable.Node `yaml:"elements"`
}

// Write writes a job to a YAML file
func Write(j *Job, path string) error {
	data, err := yaml.Marshal(j)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Read reads a job from a YAML file
func Read(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var j Job
	if err := yaml.Unmarshal(data, &j); err != nil {
		return nil, err
	}

	return &j, nil
}

func (j *Job) Descriptors() []composable.Composable {
	return composable.Unwrap(j.Elements)
}

// Apply overlays the job's non-zero settings onto cfg.
func (j *Job) Apply(cfg config.Config) config.Config {
	if j.CanvasWidth > 0 {
		cfg.CanvasWidth = j.CanvasWidth
	}
	if j.OutputWidth > 0 {
		cfg.OutputWidth = j.OutputWidth
	}
	if j.SpeedRatio != 0 {
		cfg.SpeedRatio = j.SpeedRatio
	}
	if j.Quality > 0 {
		cfg.Quality = j.Quality
	}
	if j.StillFormat != "" {
		cfg.StillFormat = j.StillFormat
	}
	if j.AnimatedFormat != "" {
		cfg.AnimatedFormat = j.AnimatedFormat
	}
	return cfg
}

// FromFrames builds a job with a single multi-frame element covering a width x height canvas.
func FromFrames(paths []string, delayMillis int, width, height float64) *Job {
	frames := make([]composable.Frame, len(paths))
	for i, p := range paths {
		frames[i] = composable.Frame{Source: p, DelayMillis: delayMillis}
	}
	mf := &composable.MultiFrame{
		Geometry: composable.Geometry{Width: width, Height: height},
		Frames:   frames,
	}
	return &Job{
		Version:     Version,
		CanvasWidth: width,
		Elements:    []composable.Node{{Composable: mf}},
	}
}
