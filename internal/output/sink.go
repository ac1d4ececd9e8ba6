// Package output writes artifacts so that a failed composite never leaves a truncated file
// behind.
package output

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var ErrClosed = errors.New("sink already closed")

// FileSink buffers an artifact in a temporary file next to its destination. Commit moves it
// into place; Abort removes it.
type FileSink struct {
	base   string
	tmp    *os.File
	closed bool
}

// NewFileSink prepares a sink for base, a destination path without extension.
func NewFileSink(base string) (*FileSink, error) {
	dir := filepath.Dir(base)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(base)+"-*.part")
	if err != nil {
		return nil, err
	}
	return &FileSink{base: base, tmp: tmp}, nil
}

func (s *FileSink) Write(p []byte) (int, error) {
	if s.closed {
		return 0, ErrClosed
	}
	return s.tmp.Write(p)
}

// TempPath is the location of the partial file.
func (s *FileSink) TempPath() string { return s.tmp.Name() }

// Commit finalizes the artifact as base+ext and returns the final path.
func (s *FileSink) Commit(ext string) (string, error) {
	if s.closed {
		return "", ErrClosed
	}
	s.closed = true
	if err := s.tmp.Sync(); err != nil {
		s.discard()
		return "", err
	}
	if err := s.tmp.Close(); err != nil {
		os.Remove(s.tmp.Name())
		return "", err
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	final := s.base + ext
	if err := os.Rename(s.tmp.Name(), final); err != nil {
		os.Remove(s.tmp.Name())
		return "", fmt.Errorf("moving artifact into place: %w", err)
	}
	return final, nil
}

// Abort deletes the partial file. It is a no-op after Commit.
func (s *FileSink) Abort() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.discard()
}

func (s *FileSink) discard() error {
	s.tmp.Close()
	if err := os.Remove(s.tmp.Name()); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
