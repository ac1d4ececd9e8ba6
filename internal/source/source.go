package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var ErrResourceUnavailable = errors.New("resource unavailable")

// Loader resolves a descriptor's source reference to raw bytes.
type Loader interface {
	LoadBytes(ctx context.Context, reference string) ([]byte, error)
}

// FileLoader reads references from the local filesystem. Relative references are resolved
// against Root.
type FileLoader struct {
	Root string
}

func NewFileLoader(root string) *FileLoader {
	return &FileLoader{Root: root}
}

func (l *FileLoader) LoadBytes(ctx context.Context, reference string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := strings.TrimPrefix(reference, "file://")
	if path == "" {
		return nil, fmt.Errorf("%w: empty reference", ErrResourceUnavailable)
	}
	if !filepath.IsAbs(path) && l.Root != "" {
		path = filepath.Join(l.Root, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrResourceUnavailable, reference, err)
	}
	return data, nil
}

// MemoryLoader serves references from an in-memory map. Useful when the caller already holds
// the bytes, e.g. uploaded stickers.
type MemoryLoader map[string][]byte

func (m MemoryLoader) LoadBytes(ctx context.Context, reference string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, ok := m[reference]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrResourceUnavailable, reference)
	}
	return data, nil
}
