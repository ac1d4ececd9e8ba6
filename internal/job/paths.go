package job

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/ivlev/animcompose/internal/system"
)

// DefaultDir is where the CLI looks for jobs when none is given.
var DefaultDir = filepath.Join("input", "jobs")

// GeneratePath creates a timestamped job filename in dir
func GeneratePath(dir string) string {
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(dir, fmt.Sprintf("job_%s.yaml", timestamp))
}

// FindLatest finds the most recently modified job file in dir
func FindLatest(dir string) (string, error) {
	return system.FindLatestFile(dir, ".yaml", ".yml")
}
