package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

const workDirFormat = "20060102_150405"

// CreateWorkDir creates a timestamped working directory under root and
// returns its path. Every run gets its own directory so that artifacts
// from earlier runs are never overwritten.
func CreateWorkDir(root string, now time.Time) (string, error) {
	dir := filepath.Join(root, "work_"+now.Format(workDirFormat))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating work directory: %w", err)
	}
	return dir, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying to %s: %w", dst, err)
	}
	return out.Close()
}
