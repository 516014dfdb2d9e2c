package binary

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Installer writes the extracted binary to its final destination.
//
// The write discipline is temp-file-then-rename in the destination
// directory: the destination path is only ever observed as the previous
// complete binary or the new complete binary, never a partial write.
// The rename is the sole concurrency-safety mechanism; two racing
// installs both leave a complete binary behind.
type Installer struct{}

// NewInstaller creates a new installer.
func NewInstaller() *Installer {
	return &Installer{}
}

// Install copies the binary at srcPath to destPath atomically, creating
// missing parent directories and setting the executable bit
// unconditionally, regardless of any mode bits the archive carried.
func (i *Installer) Install(srcPath, destPath string) error {
	destDir := filepath.Dir(destPath)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("create install dir %s: %w", destDir, err)
	}

	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("open extracted binary: %w", err)
	}
	defer src.Close()

	// The temp file must live in the destination directory so the final
	// rename stays on one filesystem and therefore atomic.
	tmp, err := os.CreateTemp(destDir, "."+filepath.Base(destPath)+".*")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", destDir, err)
	}
	tmpPath := tmp.Name()

	cleanupNeeded := true
	defer func() {
		tmp.Close()
		if cleanupNeeded {
			os.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmp, src); err != nil {
		return fmt.Errorf("write %s: %w", tmpPath, err)
	}

	if err := tmp.Chmod(0o755); err != nil {
		return fmt.Errorf("set executable bit: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("rename into %s: %w", destPath, err)
	}

	cleanupNeeded = false
	return nil
}
