package binary

import (
	"archive/tar"
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
)

// Extractor pulls the daemon binary out of a release archive. Both
// archive kinds share one contract: exactly one entry whose base name
// equals the expected binary name must exist.
type Extractor struct{}

// NewExtractor creates a new extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractBinary scans the archive at archivePath for the single entry
// named binaryName and writes it to destDir. Zero matches and multiple
// matches are both errors: an archive that does not contain exactly the
// expected binary is not a release archive we can trust.
//
// Returns the path of the extracted file. Embedded mode bits are
// preserved when present but the installer sets the executable bit
// explicitly regardless.
func (e *Extractor) ExtractBinary(archivePath, archiveExt, binaryName, destDir string) (string, error) {
	destPath := filepath.Join(destDir, binaryName)

	var matches int
	var err error

	switch archiveExt {
	case ".tar.gz":
		matches, err = e.extractTarGz(archivePath, binaryName, destPath)
	case ".zip":
		matches, err = e.extractZip(archivePath, binaryName, destPath)
	default:
		return "", fmt.Errorf("unsupported archive format: %s", archiveExt)
	}

	if err != nil {
		os.Remove(destPath)
		return "", err
	}

	switch matches {
	case 0:
		return "", fmt.Errorf("binary %s not found in archive %s", binaryName, filepath.Base(archivePath))
	case 1:
		return destPath, nil
	default:
		os.Remove(destPath)
		return "", fmt.Errorf("archive %s contains %d entries named %s, expected exactly one",
			filepath.Base(archivePath), matches, binaryName)
	}
}

// extractTarGz streams a gzip-compressed tar archive, writing the first
// entry matching binaryName to destPath and counting all matches.
func (e *Extractor) extractTarGz(archivePath, binaryName, destPath string) (int, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return 0, fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return 0, fmt.Errorf("read gzip header: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)

	matches := 0
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return matches, nil
		}
		if err != nil {
			return matches, fmt.Errorf("read tar header: %w", err)
		}

		if header.Typeflag != tar.TypeReg || filepath.Base(header.Name) != binaryName {
			continue
		}

		matches++
		if matches > 1 {
			continue
		}

		if err := writeEntry(destPath, tr, header.FileInfo().Mode()); err != nil {
			return matches, err
		}
	}
}

// extractZip scans a zip archive, writing the first entry matching
// binaryName to destPath and counting all matches.
func (e *Extractor) extractZip(archivePath, binaryName, destPath string) (int, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return 0, fmt.Errorf("open zip archive: %w", err)
	}
	defer r.Close()

	matches := 0
	for _, f := range r.File {
		if f.FileInfo().IsDir() || filepath.Base(f.Name) != binaryName {
			continue
		}

		matches++
		if matches > 1 {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return matches, fmt.Errorf("open zip entry %s: %w", f.Name, err)
		}

		err = writeEntry(destPath, rc, f.Mode())
		rc.Close()
		if err != nil {
			return matches, err
		}
	}

	return matches, nil
}

// writeEntry copies an archive entry to destPath with the entry's mode.
func writeEntry(destPath string, r io.Reader, mode os.FileMode) error {
	out, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm())
	if err != nil {
		return fmt.Errorf("create %s: %w", destPath, err)
	}

	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fmt.Errorf("write %s: %w", destPath, err)
	}

	return out.Close()
}
