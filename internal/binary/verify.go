package binary

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// Verifier validates downloaded archives against the release's checksum
// manifest. Verification covers integrity only; the comparison is
// case-insensitive over the hex digest but otherwise exact.
type Verifier struct{}

// NewVerifier creates a new verifier.
func NewVerifier() *Verifier {
	return &Verifier{}
}

// VerifyArchive checks that the SHA-256 digest of the file at
// archivePath matches the manifest entry keyed by assetName. A missing
// manifest entry is a failure, not a skip: an archive without a
// published checksum must never be installed.
func (v *Verifier) VerifyArchive(archivePath, checksumsPath, assetName string) error {
	expected, err := findChecksum(checksumsPath, assetName)
	if err != nil {
		return err
	}

	actual, err := hashFile(archivePath)
	if err != nil {
		return fmt.Errorf("hash archive: %w", err)
	}

	if !strings.EqualFold(actual, expected) {
		return fmt.Errorf("checksum mismatch for %s:\nexpected: %s\nactual:   %s",
			assetName, expected, actual)
	}

	return nil
}

// hashFile computes the hex-encoded SHA-256 digest of a file.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// findChecksum returns the manifest entry for assetName. The manifest
// format is the conventional "<sha256-hex>  <filename>" per line.
func findChecksum(checksumsPath, assetName string) (string, error) {
	f, err := os.Open(checksumsPath)
	if err != nil {
		return "", fmt.Errorf("open checksum manifest: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		parts := strings.Fields(scanner.Text())
		if len(parts) < 2 {
			continue
		}
		if parts[1] == assetName {
			return parts[0], nil
		}
	}

	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("scan checksum manifest: %w", err)
	}

	return "", fmt.Errorf("no checksum entry for %s in manifest", assetName)
}
