// Package testutil builds in-memory release fixtures for installer
// tests: archives in both supported formats and matching checksum
// manifests.
package testutil

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/klauspost/compress/gzip"
)

// Entry is one file inside a fixture archive.
type Entry struct {
	Name    string
	Content []byte
	Mode    int64
}

// BuildTarGz returns a gzip-compressed tar archive containing the given
// entries.
func BuildTarGz(t *testing.T, entries ...Entry) []byte {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	for _, e := range entries {
		mode := e.Mode
		if mode == 0 {
			mode = 0o755
		}
		header := &tar.Header{
			Name:     e.Name,
			Mode:     mode,
			Size:     int64(len(e.Content)),
			Typeflag: tar.TypeReg,
		}
		if err := tw.WriteHeader(header); err != nil {
			t.Fatalf("write tar header for %s: %v", e.Name, err)
		}
		if _, err := tw.Write(e.Content); err != nil {
			t.Fatalf("write tar entry %s: %v", e.Name, err)
		}
	}

	if err := tw.Close(); err != nil {
		t.Fatalf("close tar writer: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("close gzip writer: %v", err)
	}

	return buf.Bytes()
}

// BuildZip returns a zip archive containing the given entries.
func BuildZip(t *testing.T, entries ...Entry) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, e := range entries {
		w, err := zw.Create(e.Name)
		if err != nil {
			t.Fatalf("create zip entry %s: %v", e.Name, err)
		}
		if _, err := w.Write(e.Content); err != nil {
			t.Fatalf("write zip entry %s: %v", e.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		t.Fatalf("close zip writer: %v", err)
	}

	return buf.Bytes()
}

// SHA256Hex returns the hex-encoded SHA-256 digest of data.
func SHA256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ChecksumManifest renders a checksum manifest in the conventional
// "<sha256-hex>  <filename>" format for the given filename->bytes map
// entries, in the order provided.
func ChecksumManifest(assets ...[2]string) []byte {
	var buf bytes.Buffer
	for _, a := range assets {
		fmt.Fprintf(&buf, "%s  %s\n", a[0], a[1])
	}
	return buf.Bytes()
}
