package binary

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/centy-io/centy-installer/internal/platform"
	"github.com/centy-io/centy-installer/internal/testutil"
)

// stubDetector returns a fixed platform without touching the host.
type stubDetector struct {
	info *platform.Info
	err  error
}

func (d *stubDetector) Detect(ctx context.Context) (*platform.Info, error) {
	return d.info, d.err
}

func linuxAmd64() *platform.Info {
	return &platform.Info{
		OS:         platform.OSLinux,
		Arch:       "amd64",
		ArchRaw:    "amd64",
		Triple:     "x86_64-unknown-linux-gnu",
		ArchiveExt: platform.ExtTarGz,
	}
}

// releaseServer serves a release index plus the assets for a single tag.
func releaseServer(t *testing.T, tags []string, assets map[string][]byte) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/centy-io/centy-daemon/releases", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, "[")
		for i, tag := range tags {
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			fmt.Fprintf(w, `{"tag_name":%q}`, tag)
		}
		fmt.Fprint(w, "]")
	})
	mux.HandleFunc("/download/", func(w http.ResponseWriter, r *http.Request) {
		name := filepath.Base(r.URL.Path)
		data, ok := assets[name]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	})
	return httptest.NewServer(mux)
}

func TestManagerInstallLatest(t *testing.T) {
	const tag = "v2.3.0"
	assetName := fmt.Sprintf("centy-daemon-%s-x86_64-unknown-linux-gnu.tar.gz", tag)

	archive := testutil.BuildTarGz(t, testutil.Entry{
		Name:    "centy-daemon",
		Content: []byte("daemon-payload"),
	})
	manifest := testutil.ChecksumManifest([2]string{testutil.SHA256Hex(archive), assetName})

	srv := releaseServer(t, []string{tag, "v2.2.0"}, map[string][]byte{
		assetName:     archive,
		ChecksumsName: manifest,
	})
	defer srv.Close()

	binDir := filepath.Join(t.TempDir(), "bin")
	mgr, err := NewManager(Config{
		BinDir:       binDir,
		APIBase:      srv.URL,
		DownloadBase: srv.URL + "/download",
		Detector:     &stubDetector{info: linuxAmd64()},
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	result, err := mgr.Install(context.Background(), "")
	if err != nil {
		t.Fatalf("install: %v", err)
	}
	if result.Tag != tag {
		t.Errorf("tag = %q, want %q", result.Tag, tag)
	}

	wantPath := filepath.Join(binDir, "centy-daemon")
	if result.Path != wantPath {
		t.Errorf("path = %q, want %q", result.Path, wantPath)
	}
	content, err := os.ReadFile(wantPath)
	if err != nil {
		t.Fatalf("read installed binary: %v", err)
	}
	if string(content) != "daemon-payload" {
		t.Errorf("content = %q, want %q", content, "daemon-payload")
	}
}

func TestManagerInstallPinnedVersion(t *testing.T) {
	const tag = "v1.0.0"
	assetName := fmt.Sprintf("centy-daemon-%s-x86_64-unknown-linux-gnu.tar.gz", tag)

	archive := testutil.BuildTarGz(t, testutil.Entry{
		Name:    "centy-daemon",
		Content: []byte("pinned-payload"),
	})
	manifest := testutil.ChecksumManifest([2]string{testutil.SHA256Hex(archive), assetName})

	// No release index route: a pinned install must not consult it.
	mux := http.NewServeMux()
	mux.HandleFunc("/download/", func(w http.ResponseWriter, r *http.Request) {
		switch filepath.Base(r.URL.Path) {
		case assetName:
			w.Write(archive)
		case ChecksumsName:
			w.Write(manifest)
		default:
			http.NotFound(w, r)
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	binDir := filepath.Join(t.TempDir(), "bin")
	mgr, err := NewManager(Config{
		BinDir:       binDir,
		APIBase:      srv.URL,
		DownloadBase: srv.URL + "/download",
		Detector:     &stubDetector{info: linuxAmd64()},
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	result, err := mgr.Install(context.Background(), "1.0.0")
	if err != nil {
		t.Fatalf("install: %v", err)
	}
	if result.Tag != tag {
		t.Errorf("tag = %q, want %q", result.Tag, tag)
	}
}

func TestManagerInstallChecksumMismatch(t *testing.T) {
	const tag = "v2.3.0"
	assetName := fmt.Sprintf("centy-daemon-%s-x86_64-unknown-linux-gnu.tar.gz", tag)

	archive := testutil.BuildTarGz(t, testutil.Entry{
		Name:    "centy-daemon",
		Content: []byte("daemon-payload"),
	})
	// Manifest digest is for different bytes than the served archive.
	manifest := testutil.ChecksumManifest([2]string{testutil.SHA256Hex([]byte("other bytes")), assetName})

	srv := releaseServer(t, []string{tag}, map[string][]byte{
		assetName:     archive,
		ChecksumsName: manifest,
	})
	defer srv.Close()

	binDir := filepath.Join(t.TempDir(), "bin")
	mgr, err := NewManager(Config{
		BinDir:       binDir,
		APIBase:      srv.URL,
		DownloadBase: srv.URL + "/download",
		Detector:     &stubDetector{info: linuxAmd64()},
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	_, err = mgr.Install(context.Background(), "")
	if err == nil {
		t.Fatal("expected checksum mismatch error")
	}
	if stage, ok := StageOf(err); !ok || stage != StageDownload {
		t.Errorf("stage = %v (tagged %v), want %v", stage, ok, StageDownload)
	}

	if _, statErr := os.Stat(filepath.Join(binDir, "centy-daemon")); !os.IsNotExist(statErr) {
		t.Error("failed install must not touch the destination")
	}
}

func TestManagerInstallMissingManifestEntry(t *testing.T) {
	const tag = "v2.3.0"
	assetName := fmt.Sprintf("centy-daemon-%s-x86_64-unknown-linux-gnu.tar.gz", tag)

	archive := testutil.BuildTarGz(t, testutil.Entry{
		Name:    "centy-daemon",
		Content: []byte("daemon-payload"),
	})
	manifest := testutil.ChecksumManifest([2]string{testutil.SHA256Hex(archive), "some-other-asset.tar.gz"})

	srv := releaseServer(t, []string{tag}, map[string][]byte{
		assetName:     archive,
		ChecksumsName: manifest,
	})
	defer srv.Close()

	binDir := filepath.Join(t.TempDir(), "bin")
	mgr, err := NewManager(Config{
		BinDir:       binDir,
		APIBase:      srv.URL,
		DownloadBase: srv.URL + "/download",
		Detector:     &stubDetector{info: linuxAmd64()},
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	_, err = mgr.Install(context.Background(), "")
	if err == nil {
		t.Fatal("expected missing manifest entry error")
	}
	if stage, ok := StageOf(err); !ok || stage != StageDownload {
		t.Errorf("stage = %v (tagged %v), want %v", stage, ok, StageDownload)
	}
}

func TestManagerInstallExtractionFailureTagged(t *testing.T) {
	const tag = "v2.3.0"
	assetName := fmt.Sprintf("centy-daemon-%s-x86_64-unknown-linux-gnu.tar.gz", tag)

	// Valid archive, valid checksum, but no entry named centy-daemon.
	archive := testutil.BuildTarGz(t, testutil.Entry{
		Name:    "wrong-name",
		Content: []byte("daemon-payload"),
	})
	manifest := testutil.ChecksumManifest([2]string{testutil.SHA256Hex(archive), assetName})

	srv := releaseServer(t, []string{tag}, map[string][]byte{
		assetName:     archive,
		ChecksumsName: manifest,
	})
	defer srv.Close()

	mgr, err := NewManager(Config{
		BinDir:       filepath.Join(t.TempDir(), "bin"),
		APIBase:      srv.URL,
		DownloadBase: srv.URL + "/download",
		Detector:     &stubDetector{info: linuxAmd64()},
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	_, err = mgr.Install(context.Background(), "")
	if err == nil {
		t.Fatal("expected extraction error")
	}
	if stage, ok := StageOf(err); !ok || stage != StageExtract {
		t.Errorf("stage = %v (tagged %v), want %v", stage, ok, StageExtract)
	}
}

func TestManagerInstallUnsupportedPlatform(t *testing.T) {
	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	detectErr := errors.New("unsupported platform: windows-arm64")
	mgr, err := NewManager(Config{
		BinDir:       filepath.Join(t.TempDir(), "bin"),
		APIBase:      srv.URL,
		DownloadBase: srv.URL + "/download",
		Detector:     &stubDetector{err: detectErr},
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	_, err = mgr.Install(context.Background(), "")
	if err == nil {
		t.Fatal("expected platform error")
	}
	if stage, ok := StageOf(err); !ok || stage != StagePlatform {
		t.Errorf("stage = %v (tagged %v), want %v", stage, ok, StagePlatform)
	}
	if !errors.Is(err, detectErr) {
		t.Errorf("wrapped error lost: %v", err)
	}
	if n := requests.Load(); n != 0 {
		t.Errorf("platform failure made %d HTTP requests, want 0", n)
	}
}

func TestManagerInstallWindowsBinaryName(t *testing.T) {
	const tag = "v2.3.0"
	assetName := fmt.Sprintf("centy-daemon-%s-x86_64-pc-windows-msvc.zip", tag)

	archive := testutil.BuildZip(t, testutil.Entry{
		Name:    "centy-daemon.exe",
		Content: []byte("exe-payload"),
	})
	manifest := testutil.ChecksumManifest([2]string{testutil.SHA256Hex(archive), assetName})

	srv := releaseServer(t, []string{tag}, map[string][]byte{
		assetName:     archive,
		ChecksumsName: manifest,
	})
	defer srv.Close()

	binDir := filepath.Join(t.TempDir(), "bin")
	mgr, err := NewManager(Config{
		BinDir:       binDir,
		APIBase:      srv.URL,
		DownloadBase: srv.URL + "/download",
		Detector: &stubDetector{info: &platform.Info{
			OS:         platform.OSWindows,
			Arch:       "amd64",
			ArchRaw:    "amd64",
			Triple:     "x86_64-pc-windows-msvc",
			ArchiveExt: platform.ExtZip,
		}},
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	result, err := mgr.Install(context.Background(), "")
	if err != nil {
		t.Fatalf("install: %v", err)
	}
	if filepath.Base(result.Path) != "centy-daemon.exe" {
		t.Errorf("installed name = %q, want centy-daemon.exe", filepath.Base(result.Path))
	}
}

func TestNewManagerValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "missing_bin_dir", cfg: Config{APIBase: "http://a", DownloadBase: "http://d"}},
		{name: "missing_api_base", cfg: Config{BinDir: "/tmp/bin", DownloadBase: "http://d"}},
		{name: "missing_download_base", cfg: Config{BinDir: "/tmp/bin", APIBase: "http://a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewManager(tt.cfg); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
