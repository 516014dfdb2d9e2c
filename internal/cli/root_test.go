package cli

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/centy-io/centy-installer/internal/config"
	"github.com/centy-io/centy-installer/internal/platform"
	"github.com/centy-io/centy-installer/internal/testutil"
)

func TestFormatKVs(t *testing.T) {
	tests := []struct {
		name string
		kvs  []interface{}
		want string
	}{
		{name: "empty", kvs: nil, want: ""},
		{name: "single_pair", kvs: []interface{}{"version", "v1.0.0"}, want: " version=v1.0.0"},
		{name: "two_pairs", kvs: []interface{}{"a", 1, "b", 2}, want: " a=1 b=2"},
		{name: "dangling_key", kvs: []interface{}{"a", 1, "orphan"}, want: " a=1 orphan"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatKVs(tt.kvs); got != tt.want {
				t.Errorf("formatKVs(%v) = %q, want %q", tt.kvs, got, tt.want)
			}
		})
	}
}

func TestRootCmdRejectsExtraArgs(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"v1.0.0", "v2.0.0"})
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for two version arguments")
	}
}

func TestRootCmdMissingConfigFile(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "absent.toml")})
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestRootCmdInstallsPinnedVersion(t *testing.T) {
	const tag = "v1.4.0"

	// Asset name, archive format, and binary name all depend on the
	// host running the test, so derive them the way the pipeline does.
	info, err := platform.NewDetector().Detect(context.Background())
	if err != nil {
		t.Skipf("host platform unsupported: %v", err)
	}
	binaryName := info.BinaryName("centy-daemon")
	assetName := "centy-daemon-" + tag + "-" + info.Triple + info.ArchiveExt

	entry := testutil.Entry{Name: binaryName, Content: []byte("daemon-payload")}
	var archive []byte
	if info.ArchiveExt == platform.ExtZip {
		archive = testutil.BuildZip(t, entry)
	} else {
		archive = testutil.BuildTarGz(t, entry)
	}
	manifest := testutil.ChecksumManifest([2]string{testutil.SHA256Hex(archive), assetName})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch filepath.Base(r.URL.Path) {
		case assetName:
			w.Write(archive)
		case "checksums-sha256.txt":
			w.Write(manifest)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	tmpDir := t.TempDir()
	binDir := filepath.Join(tmpDir, "bin")
	cfgPath := filepath.Join(tmpDir, "config.toml")
	cfgBody := fmt.Sprintf("api_base = %q\ndownload_base = %q\nbin_dir = %q\n", srv.URL, srv.URL+"/download", binDir)
	if err := os.WriteFile(cfgPath, []byte(cfgBody), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs([]string{"1.4.0", "--config", cfgPath, "--quiet", "--no-restart"})
	cmd.SetOut(&out)
	cmd.SetErr(new(bytes.Buffer))

	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if !strings.Contains(out.String(), tag) {
		t.Errorf("output %q does not mention installed version %s", out.String(), tag)
	}
	installed := filepath.Join(binDir, binaryName)
	content, err := os.ReadFile(installed)
	if err != nil {
		t.Fatalf("read installed binary: %v", err)
	}
	if string(content) != "daemon-payload" {
		t.Errorf("installed content = %q, want %q", content, "daemon-payload")
	}
}

func TestLoadConfigDefaultsWhenUnset(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.APIBase != config.DefaultAPIBase {
		t.Errorf("api base = %q, want default", cfg.APIBase)
	}
}
