package binary

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
)

// DefaultRetries is the default number of download retry attempts.
const DefaultRetries = 3

// Downloader fetches release assets over HTTP with retry logic.
// Downloads land in a per-invocation work directory owned by the
// pipeline run; nothing is cached across invocations.
type Downloader struct {
	client    *http.Client
	userAgent string
	retries   int
	progress  bool
}

// NewDownloader creates a downloader. When progress is true, archive
// downloads render a byte progress bar on stderr.
func NewDownloader(userAgent string, timeout time.Duration, progress bool) *Downloader {
	return &Downloader{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		userAgent: userAgent,
		retries:   DefaultRetries,
		progress:  progress,
	}
}

// FetchRelease downloads the release archive and its checksum manifest
// into workDir, concurrently, and returns their paths. If either fetch
// fails the other's bytes are discarded; there is no partial success.
func (d *Downloader) FetchRelease(ctx context.Context, asset *ReleaseAsset, workDir string) (archivePath, checksumsPath string, err error) {
	archivePath = filepath.Join(workDir, asset.AssetName)
	checksumsPath = filepath.Join(workDir, ChecksumsName)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return d.DownloadToFile(gctx, asset.AssetURL, archivePath, d.progress)
	})
	g.Go(func() error {
		return d.DownloadToFile(gctx, asset.ChecksumsURL, checksumsPath, false)
	})

	if err := g.Wait(); err != nil {
		os.Remove(archivePath)
		os.Remove(checksumsPath)
		return "", "", err
	}

	return archivePath, checksumsPath, nil
}

// DownloadToFile downloads url to destPath, retrying transient failures
// with exponential backoff.
func (d *Downloader) DownloadToFile(ctx context.Context, url, destPath string, showProgress bool) error {
	var lastErr error

	for attempt := 0; attempt <= d.retries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if attempt > 0 {
			// Exponential backoff: 1s, 2s, 4s
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := d.downloadOnce(ctx, url, destPath, showProgress)
		if err == nil {
			return nil
		}

		lastErr = err

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	return fmt.Errorf("download %s failed after %d retries: %w", url, d.retries, lastErr)
}

// downloadOnce performs a single download attempt. The body is written
// to a temp file and renamed into place so destPath is never partial.
func (d *Downloader) downloadOnce(ctx context.Context, url, destPath string, showProgress bool) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: unexpected status code %d", url, resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}

	tmpPath := destPath + ".tmp"
	tmpFile, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	cleanupNeeded := true
	defer func() {
		tmpFile.Close()
		if cleanupNeeded {
			os.Remove(tmpPath)
		}
	}()

	var w io.Writer = tmpFile
	if showProgress && resp.ContentLength > 0 {
		bar := progressbar.DefaultBytes(resp.ContentLength,
			fmt.Sprintf("downloading %s", filepath.Base(destPath)))
		w = io.MultiWriter(tmpFile, bar)
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return fmt.Errorf("copy response body: %w", err)
	}

	if n == 0 {
		return fmt.Errorf("fetch %s: empty response body", url)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	cleanupNeeded = false
	return nil
}
