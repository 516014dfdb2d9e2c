package binary

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/centy-io/centy-installer/internal/config"
	"github.com/centy-io/centy-installer/internal/platform"
)

// Manager orchestrates the installation pipeline.
type Manager struct {
	binDir       string
	downloadBase string
	detector     platform.Detector
	resolver     *Resolver
	downloader   *Downloader
	verifier     *Verifier
	extractor    *Extractor
	installer    *Installer
	log          config.Logger
}

// Config holds configuration for the pipeline manager.
type Config struct {
	// BinDir is the install directory (default derivation is the
	// caller's job; ~/.centy/bin in production).
	BinDir string
	// APIBase is the release index endpoint.
	APIBase string
	// DownloadBase is the release asset download endpoint.
	DownloadBase string
	// UserAgent is sent with every HTTP request.
	UserAgent string
	// Timeout bounds each HTTP request. Zero means no timeout; callers
	// wanting cancellation use the context.
	Timeout time.Duration
	// Progress enables a download progress bar on stderr.
	Progress bool
	// Logger receives stage-level progress. Defaults to a no-op logger.
	Logger config.Logger
	// Detector overrides host platform detection (tests only).
	Detector platform.Detector
}

// NewManager creates a pipeline manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.BinDir == "" {
		return nil, fmt.Errorf("BinDir is required")
	}
	if cfg.APIBase == "" {
		return nil, fmt.Errorf("APIBase is required")
	}
	if cfg.DownloadBase == "" {
		return nil, fmt.Errorf("DownloadBase is required")
	}

	if cfg.UserAgent == "" {
		cfg.UserAgent = config.DefaultUserAgent
	}
	if cfg.Logger == nil {
		cfg.Logger = config.NopLogger()
	}
	if cfg.Detector == nil {
		cfg.Detector = platform.NewDetector()
	}

	return &Manager{
		binDir:       cfg.BinDir,
		downloadBase: cfg.DownloadBase,
		detector:     cfg.Detector,
		resolver:     NewResolver(cfg.APIBase, cfg.UserAgent, cfg.Timeout),
		downloader:   NewDownloader(cfg.UserAgent, cfg.Timeout, cfg.Progress),
		verifier:     NewVerifier(),
		extractor:    NewExtractor(),
		installer:    NewInstaller(),
		log:          cfg.Logger,
	}, nil
}

// Install runs the full pipeline for the requested version ("" means
// latest, pre-releases included) and returns the installed binary's
// path. Stage failures come back as *PipelineError; the run performs no
// retries beyond the downloader's own transient-failure retry, and a
// failed run never leaves a partial binary at the install path.
func (m *Manager) Install(ctx context.Context, requested string) (*InstallResult, error) {
	start := time.Now()

	info, err := m.detector.Detect(ctx)
	if err != nil {
		return nil, stageErr(StagePlatform, err)
	}
	m.log.Debug("platform detected", "triple", info.Triple, "archive_ext", info.ArchiveExt)

	tag, err := m.resolver.Resolve(ctx, requested)
	if err != nil {
		return nil, stageErr(StageVersion, err)
	}
	m.log.Info("installing centy-daemon", "version", tag, "target", info.Triple)

	asset := NewReleaseAsset(tag, info, m.downloadBase)

	// Transient artifacts live in a per-run work directory, removed
	// whether or not the run succeeds.
	workDir, err := os.MkdirTemp("", "centy-installer-")
	if err != nil {
		return nil, stageErr(StageDownload, fmt.Errorf("create work directory: %w", err))
	}
	defer os.RemoveAll(workDir)

	archivePath, checksumsPath, err := m.downloader.FetchRelease(ctx, asset, workDir)
	if err != nil {
		return nil, stageErr(StageDownload, err)
	}
	m.log.Debug("release fetched", "asset", asset.AssetName)

	if err := m.verifier.VerifyArchive(archivePath, checksumsPath, asset.AssetName); err != nil {
		return nil, stageErr(StageDownload, err)
	}
	m.log.Debug("checksum verified", "asset", asset.AssetName)

	binaryName := info.BinaryName(BaseName)
	extractedPath, err := m.extractor.ExtractBinary(archivePath, asset.ArchiveExt, binaryName, workDir)
	if err != nil {
		return nil, stageErr(StageExtract, err)
	}

	destPath := filepath.Join(m.binDir, binaryName)
	if err := m.installer.Install(extractedPath, destPath); err != nil {
		return nil, stageErr(StageInstall, err)
	}
	m.log.Info("installed", "path", destPath, "version", tag)

	return &InstallResult{
		Path:     destPath,
		Tag:      tag,
		Duration: time.Since(start),
	}, nil
}

// BinaryPath returns the install destination for the given platform
// without running the pipeline.
func (m *Manager) BinaryPath(info *platform.Info) string {
	return filepath.Join(m.binDir, info.BinaryName(BaseName))
}
