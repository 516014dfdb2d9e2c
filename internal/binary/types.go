package binary

import (
	"fmt"
	"time"

	"github.com/centy-io/centy-installer/internal/platform"
)

const (
	// BaseName is the name of the daemon binary inside release archives
	// (without the Windows .exe suffix).
	BaseName = "centy-daemon"

	// ChecksumsName is the checksum manifest asset published with every
	// release.
	ChecksumsName = "checksums-sha256.txt"
)

// ReleaseAsset describes the downloadable artifacts for one resolved
// (version, platform) pair. URLs are a pure function of tag and triple.
type ReleaseAsset struct {
	Tag          string // normalized version tag, e.g. "v0.1.6"
	Triple       string // target triple the archive was built for
	ArchiveExt   string // ".tar.gz" or ".zip"
	AssetName    string // archive filename, keys the checksum manifest
	AssetURL     string
	ChecksumsURL string
}

// NewReleaseAsset builds the release asset description for a tag and
// platform. downloadBase is the release download endpoint without a
// trailing slash.
func NewReleaseAsset(tag string, info *platform.Info, downloadBase string) *ReleaseAsset {
	assetName := fmt.Sprintf("%s-%s-%s%s", BaseName, tag, info.Triple, info.ArchiveExt)
	base := fmt.Sprintf("%s/%s", downloadBase, tag)

	return &ReleaseAsset{
		Tag:          tag,
		Triple:       info.Triple,
		ArchiveExt:   info.ArchiveExt,
		AssetName:    assetName,
		AssetURL:     fmt.Sprintf("%s/%s", base, assetName),
		ChecksumsURL: fmt.Sprintf("%s/%s", base, ChecksumsName),
	}
}

// InstallResult describes a completed installation.
type InstallResult struct {
	Path     string        // absolute path of the installed binary
	Tag      string        // release tag that was installed
	Duration time.Duration // wall time for the whole pipeline
}
