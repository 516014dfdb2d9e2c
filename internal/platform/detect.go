package platform

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v4/host"
)

// RealDetector implements Detector using the actual host.
type RealDetector struct{}

// NewDetector creates a new platform detector.
func NewDetector() Detector {
	return &RealDetector{}
}

// Detect inspects the running host and returns platform information,
// including the canonical target triple and archive extension.
//
// It fails when the (OS, arch) pair is not one of the supported release
// targets. This is terminal: there is no fallback archive to try.
//
// On Linux, gopsutil supplies distribution details for diagnostics. If
// distro detection fails the OS/arch result is still returned.
func (d *RealDetector) Detect(ctx context.Context) (*Info, error) {
	return detectFrom(ctx, runtime.GOOS, runtime.GOARCH)
}

// detectFrom is the testable core of Detect, taking OS and arch
// explicitly instead of reading them from the runtime.
func detectFrom(ctx context.Context, goos, goarch string) (*Info, error) {
	info := &Info{
		OS:      goos,
		ArchRaw: goarch,
	}

	arch, err := normalizeArch(goarch)
	if err != nil {
		return nil, fmt.Errorf("platform detection failed: %w", err)
	}
	info.Arch = arch

	t, err := triple(goos, arch)
	if err != nil {
		return nil, fmt.Errorf("platform detection failed: %w", err)
	}
	info.Triple = t
	info.ArchiveExt = archiveExt(goos)

	if goos == OSLinux {
		distro, _, version, err := host.PlatformInformationWithContext(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("platform detection cancelled: %w", ctx.Err())
			}
			// Distro details are informational only; continue with
			// OS/arch, the triple is already resolved.
			return info, nil
		}
		info.Distro = strings.ToLower(strings.TrimSpace(distro))
		info.DistroVer = strings.TrimSpace(version)
	}

	return info, nil
}
