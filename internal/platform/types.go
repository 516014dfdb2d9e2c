// Package platform detects the host OS and CPU architecture and maps
// them to the canonical target triple used to name release archives.
//
// Detection uses runtime.GOOS and runtime.GOARCH for the supported-pair
// check, and gopsutil for Linux distribution details. Distro detection
// is best-effort: failures fall back to OS/arch only, since the install
// pipeline needs nothing beyond the target triple.
package platform

import "context"

// Supported operating system identifiers (runtime.GOOS values).
const (
	OSDarwin  = "darwin"
	OSLinux   = "linux"
	OSWindows = "windows"
)

// Archive extensions by OS. Windows releases ship as zip, everything
// else as gzip-compressed tar.
const (
	ExtTarGz = ".tar.gz"
	ExtZip   = ".zip"
)

// Info contains platform detection results.
type Info struct {
	OS         string // "linux", "darwin", "windows"
	Arch       string // "amd64", "arm64" (normalized)
	ArchRaw    string // original value before normalization
	Triple     string // canonical target triple, e.g. "aarch64-apple-darwin"
	ArchiveExt string // ".tar.gz" or ".zip", determined by OS
	Distro     string // distro ID (Linux only, e.g. "ubuntu")
	DistroVer  string // distro version (Linux only, e.g. "22.04")
}

// IsWindows returns true if the detected OS is Windows.
func (i *Info) IsWindows() bool {
	return i.OS == OSWindows
}

// BinaryName returns name with the platform-appropriate executable
// suffix appended.
func (i *Info) BinaryName(name string) string {
	if i.IsWindows() {
		return name + ".exe"
	}
	return name
}

// Detector is the interface for platform detection.
type Detector interface {
	Detect(ctx context.Context) (*Info, error)
}
