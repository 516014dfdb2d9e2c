package platform

import "fmt"

// triples maps each supported (os, arch) pair to its canonical target
// triple. Pairs absent from this table are unsupported; there is no
// fallback binary for them.
var triples = map[[2]string]string{
	{OSDarwin, "arm64"}:  "aarch64-apple-darwin",
	{OSDarwin, "amd64"}:  "x86_64-apple-darwin",
	{OSLinux, "arm64"}:   "aarch64-unknown-linux-gnu",
	{OSLinux, "amd64"}:   "x86_64-unknown-linux-gnu",
	{OSWindows, "amd64"}: "x86_64-pc-windows-msvc",
}

// normalizeArch converts architecture aliases to normalized GOARCH names.
func normalizeArch(arch string) (string, error) {
	switch arch {
	case "amd64", "x86_64":
		return "amd64", nil
	case "arm64", "aarch64":
		return "arm64", nil
	default:
		return "", fmt.Errorf("unsupported architecture: %s", arch)
	}
}

// triple returns the canonical target triple for a supported (os, arch)
// pair. arch must already be normalized.
func triple(os, arch string) (string, error) {
	t, ok := triples[[2]string{os, arch}]
	if !ok {
		return "", fmt.Errorf("unsupported platform: %s-%s", os, arch)
	}
	return t, nil
}

// archiveExt returns the release archive extension for an OS.
func archiveExt(os string) string {
	if os == OSWindows {
		return ExtZip
	}
	return ExtTarGz
}
