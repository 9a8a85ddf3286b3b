package platform

import (
	"context"
	"strings"

	"github.com/cashapp/bootstrap/errors"
)

// OSFromSystemName maps a system name as reported by uname(1) to an OS.
//
// MinGW/MSYS system names (eg. MINGW64_NT-10.0) map to Windows. Unknown names return "".
func OSFromSystemName(name string) OS {
	switch {
	case strings.Contains(name, "MINGW"):
		return Windows
	case name == "Windows":
		return Windows
	case name == "Linux":
		return Linux
	case name == "Darwin":
		return MacOSX
	case name == "FreeBSD":
		return FreeBSD
	case name == "Android":
		return Android
	default:
		return ""
	}
}

// NormaliseArch maps a machine name to the architecture name used by Supported.
//
// Only the Windows AMD64 name is rewritten, to x86_64.
func NormaliseArch(machine string) string {
	if machine == "AMD64" {
		return "x86_64"
	}
	return machine
}

// GetOS returns the OS of the host, or "" if it is not recognised.
func GetOS() OS {
	return OSFromSystemName(systemName())
}

// GetArchName returns the CPU architecture name of the host.
func GetArchName() string {
	return NormaliseArch(machineName())
}

// Host resolves the running host to a Platform.
//
// On Linux this detects the distribution, which fails for distributions
// without a known package manager family.
func Host(ctx context.Context) (Platform, error) {
	os := GetOS()
	if os == "" {
		return Platform{}, errors.Errorf("unsupported operating system %q", systemName())
	}
	supported, ok := SupportedPlatformByName(string(os))
	if !ok {
		return Platform{}, errors.Errorf("unsupported operating system %q", os)
	}
	dist := Unsupported
	if os == Linux {
		_, family, err := DetectDistribution(ctx)
		if err != nil {
			return Platform{}, err
		}
		dist = family
	}
	return MakePlatform(supported, GetArchName(), dist)
}

// HostArchitecture returns the architecture of the running host.
//
// Unlike Host this does not need to classify the Linux distribution.
func HostArchitecture() (Architecture, error) {
	os := GetOS()
	supported, ok := SupportedPlatformByName(string(os))
	if !ok {
		return Architecture{}, errors.Errorf("unsupported operating system %q", systemName())
	}
	archName := GetArchName()
	arch, ok := supported.ArchitectureByName(archName)
	if !ok {
		return Architecture{}, errors.Errorf("unsupported architecture %q for %s (supported: %s)",
			archName, os, strings.Join(supported.ArchNames(), ", "))
	}
	return arch, nil
}
