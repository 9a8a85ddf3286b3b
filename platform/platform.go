// Package platform describes the operating systems and CPU architectures bootstrap can build for,
// and resolves the running host to one of them.
package platform

import (
	"strings"

	"github.com/cashapp/bootstrap/errors"
)

// OS is the name of an operating system family as recognised by bootstrap.
type OS string

// Supported operating systems.
const (
	Linux   OS = "linux"
	Windows OS = "windows"
	MacOSX  OS = "macosx"
	FreeBSD OS = "freebsd"
	Android OS = "android"
)

// Architecture is a CPU architecture paired with the default install location on a platform.
type Architecture struct {
	// Name of the architecture as reported by the host, eg. x86_64.
	Name string
	// Bit width of the architecture, 32 or 64.
	Bit int
	// DefaultInstallPrefix is where packages are installed when no prefix is given.
	DefaultInstallPrefix string
}

// SupportedPlatform is an operating system along with the architectures and package formats supported on it.
type SupportedPlatform struct {
	Name         OS
	Archs        []Architecture
	PackageTypes []PackageFormat
}

// ArchitectureByName returns the architecture named "name".
func (s SupportedPlatform) ArchitectureByName(name string) (Architecture, bool) {
	for _, arch := range s.Archs {
		if arch.Name == name {
			return arch, true
		}
	}
	return Architecture{}, false
}

// ArchNames returns the names of all architectures of the platform.
func (s SupportedPlatform) ArchNames() []string {
	out := make([]string, 0, len(s.Archs))
	for _, arch := range s.Archs {
		out = append(out, arch.Name)
	}
	return out
}

// Supported platforms.
//
// Architecture names are unique within each platform.
var Supported = []SupportedPlatform{
	{Linux, []Architecture{
		{"x86_64", 64, "/usr/local"},
		{"i386", 32, "/usr/local"},
		{"armv7l", 32, "/usr/local"},
	}, []PackageFormat{DEB, RPM, TGZ}},
	{Windows, []Architecture{
		{"x86_64", 64, "/mingw64"},
		{"i386", 32, "/mingw32"},
	}, []PackageFormat{NSIS, ZIP}},
	{MacOSX, []Architecture{
		{"x86_64", 64, "/usr/local"},
	}, []PackageFormat{DragNDrop, ZIP}},
	{FreeBSD, []Architecture{
		{"x86_64", 64, "/usr/local"},
	}, []PackageFormat{TGZ}},
	{Android, []Architecture{
		{"arm", 32, "/opt/android-ndk/platforms/android-9/arch-arm/usr/"},
	}, []PackageFormat{APK}},
}

// SupportedPlatformByName returns the first supported platform named "name".
func SupportedPlatformByName(name string) (SupportedPlatform, bool) {
	for _, platform := range Supported {
		if string(platform.Name) == name {
			return platform, true
		}
	}
	return SupportedPlatform{}, false
}

// RoutingKey is a stable identifier for a platform and architecture pair, eg. linux_x86_64.
func RoutingKey(platform, arch string) string {
	return platform + "_" + arch
}

// Platform is a SupportedPlatform resolved to a single architecture and package manager family.
type Platform struct {
	Name         OS
	Arch         Architecture
	PackageTypes []PackageFormat
	Family       Family
}

func (p Platform) String() string {
	return p.RoutingKey()
}

// RoutingKey for the platform, see RoutingKey().
func (p Platform) RoutingKey() string {
	return RoutingKey(string(p.Name), p.Arch.Name)
}

// MakePlatform resolves a supported platform, architecture name and Linux distribution family into a Platform.
//
// "dist" is only consulted for Linux, where it must be Debian or RedHat.
func MakePlatform(supported SupportedPlatform, archName string, dist Family) (Platform, error) {
	arch, ok := supported.ArchitectureByName(archName)
	if !ok {
		return Platform{}, errors.Errorf("unsupported architecture %q for %s (supported: %s)",
			archName, supported.Name, strings.Join(supported.ArchNames(), ", "))
	}
	var family Family
	switch supported.Name {
	case Linux:
		if dist != Debian && dist != RedHat {
			return Platform{}, errors.Errorf("no package manager family for linux distribution family %s", dist)
		}
		family = dist
	case Windows:
		family = MinGW
	case MacOSX:
		family = MacPorts
	default:
		family = Unsupported
	}
	return Platform{
		Name:         supported.Name,
		Arch:         arch,
		PackageTypes: supported.PackageTypes,
		Family:       family,
	}, nil
}
