package platform

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestExtensionByPackage(t *testing.T) {
	tests := map[PackageFormat]string{
		DEB:       "deb",
		RPM:       "rpm",
		TGZ:       "tar.gz",
		NSIS:      "exe",
		ZIP:       "zip",
		DragNDrop: "dmg",
		APK:       "apk",
	}
	for format, expected := range tests {
		ext, ok := ExtensionByPackage(format)
		assert.True(t, ok, "%s", format)
		assert.Equal(t, expected, ext)
	}
	_, ok := ExtensionByPackage("MSI")
	assert.False(t, ok)
}

func TestEverySupportedPackageTypeHasAnExtension(t *testing.T) {
	for _, platform := range Supported {
		for _, format := range platform.PackageTypes {
			_, ok := ExtensionByPackage(format)
			assert.True(t, ok, "%s on %s", format, platform.Name)
		}
	}
}

func TestOSFromSystemName(t *testing.T) {
	tests := []struct {
		name     string
		expected OS
	}{
		{"MINGW64_NT-10.0-19045", Windows},
		{"MINGW32_NT-6.1", Windows},
		{"Windows", Windows},
		{"Linux", Linux},
		{"Darwin", MacOSX},
		{"FreeBSD", FreeBSD},
		{"Android", Android},
		{"SunOS", ""},
		{"", ""},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, OSFromSystemName(test.name))
		})
	}
}

func TestNormaliseArch(t *testing.T) {
	assert.Equal(t, "x86_64", NormaliseArch("AMD64"))
	assert.Equal(t, "x86_64", NormaliseArch("x86_64"))
	assert.Equal(t, "armv7l", NormaliseArch("armv7l"))
	assert.Equal(t, "arm64", NormaliseArch("arm64"))
}

func TestRoutingKey(t *testing.T) {
	assert.Equal(t, "linux_x86_64", RoutingKey("linux", "x86_64"))
	assert.Equal(t, "windows_i386", RoutingKey("windows", "i386"))
}

func TestArchitectureByNameRoundTrip(t *testing.T) {
	for _, platform := range Supported {
		seen := map[string]bool{}
		for _, arch := range platform.Archs {
			assert.False(t, seen[arch.Name], "duplicate %s on %s", arch.Name, platform.Name)
			seen[arch.Name] = true
			actual, ok := platform.ArchitectureByName(arch.Name)
			assert.True(t, ok)
			assert.Equal(t, arch, actual)
		}
	}
	linux, ok := SupportedPlatformByName("linux")
	assert.True(t, ok)
	_, ok = linux.ArchitectureByName("sparc")
	assert.False(t, ok)
}

func TestSupportedPlatformByName(t *testing.T) {
	windows, ok := SupportedPlatformByName("windows")
	assert.True(t, ok)
	i386, ok := windows.ArchitectureByName("i386")
	assert.True(t, ok)
	assert.Equal(t, Architecture{Name: "i386", Bit: 32, DefaultInstallPrefix: "/mingw32"}, i386)
	assert.Equal(t, []PackageFormat{NSIS, ZIP}, windows.PackageTypes)

	android, ok := SupportedPlatformByName("android")
	assert.True(t, ok)
	assert.Equal(t, "/opt/android-ndk/platforms/android-9/arch-arm/usr/", android.Archs[0].DefaultInstallPrefix)

	_, ok = SupportedPlatformByName("solaris")
	assert.False(t, ok)
}

func TestMakePlatform(t *testing.T) {
	tests := []struct {
		os       OS
		arch     string
		dist     Family
		expected Family
		err      string
	}{
		{os: Linux, arch: "x86_64", dist: Debian, expected: Debian},
		{os: Linux, arch: "armv7l", dist: RedHat, expected: RedHat},
		{os: Linux, arch: "x86_64", dist: Unsupported, err: "no package manager family for linux distribution family unsupported"},
		{os: Windows, arch: "i386", expected: MinGW},
		{os: MacOSX, arch: "x86_64", expected: MacPorts},
		{os: FreeBSD, arch: "x86_64", expected: Unsupported},
		{os: Android, arch: "arm", expected: Unsupported},
		{os: MacOSX, arch: "arm64", err: `unsupported architecture "arm64" for macosx (supported: x86_64)`},
	}
	for _, test := range tests {
		t.Run(RoutingKey(string(test.os), test.arch), func(t *testing.T) {
			supported, ok := SupportedPlatformByName(string(test.os))
			assert.True(t, ok)
			platform, err := MakePlatform(supported, test.arch, test.dist)
			if test.err != "" {
				assert.EqualError(t, err, test.err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, test.expected, platform.Family)
			assert.Equal(t, test.arch, platform.Arch.Name)
			assert.Equal(t, RoutingKey(string(test.os), test.arch), platform.RoutingKey())
		})
	}
}

func TestHostArchitecture(t *testing.T) {
	arch, err := HostArchitecture()
	supported, ok := SupportedPlatformByName(string(GetOS()))
	if !ok {
		assert.Error(t, err)
		return
	}
	expected, ok := supported.ArchitectureByName(GetArchName())
	if !ok {
		assert.Error(t, err)
		return
	}
	assert.NoError(t, err)
	assert.Equal(t, expected, arch)
}
