package platform

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/cashapp/bootstrap/errors"
)

func TestClassifyDistribution(t *testing.T) {
	tests := []struct {
		name     string
		expected Family
	}{
		{"RHEL", RedHat},
		{"CentOS Linux", RedHat},
		{"fedora", RedHat},
		{"Debian", Debian},
		{"Ubuntu", Debian},
		{"ubuntu", Debian},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			family, err := ClassifyDistribution(test.name)
			assert.NoError(t, err)
			assert.Equal(t, test.expected, family)
		})
	}
}

func TestClassifyDistributionUnsupported(t *testing.T) {
	family, err := ClassifyDistribution("Arch Linux")
	assert.Equal(t, Unsupported, family)
	var unsupported *UnsupportedDistributionError
	assert.True(t, errors.As(err, &unsupported))
	assert.Equal(t, "Arch Linux", unsupported.Name)
}

func TestReadOSRelease(t *testing.T) {
	tests := []struct {
		file     string
		release  Release
		expected Family
	}{
		{"ubuntu-os-release", Release{Name: "Ubuntu", ID: "ubuntu", Version: "22.04"}, Debian},
		// NAME does not classify, but ID does.
		{"rhel-os-release", Release{Name: "Red Hat Enterprise Linux", ID: "rhel", Version: "9.2"}, RedHat},
	}
	for _, test := range tests {
		t.Run(test.file, func(t *testing.T) {
			release, err := ReadOSRelease(context.Background(), filepath.Join("testdata", test.file))
			assert.NoError(t, err)
			assert.Equal(t, test.release, release)
			family, err := release.Family()
			assert.NoError(t, err)
			assert.Equal(t, test.expected, family)
		})
	}
}

func TestReleaseFamilyUnsupportedNamesName(t *testing.T) {
	release, err := ReadOSRelease(context.Background(), filepath.Join("testdata", "arch-os-release"))
	assert.NoError(t, err)
	_, err = release.Family()
	var unsupported *UnsupportedDistributionError
	assert.True(t, errors.As(err, &unsupported))
	assert.Equal(t, "Arch Linux", unsupported.Name)
}

func TestReadOSReleaseFallback(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "os-release")
	release, err := ReadOSRelease(context.Background(), missing, filepath.Join("testdata", "ubuntu-os-release"))
	assert.NoError(t, err)
	assert.Equal(t, "Ubuntu", release.Name)

	_, err = ReadOSRelease(context.Background(), missing)
	assert.Error(t, err)
}

func TestParseOSReleaseDeniesCommands(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "marker")
	_, err := ParseOSRelease(context.Background(), strings.NewReader("NAME=Ubuntu\ntouch "+marker+"\n"))
	assert.Error(t, err)
	_, err = os.Stat(marker)
	assert.True(t, os.IsNotExist(err))

	_, err = ParseOSRelease(context.Background(), strings.NewReader("NAME=Ubuntu\necho hi > "+marker+"\n"))
	assert.Error(t, err)
	_, err = os.Stat(marker)
	assert.True(t, os.IsNotExist(err))
}

func TestParseSystemVersion(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "SystemVersion.plist"))
	assert.NoError(t, err)
	release, err := ParseSystemVersion(data)
	assert.NoError(t, err)
	assert.Equal(t, Release{Name: "macOS", ID: "macos", Version: "14.0"}, release)
}
