package platform

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"howett.net/plist"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/cashapp/bootstrap/errors"
)

// OSReleasePaths are the locations of os-release(5), in order of preference.
var OSReleasePaths = []string{"/etc/os-release", "/usr/lib/os-release"}

const systemVersionPlist = "/System/Library/CoreServices/SystemVersion.plist"

// UnsupportedDistributionError is returned when a Linux distribution has no known package manager family.
type UnsupportedDistributionError struct {
	Name string
}

func (u *UnsupportedDistributionError) Error() string {
	return fmt.Sprintf("unsupported linux distribution %q", u.Name)
}

var (
	redHatDistributions = []string{"RHEL", "CENTOS LINUX", "FEDORA"}
	debianDistributions = []string{"DEBIAN", "UBUNTU"}
)

// ClassifyDistribution maps a distribution name to its package manager family.
//
// Matching is case-insensitive. Names that are not known return an *UnsupportedDistributionError.
func ClassifyDistribution(name string) (Family, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for _, dist := range redHatDistributions {
		if upper == dist {
			return RedHat, nil
		}
	}
	for _, dist := range debianDistributions {
		if upper == dist {
			return Debian, nil
		}
	}
	return Unsupported, errors.WithStack(&UnsupportedDistributionError{Name: name})
}

// Release describes the release of the host operating system.
type Release struct {
	Name    string `json:"name" yaml:"name"`
	ID      string `json:"id,omitempty" yaml:"id,omitempty"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
}

// Family classifies the release, trying NAME first then ID.
func (r Release) Family() (Family, error) {
	for _, name := range []string{r.Name, r.ID} {
		if name == "" {
			continue
		}
		if family, err := ClassifyDistribution(name); err == nil {
			return family, nil
		}
	}
	return Unsupported, errors.WithStack(&UnsupportedDistributionError{Name: r.Name})
}

// DetectDistribution reads os-release(5) and classifies the Linux distribution of the host.
func DetectDistribution(ctx context.Context) (Release, Family, error) {
	release, err := ReadOSRelease(ctx, OSReleasePaths...)
	if err != nil {
		return Release{}, Unsupported, err
	}
	family, err := release.Family()
	return release, family, err
}

// ReadOSRelease parses the first os-release file in "paths" that exists.
func ReadOSRelease(ctx context.Context, paths ...string) (Release, error) {
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		} else if err != nil {
			return Release{}, errors.WithStack(err)
		}
		release, err := ParseOSRelease(ctx, bytes.NewReader(data))
		if err != nil {
			return Release{}, errors.Wrap(err, path)
		}
		return release, nil
	}
	return Release{}, errors.Errorf("no os-release file found in %s", strings.Join(paths, ", "))
}

// ParseOSRelease evaluates an os-release(5) document.
//
// The format is a subset of POSIX shell, so the document is evaluated by an
// in-process shell interpreter that refuses to run commands or open files.
func ParseOSRelease(ctx context.Context, r io.Reader) (Release, error) {
	file, err := syntax.NewParser().Parse(r, "os-release")
	if err != nil {
		return Release{}, errors.WithStack(err)
	}
	runner, err := interp.New(
		interp.Env(expand.ListEnviron()),
		interp.StdIO(nil, io.Discard, io.Discard),
		interp.ExecHandler(func(ctx context.Context, args []string) error {
			return errors.Errorf("%s: commands are not permitted in os-release", args[0])
		}),
		interp.OpenHandler(func(ctx context.Context, path string, flag int, perm os.FileMode) (io.ReadWriteCloser, error) {
			return nil, errors.Errorf("%s: redirections are not permitted in os-release", path)
		}),
	)
	if err != nil {
		return Release{}, errors.WithStack(err)
	}
	if err := runner.Run(ctx, file); err != nil {
		return Release{}, errors.WithStack(err)
	}
	return Release{
		Name:    runner.Vars["NAME"].String(),
		ID:      runner.Vars["ID"].String(),
		Version: runner.Vars["VERSION_ID"].String(),
	}, nil
}

type systemVersion struct {
	ProductName    string `plist:"ProductName"`
	ProductVersion string `plist:"ProductVersion"`
}

// ParseSystemVersion decodes a macOS SystemVersion.plist.
func ParseSystemVersion(data []byte) (Release, error) {
	version := systemVersion{}
	if _, err := plist.Unmarshal(data, &version); err != nil {
		return Release{}, errors.Wrap(err, "invalid SystemVersion.plist")
	}
	return Release{Name: version.ProductName, ID: "macos", Version: version.ProductVersion}, nil
}

// ReleaseInfo describes the release of the host operating system.
//
// Linux reads os-release(5), macOS reads SystemVersion.plist and other systems
// only report their system name.
func ReleaseInfo(ctx context.Context) (Release, error) {
	switch runtime.GOOS {
	case "linux":
		return ReadOSRelease(ctx, OSReleasePaths...)
	case "darwin":
		data, err := os.ReadFile(systemVersionPlist)
		if err != nil {
			return Release{}, errors.WithStack(err)
		}
		return ParseSystemVersion(data)
	default:
		return Release{Name: systemName()}, nil
	}
}
