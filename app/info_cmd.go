package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/colour"
	"gopkg.in/yaml.v3"

	"github.com/cashapp/bootstrap/buildsys"
	"github.com/cashapp/bootstrap/errors"
	"github.com/cashapp/bootstrap/platform"
	"github.com/cashapp/bootstrap/ui"
)

type infoCmd struct {
	Format string `help:"Output format (${enum})." default:"text" enum:"text,json,yaml" predictor:"format"`
}

type packageFormatInfo struct {
	Format    platform.PackageFormat `json:"format" yaml:"format"`
	Extension string                 `json:"extension" yaml:"extension"`
}

type hostInfo struct {
	OS             platform.OS         `json:"os" yaml:"os"`
	Arch           string              `json:"arch" yaml:"arch"`
	Bit            int                 `json:"bit,omitempty" yaml:"bit,omitempty"`
	RoutingKey     string              `json:"routing_key" yaml:"routing_key"`
	Prefix         string              `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Release        *platform.Release   `json:"release,omitempty" yaml:"release,omitempty"`
	Family         string              `json:"family" yaml:"family"`
	PackageFormats []packageFormatInfo `json:"package_formats,omitempty" yaml:"package_formats,omitempty"`
	BuildSystems   []string            `json:"build_systems" yaml:"build_systems"`
	Problems       []string            `json:"problems,omitempty" yaml:"problems,omitempty"`
}

func (i *infoCmd) Run(ctx context.Context, l *ui.UI) error {
	release, err := platform.ReleaseInfo(ctx)
	if err != nil {
		l.Debugf("Could not read release information: %s", err)
	}
	info := describeHost(platform.GetOS(), platform.GetArchName(), release, err)
	for _, bs := range buildsys.Available() {
		info.BuildSystems = append(info.BuildSystems, bs.Name)
	}
	return writeInfo(os.Stdout, i.Format, info)
}

// describeHost gathers what bootstrap knows about a host.
//
// Problems resolving the platform are reported in the result rather than
// returned, so that partially supported hosts can still be inspected.
func describeHost(osName platform.OS, archName string, release platform.Release, releaseErr error) *hostInfo {
	info := &hostInfo{
		OS:           osName,
		Arch:         archName,
		RoutingKey:   platform.RoutingKey(string(osName), archName),
		Family:       platform.Unsupported.String(),
		BuildSystems: []string{},
	}
	if releaseErr != nil {
		info.Problems = append(info.Problems, releaseErr.Error())
	} else {
		info.Release = &release
	}
	supported, ok := platform.SupportedPlatformByName(string(osName))
	if !ok {
		info.Problems = append(info.Problems, fmt.Sprintf("unsupported operating system %q", osName))
		return info
	}
	for _, format := range supported.PackageTypes {
		ext, _ := platform.ExtensionByPackage(format)
		info.PackageFormats = append(info.PackageFormats, packageFormatInfo{Format: format, Extension: ext})
	}
	if arch, ok := supported.ArchitectureByName(archName); ok {
		info.Bit = arch.Bit
		info.Prefix = arch.DefaultInstallPrefix
	}
	dist := platform.Unsupported
	if osName == platform.Linux && releaseErr == nil {
		family, err := release.Family()
		if err != nil {
			info.Problems = append(info.Problems, err.Error())
		}
		dist = family
	}
	host, err := platform.MakePlatform(supported, archName, dist)
	if err != nil {
		info.Problems = append(info.Problems, err.Error())
		return info
	}
	info.Family = host.Family.String()
	return info
}

func writeInfo(w io.Writer, format string, info *hostInfo) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.WithStack(enc.Encode(info))

	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(info); err != nil {
			return errors.WithStack(err)
		}
		return errors.WithStack(enc.Close())

	default:
		p := func(key, format string, args ...interface{}) {
			colour.Fprintf(w, "^B%-16s^R "+format+"\n", append([]interface{}{key + ":"}, args...)...)
		}
		p("OS", "%s", info.OS)
		p("Arch", "%s", info.Arch)
		if info.Bit != 0 {
			p("Bits", "%d", info.Bit)
		}
		p("Routing key", "%s", info.RoutingKey)
		if info.Prefix != "" {
			p("Default prefix", "%s", info.Prefix)
		}
		if info.Release != nil {
			p("Distribution", "%s %s", info.Release.Name, info.Release.Version)
		}
		p("Family", "%s", info.Family)
		formats := make([]string, 0, len(info.PackageFormats))
		for _, format := range info.PackageFormats {
			formats = append(formats, fmt.Sprintf("%s (.%s)", format.Format, format.Extension))
		}
		p("Package formats", "%s", strings.Join(formats, ", "))
		p("Build systems", "%s", strings.Join(info.BuildSystems, ", "))
		for _, problem := range info.Problems {
			colour.Fprintf(w, "^3warning:^R %s\n", problem)
		}
		return nil
	}
}
