// Package recipe loads HCL files describing the prerequisites and source builds a project needs.
package recipe

import (
	"os"
	"path/filepath"
	"regexp"

	"github.com/alecthomas/hcl"
	"github.com/qdm12/reprint"

	"github.com/cashapp/bootstrap/build"
	"github.com/cashapp/bootstrap/buildsys"
	"github.com/cashapp/bootstrap/errors"
	"github.com/cashapp/bootstrap/fetch"
	"github.com/cashapp/bootstrap/platform"
	"github.com/cashapp/bootstrap/util"
)

// Recipe is the root of a recipe file.
type Recipe struct {
	Prefix   string           `hcl:"prefix,optional" help:"Install prefix. Defaults to the default prefix of the host architecture."`
	Packages []string         `hcl:"packages,optional" help:"Packages to install with the native package manager before building."`
	Platform []*PlatformBlock `hcl:"platform,block" help:"Platform-specific prerequisites. <attr> is a set of regexes that must all match against the OS or CPU architecture."`
	Builds   []*Build         `hcl:"build,block" help:"Packages to build from source, in order."`

	// Dir is the directory containing the recipe, where patch sets are looked up.
	Dir string `hcl:"-"`
}

// PlatformBlock adds prerequisites for matching platforms.
type PlatformBlock struct {
	Attrs    []string `hcl:"attr,label" help:"Platform attributes to match."`
	Packages []string `hcl:"packages,optional" help:"Additional packages to install."`
}

// Build is a package built from source.
type Build struct {
	Name        string                `hcl:"name,label" help:"Name of the package."`
	Source      string                `hcl:"source" help:"Source of the package. Valid sources are Git repositories (using .git[#<ref>] suffix), local archives or directories, and remote archives (using http:// or https:// prefix)."`
	Patches     []string              `hcl:"patches,optional" help:"Patch-set directories, relative to the recipe, whose *.patch files are applied in lexicographic order."`
	Flags       []string              `hcl:"flags,optional" help:"Flags passed to configure (or cmake)."`
	BuildSystem string                `hcl:"build-system,optional" help:"Build system to compile with (make, gmake or ninja)."`
	CMake       bool                  `hcl:"cmake,optional" help:"Configure with CMake instead of ./configure."`
	Platform    []*BuildPlatformBlock `hcl:"platform,block" help:"Platform-specific build configuration. <attr> is a set of regexes that must all match against the OS or CPU architecture."`
}

// BuildPlatformBlock extends a Build for matching platforms.
type BuildPlatformBlock struct {
	Attrs   []string `hcl:"attr,label" help:"Platform attributes to match."`
	Source  string   `hcl:"source,optional" help:"Override the source of the package."`
	Patches []string `hcl:"patches,optional" help:"Additional patch sets."`
	Flags   []string `hcl:"flags,optional" help:"Additional configure flags."`
}

// Load a recipe from a file.
func Load(path string) (*Recipe, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrapf(util.ErrMissingFile, "%s", path)
	} else if err != nil {
		return nil, errors.WithStack(err)
	}
	recipe, err := Parse(data)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	recipe.Dir = dir
	return recipe, nil
}

// Parse and validate a recipe.
func Parse(data []byte) (*Recipe, error) {
	recipe := &Recipe{}
	if err := hcl.Unmarshal(data, recipe); err != nil {
		return nil, errors.WithStack(err)
	}
	if err := recipe.validate(); err != nil {
		return nil, err
	}
	return recipe, nil
}

func (r *Recipe) validate() error {
	seen := map[string]bool{}
	for _, build := range r.Builds {
		if seen[build.Name] {
			return errors.Errorf("duplicate build %q", build.Name)
		}
		seen[build.Name] = true
		if build.BuildSystem != "" {
			if _, err := buildsys.ByName(build.BuildSystem); err != nil {
				return errors.Wrapf(err, "build %q", build.Name)
			}
		}
		if err := validateAttrs(build.Name, build.Platform); err != nil {
			return err
		}
		if build.Source == "" {
			return errors.Errorf("build %q: source is required", build.Name)
		}
		if fetch.IsGitURL(build.Source) {
			if _, _, err := fetch.ParseGitURL(build.Source); err != nil {
				return errors.Wrapf(err, "build %q", build.Name)
			}
		}
	}
	for _, block := range r.Platform {
		if err := compileAttrs(block.Attrs); err != nil {
			return err
		}
	}
	return nil
}

func validateAttrs(name string, blocks []*BuildPlatformBlock) error {
	for _, block := range blocks {
		if err := compileAttrs(block.Attrs); err != nil {
			return errors.Wrapf(err, "build %q", name)
		}
	}
	return nil
}

func compileAttrs(attrs []string) error {
	for _, attr := range attrs {
		if _, err := regexp.Compile(attr); err != nil {
			return errors.Wrapf(err, "invalid platform attribute %q", attr)
		}
	}
	return nil
}

// Every attribute must match either the OS or the architecture.
func matches(attrs []string, os, arch string) bool {
	for _, attr := range attrs {
		re, err := regexp.Compile(attr)
		if err != nil {
			return false
		}
		if !re.MatchString(os) && !re.MatchString(arch) {
			return false
		}
	}
	return true
}

// PackagesFor returns the native packages required on a platform.
func (r *Recipe) PackagesFor(os, arch string) []string {
	out := append([]string{}, r.Packages...)
	for _, block := range r.Platform {
		if matches(block.Attrs, os, arch) {
			out = append(out, block.Packages...)
		}
	}
	return out
}

// InstallPrefix returns the configured prefix, or the default prefix of "arch".
func (r *Recipe) InstallPrefix(arch platform.Architecture) string {
	if r.Prefix != "" {
		return r.Prefix
	}
	return arch.DefaultInstallPrefix
}

// Resolve the CompileInfo of a build for a platform.
//
// The result is a copy that may be freely modified.
func (b *Build) Resolve(os, arch string) *build.CompileInfo {
	info := reprint.This(&build.CompileInfo{Patches: b.Patches, Flags: b.Flags}).(*build.CompileInfo)
	for _, block := range b.Platform {
		if matches(block.Attrs, os, arch) {
			info.Patches = append(info.Patches, block.Patches...)
			info.ExtendFlags(block.Flags...)
		}
	}
	return info
}

// SourceFor returns the source of the build for a platform.
func (b *Build) SourceFor(os, arch string) string {
	source := b.Source
	for _, block := range b.Platform {
		if block.Source != "" && matches(block.Attrs, os, arch) {
			source = block.Source
		}
	}
	return source
}
