package recipe

import (
	"path/filepath"
	"testing"

	"github.com/alecthomas/repr"
	"github.com/stretchr/testify/require"

	"github.com/cashapp/bootstrap/build"
	"github.com/cashapp/bootstrap/errors"
	"github.com/cashapp/bootstrap/platform"
	"github.com/cashapp/bootstrap/util"
)

func requireRepr(t *testing.T, expected, actual interface{}) {
	t.Helper()
	require.Equal(t, repr.String(expected, repr.Indent("  ")), repr.String(actual, repr.Indent("  ")))
}

func TestLoad(t *testing.T) {
	recipe, err := Load(filepath.Join("testdata", "zlib.hcl"))
	require.NoError(t, err)
	dir, err := filepath.Abs("testdata")
	require.NoError(t, err)
	require.Equal(t, dir, recipe.Dir)
	require.Equal(t, "/opt/deps", recipe.Prefix)
	require.Equal(t, 2, len(recipe.Builds))

	zlib := recipe.Builds[0]
	require.Equal(t, "zlib", zlib.Name)
	require.Equal(t, "https://zlib.net/zlib-1.2.13.tar.gz", zlib.Source)
	require.Equal(t, []string{"linux", "armv7l"}, zlib.Platform[1].Attrs)

	libpng := recipe.Builds[1]
	require.True(t, libpng.CMake)
	require.Equal(t, "ninja", libpng.BuildSystem)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "missing.hcl"))
	require.True(t, errors.Is(err, util.ErrMissingFile))
}

func TestPackages(t *testing.T) {
	recipe, err := Load(filepath.Join("testdata", "zlib.hcl"))
	require.NoError(t, err)
	require.Equal(t, []string{"git", "cmake", "build-essential"}, recipe.PackagesFor("linux", "x86_64"))
	require.Equal(t, []string{"git", "cmake", "mingw-w64-x86_64-toolchain"}, recipe.PackagesFor("windows", "x86_64"))
	require.Equal(t, []string{"git", "cmake"}, recipe.PackagesFor("windows", "i386"))
	require.Equal(t, []string{"git", "cmake"}, recipe.PackagesFor("macosx", "x86_64"))
}

func TestResolve(t *testing.T) {
	recipe, err := Load(filepath.Join("testdata", "zlib.hcl"))
	require.NoError(t, err)
	zlib := recipe.Builds[0]

	requireRepr(t, &build.CompileInfo{
		Patches: []string{"zlib"},
		Flags:   []string{"--static", "--archs=-arch x86_64"},
	}, zlib.Resolve("macosx", "x86_64"))
	requireRepr(t, &build.CompileInfo{
		Patches: []string{"zlib", "zlib-arm"},
		Flags:   []string{"--static"},
	}, zlib.Resolve("linux", "armv7l"))
	requireRepr(t, &build.CompileInfo{
		Patches: []string{"zlib"},
		Flags:   []string{"--static"},
	}, zlib.Resolve("linux", "x86_64"))
}

func TestResolveReturnsCopy(t *testing.T) {
	recipe, err := Load(filepath.Join("testdata", "zlib.hcl"))
	require.NoError(t, err)
	zlib := recipe.Builds[0]
	info := zlib.Resolve("linux", "x86_64")
	info.ExtendFlags("--shared")
	info.Patches[0] = "changed"
	require.Equal(t, []string{"--static"}, zlib.Flags)
	require.Equal(t, []string{"zlib"}, zlib.Patches)
}

func TestSourceFor(t *testing.T) {
	recipe, err := Load(filepath.Join("testdata", "zlib.hcl"))
	require.NoError(t, err)
	libpng := recipe.Builds[1]
	require.Equal(t, "https://github.com/glennrp/libpng.git#v1.6.40", libpng.SourceFor("linux", "x86_64"))
	require.Equal(t, "https://download.sourceforge.net/libpng/libpng-1.6.40.tar.xz", libpng.SourceFor("windows", "i386"))
}

func TestInstallPrefix(t *testing.T) {
	linux, _ := platform.SupportedPlatformByName("linux")
	recipe := &Recipe{}
	require.Equal(t, "/usr/local", recipe.InstallPrefix(linux.Archs[0]))
	recipe.Prefix = "/opt/deps"
	require.Equal(t, "/opt/deps", recipe.InstallPrefix(linux.Archs[0]))
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		recipe string
		err    string
	}{
		{"MissingSource", `build "zlib" {
  flags = ["--static"]
}`, `source`},
		{"Duplicate", `
build "zlib" {
  source = "a.tar.gz"
}

build "zlib" {
  source = "b.tar.gz"
}
`, `duplicate build "zlib"`},
		{"UnknownBuildSystem", `build "zlib" {
  source = "a.tar.gz"
  build-system = "bazel"
}`, `unknown build system "bazel"`},
		{"InvalidAttr", `build "zlib" {
  source = "a.tar.gz"
  platform "linux(" {
    flags = ["--static"]
  }
}`, `invalid platform attribute "linux("`},
		{"GitInjection", `build "zlib" {
  source = "--upload-pack=x#main"
}`, `invalid git URL`},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Parse([]byte(test.recipe))
			require.Error(t, err)
			require.Contains(t, err.Error(), test.err)
		})
	}
}
