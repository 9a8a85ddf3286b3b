// Package buildsys is the registry of native build tools bootstrap can drive.
package buildsys

import (
	"os/exec"
	"sort"
	"strconv"
	"strings"

	"github.com/cashapp/bootstrap/errors"
)

// BuildSystem is a native build tool and the CMake generator that targets it.
type BuildSystem struct {
	Name string
	// CmdLine runs a build in the current directory, eg. ["make", "-j2"].
	CmdLine []string
	// GeneratorArg selects this build system when configuring with CMake.
	GeneratorArg string
}

// Command returns the build command line with the job count replaced by "jobs".
//
// A jobs value below 1 returns CmdLine unchanged.
func (b BuildSystem) Command(jobs int) []string {
	out := append([]string{}, b.CmdLine...)
	if jobs < 1 {
		return out
	}
	for i, arg := range out {
		if strings.HasPrefix(arg, "-j") {
			out[i] = "-j" + strconv.Itoa(jobs)
		}
	}
	return out
}

// Tool is the executable name of the build system.
func (b BuildSystem) Tool() string {
	return b.CmdLine[0]
}

// Registry of build systems, keyed by name.
var Registry = map[string]BuildSystem{
	"ninja": {Name: "ninja", CmdLine: []string{"ninja"}, GeneratorArg: "-GNinja"},
	"make":  {Name: "make", CmdLine: []string{"make", "-j2"}, GeneratorArg: "-GUnix Makefiles"},
	"gmake": {Name: "gmake", CmdLine: []string{"gmake", "-j2"}, GeneratorArg: "-GUnix Makefiles"},
}

// Names of all registered build systems, sorted.
func Names() []string {
	out := make([]string, 0, len(Registry))
	for name := range Registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ByName returns the build system called "name".
func ByName(name string) (BuildSystem, error) {
	bs, ok := Registry[name]
	if !ok {
		return BuildSystem{}, errors.Errorf("unknown build system %q (expected one of %s)", name, strings.Join(Names(), ", "))
	}
	return bs, nil
}

// Default returns the build system used for a platform when none is configured.
//
// FreeBSD's make is not GNU make, so gmake is used there.
func Default(os string) BuildSystem {
	if os == "freebsd" {
		return Registry["gmake"]
	}
	return Registry["make"]
}

// Available returns the registered build systems whose tool is on the PATH, sorted by name.
func Available() []BuildSystem {
	out := []BuildSystem{}
	for _, name := range Names() {
		bs := Registry[name]
		if _, err := exec.LookPath(bs.Tool()); err == nil {
			out = append(out, bs)
		}
	}
	return out
}

