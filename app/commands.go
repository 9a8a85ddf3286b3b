package app

import (
	"net/http"
	"time"

	"github.com/alecthomas/kong"

	"github.com/cashapp/bootstrap/build"
	"github.com/cashapp/bootstrap/buildsys"
	"github.com/cashapp/bootstrap/errors"
	"github.com/cashapp/bootstrap/fetch"
	"github.com/cashapp/bootstrap/platform"
	"github.com/cashapp/bootstrap/ui"
	"github.com/cashapp/bootstrap/util"
)

// CLI structure.
type CLI struct {
	VersionFlag kong.VersionFlag `help:"Show version." name:"version"`
	Debug       bool             `help:"Enable debug logging." short:"d"`
	Trace       bool             `help:"Enable trace logging." short:"t"`
	Quiet       bool             `help:"Disable logging and progress UI, except fatal errors." env:"BOOTSTRAP_QUIET" short:"q"`
	Level       ui.Level         `help:"Set minimum log level (${enum})." env:"BOOTSTRAP_LOG" default:"auto" enum:"auto,trace,debug,info,warn,error,fatal"`
	Timeout     time.Duration    `help:"Abort the command after this long (0 disables)." default:"0"`
	WorkDir     string           `help:"Directory that source trees are fetched and built in." placeholder:"DIR" type:"path" predictor:"dir"`

	Info    infoCmd    `cmd:"" help:"Show information about the host platform." group:"host"`
	Install installCmd `cmd:"" help:"Install packages with the native package manager." group:"host"`
	Fetch   fetchCmd   `cmd:"" help:"Download an archive or clone a repository." group:"build"`
	Extract extractCmd `cmd:"" help:"Extract an archive." group:"build"`
	Build   buildCmd   `cmd:"" help:"Build and install a package from source." group:"build"`
	Run     runCmd     `cmd:"" help:"Install prerequisites and build everything in a recipe." group:"build"`
	List    listCmd    `cmd:"" help:"List packages built by bootstrap." group:"build"`
	Forget  forgetCmd  `cmd:"" help:"Forget build receipts." group:"build"`
	Version versionCmd `cmd:"" help:"Show version."`

	DumpDB               dumpDBCmd            `cmd:"" help:"Dump build receipt database." hidden:""`
	DumpUserConfigSchema dumpUserConfigSchema `cmd:"" help:"Dump user configuration schema." hidden:""`

	kong.Plugins
}

// BuildOptions are flags shared by commands that run builds.
type BuildOptions struct {
	Jobs        int    `help:"Number of parallel compile jobs." short:"j" default:"${default_jobs}"`
	BuildSystem string `help:"Build system to compile with (${build_systems})." placeholder:"NAME" predictor:"build-system"`
	NoLdconfig  bool   `help:"Don't refresh the shared library cache after installing."`
	KeepGit     bool   `help:"Keep .git metadata in cloned repositories."`
	KeepWork    bool   `help:"Keep the fetched source tree after building."`
	SkipChecks  bool   `help:"Don't check that required build tools are on the PATH before building."`
}

func (o *BuildOptions) builder(cli *CLI, client *http.Client, runner util.CommandRunner, cmake bool) (*build.Builder, error) {
	builder := &build.Builder{
		Runner:     runner,
		Client:     client,
		WorkDir:    cli.WorkDir,
		Jobs:       o.Jobs,
		Ldconfig:   !o.NoLdconfig,
		KeepWork:   o.KeepWork,
		CheckTools: !o.SkipChecks,
		Git:        fetch.GitOptions{KeepMetadata: o.KeepGit},
	}
	bs := buildsys.Default(string(platform.GetOS()))
	if o.BuildSystem != "" {
		var err error
		bs, err = buildsys.ByName(o.BuildSystem)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		builder.BuildSystem = &bs
	}
	if cmake {
		builder.Generator = &bs
	}
	return builder, nil
}
