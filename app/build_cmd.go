package app

import (
	"context"
	"net/http"
	"time"

	"github.com/cashapp/bootstrap/build"
	"github.com/cashapp/bootstrap/errors"
	"github.com/cashapp/bootstrap/internal/dao"
	"github.com/cashapp/bootstrap/platform"
	"github.com/cashapp/bootstrap/ui"
	"github.com/cashapp/bootstrap/util"
)

type buildCmd struct {
	BuildOptions

	Prefix    string   `help:"Install prefix. Defaults to the default prefix of the host architecture." placeholder:"DIR"`
	Context   string   `help:"Directory that patch sets are resolved in." default:"." type:"path" predictor:"dir"`
	PatchSet  []string `help:"Patch-set directory, relative to --context, whose *.patch files are applied in order." placeholder:"DIR"`
	Flag      []string `help:"Flag to pass to configure or cmake, eg. --flag=--static." placeholder:"FLAG"`
	FlagsFile string   `help:"File of additional flags, one per line." type:"path" predictor:"file"`
	CMake     bool     `name:"cmake" help:"Configure with CMake instead of ./configure."`
	Name      string   `help:"Name to record the build under. Defaults to the name of the source tree."`
	Source    string   `arg:"" help:"Archive URL, Git repository (<repo>.git[#<ref>]), local archive or directory."`
}

func (b *buildCmd) Help() string {
	return `
Fetch a source tree, apply patches, then configure, compile and install it. Sources are
configured with ./configure unless --cmake is given. A receipt of each successful build is
recorded and can be shown with "bootstrap list".
`
}

func (b *buildCmd) Run(ctx context.Context, l *ui.UI, cli *CLI, client *http.Client, runner util.CommandRunner, state stateDir) error {
	info := &build.CompileInfo{Patches: b.PatchSet}
	info.ExtendFlags(b.Flag...)
	if b.FlagsFile != "" {
		flags, err := util.ReadLines(b.FlagsFile)
		if err != nil {
			return err
		}
		info.ExtendFlags(flags...)
	}
	prefix := b.Prefix
	if prefix == "" {
		arch, err := platform.HostArchitecture()
		if err != nil {
			return err
		}
		prefix = arch.DefaultInstallPrefix
	}
	builder, err := b.builder(cli, client, runner, b.CMake)
	if err != nil {
		return err
	}
	db, err := dao.Open(string(state))
	if err != nil {
		return err
	}
	task := l.Task(b.taskName())
	return buildAndRecord(ctx, task, builder, db, b.Name, b.Source, info, b.Context, prefix)
}

func (b *buildCmd) taskName() string {
	if b.Name != "" {
		return b.Name
	}
	return util.BaseName(b.Source)
}

// buildAndRecord builds "source" and records a receipt for it under "name", or
// the name of the source tree if "name" is empty.
func buildAndRecord(ctx context.Context, task *ui.Task, builder *build.Builder, db *dao.DAO, name, source string, info *build.CompileInfo, contextDir, prefix string) error {
	result, err := builder.Build(ctx, task, source, info, contextDir, prefix)
	if err != nil {
		return err
	}
	if name == "" {
		name = result.Name
	}
	task.Infof("Built %s in %s", name, result.Duration.Round(time.Millisecond))
	err = db.Record(&dao.Receipt{
		Name:     name,
		Source:   source,
		Prefix:   prefix,
		Platform: platform.RoutingKey(string(platform.GetOS()), platform.GetArchName()),
		Flags:    info.Flags,
		BuiltAt:  time.Now(),
		Duration: result.Duration,
	})
	return errors.Wrapf(err, "%s: could not record build receipt", name)
}
