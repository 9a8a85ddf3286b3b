package app

import (
	"context"
	"net/http"

	"github.com/cashapp/bootstrap/errors"
	"github.com/cashapp/bootstrap/internal/dao"
	"github.com/cashapp/bootstrap/platform"
	"github.com/cashapp/bootstrap/recipe"
	"github.com/cashapp/bootstrap/ui"
	"github.com/cashapp/bootstrap/util"
)

type runCmd struct {
	BuildOptions

	SkipPackages bool     `help:"Don't install native packages listed in the recipe."`
	Only         []string `help:"Only build the named build blocks." placeholder:"NAME"`
	Prefix       string   `help:"Install prefix, overriding the recipe." placeholder:"DIR"`
	Recipe       string   `arg:"" help:"Recipe to run." type:"path" predictor:"hclfile"`
}

func (r *runCmd) Help() string {
	return `
Install the native packages a recipe lists for the host, then build each of its build blocks
in order. Patch sets are resolved relative to the directory containing the recipe.
`
}

func (r *runCmd) Run(ctx context.Context, l *ui.UI, cli *CLI, client *http.Client, runner util.CommandRunner, host hostResolver, state stateDir) error {
	rcp, err := recipe.Load(r.Recipe)
	if err != nil {
		return err
	}
	osName, archName := string(platform.GetOS()), platform.GetArchName()

	if packages := rcp.PackagesFor(osName, archName); len(packages) > 0 && !r.SkipPackages {
		p, err := host(ctx)
		if err != nil {
			return err
		}
		if err := p.InstallPackages(ctx, l.Task("install"), runner, packages...); err != nil {
			return err
		}
	}

	prefix := r.Prefix
	if prefix == "" {
		prefix = rcp.Prefix
	}
	if prefix == "" {
		arch, err := platform.HostArchitecture()
		if err != nil {
			return err
		}
		prefix = rcp.InstallPrefix(arch)
	}

	builds, err := r.selected(rcp)
	if err != nil {
		return err
	}
	db, err := dao.Open(string(state))
	if err != nil {
		return err
	}
	for _, b := range builds {
		options := r.BuildOptions
		if b.BuildSystem != "" {
			options.BuildSystem = b.BuildSystem
		}
		builder, err := options.builder(cli, client, runner, b.CMake)
		if err != nil {
			return errors.Wrap(err, b.Name)
		}
		task := l.Task(b.Name)
		err = buildAndRecord(ctx, task, builder, db, b.Name, b.SourceFor(osName, archName), b.Resolve(osName, archName), rcp.Dir, prefix)
		if err != nil {
			return errors.Wrap(err, b.Name)
		}
	}
	return nil
}

// selected returns the builds named by --only, in recipe order, or all builds.
func (r *runCmd) selected(rcp *recipe.Recipe) ([]*recipe.Build, error) {
	if len(r.Only) == 0 {
		return rcp.Builds, nil
	}
	want := map[string]bool{}
	for _, name := range r.Only {
		want[name] = true
	}
	var out []*recipe.Build
	for _, b := range rcp.Builds {
		if want[b.Name] {
			out = append(out, b)
			delete(want, b.Name)
		}
	}
	for name := range want {
		return nil, errors.Errorf("%s: no build named %q", r.Recipe, name)
	}
	return out, nil
}
