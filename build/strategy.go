package build

import (
	"context"
	"os"
	"path/filepath"

	"github.com/cashapp/bootstrap/buildsys"
	"github.com/cashapp/bootstrap/errors"
	"github.com/cashapp/bootstrap/ui"
	"github.com/cashapp/bootstrap/util"
)

type strategy interface {
	configure(ctx context.Context, task *ui.Task, prefix string, flags []string) error
	compile(ctx context.Context, task *ui.Task) error
	install(ctx context.Context, task *ui.Task) error
}

func (b *Builder) strategy(root string) strategy {
	if b.Generator != nil {
		return &cmakeStrategy{runner: b.Runner, root: root, generator: *b.Generator, jobs: b.jobs()}
	}
	return &autotoolsStrategy{runner: b.Runner, root: root, bs: b.buildSystem(), jobs: b.jobs()}
}

// ./configure && make && make install
type autotoolsStrategy struct {
	runner util.CommandRunner
	root   string
	bs     buildsys.BuildSystem
	jobs   int
}

func (a *autotoolsStrategy) configure(ctx context.Context, task *ui.Task, prefix string, flags []string) error {
	script := filepath.Join(a.root, "configure")
	info, err := os.Stat(script)
	if err != nil {
		return stageError(StageConfigure, errors.Wrap(err, "no configure script"))
	}
	task.Tracef("chmod +x %q", script)
	if err := os.Chmod(script, info.Mode()|0111); err != nil {
		return stageError(StageConfigure, errors.WithStack(err))
	}
	args := append([]string{"./configure", "--prefix=" + prefix}, flags...)
	return stageError(StageConfigure, a.runner.RunInDir(ctx, task, a.root, args...), args...)
}

func (a *autotoolsStrategy) compile(ctx context.Context, task *ui.Task) error {
	args := a.bs.Command(a.jobs)
	return stageError(StageCompile, a.runner.RunInDir(ctx, task, a.root, args...), args...)
}

func (a *autotoolsStrategy) install(ctx context.Context, task *ui.Task) error {
	args := []string{a.bs.Tool(), "install"}
	return stageError(StageInstall, a.runner.RunInDir(ctx, task, a.root, args...), args...)
}

// cmake -G<generator> && <build system> && <build system> install, in <root>/build.
type cmakeStrategy struct {
	runner    util.CommandRunner
	root      string
	generator buildsys.BuildSystem
	jobs      int
}

func (c *cmakeStrategy) buildDir() string {
	return filepath.Join(c.root, "build")
}

func (c *cmakeStrategy) configure(ctx context.Context, task *ui.Task, prefix string, flags []string) error {
	if err := os.MkdirAll(c.buildDir(), 0700); err != nil {
		return stageError(StageConfigure, errors.WithStack(err))
	}
	args := append([]string{
		"cmake", c.root, c.generator.GeneratorArg,
		"-DCMAKE_INSTALL_PREFIX=" + prefix,
		"-DCMAKE_BUILD_TYPE=Release",
	}, flags...)
	return stageError(StageConfigure, c.runner.RunInDir(ctx, task, c.buildDir(), args...), args...)
}

func (c *cmakeStrategy) compile(ctx context.Context, task *ui.Task) error {
	args := c.generator.Command(c.jobs)
	return stageError(StageCompile, c.runner.RunInDir(ctx, task, c.buildDir(), args...), args...)
}

func (c *cmakeStrategy) install(ctx context.Context, task *ui.Task) error {
	args := []string{c.generator.Tool(), "install"}
	return stageError(StageInstall, c.runner.RunInDir(ctx, task, c.buildDir(), args...), args...)
}
