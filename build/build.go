// Package build compiles and installs third-party source packages.
package build

import (
	"context"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/cashapp/bootstrap/archive"
	"github.com/cashapp/bootstrap/buildsys"
	"github.com/cashapp/bootstrap/errors"
	"github.com/cashapp/bootstrap/fetch"
	"github.com/cashapp/bootstrap/platform"
	"github.com/cashapp/bootstrap/ui"
	"github.com/cashapp/bootstrap/util"
	"github.com/cashapp/bootstrap/util/debug"
)

// LockFile is the name of the lock held in the work directory during a build.
const LockFile = ".bootstrap.lock"

// Builder runs the download, patch, configure, compile and install pipeline.
//
// Commands are always run with an explicit directory, the process working
// directory is never changed.
type Builder struct {
	Runner util.CommandRunner
	Client *http.Client
	// WorkDir is where sources are downloaded and unpacked. It is locked for the duration of a build.
	WorkDir string
	// Jobs is the number of parallel compile jobs.
	Jobs int
	// BuildSystem compiles configure based sources. Defaults to buildsys.Default() for the host.
	BuildSystem *buildsys.BuildSystem
	// Generator, if set, configures sources with CMake targeting this build system.
	Generator *buildsys.BuildSystem
	// Ldconfig refreshes the shared library cache after installing on Linux.
	Ldconfig bool
	// KeepWork retains the unpacked source tree after the build.
	KeepWork bool
	// CheckTools verifies the required tools are on the PATH before building.
	CheckTools bool
	Git        fetch.GitOptions
	// LockTimeout bounds how long to wait for another build using the same work directory.
	LockTimeout time.Duration
}

// Result of a successful build.
type Result struct {
	Source string
	// Name of the unpacked source tree, eg. zlib-1.2.13.
	Name     string
	Prefix   string
	Duration time.Duration
}

type acquireFunc func(ctx context.Context, task *ui.Task, dir string) (root string, err error)

// BuildFromSources downloads and extracts an archive from "url" then builds and installs it into "prefix".
//
// Patch sets named by "info" are looked up in "contextDir".
func (b *Builder) BuildFromSources(ctx context.Context, task *ui.Task, url string, info *CompileInfo, contextDir, prefix string) error {
	_, err := b.run(ctx, task, url, func(ctx context.Context, task *ui.Task, dir string) (string, error) {
		path, err := fetch.Download(ctx, task, b.Client, url, dir)
		if err != nil {
			return "", stageError(StageDownload, err)
		}
		root, err := archive.Extract(task, path, dir)
		if err != nil {
			return "", stageError(StageExtract, err)
		}
		return root, nil
	}, info, contextDir, prefix)
	return err
}

// BuildFromGit clones a repository then builds and installs it into "prefix".
func (b *Builder) BuildFromGit(ctx context.Context, task *ui.Task, url string, info *CompileInfo, contextDir, prefix string) error {
	_, err := b.run(ctx, task, url, func(ctx context.Context, task *ui.Task, dir string) (string, error) {
		root, err := fetch.GitClone(ctx, task, b.Runner, url, dir, b.Git)
		if err != nil {
			return "", stageError(StageDownload, err)
		}
		return root, nil
	}, info, contextDir, prefix)
	return err
}

// Build acquires "source", which may be an archive URL, a git repository, a local archive
// or a local directory, then builds and installs it into "prefix".
func (b *Builder) Build(ctx context.Context, task *ui.Task, source string, info *CompileInfo, contextDir, prefix string) (*Result, error) {
	sources := &fetch.Sources{Client: b.Client, Runner: b.Runner, Git: b.Git}
	src, err := sources.Get(source)
	if err != nil {
		return nil, stageError(StageDownload, err)
	}
	return b.run(ctx, task, source, func(ctx context.Context, task *ui.Task, dir string) (string, error) {
		root, err := src.Acquire(ctx, task, dir)
		if err != nil {
			return "", stageError(StageDownload, err)
		}
		return root, nil
	}, info, contextDir, prefix)
}

func (b *Builder) run(ctx context.Context, task *ui.Task, source string, acquire acquireFunc, info *CompileInfo, contextDir, prefix string) (*Result, error) {
	if info == nil {
		info = &CompileInfo{}
	}
	if prefix == "" {
		return nil, errors.New("an install prefix is required")
	}
	// Patches are applied from inside the extracted tree.
	contextDir, err := filepath.Abs(contextDir)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	workDir, err := filepath.Abs(b.workDir())
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if err := os.MkdirAll(workDir, 0700); err != nil {
		return nil, errors.WithStack(err)
	}

	lockCtx := ctx
	if b.LockTimeout > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, b.LockTimeout)
		defer cancel()
	}
	lock := util.NewLock(filepath.Join(workDir, LockFile), 100*time.Millisecond)
	if err := lock.Acquire(lockCtx, task); err != nil {
		return nil, errors.Wrap(err, workDir)
	}
	defer lock.Release(task)

	if err := b.checkTools(task); err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp(workDir, "build-*")
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer b.cleanup(task, dir)

	start := time.Now()
	task.Infof("Fetching %s", source)
	fetched := ui.LogElapsed(task, "Fetched %s", source)
	root, err := acquire(ctx, task, dir)
	if err != nil {
		return nil, err
	}
	fetched()

	if err := b.patch(ctx, task, root, contextDir, info.Patches); err != nil {
		return nil, err
	}

	steps := b.strategy(root)
	name := filepath.Base(root)

	task.Infof("Configuring %s", name)
	if err := steps.configure(ctx, task.SubTask("configure"), prefix, info.Flags); err != nil {
		return nil, err
	}

	task.Infof("Compiling %s", name)
	if err := steps.compile(ctx, task.SubTask("compile")); err != nil {
		return nil, err
	}

	task.Infof("Installing %s into %s", name, prefix)
	if err := steps.install(ctx, task.SubTask("install")); err != nil {
		return nil, err
	}

	b.ldconfig(ctx, task)
	return &Result{Source: source, Name: name, Prefix: prefix, Duration: time.Since(start)}, nil
}

func (b *Builder) workDir() string {
	if b.WorkDir != "" {
		return b.WorkDir
	}
	return filepath.Join(os.TempDir(), "bootstrap")
}

func (b *Builder) jobs() int {
	if b.Jobs > 0 {
		return b.Jobs
	}
	return 2
}

func (b *Builder) buildSystem() buildsys.BuildSystem {
	if b.BuildSystem != nil {
		return *b.BuildSystem
	}
	return buildsys.Default(string(platform.GetOS()))
}

func (b *Builder) checkTools(task *ui.Task) error {
	if !b.CheckTools {
		return nil
	}
	requirements := buildsys.AutotoolsRequirements(b.buildSystem())
	if b.Generator != nil {
		requirements = buildsys.CMakeRequirements(*b.Generator)
	}
	missing, err := buildsys.CheckTools(requirements)
	for _, tool := range missing {
		task.Debugf("Optional tool %s not found", tool.Name)
	}
	return err
}

func (b *Builder) cleanup(task *ui.Task, dir string) {
	if b.KeepWork || debug.Flags.KeepWork {
		task.Infof("Keeping work directory %s", dir)
		return
	}
	task.Tracef("rm -rf %q", dir)
	if err := os.RemoveAll(dir); err != nil {
		task.Warnf("Could not remove %s: %s", dir, err)
	}
}

// Refreshes the shared library cache. Failure is not fatal.
func (b *Builder) ldconfig(ctx context.Context, task *ui.Task) {
	if !b.Ldconfig || runtime.GOOS != "linux" {
		return
	}
	if _, err := exec.LookPath("ldconfig"); err != nil {
		task.Debugf("ldconfig not found, skipping")
		return
	}
	if err := b.Runner.RunInDir(ctx, task, "", "ldconfig"); err != nil {
		task.Warnf("ldconfig failed: %s", err)
	}
}
