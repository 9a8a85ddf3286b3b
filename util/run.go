package util

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/kballard/go-shellquote"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/cashapp/bootstrap/errors"
	"github.com/cashapp/bootstrap/ui"
)

// CommandRunner abstracts how we run commands in a given directory.
type CommandRunner interface {
	// RunInDir runs a command in the given directory.
	RunInDir(ctx context.Context, task *ui.Task, dir string, args ...string) error
	// ShellInDir evaluates a POSIX shell script in the given directory.
	ShellInDir(ctx context.Context, task *ui.Task, dir string, script string) error
}

// ToolError is returned when an external command could not be started or exited unsuccessfully.
type ToolError struct {
	// Args of the command, or the shell script as a single element.
	Args []string
	// Code is the exit code of the command, or 127 if it could not be found.
	Code int
	Err  error
}

func (t *ToolError) Error() string {
	return fmt.Sprintf("%s failed: %s", shellquote.Join(t.Args...), t.Err)
}

func (t *ToolError) Unwrap() error { return t.Err }

// ExitCode of the failed command.
func (t *ToolError) ExitCode() int { return t.Code }

func newToolError(args []string, err error) *ToolError {
	code := 1
	var exitErr *exec.ExitError
	if status, ok := interp.IsExitStatus(err); ok {
		return &ToolError{Args: args, Code: int(status), Err: err}
	}
	switch {
	case errors.As(err, &exitErr) && exitErr.ExitCode() > 0:
		code = exitErr.ExitCode()
	case errors.Is(err, exec.ErrNotFound):
		code = 127
	}
	return &ToolError{Args: args, Code: code, Err: err}
}

// RealCommandRunner actually calls commands.
type RealCommandRunner struct{}

var _ CommandRunner = &RealCommandRunner{}

// RunInDir implements CommandRunner
func (*RealCommandRunner) RunInDir(ctx context.Context, task *ui.Task, dir string, args ...string) error {
	return RunInDir(ctx, task, dir, args...)
}

// ShellInDir implements CommandRunner
func (*RealCommandRunner) ShellInDir(ctx context.Context, task *ui.Task, dir string, script string) error {
	return ShellInDir(ctx, task, dir, script)
}

// RunInDir runs a command in the given directory.
//
// A non-zero exit status is returned as a *ToolError.
func RunInDir(ctx context.Context, task *ui.Task, dir string, args ...string) error {
	cmd, out := Command(ctx, task, args...)
	cmd.Dir = dir
	err := cmd.Run()
	if err != nil {
		// The task writer logs at debug, so only dump the output at error if we haven't already.
		if !task.WillLog(ui.LevelDebug) {
			task.Errorf("%s", out.String())
		}
		return newToolError(args, err)
	}
	return nil
}

// ShellInDir evaluates script with an in-process POSIX shell interpreter.
//
// The script runs with "set -e" semantics; a non-zero exit status is returned as a *ToolError.
func ShellInDir(ctx context.Context, task *ui.Task, dir string, script string) error {
	log := task.SubTask("sh")
	log.Debugf("%s", script)
	file, err := syntax.NewParser().Parse(strings.NewReader(script), "")
	if err != nil {
		return errors.Wrapf(err, "invalid shell script %q", script)
	}
	out := &bytes.Buffer{}
	w := io.MultiWriter(out, log)
	runner, err := interp.New(
		interp.Dir(dir),
		interp.Env(expand.ListEnviron(os.Environ()...)),
		interp.StdIO(nil, w, w),
		interp.Params("-e"),
	)
	if err != nil {
		return errors.WithStack(err)
	}
	err = runner.Run(ctx, file)
	if err != nil {
		if !task.WillLog(ui.LevelDebug) {
			task.Errorf("%s", out.String())
		}
		return newToolError([]string{script}, err)
	}
	return nil
}

// Command constructs a new exec.Cmd with logging configured.
//
// Returns the command, and a *bytes.Buffer containing the combined stdout and stderr
// of the execution.
func Command(ctx context.Context, task *ui.Task, args ...string) (*exec.Cmd, *bytes.Buffer) {
	log := task.SubTask("exec")
	log.Debugf("%s", shellquote.Join(args...))
	b := &bytes.Buffer{}
	w := io.MultiWriter(b, log)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...) // nolint: gosec
	cmd.Stdout = w
	cmd.Stderr = w
	return cmd, b
}
