// Package bootstraptest contains fixtures shared by tests across packages.
package bootstraptest

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/kballard/go-shellquote"

	"github.com/cashapp/bootstrap/ui"
	"github.com/cashapp/bootstrap/util"
)

// Call is a single invocation recorded by Runner.
type Call struct {
	Dir string
	// Args of the command, or nil for shell scripts.
	Args []string
	// Script evaluated by ShellInDir.
	Script string
}

func (c Call) String() string {
	if c.Args == nil {
		return c.Script
	}
	return shellquote.Join(c.Args...)
}

// Runner is a util.CommandRunner that records calls instead of running them.
type Runner struct {
	lock  sync.Mutex
	calls []Call

	// Effect, if set, is called for every call and its error returned.
	//
	// Use it to fail specific commands or to create files a command would have created.
	Effect func(call Call) error
}

var _ util.CommandRunner = &Runner{}

// RunInDir implements util.CommandRunner
func (r *Runner) RunInDir(ctx context.Context, task *ui.Task, dir string, args ...string) error {
	return r.record(Call{Dir: dir, Args: args})
}

// ShellInDir implements util.CommandRunner
func (r *Runner) ShellInDir(ctx context.Context, task *ui.Task, dir string, script string) error {
	return r.record(Call{Dir: dir, Script: script})
}

func (r *Runner) record(call Call) error {
	r.lock.Lock()
	r.calls = append(r.calls, call)
	r.lock.Unlock()
	if r.Effect != nil {
		return r.Effect(call)
	}
	return nil
}

// Calls returns the recorded calls.
func (r *Runner) Calls() []Call {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]Call{}, r.calls...)
}

// Commands returns the recorded calls formatted as shell command lines.
func (r *Runner) Commands() []string {
	out := []string{}
	for _, call := range r.Calls() {
		out = append(out, call.String())
	}
	return out
}

// Fail returns an Effect that fails every command whose line starts with "prefix".
func Fail(prefix string, code int) func(call Call) error {
	return func(call Call) error {
		if strings.HasPrefix(call.String(), prefix) {
			args := call.Args
			if args == nil {
				args = []string{call.Script}
			}
			return &util.ToolError{Args: args, Code: code, Err: &exitError{code}}
		}
		return nil
	}
}

type exitError struct{ code int }

func (e *exitError) Error() string { return "exit status " + strconv.Itoa(e.code) }
