// Package ui provides the terminal output for bootstrap.
//
// This encapsulates both logging and progress.
//
// Progress is conveyed via a single status line at the bottom of the
// output that is redrawn in place, eg. the byte count of a running
// download. Log lines are written above the status line.
package ui

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"

	"github.com/cashapp/bootstrap/errors"
)

// SyncWriter is an io.Writer that can be Sync()ed.
type SyncWriter interface {
	io.Writer
	Sync() error
}

// UI controls the display of logs and the status line.
type UI struct {
	*loggingMixin
	mu            sync.Mutex
	tty           *os.File
	width         int
	stdout        SyncWriter
	stderr        SyncWriter
	stdoutIsTTY   bool
	stderrIsTTY   bool
	minlevel      Level
	status        string
	statusEnabled bool
}

var _ Logger = &UI{}

// NewForTesting returns a new UI that writes all output to the returned bytes.Buffer.
func NewForTesting() (*UI, *bytes.Buffer) {
	b := &bytes.Buffer{}
	w := nopSyncer{b}
	ui := New(LevelTrace, w, w, true, true)
	return ui, b
}

// New creates a new UI.
func New(level Level, stdout, stderr SyncWriter, stdoutIsTTY, stderrIsTTY bool) *UI {
	w := &UI{
		tty:           os.Stdout,
		stdout:        stdout,
		stdoutIsTTY:   stdoutIsTTY,
		stderr:        stderr,
		stderrIsTTY:   stderrIsTTY,
		minlevel:      level,
		statusEnabled: true,
	}
	w.loggingMixin = &loggingMixin{
		logWriter: logWriter{
			level: LevelDebug,
			logf: func(level Level, format string, args ...interface{}) {
				w.logf(level, "", format, args...)
			},
		},
		logf: w.logf,
	}
	w.updateWidth()
	return w
}

// SetLevel sets the UI's minimum log level.
func (w *UI) SetLevel(level Level) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.minlevel = level
}

// SetStatusEnabled defines if the status line is shown to the user.
func (w *UI) SetStatusEnabled(enabled bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.statusEnabled = enabled
}

// WillLog returns true if "level" will be logged.
func (w *UI) WillLog(level Level) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.minlevel.Visible(level)
}

// Task creates a new Task.
//
// The resulting Task can be used as a ui.Logger.
func (w *UI) Task(task string) *Task {
	return w.task(task, "")
}

func (w *UI) task(task, subtask string) *Task {
	return &Task{
		loggingMixin: loggingMixin{
			logWriter: logWriter{
				level: LevelDebug,
				logf: func(level Level, format string, args ...interface{}) {
					w.logf(level, joinLabel(task, subtask), format, args...)
				},
			},
			task:    task,
			subtask: subtask,
			logf:    w.logf,
		},
		w: w,
	}
}

func joinLabel(task, subtask string) string {
	if subtask == "" {
		return task
	}
	if task == "" {
		return subtask
	}
	return task + ":" + subtask
}

// Clear the status line.
func (w *UI) Clear() {
	w.mu.Lock()
	w.clearStatus()
	w.status = ""
	_ = w.stdout.Sync()
	w.mu.Unlock()
}

func (w *UI) logf(level Level, label string, format string, args ...interface{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.minlevel.Visible(level) {
		return
	}

	// Whether to ANSI format the output.
	ansi := w.stdoutIsTTY && level < LevelWarn || w.stderrIsTTY && level >= LevelWarn

	var msg string
	if ansi {
		msg += "\033[1m" + levelColor[level]
	}
	msg += level.String() + ":"
	if label != "" {
		msg += label + ":"
	}
	msg += " "
	if ansi {
		msg += "\033[0m" + levelColor[level]
		msg += fmt.Sprintf(format, args...)
		msg += "\033[0m\033[0K"
	} else {
		msg += fmt.Sprintf(format, args...)
	}
	w.clearStatus()
	switch {
	case w.stdoutIsTTY && level < LevelWarn:
		fmt.Fprintf(w.stdout, "%s\n", msg)

	case level >= LevelWarn:
		fmt.Fprintf(w.stderr, "%s\n", msg)
	}
	if level == LevelFatal {
		_ = w.stderr.Sync()
		return
	}
	w.writeStatus()
}

// setStatus replaces the status line.
func (w *UI) setStatus(line string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if line == w.status {
		return
	}
	w.clearStatus()
	w.status = line
	w.writeStatus()
}

// Internal only, does not acquire lock.
func (w *UI) clearStatus() {
	if !w.statusEnabled || !w.stdoutIsTTY || w.status == "" {
		return
	}
	fmt.Fprint(w.stdout, "\r\033[2K")
}

// Internal only, does not acquire lock.
func (w *UI) writeStatus() {
	if !w.statusEnabled || !w.stdoutIsTTY || w.status == "" {
		return
	}
	line := w.status
	if w.width > 0 && len(line) > w.width {
		line = line[:w.width]
	}
	fmt.Fprintf(w.stdout, "\r%s\033[0K", line)
	_ = w.stdout.Sync()
}

func (w *UI) updateWidth() {
	w.mu.Lock()
	defer w.mu.Unlock()
	var err error
	w.width, _, err = term.GetSize(int(w.tty.Fd()))
	if err != nil || w.width < 20 { // Assume it's borked.
		w.width = 80
	}
}

// Printf prints directly to stdout without log formatting.
func (w *UI) Printf(format string, args ...interface{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.clearStatus()
	fmt.Fprintf(w.stdout, format, args...)
	if strings.HasSuffix(format, "\n") {
		w.writeStatus()
	}
}

// Sync flushes IO to stdout and stderr.
func (w *UI) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return errors.Join(w.stdout.Sync(), w.stderr.Sync())
}
