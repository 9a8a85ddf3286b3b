package ui

import (
	"fmt"
	"io"
)

// Task encapsulates progress and logging for a single operation.
//
// Tasks are not thread safe.
type Task struct {
	loggingMixin

	w        *UI
	progress int64
	size     int64
}

var _ Logger = &Task{}

// SubTask creates a new subtask labelled "<task>:<subtask>".
func (o *Task) SubTask(subtask string) *Task {
	return o.w.task(o.task, subtask)
}

// WillLog returns true if "level" will be logged.
func (o *Task) WillLog(level Level) bool {
	return o.w.WillLog(level)
}

// Size sets the expected size of the Task.
//
// A size of zero means the size is unknown and progress is reported as 0%.
func (o *Task) Size(n int64) *Task {
	o.lock.Lock()
	o.size = n
	o.lock.Unlock()
	return o
}

// Add to progress of the Task and redraw the status line.
func (o *Task) Add(n int) {
	if n == 0 {
		return
	}
	o.lock.Lock()
	o.progress += int64(n)
	line := o.statusLine()
	o.lock.Unlock()
	o.w.setStatus(line)
}

// Progress returns the number of units completed so far.
func (o *Task) Progress() int64 {
	o.lock.Lock()
	defer o.lock.Unlock()
	return o.progress
}

// Percent of the Task that has completed, or 0 if the size is unknown.
func (o *Task) Percent() float64 {
	o.lock.Lock()
	defer o.lock.Unlock()
	return o.percent()
}

func (o *Task) percent() float64 {
	if o.size <= 0 {
		return 0
	}
	return float64(o.progress) * 100 / float64(o.size)
}

func (o *Task) statusLine() string {
	return fmt.Sprintf("%10d  [%3.2f%%]", o.progress, o.percent())
}

// ProgressWriter returns a writer that moves the progress of the Task as it is written to.
func (o *Task) ProgressWriter() io.Writer {
	return &progressWriter{o}
}

// Done marks the operation as complete and clears the status line.
func (o *Task) Done() {
	o.w.Clear()
}

type progressWriter struct {
	b *Task
}

func (p *progressWriter) Write(b []byte) (n int, err error) {
	p.b.Add(len(b))
	return len(b), nil
}

type nopSyncer struct{ io.Writer }

func (n nopSyncer) Sync() error { return nil }
