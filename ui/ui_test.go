package ui

import (
	"bytes"
	"testing"

	"github.com/acarl005/stripansi"
	"github.com/alecthomas/assert/v2"
)

func TestLevelFromString(t *testing.T) {
	for _, level := range []Level{LevelAuto, LevelTrace, LevelDebug, LevelInfo, LevelWarn, LevelError, LevelFatal} {
		parsed, err := LevelFromString(level.String())
		assert.NoError(t, err)
		assert.Equal(t, level, parsed)
	}
	parsed, err := LevelFromString("WARNING")
	assert.NoError(t, err)
	assert.Equal(t, LevelWarn, parsed)
	_, err = LevelFromString("loud")
	assert.Error(t, err)
}

func TestLogLabels(t *testing.T) {
	p, buf := NewForTesting()
	task := p.Task("zlib")
	task.Infof("hello %s", "world")
	task.SubTask("exec").Debugf("make -j2")
	out := stripansi.Strip(buf.String())
	assert.Contains(t, out, "info:zlib: hello world\n")
	assert.Contains(t, out, "debug:zlib:exec: make -j2\n")
}

func TestLevelFiltering(t *testing.T) {
	p, buf := NewForTesting()
	p.SetLevel(LevelWarn)
	p.Infof("hidden")
	p.Warnf("shown")
	out := stripansi.Strip(buf.String())
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "warn: shown")
}

func TestWriterSplitsLines(t *testing.T) {
	p, buf := NewForTesting()
	task := p.Task("build")
	w := task.WriterAt(LevelInfo)
	_, _ = w.Write([]byte("checking for gcc... gcc\nchecking"))
	_, _ = w.Write([]byte(" for make... yes\n"))
	out := stripansi.Strip(buf.String())
	assert.Contains(t, out, "info:build: checking for gcc... gcc\n")
	assert.Contains(t, out, "info:build: checking for make... yes\n")
}

func TestTaskStatusLine(t *testing.T) {
	p, buf := NewForTesting()
	task := p.Task("download").Size(1000)
	_, _ = task.ProgressWriter().Write(bytes.Repeat([]byte{'x'}, 500))
	assert.Equal(t, 50.0, task.Percent())
	task.Add(500)
	assert.Equal(t, int64(1000), task.Progress())
	out := stripansi.Strip(buf.String())
	assert.Contains(t, out, "       500  [50.00%]")
	assert.Contains(t, out, "      1000  [100.00%]")
	task.Done()
}

func TestTaskStatusUnknownSize(t *testing.T) {
	p, buf := NewForTesting()
	task := p.Task("download")
	task.Add(8192)
	assert.Equal(t, 0.0, task.Percent())
	assert.Contains(t, stripansi.Strip(buf.String()), "      8192  [0.00%]")
}

func TestLogElapsed(t *testing.T) {
	p, buf := NewForTesting()
	done := LogElapsed(p.Task("zlib"), "Fetched %s", "zlib.tar.gz")
	assert.NotContains(t, buf.String(), "Fetched")
	done()
	out := stripansi.Strip(buf.String())
	assert.Contains(t, out, "trace:zlib: Fetched zlib.tar.gz (")
	assert.Contains(t, out, " elapsed)\n")
}
