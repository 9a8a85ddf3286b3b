package build

import (
	"fmt"

	"github.com/kballard/go-shellquote"
)

// Stage of the build pipeline.
type Stage int

// Pipeline stages, in the order they run.
const (
	StageDownload Stage = iota
	StageExtract
	StagePatch
	StageConfigure
	StageCompile
	StageInstall
	StageCleanup
)

var stageNames = []string{"download", "extract", "patch", "configure", "compile", "install", "cleanup"}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return stageNames[s]
}

// StageError is returned when a stage of the pipeline fails.
//
// Failures of external tools wrap a *util.ToolError.
type StageError struct {
	Stage Stage
	// Command that failed, if any.
	Command []string
	Err     error
}

func (s *StageError) Error() string {
	if len(s.Command) == 0 {
		return fmt.Sprintf("%s failed: %s", s.Stage, s.Err)
	}
	return fmt.Sprintf("%s failed: %s: %s", s.Stage, shellquote.Join(s.Command...), s.Err)
}

func (s *StageError) Unwrap() error { return s.Err }

func stageError(stage Stage, err error, command ...string) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Command: command, Err: err}
}
