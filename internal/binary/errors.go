package binary

import (
	"errors"
	"fmt"
)

// Stage identifies a pipeline stage. Callers branch on the stage of a
// *PipelineError rather than on error text.
type Stage int

const (
	// StagePlatform is host OS/architecture detection. Its failures are
	// terminal: no fallback binary exists for unsupported platforms.
	StagePlatform Stage = iota + 1
	// StageVersion is release version resolution against the release
	// index.
	StageVersion
	// StageDownload covers fetching the archive and checksum manifest,
	// and integrity verification of the archive bytes.
	StageDownload
	// StageExtract is pulling the daemon binary out of the archive.
	StageExtract
	// StageInstall is the final atomic write to the install directory.
	StageInstall
)

// String returns the human-readable stage name.
func (s Stage) String() string {
	switch s {
	case StagePlatform:
		return "platform detection"
	case StageVersion:
		return "version resolution"
	case StageDownload:
		return "download"
	case StageExtract:
		return "extraction"
	case StageInstall:
		return "installation"
	default:
		return "unknown stage"
	}
}

// PipelineError tags a stage failure with the stage that produced it.
// The wrapped cause is preserved for diagnosis.
type PipelineError struct {
	Stage Stage
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// stageErr wraps err as a PipelineError for the given stage. Errors
// already tagged with a stage pass through unchanged.
func stageErr(stage Stage, err error) error {
	var perr *PipelineError
	if errors.As(err, &perr) {
		return err
	}
	return &PipelineError{Stage: stage, Err: err}
}

// StageOf reports the pipeline stage err was tagged with, if any.
func StageOf(err error) (Stage, bool) {
	var perr *PipelineError
	if errors.As(err, &perr) {
		return perr.Stage, true
	}
	return 0, false
}
