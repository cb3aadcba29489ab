package environment

import "fmt"

// Build stages reported by BuildError.
const (
	StageSource   = "source"
	StageCopy     = "copy"
	StageManifest = "manifest"
	StageInstall  = "install"
)

// BuildError is fatal: it aborts the build and no runnable environment is
// produced.
type BuildError struct {
	Stage string
	Err   error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("build failed at %v stage: %v", e.Stage, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

// RunError indicates the entry process could not be started; a started
// process that exits non-zero is not an error here, its code is simply
// propagated.
type RunError struct {
	Err error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("failed to run entry process: %v", e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }
