package processor

import (
	"errors"
	"fmt"
)

// errEmptyInput guards Render against zero-length buffers.
var errEmptyInput = errors.New("input buffer is empty")

// ProcessingError indicates chain construction or rendering failed.
// Always surfaced with the failing stage attached; never retried,
// since a run has user-visible side effects (progress UI state).
type ProcessingError struct {
	Stage StageID
	Op    string
	Err   error
}

func (e *ProcessingError) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("processing failed at %s: %s: %v", e.Stage, e.Op, e.Err)
	}
	return fmt.Sprintf("processing failed: %s: %v", e.Op, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// DiagnosticsError indicates a failure during the three-checkpoint
// diagnostic run. The whole run aborts with no partial report; a
// partial comparison could mislead about where defects originate.
type DiagnosticsError struct {
	Checkpoint string
	Err        error
}

func (e *DiagnosticsError) Error() string {
	return fmt.Sprintf("diagnostics failed at checkpoint %q: %v", e.Checkpoint, e.Err)
}

func (e *DiagnosticsError) Unwrap() error { return e.Err }
