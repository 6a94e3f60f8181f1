package playback

import (
	"errors"
	"fmt"

	"untethered/internal/services"
)

var (
	// ErrConvergenceExhausted means the retry budget ran out before the chart was paused.
	ErrConvergenceExhausted = errors.New("playback did not converge")
	// ErrPositionUnattainable means the server never reported a usable position.
	ErrPositionUnattainable = errors.New("position unattainable")
	// ErrPositionMismatch means the server kept reporting a position other than the target.
	ErrPositionMismatch = errors.New("position mismatch")
)

// ConvergenceError reports the last observation of a reconcile that ran out of budget.
type ConvergenceError struct {
	Chart string
	// Observed is false when the last poll returned no status.
	Observed bool
	Last     Status
}

func (e *ConvergenceError) Error() string {
	if !e.Observed {
		return fmt.Sprintf("no more retries, unable to start playback of %s", e.Chart)
	}
	return fmt.Sprintf("no more retries, %s is not playing (last state %q, file %q)", e.Chart, e.Last.State, e.Last.FileName)
}

func (e *ConvergenceError) Unwrap() []error {
	return []error{ErrConvergenceExhausted, services.ErrExternalTool}
}

// PatchError reports a patch that could not be displayed.
type PatchError struct {
	Index  int
	Target int
	Actual int
	Err    error
}

func (e *PatchError) Error() string {
	return fmt.Sprintf("unable to play patch %d: %v (target %d, actual %d)", e.Index, e.Err, e.Target, e.Actual)
}

func (e *PatchError) Unwrap() []error {
	return []error{e.Err, services.ErrExternalTool}
}
