package xr

import "fmt"

// SetupStage names the step of StartSession that failed.
type SetupStage string

const (
	StageCompatibility  SetupStage = "compatibility"
	StageReferenceSpace SetupStage = "reference-space"
	StageSurface        SetupStage = "surface"
)

// SessionSetupError is returned by StartSession when a session cannot be
// brought to Presenting. No session state survives it.
type SessionSetupError struct {
	Stage SetupStage
	Err   error
}

func (e *SessionSetupError) Error() string {
	return fmt.Sprintf("xr session setup failed at %s: %v", e.Stage, e.Err)
}

func (e *SessionSetupError) Unwrap() error { return e.Err }

// ErrSessionStarting is returned when StartSession is called while another
// start is still negotiating.
var ErrSessionStarting = fmt.Errorf("xr session start already in progress")

// ErrSessionEnded is the cause of a SessionSetupError when the host ends
// the session while it is still negotiating.
var ErrSessionEnded = fmt.Errorf("xr session ended by host during setup")
