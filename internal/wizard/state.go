package wizard

import (
	"errors"

	"requestarr/internal/mediaserver"
)

// Step is one stage of the setup sequence. Steps only move forward.
type Step int

const (
	StepSignIn Step = iota + 1
	StepMediaServer
	StepServices
)

func (s Step) String() string {
	switch s {
	case StepSignIn:
		return "sign_in"
	case StepMediaServer:
		return "media_server"
	case StepServices:
		return "services"
	default:
		return "unknown"
	}
}

// ParseStep converts a step name produced by String back into a Step.
func ParseStep(name string) (Step, bool) {
	for _, s := range []Step{StepSignIn, StepMediaServer, StepServices} {
		if s.String() == name {
			return s, true
		}
	}
	return 0, false
}

var (
	// ErrUnexpectedStep is returned for events that do not belong to the current step.
	ErrUnexpectedStep = errors.New("event does not match the current step")
	// ErrStepIncomplete is returned when the media server step is continued
	// before its settings were saved.
	ErrStepIncomplete = errors.New("media server settings are not complete")
	// ErrBusy is returned while the sign-in step is still resolving the media server type.
	ErrBusy = errors.New("step transition already in progress")
	// ErrFinalizeInProgress is returned when finalize is requested while one is outstanding.
	ErrFinalizeInProgress = errors.New("finalize already in progress")
	// ErrSetupCommitted is returned when finalize is requested after setup was committed.
	ErrSetupCommitted = errors.New("setup already committed")
)

// State is a copy of the controller's wizard state.
type State struct {
	RunID                       string
	Step                        Step
	MediaServerSettingsComplete bool
	MediaServerType             mediaserver.Type
	Finalizing                  bool
	// Committed is set once finalize commits setup. The finish trigger stays
	// disabled afterwards.
	Committed bool
	// LastError is the most recent failure of a resolve or finalize call. It is
	// cleared by the next successful transition.
	LastError error
}

func initialState(runID string) State {
	return State{
		RunID:           runID,
		Step:            StepSignIn,
		MediaServerType: mediaserver.TypeNotConfigured,
	}
}
