package journal

import (
	"errors"
	"time"

	"requestarr/internal/mediaserver"
	"requestarr/internal/services"
	"requestarr/internal/wizard"
)

// Run summarizes one wizard run.
type Run struct {
	ID              string
	Step            wizard.Step
	MediaServerType mediaserver.Type
	Committed       bool
	LastError       string
	StartedAt       time.Time
	UpdatedAt       time.Time
}

// State rebuilds the wizard state as it was at the run's last transition.
func (r Run) State() wizard.State {
	s := wizard.State{
		RunID:           r.ID,
		Step:            r.Step,
		MediaServerType: r.MediaServerType,
		Committed:       r.Committed,
	}
	if r.Step == 0 {
		s.Step = wizard.StepSignIn
	}
	if r.Step > wizard.StepMediaServer {
		s.MediaServerSettingsComplete = true
	}
	if r.LastError != "" {
		s.LastError = errors.New(r.LastError)
	}
	return s
}

// Event is one recorded transition.
type Event struct {
	ID        int64
	RunID     string
	Name      string
	From      wizard.Step
	To        wizard.Step
	Committed bool
	Outcome   services.Outcome
	Error     string
	CreatedAt time.Time
}
