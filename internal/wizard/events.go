package wizard

// Event is an input to the controller's transition function.
type Event interface {
	eventName() string
}

// StepCompleted is emitted by the collaborator mounted for Step.
type StepCompleted struct {
	Step Step
}

func (StepCompleted) eventName() string { return "complete" }

// MediaServerConfigured is emitted by the media server form once its settings
// were saved.
type MediaServerConfigured struct{}

func (MediaServerConfigured) eventName() string { return "media_server_configured" }

// FinalizeRequested is emitted by the finish trigger on the services step.
type FinalizeRequested struct {
	Locale string
}

func (FinalizeRequested) eventName() string { return "finalize" }
