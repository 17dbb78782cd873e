package wizard

// Indicator is the display state of one step marker.
type Indicator struct {
	Number    int
	LabelKey  string
	Active    bool
	Completed bool
	Last      bool
}

// Message keys used by the step markers and triggers.
const (
	LabelSignIn            = "signin"
	LabelConfigureServer   = "configuremediaserver"
	LabelConfigureServices = "configureservices"
	LabelContinue          = "continue"
	LabelFinish            = "finish"
	LabelFinishing         = "finishing"
	LabelWelcome           = "welcome"
	LabelTip               = "tip"
	LabelScanBackground    = "scanbackground"
)

// DefaultMessages holds the English text for each message key.
var DefaultMessages = map[string]string{
	LabelSignIn:            "Sign In",
	LabelConfigureServer:   "Configure Media Server",
	LabelConfigureServices: "Configure Services",
	LabelContinue:          "Continue",
	LabelFinish:            "Finish Setup",
	LabelFinishing:         "Finishing...",
	LabelWelcome:           "Welcome to Overseerr",
	LabelTip:               "Tip",
	LabelScanBackground:    "Scanning will run in the background. You can continue the setup process in the meantime.",
}

// Message returns the text for key, or key itself when unknown.
func Message(key string) string {
	if text, ok := DefaultMessages[key]; ok {
		return text
	}
	return key
}

// Indicators derives the three step markers from s. The final marker is
// never shown as completed since finishing leaves the wizard.
func Indicators(s State) []Indicator {
	return []Indicator{
		{
			Number:    int(StepSignIn),
			LabelKey:  LabelSignIn,
			Active:    s.Step == StepSignIn,
			Completed: s.Step > StepSignIn,
		},
		{
			Number:    int(StepMediaServer),
			LabelKey:  LabelConfigureServer,
			Active:    s.Step == StepMediaServer,
			Completed: s.Step > StepMediaServer,
		},
		{
			Number:   int(StepServices),
			LabelKey: LabelConfigureServices,
			Active:   s.Step == StepServices,
			Last:     true,
		},
	}
}

// FinishLabel returns the finish trigger label key for s.
func FinishLabel(s State) string {
	if s.Finalizing {
		return LabelFinishing
	}
	return LabelFinish
}
