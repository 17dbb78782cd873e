package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"requestarr/internal/logging"
	"requestarr/internal/mediaserver"
	"requestarr/internal/services"
)

// TypeResolver reports the configured media server type.
type TypeResolver interface {
	Resolve(ctx context.Context) (mediaserver.Type, error)
}

// Finalizer commits setup. *Sequencer implements it. onResponse must be called
// once the initialize call has returned, whatever its outcome.
type Finalizer interface {
	Finalize(ctx context.Context, locale string, onResponse func()) (Result, error)
}

// Transition describes one handled event.
type Transition struct {
	RunID      string
	Event      string
	From       Step
	To         Step
	ServerType mediaserver.Type
	Committed  bool
	Err        error
	At         time.Time
}

// Observer is notified after every handled event, including failed ones.
type Observer interface {
	Observe(ctx context.Context, t Transition)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, t Transition)

// Observe calls f.
func (f ObserverFunc) Observe(ctx context.Context, t Transition) { f(ctx, t) }

// Controller owns the wizard state and applies the transition guards.
type Controller struct {
	resolver  TypeResolver
	finalizer Finalizer
	observer  Observer
	logger    *slog.Logger
	now       func() time.Time

	mu        sync.Mutex
	state     State
	resolving bool
}

// ControllerOption customizes a Controller.
type ControllerOption func(*Controller)

// WithObserver registers an observer for transitions.
func WithObserver(o Observer) ControllerOption {
	return func(c *Controller) { c.observer = o }
}

// WithRunID overrides the generated run identifier.
func WithRunID(id string) ControllerOption {
	return func(c *Controller) {
		if id != "" {
			c.state.RunID = id
		}
	}
}

// WithLogger sets the controller logger.
func WithLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) { c.logger = logger }
}

// NewController returns a controller positioned at the sign-in step.
func NewController(resolver TypeResolver, finalizer Finalizer, opts ...ControllerOption) *Controller {
	c := &Controller{
		resolver:  resolver,
		finalizer: finalizer,
		now:       time.Now,
		state:     initialState(uuid.NewString()),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.NewComponentLogger(c.logger, "wizard").With(slog.String(logging.FieldRunID, c.state.RunID))
	return c
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Step returns the current step.
func (c *Controller) Step() Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Step
}

// CanContinue reports whether the media server step may advance.
func (c *Controller) CanContinue() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Step == StepMediaServer && c.state.MediaServerSettingsComplete
}

// CanFinalize reports whether the finish trigger is enabled.
func (c *Controller) CanFinalize() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Step == StepServices && !c.state.Finalizing && !c.state.Committed
}

// MarkMediaServerSettingsComplete records that the media server form saved its
// settings and reports whether it applied. It has no effect outside the media
// server step.
func (c *Controller) MarkMediaServerSettingsComplete() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Step != StepMediaServer {
		c.logger.Debug("ignoring media server completion outside its step",
			slog.String(logging.FieldStep, c.state.Step.String()))
		return false
	}
	c.state.MediaServerSettingsComplete = true
	return true
}

// Handle dispatches ev to the matching operation.
func (c *Controller) Handle(ctx context.Context, ev Event) error {
	switch e := ev.(type) {
	case StepCompleted:
		return c.Complete(ctx, e)
	case MediaServerConfigured:
		if c.MarkMediaServerSettingsComplete() {
			c.notify(ctx, e.eventName(), StepMediaServer, c.State(), nil, false)
		}
		return nil
	case FinalizeRequested:
		_, err := c.Finalize(ctx, e)
		return err
	case nil:
		return errors.New("wizard: nil event")
	default:
		return fmt.Errorf("wizard: unsupported event %T", ev)
	}
}

// Complete handles the completion signal of the collaborator mounted for ev.Step.
func (c *Controller) Complete(ctx context.Context, ev StepCompleted) error {
	c.mu.Lock()
	from := c.state.Step
	if ev.Step != from {
		c.mu.Unlock()
		return fmt.Errorf("%w: got %s while at %s", ErrUnexpectedStep, ev.Step, from)
	}

	switch from {
	case StepSignIn:
		if c.resolving {
			c.mu.Unlock()
			return ErrBusy
		}
		c.resolving = true
		c.mu.Unlock()
		return c.completeSignIn(ctx)
	case StepMediaServer:
		if !c.state.MediaServerSettingsComplete {
			c.mu.Unlock()
			return ErrStepIncomplete
		}
		c.state.Step = StepServices
		c.state.LastError = nil
		snapshot := c.state
		c.mu.Unlock()
		c.logger.Info("media server configured; moving to services")
		c.notify(ctx, ev.eventName(), from, snapshot, nil, false)
		return nil
	default:
		c.mu.Unlock()
		return fmt.Errorf("%w: %s has no completion transition", ErrUnexpectedStep, from)
	}
}

func (c *Controller) completeSignIn(ctx context.Context) error {
	ctx = services.WithStep(services.WithRunID(ctx, c.state.RunID), StepSignIn.String())
	kind, err := c.resolver.Resolve(ctx)

	c.mu.Lock()
	c.resolving = false
	if err != nil {
		c.state.LastError = err
		snapshot := c.state
		c.mu.Unlock()
		c.logger.Error("media server type lookup failed; staying on sign in", logging.Error(err))
		c.notify(ctx, "complete", StepSignIn, snapshot, err, false)
		return err
	}
	c.state.MediaServerType = kind
	c.state.Step = StepMediaServer
	c.state.LastError = nil
	snapshot := c.state
	c.mu.Unlock()

	c.logger.Info("signed in", slog.String("media_server_type", kind.String()))
	c.notify(ctx, "complete", StepSignIn, snapshot, nil, false)
	return nil
}

// Finalize commits setup. The busy flag is held until the initialize call
// returns and is cleared on every outcome, so the locale write runs with the
// finish trigger enabled again. A transport failure leaves the wizard on the
// services step with LastError set.
func (c *Controller) Finalize(ctx context.Context, ev FinalizeRequested) (Result, error) {
	c.mu.Lock()
	if c.state.Step != StepServices {
		step := c.state.Step
		c.mu.Unlock()
		return Result{}, fmt.Errorf("%w: finalize requested at %s", ErrUnexpectedStep, step)
	}
	if c.state.Committed {
		c.mu.Unlock()
		return Result{}, ErrSetupCommitted
	}
	if c.state.Finalizing {
		c.mu.Unlock()
		return Result{}, ErrFinalizeInProgress
	}
	c.state.Finalizing = true
	runID := c.state.RunID
	c.mu.Unlock()

	released := false
	release := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if !released {
			released = true
			c.state.Finalizing = false
		}
	}

	ctx = services.WithStep(services.WithRunID(ctx, runID), StepServices.String())
	result, err := c.finalizer.Finalize(ctx, ev.Locale, release)
	release()

	c.mu.Lock()
	c.state.LastError = err
	if result.Committed {
		c.state.Committed = true
	}
	snapshot := c.state
	c.mu.Unlock()

	switch {
	case err != nil:
		c.logger.Error("finalize failed", logging.Error(err))
	case !result.Committed:
		c.logger.Info("finalize not committed; finish may be retried")
	}
	c.notify(ctx, ev.eventName(), StepServices, snapshot, err, result.Committed)
	return result, err
}

func (c *Controller) notify(ctx context.Context, event string, from Step, s State, err error, committed bool) {
	if c.observer == nil {
		return
	}
	c.observer.Observe(ctx, Transition{
		RunID:      s.RunID,
		Event:      event,
		From:       from,
		To:         s.Step,
		ServerType: s.MediaServerType,
		Committed:  committed,
		Err:        err,
		At:         c.now(),
	})
}
