// Package wizard implements the first-run setup sequence.
//
// A Controller walks sign in, media server configuration, and services
// configuration in order. The Sequencer commits setup once the operator
// finishes: it initializes the application, persists the chosen locale,
// invalidates the cached public settings, and hands navigation back to the
// host. Indicators derives the step markers shown alongside the wizard.
package wizard
