// Package preflight provides readiness checks for the application, the media
// server, and the local state directory that setup depends on.
//
// `requestarr setup check` prints every result. `requestarr setup` only runs
// the state directory check before taking the setup lock; the remote checks
// happen as part of the wizard itself.
package preflight
