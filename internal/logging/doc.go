// Package logging assembles the structured slog loggers used across requestarr.
//
// It owns the console and JSON handlers, level parsing, and the context
// helpers that tag log lines with wizard run IDs, step names, and correlation
// IDs. A no-op logger is provided for tests and wiring code that cannot fail.
package logging
