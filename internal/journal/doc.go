// Package journal records wizard runs in a local SQLite database so that
// `requestarr setup status` can report how far the last run got and why it
// stopped.
package journal
