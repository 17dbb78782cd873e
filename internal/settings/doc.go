// Package settings holds the cached public settings snapshot shared by the
// whole process.
//
// The store is seeded once with the value the application supplied at startup
// and revalidated on demand. A failed revalidation resets readers to the static
// defaults instead of keeping the last good snapshot, so a transient error is
// visible as a flip back to default values until the next successful fetch.
package settings
