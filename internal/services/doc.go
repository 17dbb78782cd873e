// Package services defines shared utilities consumed by the setup wizard and
// its outbound integrations.
//
// Key responsibilities:
//   - Context helpers that stamp wizard run IDs, step names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that let callers tell
//     transport failures apart from business rejections.
//
// Use these helpers when wiring new integration code so error handling and
// observability stay uniform across the setup flow.
package services
