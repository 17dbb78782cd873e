// Package config loads, normalizes, and validates requestarr configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// REQUESTARR_API_KEY. The locale keeps the tag the user wrote, with only its
// separator and letter case tidied, and must parse as a BCP 47 tag.
package config
