// Package mediaserver knows which media server backend the application uses
// and how to reach it.
//
// Resolver performs the single post-sign-in lookup that picks the media server
// step's form. The Plex and Jellyfin verifiers probe the configured server with
// its credentials; Emby shares the Jellyfin API. The Plex client identifier is
// generated once and kept in the state directory so the server sees a stable
// device.
package mediaserver
