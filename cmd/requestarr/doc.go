// Command requestarr runs first-time setup against a media-request
// application and inspects its public settings.
package main
