// Package appclient is the HTTP client for the media-request application's
// settings API: initialize, read and write main settings, read public settings,
// and the signed-in user probe.
//
// Network errors and 5xx responses are transport failures and count against the
// circuit breaker. 4xx responses are rejections and do not trip it.
package appclient
