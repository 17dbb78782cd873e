package settings

import "requestarr/internal/mediaserver"

// CacheKey identifies the public settings snapshot for every reader.
const CacheKey = "public-settings"

// PublicSettings is the application-wide configuration exposed to every page.
// It is always replaced as a whole; there are no partial updates.
type PublicSettings struct {
	Initialized            bool             `json:"initialized"`
	ApplicationTitle       string           `json:"applicationTitle"`
	ApplicationURL         string           `json:"applicationUrl"`
	HideAvailable          bool             `json:"hideAvailable"`
	LocalLogin             bool             `json:"localLogin"`
	Movie4KEnabled         bool             `json:"movie4kEnabled"`
	Series4KEnabled        bool             `json:"series4kEnabled"`
	Region                 string           `json:"region"`
	OriginalLanguage       string           `json:"originalLanguage"`
	MediaServerType        mediaserver.Type `json:"mediaServerType"`
	PartialRequestsEnabled bool             `json:"partialRequestsEnabled"`
	CacheImages            bool             `json:"cacheImages"`
	VapidPublic            string           `json:"vapidPublic"`
	EnablePushRegistration bool             `json:"enablePushRegistration"`
	Locale                 string           `json:"locale"`
	EmailEnabled           bool             `json:"emailEnabled"`
}

// Default returns the static snapshot used before any fetch succeeds and after
// a fetch fails.
func Default() PublicSettings {
	return PublicSettings{
		Initialized:            false,
		ApplicationTitle:       "Overseerr",
		ApplicationURL:         "",
		HideAvailable:          false,
		LocalLogin:             true,
		Movie4KEnabled:         false,
		Series4KEnabled:        false,
		Region:                 "",
		OriginalLanguage:       "",
		MediaServerType:        mediaserver.TypeNotConfigured,
		PartialRequestsEnabled: true,
		CacheImages:            false,
		VapidPublic:            "",
		EnablePushRegistration: false,
		Locale:                 "en",
		EmailEnabled:           false,
	}
}
