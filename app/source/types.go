package source

// Wire types for AltStore-style app source feeds.

type Feed struct {
	Name        string       `json:"name"`
	Subtitle    string       `json:"subtitle,omitempty"`
	Description string       `json:"description,omitempty"`
	IconURL     string       `json:"iconURL,omitempty"`
	Website     string       `json:"website,omitempty"`
	TintColor   string       `json:"tintColor,omitempty"`
	Apps        []AppRecord  `json:"apps"`
	News        []NewsRecord `json:"news,omitempty"`
}

type AppRecord struct {
	BundleIdentifier     string          `json:"bundleIdentifier"`
	Name                 string          `json:"name"`
	DeveloperName        string          `json:"developerName"`
	Subtitle             string          `json:"subtitle,omitempty"`
	LocalizedDescription string          `json:"localizedDescription,omitempty"`
	IconURL              string          `json:"iconURL,omitempty"`
	TintColor            string          `json:"tintColor,omitempty"`
	ScreenshotURLs       []string        `json:"screenshotURLs,omitempty"`
	Versions             []VersionRecord `json:"versions"`
	AppPermissions       *AppPermissions `json:"appPermissions,omitempty"`
}

// VersionRecord describes one released build. The feed guarantees
// newest-first ordering; index 0 is the authoritative latest version
// and must never be re-sorted.
type VersionRecord struct {
	Version              string `json:"version"`
	Date                 string `json:"date"`
	Size                 int64  `json:"size"`
	DownloadURL          string `json:"downloadURL,omitempty"`
	LocalizedDescription string `json:"localizedDescription,omitempty"`
	MinOSVersion         string `json:"minOSVersion,omitempty"`
}

type AppPermissions struct {
	Privacy      map[string]string `json:"privacy,omitempty"`
	Entitlements []string          `json:"entitlements,omitempty"`
}

type NewsRecord struct {
	Title     string `json:"title"`
	Date      string `json:"date"`
	Caption   string `json:"caption,omitempty"`
	ImageURL  string `json:"imageURL,omitempty"`
	URL       string `json:"url,omitempty"`
	TintColor string `json:"tintColor,omitempty"`
	AppID     string `json:"appID,omitempty"`

	// Derived at catalog build time, fixed for the session.
	Identifier  string `json:"identifier"`
	AppName     string `json:"appName,omitempty"`
	AppIconURL  string `json:"appIconURL,omitempty"`
	FilterGroup string `json:"filterGroup"`
}

// FilterGroup is one selectable news filter chip.
type FilterGroup struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// LatestVersion returns the newest version of an app, nil when the
// feed carries none.
func (a *AppRecord) LatestVersion() *VersionRecord {
	if len(a.Versions) == 0 {
		return nil
	}
	return &a.Versions[0]
}
