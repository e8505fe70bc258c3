package source

// CardView is the summary projection of one app, as shown on the
// catalog grid.
type CardView struct {
	BundleIdentifier string `json:"bundleIdentifier"`
	Name             string `json:"name"`
	DeveloperName    string `json:"developerName"`
	Subtitle         string `json:"subtitle"`
	VersionBadge     string `json:"versionBadge,omitempty"`
	FormattedSize    string `json:"formattedSize,omitempty"`
	FormattedDate    string `json:"formattedDate,omitempty"`
	TintColor        string `json:"tintColor"`
	IconURL          string `json:"iconURL,omitempty"`
	Monogram         string `json:"monogram,omitempty"`
}

const subtitleFallbackLimit = 100

// NewCardView projects an app record into its card form. Pure and
// stable: identical input always yields the identical view.
func NewCardView(app AppRecord) CardView {
	card := CardView{
		BundleIdentifier: app.BundleIdentifier,
		Name:             app.Name,
		DeveloperName:    app.DeveloperName,
		Subtitle:         subtitleFor(app),
		TintColor:        ColorFor(app.TintColor),
	}

	if latest := app.LatestVersion(); latest != nil {
		card.VersionBadge = latest.Version
		card.FormattedSize = FormatBytes(latest.Size)
		card.FormattedDate = FormatDate(latest.Date)
	}

	if app.IconURL != "" {
		card.IconURL = app.IconURL
	} else {
		card.Monogram = monogramFor(app.Name)
	}

	return card
}

func subtitleFor(app AppRecord) string {
	if app.Subtitle != "" {
		return app.Subtitle
	}
	runes := []rune(app.LocalizedDescription)
	if len(runes) > subtitleFallbackLimit {
		return string(runes[:subtitleFallbackLimit])
	}
	return app.LocalizedDescription
}

func monogramFor(name string) string {
	for _, r := range name {
		return string(r)
	}
	return ""
}
