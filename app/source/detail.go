package source

// VersionPageSize is how many versions each "show more" step reveals.
const VersionPageSize = 3

// VersionPager tracks how much of an app's version history is visible.
// Every opened detail view gets a fresh pager, so state never leaks
// between apps.
type VersionPager struct {
	Total int
	Shown int
}

func NewVersionPager(total int) VersionPager {
	return VersionPager{
		Total: total,
		Shown: min(VersionPageSize, total),
	}
}

// WithShown clamps an externally supplied count (e.g. a query
// parameter) into the pager's valid range, keeping it aligned to what
// the show-more steps could have produced.
func (p VersionPager) WithShown(shown int) VersionPager {
	if shown < VersionPageSize {
		shown = min(VersionPageSize, p.Total)
	}
	if shown > p.Total {
		shown = p.Total
	}
	p.Shown = shown
	return p
}

// ShowMore reveals the next page. The control is hidden once HasMore
// reports false.
func (p VersionPager) ShowMore() VersionPager {
	p.Shown = min(p.Shown+VersionPageSize, p.Total)
	return p
}

// ShowLess collapses back to the first page.
func (p VersionPager) ShowLess() VersionPager {
	p.Shown = min(VersionPageSize, p.Total)
	return p
}

func (p VersionPager) HasMore() bool {
	return p.Shown < p.Total
}

// ShowControls reports whether pagination controls appear at all; an
// app whose history fits in one page gets none.
func (p VersionPager) ShowControls() bool {
	return p.Total > VersionPageSize
}

// VersionEntry is one rendered row of the version history.
type VersionEntry struct {
	Label         string `json:"label"`
	FormattedDate string `json:"formattedDate"`
	FormattedSize string `json:"formattedSize"`
	Changelog     string `json:"changelog,omitempty"`
	MinOSVersion  string `json:"minOSVersion,omitempty"`
	DownloadURL   string `json:"downloadURL,omitempty"`
}

// DetailView is the expanded projection of one app.
type DetailView struct {
	BundleIdentifier string           `json:"bundleIdentifier"`
	Name             string           `json:"name"`
	DeveloperName    string           `json:"developerName"`
	Subtitle         string           `json:"subtitle"`
	Description      string           `json:"description,omitempty"`
	TintColor        string           `json:"tintColor"`
	IconURL          string           `json:"iconURL,omitempty"`
	Monogram         string           `json:"monogram,omitempty"`
	ScreenshotURLs   []string         `json:"screenshotURLs,omitempty"`
	Versions         []VersionEntry   `json:"versions"`
	TotalVersions    int              `json:"totalVersions"`
	ShownVersions    int              `json:"shownVersions"`
	HasMoreVersions  bool             `json:"hasMoreVersions"`
	ShowPagination   bool             `json:"showPagination"`
	Permissions      *PermissionsView `json:"permissions,omitempty"`
}

// NewDetailView projects an app into its detail form, showing the
// first `shown` versions. Pass 0 for a freshly opened (collapsed)
// view.
func NewDetailView(app AppRecord, shown int) DetailView {
	pager := NewVersionPager(len(app.Versions)).WithShown(shown)

	view := DetailView{
		BundleIdentifier: app.BundleIdentifier,
		Name:             app.Name,
		DeveloperName:    app.DeveloperName,
		Subtitle:         subtitleFor(app),
		Description:      app.LocalizedDescription,
		TintColor:        ColorFor(app.TintColor),
		ScreenshotURLs:   app.ScreenshotURLs,
		TotalVersions:    pager.Total,
		ShownVersions:    pager.Shown,
		HasMoreVersions:  pager.HasMore(),
		ShowPagination:   pager.ShowControls(),
		Permissions:      NewPermissionsView(app.AppPermissions),
	}

	if app.IconURL != "" {
		view.IconURL = app.IconURL
	} else {
		view.Monogram = monogramFor(app.Name)
	}

	view.Versions = make([]VersionEntry, 0, pager.Shown)
	for i := 0; i < pager.Shown; i++ {
		view.Versions = append(view.Versions, newVersionEntry(app.Versions[i], i == 0))
	}

	return view
}

func newVersionEntry(v VersionRecord, latest bool) VersionEntry {
	label := "Version " + v.Version
	if latest {
		label += " (Latest)"
	}

	return VersionEntry{
		Label:         label,
		FormattedDate: FormatDate(v.Date),
		FormattedSize: FormatBytes(v.Size),
		Changelog:     v.LocalizedDescription,
		MinOSVersion:  v.MinOSVersion,
		DownloadURL:   v.DownloadURL,
	}
}
