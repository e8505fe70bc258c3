package source

import (
	"net/url"
	"strings"
)

// Installer describes one sideloading app that can consume a source
// URL through its custom URI scheme. The emitted URI shapes are a
// fixed output contract with third-party apps; changing them breaks
// existing installers.
type Installer struct {
	Name     string
	Icon     string
	template string // {url} = percent-encoded source URL, {raw} = source URL verbatim
}

// InstallLink is one "open in installer" deep link.
type InstallLink struct {
	Name string `json:"name"`
	Icon string `json:"icon"`
	URL  string `json:"url"`
}

var installers = []Installer{
	{Name: "AltStore", Icon: "altstore", template: "altstore://source?url={url}"},
	{Name: "SideStore", Icon: "sidestore", template: "sidestore://source?url={url}"},
	{Name: "TrollApps", Icon: "trollapps", template: "trollapps://add?url={url}"},
	{Name: "Feather", Icon: "feather", template: "feather://source/{raw}"},
	{Name: "ESign", Icon: "esign", template: "esign://addsource?url={url}"},
}

// InstallLinks emits one deep link per supported installer for the
// given source feed URL.
func InstallLinks(feedURL string) []InstallLink {
	links := make([]InstallLink, 0, len(installers))
	for _, installer := range installers {
		uri := installer.template
		uri = strings.ReplaceAll(uri, "{url}", url.QueryEscape(feedURL))
		uri = strings.ReplaceAll(uri, "{raw}", feedURL)

		links = append(links, InstallLink{
			Name: installer.Name,
			Icon: installer.Icon,
			URL:  uri,
		})
	}
	return links
}
