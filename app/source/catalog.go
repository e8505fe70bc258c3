package source

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// GeneralFilterGroup is the bucket for news items with no app link.
const GeneralFilterGroup = "General"

// AllFilterKey selects every news item regardless of group.
const AllFilterKey = "all"

// Catalog is an immutable index over one loaded source feed. It is
// built once per refresh and never mutated afterwards; all queries are
// read-only projections.
type Catalog struct {
	feed      *Feed
	byID      map[string]*AppRecord
	haystacks []string
	news      []NewsRecord
}

var folder = cases.Fold()

// NewCatalog indexes a loaded feed: identifier lookups, folded search
// haystacks, and news enrichment (app cross-references and filter
// groups) are all computed here, once.
func NewCatalog(feed *Feed) *Catalog {
	c := &Catalog{
		feed:      feed,
		byID:      make(map[string]*AppRecord, len(feed.Apps)),
		haystacks: make([]string, len(feed.Apps)),
	}

	for i := range feed.Apps {
		app := &feed.Apps[i]
		c.byID[app.BundleIdentifier] = app
		c.haystacks[i] = folder.String(strings.Join([]string{
			app.Name,
			app.DeveloperName,
			app.Subtitle,
			app.LocalizedDescription,
		}, "\n"))
	}

	c.news = make([]NewsRecord, len(feed.News))
	for i, item := range feed.News {
		c.news[i] = c.enrichNewsItem(item)
	}

	return c
}

// Apps returns every app in original feed order.
func (c *Catalog) Apps() []AppRecord {
	return c.feed.Apps
}

// Name returns the feed's display name.
func (c *Catalog) Name() string {
	return c.feed.Name
}

// Feed returns the underlying feed document.
func (c *Catalog) Feed() *Feed {
	return c.feed
}

// FindByIdentifier resolves a bundle identifier. A miss is a benign
// no-op for callers, not an error.
func (c *Catalog) FindByIdentifier(id string) (*AppRecord, bool) {
	app, ok := c.byID[id]
	return app, ok
}

// Search returns apps whose name, developer, subtitle or description
// contains the query, case-insensitively. A blank query returns the
// full catalog. Matches preserve original feed order; there is no
// relevance ranking.
func (c *Catalog) Search(query string) []AppRecord {
	if strings.TrimSpace(query) == "" {
		return c.feed.Apps
	}

	needle := folder.String(query)
	matched := make([]AppRecord, 0, len(c.feed.Apps))
	for i, app := range c.feed.Apps {
		if strings.Contains(c.haystacks[i], needle) {
			matched = append(matched, app)
		}
	}
	return matched
}

// News returns the enriched news items in original feed order.
func (c *Catalog) News() []NewsRecord {
	return c.news
}

// FilterGroups returns the selectable news filter chips: the "all"
// pseudo-group first, then each distinct group in first-seen order.
func (c *Catalog) FilterGroups() []FilterGroup {
	groups := []FilterGroup{{Key: AllFilterKey, Label: "All"}}
	seen := map[string]bool{}

	for _, item := range c.news {
		if seen[item.FilterGroup] {
			continue
		}
		seen[item.FilterGroup] = true
		groups = append(groups, FilterGroup{Key: item.FilterGroup, Label: item.FilterGroup})
	}

	return groups
}

// FilterNews returns news items matching the filter key ("all" or an
// exact filter group), re-sorted by date descending. Items sharing a
// date keep their original feed order; the sort is recomputed on every
// call rather than stored.
func (c *Catalog) FilterNews(filter string) []NewsRecord {
	items := make([]NewsRecord, 0, len(c.news))
	for _, item := range c.news {
		if filter == AllFilterKey || filter == "" || item.FilterGroup == filter {
			items = append(items, item)
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		di, _ := ParseDate(items[i].Date)
		dj, _ := ParseDate(items[j].Date)
		return di.After(dj)
	})

	return items
}

func (c *Catalog) enrichNewsItem(item NewsRecord) NewsRecord {
	item.Identifier = newsIdentifier(item)

	switch {
	case item.AppID == "":
		item.FilterGroup = GeneralFilterGroup
	default:
		if app, ok := c.byID[item.AppID]; ok {
			item.AppName = app.Name
			item.AppIconURL = app.IconURL
			item.FilterGroup = app.Name
		} else {
			item.FilterGroup = item.AppID
		}
	}

	return item
}

func newsIdentifier(item NewsRecord) string {
	content := fmt.Sprintf("%s|%s|%s", item.Title, item.URL, item.Date)
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}
