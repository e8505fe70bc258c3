package source

import (
	"strings"
	"testing"
)

func testFeed() *Feed {
	return &Feed{
		Name: "Test Source",
		Apps: []AppRecord{
			{
				BundleIdentifier:     "com.example.notes",
				Name:                 "Notes",
				DeveloperName:        "Alice",
				Subtitle:             "Quick scribbles",
				LocalizedDescription: "A minimal note taking app",
				IconURL:              "https://example.com/notes.png",
				Versions: []VersionRecord{
					{Version: "2.0", Date: "2024-01-05", Size: 1536},
				},
			},
			{
				BundleIdentifier:     "com.example.player",
				Name:                 "Player",
				DeveloperName:        "Bob",
				LocalizedDescription: "Media playback with EQUALIZER support",
				Versions: []VersionRecord{
					{Version: "1.1", Date: "2023-11-20", Size: 1048576},
				},
			},
		},
		News: []NewsRecord{
			{Title: "Notes 2.0 released", Date: "2024-01-05", AppID: "com.example.notes"},
			{Title: "Player update", Date: "2023-11-20", AppID: "com.example.player"},
			{Title: "Welcome", Date: "2023-01-01"},
			{Title: "Notes roadmap", Date: "2024-02-01", AppID: "com.example.notes"},
			{Title: "Removed app notice", Date: "2023-06-15", AppID: "com.gone.app"},
		},
	}
}

func TestCatalogFindByIdentifier(t *testing.T) {
	catalog := NewCatalog(testFeed())

	app, ok := catalog.FindByIdentifier("com.example.notes")
	if !ok {
		t.Fatal("Expected to find com.example.notes")
	}
	if app.Name != "Notes" {
		t.Errorf("Expected app name 'Notes', got %q", app.Name)
	}

	// A miss is a benign no-op, never an error
	if _, ok := catalog.FindByIdentifier("com.missing.app"); ok {
		t.Error("Expected lookup miss for unknown identifier")
	}
}

func TestCatalogSearchBlankQueryReturnsAll(t *testing.T) {
	catalog := NewCatalog(testFeed())

	for _, query := range []string{"", "   "} {
		result := catalog.Search(query)
		if len(result) != 2 {
			t.Fatalf("Search(%q): expected full catalog of 2 apps, got %d", query, len(result))
		}
		// Original feed order preserved
		if result[0].BundleIdentifier != "com.example.notes" || result[1].BundleIdentifier != "com.example.player" {
			t.Errorf("Search(%q) should preserve feed order", query)
		}
	}
}

func TestCatalogSearchCaseInsensitive(t *testing.T) {
	catalog := NewCatalog(testFeed())

	cases := []struct {
		query    string
		expected []string
	}{
		{"notes", []string{"com.example.notes"}},
		{"NOTES", []string{"com.example.notes"}},
		{"alice", []string{"com.example.notes"}},
		{"equalizer", []string{"com.example.player"}},
		{"scribbles", []string{"com.example.notes"}},
		{"example", nil}, // not part of any searched field
	}

	for _, c := range cases {
		result := catalog.Search(c.query)
		if len(result) != len(c.expected) {
			t.Errorf("Search(%q): expected %d results, got %d", c.query, len(c.expected), len(result))
			continue
		}
		for i, id := range c.expected {
			if result[i].BundleIdentifier != id {
				t.Errorf("Search(%q)[%d]: expected %s, got %s", c.query, i, id, result[i].BundleIdentifier)
			}
		}
	}
}

func TestCatalogSearchSoundAndComplete(t *testing.T) {
	catalog := NewCatalog(testFeed())
	query := "a"

	result := catalog.Search(query)
	matches := func(app AppRecord) bool {
		for _, field := range []string{app.Name, app.DeveloperName, app.Subtitle, app.LocalizedDescription} {
			if strings.Contains(strings.ToLower(field), query) {
				return true
			}
		}
		return false
	}

	// Soundness: every result satisfies the predicate
	for _, app := range result {
		if !matches(app) {
			t.Errorf("Result %s does not match query %q", app.BundleIdentifier, query)
		}
	}

	// Completeness: every satisfying app appears in the result
	found := map[string]bool{}
	for _, app := range result {
		found[app.BundleIdentifier] = true
	}
	for _, app := range catalog.Apps() {
		if matches(app) && !found[app.BundleIdentifier] {
			t.Errorf("App %s matches query %q but is missing from results", app.BundleIdentifier, query)
		}
	}
}

func TestCatalogNewsEnrichment(t *testing.T) {
	catalog := NewCatalog(testFeed())
	news := catalog.News()

	if len(news) != 5 {
		t.Fatalf("Expected 5 news items, got %d", len(news))
	}

	// Linked item resolves to the app's name and icon
	if news[0].FilterGroup != "Notes" {
		t.Errorf("Expected filter group 'Notes', got %q", news[0].FilterGroup)
	}
	if news[0].AppName != "Notes" {
		t.Errorf("Expected app name 'Notes', got %q", news[0].AppName)
	}
	if news[0].AppIconURL != "https://example.com/notes.png" {
		t.Errorf("Expected app icon URL, got %q", news[0].AppIconURL)
	}

	// Unlinked item falls into the General group
	if news[2].FilterGroup != GeneralFilterGroup {
		t.Errorf("Expected filter group %q, got %q", GeneralFilterGroup, news[2].FilterGroup)
	}

	// Dangling appID keeps the raw identifier as its group
	if news[4].FilterGroup != "com.gone.app" {
		t.Errorf("Expected filter group 'com.gone.app', got %q", news[4].FilterGroup)
	}

	for i, item := range news {
		if item.Identifier == "" {
			t.Errorf("News item %d should have a derived identifier", i)
		}
	}
}

func TestCatalogFilterGroups(t *testing.T) {
	catalog := NewCatalog(testFeed())
	groups := catalog.FilterGroups()

	expected := []string{AllFilterKey, "Notes", "Player", GeneralFilterGroup, "com.gone.app"}
	if len(groups) != len(expected) {
		t.Fatalf("Expected %d filter groups, got %d", len(expected), len(groups))
	}
	for i, key := range expected {
		if groups[i].Key != key {
			t.Errorf("Filter group %d: expected key %q, got %q", i, key, groups[i].Key)
		}
	}
}

func TestCatalogFilterNews(t *testing.T) {
	catalog := NewCatalog(testFeed())

	all := catalog.FilterNews(AllFilterKey)
	if len(all) != 5 {
		t.Fatalf("Expected 5 items for 'all' filter, got %d", len(all))
	}
	// Sorted by date descending on every call
	for i := 1; i < len(all); i++ {
		prev, _ := ParseDate(all[i-1].Date)
		cur, _ := ParseDate(all[i].Date)
		if cur.After(prev) {
			t.Errorf("News not sorted by date descending at index %d", i)
		}
	}
	if all[0].Title != "Notes roadmap" {
		t.Errorf("Expected newest item first, got %q", all[0].Title)
	}

	notes := catalog.FilterNews("Notes")
	if len(notes) != 2 {
		t.Fatalf("Expected 2 items for 'Notes' filter, got %d", len(notes))
	}
	for _, item := range notes {
		if item.FilterGroup != "Notes" {
			t.Errorf("Filtered item %q has group %q", item.Title, item.FilterGroup)
		}
	}
	if notes[0].Title != "Notes roadmap" || notes[1].Title != "Notes 2.0 released" {
		t.Errorf("Filtered items not sorted by date descending: %q, %q", notes[0].Title, notes[1].Title)
	}
}

func TestCatalogFilterNewsStableForEqualDates(t *testing.T) {
	feed := &Feed{
		News: []NewsRecord{
			{Title: "first", Date: "2024-01-01"},
			{Title: "second", Date: "2024-01-01"},
			{Title: "third", Date: "2024-01-01"},
		},
	}
	catalog := NewCatalog(feed)

	items := catalog.FilterNews(AllFilterKey)
	if items[0].Title != "first" || items[1].Title != "second" || items[2].Title != "third" {
		t.Errorf("Equal dates must keep original feed order, got %q %q %q",
			items[0].Title, items[1].Title, items[2].Title)
	}
}
