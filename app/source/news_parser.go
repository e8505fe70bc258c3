package source

import (
	"bytes"
	"cmp"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// NewsParser normalizes an external RSS/Atom feed into news records,
// so a source can publish announcements from a regular blog feed next
// to the news carried in its apps.json.
type NewsParser struct {
	gofeedParser *gofeed.Parser
}

func NewNewsParser() *NewsParser {
	return &NewsParser{
		gofeedParser: gofeed.NewParser(),
	}
}

const newsCaptionLimit = 200

func (p *NewsParser) Run(data []byte) ([]NewsRecord, error) {
	feed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse news feed: %w", err)
	}

	items := make([]NewsRecord, 0, len(feed.Items))
	for _, item := range feed.Items {
		items = append(items, p.normalizeItem(item))
	}

	return items, nil
}

func (p *NewsParser) normalizeItem(item *gofeed.Item) NewsRecord {
	record := NewsRecord{
		Title:   item.Title,
		URL:     item.Link,
		Caption: normalizeCaption(cmp.Or(item.Description, item.Content)),
	}

	if item.PublishedParsed != nil {
		record.Date = item.PublishedParsed.UTC().Format(time.RFC3339)
	} else if item.UpdatedParsed != nil {
		record.Date = item.UpdatedParsed.UTC().Format(time.RFC3339)
	}

	if item.Image != nil {
		record.ImageURL = item.Image.URL
	}

	return record
}

func normalizeCaption(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) > newsCaptionLimit {
		return string(runes[:newsCaptionLimit])
	}
	return s
}
