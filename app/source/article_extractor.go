package source

import (
	"fmt"
	"log/slog"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

// ArticleExtractor pulls readable content out of the web page a news
// item links to.
type ArticleExtractor struct{}

func NewArticleExtractor() *ArticleExtractor {
	return &ArticleExtractor{}
}

func (e *ArticleExtractor) Run(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("HTML data is empty")
	}

	article, err := readability.FromReader(strings.NewReader(string(data)), nil)
	if err != nil {
		return "", fmt.Errorf("failed to extract content: %w", err)
	}

	if article.Content == "" {
		return "", fmt.Errorf("no content extracted from HTML data")
	}

	slog.Debug("Article content extracted",
		"title", article.Title,
		"content_length", len(article.Content))

	return article.Content, nil
}
