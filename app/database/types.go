package database

import (
	"time"
)

// Source is the database record for one configured app source.
type Source struct {
	Name          string // Configuration source identifier derived from filename
	URL           string // apps.json URL from configuration
	Title         string // Feed's own display name
	Subtitle      string
	IconURL       string
	TintColor     string
	LastFetchedAt *time.Time
	NextFetchAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time // Tracks last successful processing
}

// Article is the extracted readable content for one linked news item.
type Article struct {
	Identifier  string
	Content     string
	Status      string // pending, success, failed, skipped
	Error       string
	ExtractedAt *time.Time
}

// NewsArticleRef identifies a news item pending article extraction.
type NewsArticleRef struct {
	ID  int64
	URL string
}

const (
	ArticleStatusPending = "pending"
	ArticleStatusSuccess = "success"
	ArticleStatusFailed  = "failed"
	ArticleStatusSkipped = "skipped"
)
