package database

import (
	"time"

	"github.com/sidehub/sidehub/app/source"
)

type SourceRepository interface {
	GetSource(sourceName string) (*Source, error)
	GetSourceCount() (int, error)
	ListSources() ([]Source, error)

	UpsertSource(sourceName, url string) error
	UpdateSourceMetadata(sourceName string, feed *source.Feed, nextFetch time.Time) error
}

type AppRepository interface {
	GetApps(sourceName string) ([]source.AppRecord, error)
	GetAppCount(sourceName string) (int, error)

	ReplaceApps(sourceName string, apps []source.AppRecord) error
}

type NewsRepository interface {
	GetNews(sourceName string) ([]source.NewsRecord, error)
	GetNewsCount(sourceName string) (int, error)

	ReplaceNews(sourceName string, items []source.NewsRecord) error

	GetItemsForExtraction(sourceName string, limit int) ([]NewsArticleRef, error)
	UpdateArticle(id int64, content string, status string, extractedAt *time.Time, errorMsg string) error
	GetArticle(sourceName, identifier string) (*Article, error)
}

type PreferenceRepository interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}
