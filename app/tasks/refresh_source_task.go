package tasks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sidehub/sidehub/app/database"
	"github.com/sidehub/sidehub/app/source"
)

// RefreshSourceTask fetches a source's apps.json, merges its optional
// external news feed, persists the snapshot, and swaps the in-memory
// catalog. A failed fetch leaves the previous catalog untouched; a
// partial catalog is never published.
type RefreshSourceTask struct {
	Task
	Config       *source.Config
	httpClient   *http.Client
	loader       *source.Loader
	newsParser   *source.NewsParser
	sourceRepo   database.SourceRepository
	appRepo      database.AppRepository
	newsRepo     database.NewsRepository
	catalogCache *source.CatalogCache
	userAgent    string
}

func NewRefreshSourceTask(sourceName string, config *source.Config, httpClient *http.Client,
	loader *source.Loader, newsParser *source.NewsParser, sourceRepo database.SourceRepository,
	appRepo database.AppRepository, newsRepo database.NewsRepository,
	catalogCache *source.CatalogCache, userAgent string) *RefreshSourceTask {
	return &RefreshSourceTask{
		Task:         NewTask(TaskTypeRefreshSource, sourceName),
		Config:       config,
		httpClient:   httpClient,
		loader:       loader,
		newsParser:   newsParser,
		sourceRepo:   sourceRepo,
		appRepo:      appRepo,
		newsRepo:     newsRepo,
		catalogCache: catalogCache,
		userAgent:    userAgent,
	}
}

func (t *RefreshSourceTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.Config.Settings.Enabled {
		slog.Debug("Source disabled, skipping", "source", t.SourceName)
		return nil
	}

	timeout := time.Duration(t.Config.Settings.Timeout) * time.Second

	feed, err := t.loader.Load(ctx, t.Config.URL, timeout)
	if err != nil {
		return fmt.Errorf("failed to load source: %w", err)
	}

	mergedNews := 0
	if t.Config.NewsFeed != "" {
		items, err := t.fetchExternalNews(ctx, timeout)
		if err != nil {
			// External news is a supplement; its failure must not block
			// the catalog refresh.
			slog.Warn("Failed to fetch external news feed", "source", t.SourceName, "url", t.Config.NewsFeed, "error", err)
		} else {
			feed.News = append(feed.News, items...)
			mergedNews = len(items)
		}
	}

	catalog := source.NewCatalog(feed)

	if err := t.persistSnapshot(feed, catalog); err != nil {
		return err
	}

	t.catalogCache.Set(t.SourceName, catalog)

	slog.Info("Task completed",
		"type", "RefreshSource",
		"source", t.SourceName,
		"duration", t.GetDuration(),
		"apps", len(feed.Apps),
		"news", len(catalog.News()),
		"merged_news", mergedNews)

	return nil
}

func (t *RefreshSourceTask) fetchExternalNews(ctx context.Context, timeout time.Duration) ([]source.NewsRecord, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", t.Config.NewsFeed, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch news feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return t.newsParser.Run(data)
}

func (t *RefreshSourceTask) persistSnapshot(feed *source.Feed, catalog *source.Catalog) error {
	nextFetch := time.Now().UTC().Add(time.Duration(t.Config.Settings.RefreshInterval) * time.Second)

	if err := t.sourceRepo.UpdateSourceMetadata(t.SourceName, feed, nextFetch); err != nil {
		return fmt.Errorf("failed to store source metadata: %w", err)
	}
	if err := t.appRepo.ReplaceApps(t.SourceName, feed.Apps); err != nil {
		return fmt.Errorf("failed to store apps: %w", err)
	}
	// Enriched news carries the derived identifiers the article store
	// is keyed by.
	if err := t.newsRepo.ReplaceNews(t.SourceName, catalog.News()); err != nil {
		return fmt.Errorf("failed to store news: %w", err)
	}
	return nil
}
