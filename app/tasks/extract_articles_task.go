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

const extractionBatchSize = 10

// ExtractArticlesTask fetches the web pages linked from a source's
// news items and stores their readable content. Per-item failures are
// recorded against the item and never fail the batch.
type ExtractArticlesTask struct {
	Task
	Config     *source.Config
	httpClient *http.Client
	extractor  *source.ArticleExtractor
	newsRepo   database.NewsRepository
	userAgent  string
}

func NewExtractArticlesTask(sourceName string, config *source.Config, httpClient *http.Client,
	extractor *source.ArticleExtractor, newsRepo database.NewsRepository, userAgent string) *ExtractArticlesTask {
	return &ExtractArticlesTask{
		Task:       NewTask(TaskTypeExtractArticles, sourceName),
		Config:     config,
		httpClient: httpClient,
		extractor:  extractor,
		newsRepo:   newsRepo,
		userAgent:  userAgent,
	}
}

func (t *ExtractArticlesTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	refs, err := t.newsRepo.GetItemsForExtraction(t.SourceName, extractionBatchSize)
	if err != nil {
		return fmt.Errorf("failed to get items for extraction: %w", err)
	}

	if len(refs) == 0 {
		return nil
	}

	succeeded := 0
	failed := 0

	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return err
		}

		now := time.Now().UTC()
		content, err := t.extractArticle(ctx, ref.URL)
		if err != nil {
			failed++
			slog.Warn("Article extraction failed", "source", t.SourceName, "url", ref.URL, "error", err)
			if updateErr := t.newsRepo.UpdateArticle(ref.ID, "", database.ArticleStatusFailed, &now, err.Error()); updateErr != nil {
				return fmt.Errorf("failed to record extraction failure: %w", updateErr)
			}
			continue
		}

		if err := t.newsRepo.UpdateArticle(ref.ID, content, database.ArticleStatusSuccess, &now, ""); err != nil {
			return fmt.Errorf("failed to store extracted article: %w", err)
		}
		succeeded++
	}

	slog.Info("Task completed",
		"type", "ExtractArticles",
		"source", t.SourceName,
		"duration", t.GetDuration(),
		"extracted", succeeded,
		"failed", failed)

	return nil
}

func (t *ExtractArticlesTask) extractArticle(ctx context.Context, url string) (string, error) {
	timeout := time.Duration(t.Config.Settings.Timeout) * time.Second
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch article: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	return t.extractor.Run(data)
}
