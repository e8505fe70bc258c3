package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sidehub/sidehub/app/source"
)

var _ NewsRepository = (*NewsRepositoryImpl)(nil)

type NewsRepositoryImpl struct {
	db *DB
}

func NewNewsRepository(db *DB) *NewsRepositoryImpl {
	return &NewsRepositoryImpl{db: db}
}

// ReplaceNews stores the news of a fetched snapshot. Items are keyed
// by their derived identifier so already-extracted article content
// survives a refresh; items that left the feed are removed.
func (r *NewsRepositoryImpl) ReplaceNews(sourceName string, items []source.NewsRecord) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO news_items (
			source_name, identifier, position, title, date, caption,
			image_url, url, tint_color, app_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (source_name, identifier) DO UPDATE SET
			position = excluded.position,
			title = excluded.title,
			date = excluded.date,
			caption = excluded.caption,
			image_url = excluded.image_url,
			url = excluded.url,
			tint_color = excluded.tint_color,
			app_id = excluded.app_id
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	identifiers := make([]string, 0, len(items))
	for i, item := range items {
		_, err := stmt.Exec(sourceName, item.Identifier, i, item.Title,
			item.Date, item.Caption, item.ImageURL, item.URL,
			item.TintColor, item.AppID)
		if err != nil {
			return fmt.Errorf("failed to upsert news item: %w", err)
		}
		identifiers = append(identifiers, item.Identifier)
	}

	if err := deleteStaleNews(tx, sourceName, identifiers); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

func deleteStaleNews(tx *sql.Tx, sourceName string, identifiers []string) error {
	if len(identifiers) == 0 {
		if _, err := tx.Exec(`DELETE FROM news_items WHERE source_name = ?`, sourceName); err != nil {
			return fmt.Errorf("failed to clear news: %w", err)
		}
		return nil
	}

	placeholders := strings.Repeat("?,", len(identifiers))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, 0, len(identifiers)+1)
	args = append(args, sourceName)
	for _, id := range identifiers {
		args = append(args, id)
	}

	query := fmt.Sprintf(`DELETE FROM news_items WHERE source_name = ? AND identifier NOT IN (%s)`, placeholders)
	if _, err := tx.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to delete stale news: %w", err)
	}
	return nil
}

// GetNews returns the stored news items in original feed order.
func (r *NewsRepositoryImpl) GetNews(sourceName string) ([]source.NewsRecord, error) {
	rows, err := r.db.Query(`
		SELECT identifier, title, date, caption, image_url, url, tint_color, app_id
		FROM news_items
		WHERE source_name = ?
		ORDER BY position
	`, sourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to query news: %w", err)
	}
	defer rows.Close()

	var items []source.NewsRecord
	for rows.Next() {
		var item source.NewsRecord
		err := rows.Scan(&item.Identifier, &item.Title, &item.Date,
			&item.Caption, &item.ImageURL, &item.URL, &item.TintColor,
			&item.AppID)
		if err != nil {
			return nil, fmt.Errorf("failed to scan news item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *NewsRepositoryImpl) GetNewsCount(sourceName string) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM news_items WHERE source_name = ?`, sourceName).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count news: %w", err)
	}
	return count, nil
}

// GetItemsForExtraction returns linked news items whose article
// content has not been fetched yet.
func (r *NewsRepositoryImpl) GetItemsForExtraction(sourceName string, limit int) ([]NewsArticleRef, error) {
	rows, err := r.db.Query(`
		SELECT id, url
		FROM news_items
		WHERE source_name = ? AND url != '' AND article_status = ?
		ORDER BY position
		LIMIT ?
	`, sourceName, ArticleStatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query items for extraction: %w", err)
	}
	defer rows.Close()

	var refs []NewsArticleRef
	for rows.Next() {
		var ref NewsArticleRef
		if err := rows.Scan(&ref.ID, &ref.URL); err != nil {
			return nil, fmt.Errorf("failed to scan extraction ref: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func (r *NewsRepositoryImpl) UpdateArticle(id int64, content string, status string, extractedAt *time.Time, errorMsg string) error {
	_, err := r.db.Exec(`
		UPDATE news_items
		SET article_content = ?, article_status = ?, article_extracted_at = ?, article_error = ?
		WHERE id = ?
	`, content, status, extractedAt, errorMsg, id)

	if err != nil {
		return fmt.Errorf("failed to update article: %w", err)
	}
	return nil
}

func (r *NewsRepositoryImpl) GetArticle(sourceName, identifier string) (*Article, error) {
	row := r.db.QueryRow(`
		SELECT identifier, article_content, article_status, article_error, article_extracted_at
		FROM news_items
		WHERE source_name = ? AND identifier = ?
	`, sourceName, identifier)

	var article Article
	var extractedAt sql.NullTime
	err := row.Scan(&article.Identifier, &article.Content, &article.Status,
		&article.Error, &extractedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get article: %w", err)
	}

	if extractedAt.Valid {
		article.ExtractedAt = &extractedAt.Time
	}
	return &article, nil
}
