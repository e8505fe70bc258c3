package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/sidehub/sidehub/app/source"
)

var _ SourceRepository = (*SourceRepositoryImpl)(nil)

type SourceRepositoryImpl struct {
	db *DB
}

func NewSourceRepository(db *DB) *SourceRepositoryImpl {
	return &SourceRepositoryImpl{db: db}
}

// UpsertSource registers a configured source, updating the URL when
// the configuration changed.
func (r *SourceRepositoryImpl) UpsertSource(sourceName, url string) error {
	_, err := r.db.Exec(`
		INSERT INTO sources (name, url)
		VALUES (?, ?)
		ON CONFLICT (name) DO UPDATE SET
			url = excluded.url,
			updated_at = CURRENT_TIMESTAMP
	`, sourceName, url)

	if err != nil {
		return fmt.Errorf("failed to upsert source: %w", err)
	}
	return nil
}

// UpdateSourceMetadata records feed-level display fields and the next
// fetch time after a successful refresh.
func (r *SourceRepositoryImpl) UpdateSourceMetadata(sourceName string, feed *source.Feed, nextFetch time.Time) error {
	_, err := r.db.Exec(`
		UPDATE sources
		SET title = ?, subtitle = ?, icon_url = ?, tint_color = ?,
			last_fetched_at = CURRENT_TIMESTAMP,
			next_fetch_at = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE name = ?
	`, feed.Name, feed.Subtitle, feed.IconURL, feed.TintColor, nextFetch.UTC(), sourceName)

	if err != nil {
		return fmt.Errorf("failed to update source metadata: %w", err)
	}
	return nil
}

func (r *SourceRepositoryImpl) GetSource(sourceName string) (*Source, error) {
	row := r.db.QueryRow(`
		SELECT name, url, title, subtitle, icon_url, tint_color,
			last_fetched_at, next_fetch_at, created_at, updated_at
		FROM sources
		WHERE name = ?
	`, sourceName)

	src, err := scanSource(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source: %w", err)
	}
	return src, nil
}

func (r *SourceRepositoryImpl) GetSourceCount() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM sources`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count sources: %w", err)
	}
	return count, nil
}

func (r *SourceRepositoryImpl) ListSources() ([]Source, error) {
	rows, err := r.db.Query(`
		SELECT name, url, title, subtitle, icon_url, tint_color,
			last_fetched_at, next_fetch_at, created_at, updated_at
		FROM sources
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		sources = append(sources, *src)
	}
	return sources, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSource(row rowScanner) (*Source, error) {
	var src Source
	var lastFetched, nextFetch sql.NullTime

	err := row.Scan(&src.Name, &src.URL, &src.Title, &src.Subtitle,
		&src.IconURL, &src.TintColor, &lastFetched, &nextFetch,
		&src.CreatedAt, &src.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if lastFetched.Valid {
		src.LastFetchedAt = &lastFetched.Time
	}
	if nextFetch.Valid {
		src.NextFetchAt = &nextFetch.Time
	}
	return &src, nil
}
