package database

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/sidehub/sidehub/app/source"
)

var _ AppRepository = (*AppRepositoryImpl)(nil)

type AppRepositoryImpl struct {
	db *DB
}

func NewAppRepository(db *DB) *AppRepositoryImpl {
	return &AppRepositoryImpl{db: db}
}

// ReplaceApps stores the apps of a freshly fetched feed snapshot,
// replacing the previous one. Feed order is preserved through the
// position column; versions, screenshots and permissions travel as
// JSON columns since they are only ever read back whole.
func (r *AppRepositoryImpl) ReplaceApps(sourceName string, apps []source.AppRecord) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM apps WHERE source_name = ?`, sourceName); err != nil {
		return fmt.Errorf("failed to clear previous snapshot: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO apps (
			source_name, bundle_identifier, position, name, developer_name,
			subtitle, localized_description, icon_url, tint_color,
			screenshot_urls, versions, permissions
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, app := range apps {
		screenshots, err := json.Marshal(app.ScreenshotURLs)
		if err != nil {
			return fmt.Errorf("failed to encode screenshots: %w", err)
		}
		versions, err := json.Marshal(app.Versions)
		if err != nil {
			return fmt.Errorf("failed to encode versions: %w", err)
		}

		var permissions any
		if app.AppPermissions != nil {
			encoded, err := json.Marshal(app.AppPermissions)
			if err != nil {
				return fmt.Errorf("failed to encode permissions: %w", err)
			}
			permissions = string(encoded)
		}

		_, err = stmt.Exec(sourceName, app.BundleIdentifier, i, app.Name,
			app.DeveloperName, app.Subtitle, app.LocalizedDescription,
			app.IconURL, app.TintColor, string(screenshots), string(versions),
			permissions)
		if err != nil {
			return fmt.Errorf("failed to insert app %s: %w", app.BundleIdentifier, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// GetApps returns the stored snapshot in original feed order.
func (r *AppRepositoryImpl) GetApps(sourceName string) ([]source.AppRecord, error) {
	rows, err := r.db.Query(`
		SELECT bundle_identifier, name, developer_name, subtitle,
			localized_description, icon_url, tint_color,
			screenshot_urls, versions, permissions
		FROM apps
		WHERE source_name = ?
		ORDER BY position
	`, sourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to query apps: %w", err)
	}
	defer rows.Close()

	var apps []source.AppRecord
	for rows.Next() {
		var app source.AppRecord
		var screenshots, versions string
		var permissions sql.NullString

		err := rows.Scan(&app.BundleIdentifier, &app.Name, &app.DeveloperName,
			&app.Subtitle, &app.LocalizedDescription, &app.IconURL,
			&app.TintColor, &screenshots, &versions, &permissions)
		if err != nil {
			return nil, fmt.Errorf("failed to scan app: %w", err)
		}

		if err := json.Unmarshal([]byte(screenshots), &app.ScreenshotURLs); err != nil {
			return nil, fmt.Errorf("failed to decode screenshots: %w", err)
		}
		if err := json.Unmarshal([]byte(versions), &app.Versions); err != nil {
			return nil, fmt.Errorf("failed to decode versions: %w", err)
		}
		if permissions.Valid {
			app.AppPermissions = &source.AppPermissions{}
			if err := json.Unmarshal([]byte(permissions.String), app.AppPermissions); err != nil {
				return nil, fmt.Errorf("failed to decode permissions: %w", err)
			}
		}

		apps = append(apps, app)
	}
	return apps, rows.Err()
}

func (r *AppRepositoryImpl) GetAppCount(sourceName string) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM apps WHERE source_name = ?`, sourceName).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count apps: %w", err)
	}
	return count, nil
}
