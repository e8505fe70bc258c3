package database

import (
	"database/sql"
	"fmt"
)

var _ PreferenceRepository = (*PreferenceRepositoryImpl)(nil)

type PreferenceRepositoryImpl struct {
	db *DB
}

func NewPreferenceRepository(db *DB) *PreferenceRepositoryImpl {
	return &PreferenceRepositoryImpl{db: db}
}

// Get returns a stored preference; the second value reports whether
// the key exists at all (absent means "follow the default").
func (r *PreferenceRepositoryImpl) Get(key string) (string, bool, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get preference: %w", err)
	}
	return value, true, nil
}

func (r *PreferenceRepositoryImpl) Set(key, value string) error {
	_, err := r.db.Exec(`
		INSERT INTO preferences (key, value)
		VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`, key, value)

	if err != nil {
		return fmt.Errorf("failed to set preference: %w", err)
	}
	return nil
}
