package repositories

import (
	"database/sql"
	"fmt"
)

// Scratch keys. The names are kept from the service's web client so a record
// exported from one is recognizable in the other.
const (
	KeySelectedLanguages = "selectedLanguages"
	KeyOAuthState        = "kakao_state"
)

// ScratchRepository stores transient per-flow key/value pairs.
type ScratchRepository struct {
	db *sql.DB
}

// NewScratchRepository creates a new [ScratchRepository] with the given database connection.
func NewScratchRepository(db *sql.DB) *ScratchRepository {
	return &ScratchRepository{db: db}
}

// Get reads a scratch value. Returns ("", nil) when the key is absent.
func (r *ScratchRepository) Get(key string) (string, error) {
	var value string
	err := r.db.QueryRow("SELECT value FROM scratch WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query scratch key %s: %w", key, err)
	}
	return value, nil
}

// Set writes a scratch value, replacing any previous value for the key.
func (r *ScratchRepository) Set(key, value string) error {
	query := `
		INSERT INTO scratch (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`
	if _, err := r.db.Exec(query, key, value); err != nil {
		return fmt.Errorf("failed to store scratch key %s: %w", key, err)
	}
	return nil
}

// Delete removes a scratch value. Idempotent.
func (r *ScratchRepository) Delete(key string) error {
	if _, err := r.db.Exec("DELETE FROM scratch WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete scratch key %s: %w", key, err)
	}
	return nil
}
