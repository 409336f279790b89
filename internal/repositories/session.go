package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nullisdefined/worlds-subscription/internal/models"
)

// SessionRepository persists the single [models.Session] record.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new [SessionRepository] with the given database connection.
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Load reads the stored session.
//
// Returns (nil, nil) when no session is stored. A record that fails to
// deserialize is deleted and treated as absent.
func (r *SessionRepository) Load() (*models.Session, error) {
	var payload string
	err := r.db.QueryRow("SELECT payload FROM sessions WHERE id = 1").Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	var session models.Session
	if err := json.Unmarshal([]byte(payload), &session); err != nil {
		// Corrupt record: purge and proceed as anonymous.
		if _, delErr := r.db.Exec("DELETE FROM sessions WHERE id = 1"); delErr != nil {
			return nil, fmt.Errorf("failed to purge corrupt session: %w", delErr)
		}
		return nil, nil
	}

	return &session, nil
}

// Save serializes and overwrites the stored session.
func (r *SessionRepository) Save(session *models.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to serialize session: %w", err)
	}

	query := `
		INSERT INTO sessions (id, payload, updated_at) VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
	`
	if _, err := r.db.Exec(query, string(payload), time.Now()); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	return nil
}

// Clear removes the stored session and all scratch values. Idempotent.
func (r *SessionRepository) Clear() error {
	if _, err := r.db.Exec("DELETE FROM sessions WHERE id = 1"); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	if _, err := r.db.Exec("DELETE FROM scratch"); err != nil {
		return fmt.Errorf("failed to clear scratch values: %w", err)
	}
	return nil
}
