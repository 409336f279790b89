package repositories

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/nullisdefined/worlds-subscription/internal/models"
	"github.com/nullisdefined/worlds-subscription/internal/shared"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return db
}

func TestSessionRepository(t *testing.T) {
	t.Run("Load", func(t *testing.T) {
		t.Run("returns nil when nothing is stored", func(t *testing.T) {
			repo := NewSessionRepository(setupTestDB(t))

			session, err := repo.Load()
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if session != nil {
				t.Errorf("expected nil session, got %+v", session)
			}
		})

		t.Run("round-trips a saved session", func(t *testing.T) {
			repo := NewSessionRepository(setupTestDB(t))

			saved := &models.Session{
				AccessToken:  "tok",
				RefreshToken: "ref",
				ExpiresAt:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
				User: models.UserInfo{
					ID:           7,
					Nickname:     "Kim",
					IsSubscribed: true,
					Languages:    []models.Language{models.Japanese},
					Timezone:     "Asia/Seoul",
					Difficulty:   models.Intermediate,
				},
			}
			if err := repo.Save(saved); err != nil {
				t.Fatalf("Save failed: %v", err)
			}

			loaded, err := repo.Load()
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if loaded == nil {
				t.Fatal("expected a session")
			}
			if loaded.AccessToken != "tok" || loaded.User.Nickname != "Kim" {
				t.Errorf("unexpected session: %+v", loaded)
			}
			if !loaded.ExpiresAt.Equal(saved.ExpiresAt) {
				t.Errorf("expected expiry %v, got %v", saved.ExpiresAt, loaded.ExpiresAt)
			}
			if len(loaded.User.Languages) != 1 || loaded.User.Languages[0] != models.Japanese {
				t.Errorf("unexpected languages: %v", loaded.User.Languages)
			}
		})

		t.Run("purges a corrupt record and reports absent", func(t *testing.T) {
			db := setupTestDB(t)
			repo := NewSessionRepository(db)

			if _, err := db.Exec("INSERT INTO sessions (id, payload, updated_at) VALUES (1, 'not json', ?)", time.Now()); err != nil {
				t.Fatalf("failed to insert corrupt record: %v", err)
			}

			session, err := repo.Load()
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if session != nil {
				t.Errorf("expected nil session, got %+v", session)
			}

			var count int
			if err := db.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&count); err != nil {
				t.Fatalf("count query failed: %v", err)
			}
			if count != 0 {
				t.Errorf("expected corrupt record to be purged, found %d rows", count)
			}
		})
	})

	t.Run("Save overwrites the single record", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))

		if err := repo.Save(&models.Session{AccessToken: "first"}); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		if err := repo.Save(&models.Session{AccessToken: "second"}); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		loaded, err := repo.Load()
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if loaded.AccessToken != "second" {
			t.Errorf("expected second write to win, got %q", loaded.AccessToken)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		t.Run("removes the session and scratch values", func(t *testing.T) {
			db := setupTestDB(t)
			repo := NewSessionRepository(db)
			scratch := NewScratchRepository(db)

			repo.Save(&models.Session{AccessToken: "tok"})
			scratch.Set(KeyOAuthState, "nonce")

			if err := repo.Clear(); err != nil {
				t.Fatalf("Clear failed: %v", err)
			}

			session, _ := repo.Load()
			if session != nil {
				t.Error("expected session to be cleared")
			}
			value, _ := scratch.Get(KeyOAuthState)
			if value != "" {
				t.Error("expected scratch values to be cleared")
			}
		})

		t.Run("is idempotent", func(t *testing.T) {
			repo := NewSessionRepository(setupTestDB(t))
			if err := repo.Clear(); err != nil {
				t.Fatalf("Clear on empty store failed: %v", err)
			}
			if err := repo.Clear(); err != nil {
				t.Fatalf("second Clear failed: %v", err)
			}
		})
	})
}

func TestScratchRepository(t *testing.T) {
	t.Run("Get returns empty for an absent key", func(t *testing.T) {
		repo := NewScratchRepository(setupTestDB(t))

		value, err := repo.Get("missing")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if value != "" {
			t.Errorf("expected empty value, got %q", value)
		}
	})

	t.Run("Set replaces the previous value", func(t *testing.T) {
		repo := NewScratchRepository(setupTestDB(t))

		repo.Set(KeySelectedLanguages, `["english"]`)
		if err := repo.Set(KeySelectedLanguages, `["japanese"]`); err != nil {
			t.Fatalf("Set failed: %v", err)
		}

		value, err := repo.Get(KeySelectedLanguages)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if value != `["japanese"]` {
			t.Errorf("expected replacement value, got %q", value)
		}
	})

	t.Run("Delete is idempotent", func(t *testing.T) {
		repo := NewScratchRepository(setupTestDB(t))

		repo.Set(KeyOAuthState, "nonce")
		if err := repo.Delete(KeyOAuthState); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if err := repo.Delete(KeyOAuthState); err != nil {
			t.Fatalf("second Delete failed: %v", err)
		}

		value, _ := repo.Get(KeyOAuthState)
		if value != "" {
			t.Errorf("expected deleted key to be absent, got %q", value)
		}
	})
}
