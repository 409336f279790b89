package shared

import (
	"database/sql"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrations(t *testing.T) {
	t.Run("RunMigrations creates the schema", func(t *testing.T) {
		db := openTestDB(t)

		if err := RunMigrations(db); err != nil {
			t.Fatalf("RunMigrations failed: %v", err)
		}

		for _, table := range []string{"sessions", "scratch", "schema_migrations"} {
			var name string
			err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
			if err != nil {
				t.Errorf("expected table %s to exist: %v", table, err)
			}
		}
	})

	t.Run("RunMigrations is idempotent", func(t *testing.T) {
		db := openTestDB(t)

		if err := RunMigrations(db); err != nil {
			t.Fatalf("first run failed: %v", err)
		}
		if err := RunMigrations(db); err != nil {
			t.Fatalf("second run failed: %v", err)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
			t.Fatalf("count query failed: %v", err)
		}
		if count != 1 {
			t.Errorf("expected 1 applied migration, got %d", count)
		}
	})

	t.Run("sessions table enforces the single row", func(t *testing.T) {
		db := openTestDB(t)
		if err := RunMigrations(db); err != nil {
			t.Fatalf("RunMigrations failed: %v", err)
		}

		if _, err := db.Exec("INSERT INTO sessions (id, payload) VALUES (2, '{}')"); err == nil {
			t.Error("expected the id CHECK to reject a second row")
		}
	})

	t.Run("RollbackMigration drops the schema", func(t *testing.T) {
		db := openTestDB(t)
		if err := RunMigrations(db); err != nil {
			t.Fatalf("RunMigrations failed: %v", err)
		}

		if err := RollbackMigration(db); err != nil {
			t.Fatalf("RollbackMigration failed: %v", err)
		}

		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='sessions'").Scan(&name)
		if err != sql.ErrNoRows {
			t.Errorf("expected sessions table to be dropped, got %v", err)
		}
	})

	t.Run("RollbackMigration fails with nothing applied", func(t *testing.T) {
		db := openTestDB(t)
		if _, err := db.Exec("CREATE TABLE schema_migrations (version INTEGER PRIMARY KEY)"); err != nil {
			t.Fatalf("failed to create table: %v", err)
		}

		if err := RollbackMigration(db); err == nil {
			t.Error("expected error with no applied migrations")
		}
	})
}

func TestGenerators(t *testing.T) {
	t.Run("GenerateState strips dashes", func(t *testing.T) {
		state := GenerateState()
		if state == "" || strings.Contains(state, "-") {
			t.Errorf("unexpected state: %q", state)
		}
	})

	t.Run("GenerateState is unguessable enough to not repeat", func(t *testing.T) {
		if GenerateState() == GenerateState() {
			t.Error("expected distinct nonces")
		}
	})

	t.Run("GenerateID produces a UUID", func(t *testing.T) {
		id := GenerateID()
		if len(id) != 36 {
			t.Errorf("unexpected id: %q", id)
		}
	})
}
