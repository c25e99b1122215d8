package history

import (
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/trackinspect/pkrec/internal/session"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// SQLitePort stores one row per session in history.db. Each record is kept
// as a JSON payload; the row order column preserves most-recent-first.
type SQLitePort struct {
	db   *sql.DB
	path string
}

// OpenSQLitePort opens (or creates) history.db inside dir and applies
// pending migrations.
func OpenSQLitePort(dir string) (*SQLitePort, error) {
	path := filepath.Join(dir, "history.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure history database: %w", err)
	}
	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLitePort{db: db, path: path}, nil
}

func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	// m is not closed: that would close the shared *sql.DB.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// Path returns the database file location.
func (p *SQLitePort) Path() string { return p.path }

// Close releases the database handle.
func (p *SQLitePort) Close() error { return p.db.Close() }

// Load reads every session row in stored order.
func (p *SQLitePort) Load() ([]session.SessionRecord, error) {
	rows, err := p.db.Query(`SELECT id, payload FROM sessions ORDER BY ordinal ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	defer rows.Close()

	var out []session.SessionRecord
	for rows.Next() {
		var id, payload string
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("failed to read history: %w", err)
		}
		var rec session.SessionRecord
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			return nil, fmt.Errorf("failed to parse session %s: %w", id, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	return out, nil
}

// Save replaces all rows with records inside one transaction.
func (p *SQLitePort) Save(records []session.SessionRecord) error {
	tx, err := p.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to persist history: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM sessions`); err != nil {
		return fmt.Errorf("failed to persist history: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO sessions (id, ordinal, recorded_at, track, payload) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to persist history: %w", err)
	}
	defer stmt.Close()

	for i, rec := range records {
		payload, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to persist session %s: %w", rec.ID, err)
		}
		if _, err := stmt.Exec(rec.ID, i, rec.Date, rec.Stats.Track, string(payload)); err != nil {
			return fmt.Errorf("failed to persist session %s: %w", rec.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to persist history: %w", err)
	}
	return nil
}
