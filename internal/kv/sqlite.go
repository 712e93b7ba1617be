package kv

import (
	"database/sql"
	"fmt"

	"nathanbeddoewebdev/dcsim/internal/database"
)

// SQLiteStore implements Store backed by a local SQLite database, the
// durable backend for normal runs.
type SQLiteStore struct {
	db *sql.DB
}

// Open creates or opens the store at the default database path.
func Open() (*SQLiteStore, error) {
	path, err := database.DefaultPath()
	if err != nil {
		return nil, fmt.Errorf("kv: %w", err)
	}
	return OpenAt(path)
}

// OpenAt creates or opens a SQLite-backed store at the given path.
// The parent directory is created if it does not exist.
func OpenAt(path string) (*SQLiteStore, error) {
	db, err := database.Open(path)
	if err != nil {
		return nil, fmt.Errorf("kv: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	const ddl = `
        CREATE TABLE IF NOT EXISTS kv (
            key   TEXT PRIMARY KEY,
            value TEXT NOT NULL
        );
    `
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("kv: migration failed: %w", err)
	}
	return nil
}

// Get returns the stored value for key.
func (s *SQLiteStore) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("kv: query failed: %w", err)
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value.
func (s *SQLiteStore) Set(key, value string) error {
	_, err := s.db.Exec(`
        INSERT INTO kv (key, value) VALUES (?, ?)
        ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("kv: upsert failed: %w", err)
	}
	return nil
}

// Close releases database resources.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
