// Package persist stores a route table's rule text across restarts in a
// sqlite database, so a node recovers its last-loaded routes without an
// operator re-pushing config after a reboot.
package persist

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store wraps a sqlite database holding a single-row routes table.
type Store struct {
	db *sql.DB
}

// Open opens (creating and migrating if absent) the sqlite database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("danp: open route store %s: %w", path, err)
	}
	const schema = `
CREATE TABLE IF NOT EXISTS routes (
	id INTEGER PRIMARY KEY CHECK (id = 0),
	rules TEXT NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("danp: migrate route store %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save replaces the persisted rule text with rules.
func (s *Store) Save(rules string) error {
	_, err := s.db.Exec(
		`INSERT INTO routes (id, rules) VALUES (0, ?)
		 ON CONFLICT(id) DO UPDATE SET rules = excluded.rules`, rules)
	return err
}

// Load returns the persisted rule text, or "" if nothing has been saved yet.
func (s *Store) Load() (string, error) {
	var rules string
	err := s.db.QueryRow(`SELECT rules FROM routes WHERE id = 0`).Scan(&rules)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("danp: load route store: %w", err)
	}
	return rules, nil
}
