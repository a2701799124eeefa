package main

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/phanxgames/comet"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a script id does not exist.
var ErrNotFound = errors.New("script not found")

// ScriptInfo is one row of the script listing.
type ScriptInfo struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Steps     int       `json:"steps"`
	CreatedAt time.Time `json:"created_at"`
}

// Store keeps uploaded pointer scripts in a sqlite database. The uploaded
// document is stored verbatim and parsed again on every read.
type Store struct {
	db *sql.DB
}

const createScriptsTable = `
CREATE TABLE IF NOT EXISTS scripts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	steps INTEGER NOT NULL,
	body BLOB NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
)`

// OpenStore opens (creating if needed) the sqlite database at path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// One writer at a time; sqlite serialises anyway.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(createScriptsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("create scripts table: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Create validates body as a pointer script and stores it. An empty name
// falls back to the script's own name.
func (s *Store) Create(name string, body []byte) (int64, *comet.Script, error) {
	script, err := comet.LoadScript(body)
	if err != nil {
		return 0, nil, err
	}
	if name == "" {
		name = script.Name
	}
	res, err := s.db.Exec(
		`INSERT INTO scripts (name, steps, body, created_at) VALUES (?, ?, ?, ?)`,
		name, len(script.Steps), body, time.Now().UTC())
	if err != nil {
		return 0, nil, fmt.Errorf("insert script: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, nil, fmt.Errorf("insert script: %w", err)
	}
	return id, script, nil
}

// List returns every stored script, oldest first.
func (s *Store) List() ([]ScriptInfo, error) {
	rows, err := s.db.Query(`SELECT id, name, steps, created_at FROM scripts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list scripts: %w", err)
	}
	defer rows.Close()

	infos := []ScriptInfo{}
	for rows.Next() {
		var info ScriptInfo
		if err := rows.Scan(&info.ID, &info.Name, &info.Steps, &info.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan script: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// Get loads and parses the script with the given id.
func (s *Store) Get(id int64) (*comet.Script, error) {
	var body []byte
	err := s.db.QueryRow(`SELECT body FROM scripts WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get script %d: %w", id, err)
	}
	return comet.LoadScript(body)
}

// Delete removes the script with the given id.
func (s *Store) Delete(id int64) error {
	res, err := s.db.Exec(`DELETE FROM scripts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete script %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete script %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
