// Package settings provides a simple persistent key/value store for non-sensitive application settings.
//
// Values written here are stored in the clear.
// Anything that needs protection at rest belongs in the credstore package.
package settings

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"
)

const (
	InMemory = ":memory:"

	createTable = `CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value BLOB NOT NULL
)`
	upsertValue = `INSERT INTO settings (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	selectValue = `SELECT value FROM settings WHERE key = ?`
	deleteValue = `DELETE FROM settings WHERE key = ?`
)

// Store is the interface for plain settings storage.
type Store interface {
	// SetBytes stores value under key, replacing any previous value.
	SetBytes(key string, value []byte) error
	// Bytes returns the value stored under key. The second return value is false if nothing is stored.
	Bytes(key string) ([]byte, bool, error)
	// SetBool stores a boolean flag under key.
	SetBool(key string, value bool) error
	// Bool returns the flag stored under key, or false if nothing is stored.
	Bool(key string) (bool, error)
	// Remove deletes key, which is not an error if it doesn't exist.
	Remove(key string) error
}

// SQLite is a Store persisted to a SQLite database file.
type SQLite struct {
	db *sql.DB
}

var _ Store = (*SQLite)(nil)

// OpenSQLite opens (creating if needed) the settings database at dsn.
// Use InMemory for a store that is discarded when closed.
func OpenSQLite(dsn string) (*SQLite, error) {
	if dsn != InMemory {
		if err := createFileIfNotExists(dsn); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening settings database: %w", err)
	}
	// Every new connection to an in-memory database would see an empty database.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(createTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error creating settings table: %w", err)
	}
	return &SQLite{db: db}, nil
}

func createFileIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0600)
		if err != nil {
			return fmt.Errorf("error creating settings file: %w", err)
		}
		return f.Close()
	}
	return nil
}

func (s *SQLite) SetBytes(key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	if _, err := s.db.Exec(upsertValue, key, value); err != nil {
		return fmt.Errorf("error setting '%s': %w", key, err)
	}
	return nil
}

func (s *SQLite) Bytes(key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRow(selectValue, key).Scan(&value)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, false, nil
	case err != nil:
		return nil, false, fmt.Errorf("error reading '%s': %w", key, err)
	}
	if value == nil {
		value = []byte{}
	}
	return value, true, nil
}

func (s *SQLite) SetBool(key string, value bool) error {
	var b byte
	if value {
		b = 1
	}
	return s.SetBytes(key, []byte{b})
}

func (s *SQLite) Bool(key string) (bool, error) {
	value, ok, err := s.Bytes(key)
	if err != nil || !ok {
		return false, err
	}
	return len(value) == 1 && value[0] == 1, nil
}

func (s *SQLite) Remove(key string) error {
	if _, err := s.db.Exec(deleteValue, key); err != nil {
		return fmt.Errorf("error removing '%s': %w", key, err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}
