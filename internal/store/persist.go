package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// The persisted session lives under two durable keys, matching the wire
// contract: the raw token and the JSON-encoded user.
const (
	keyToken = "token"
	keyUser  = "user"
)

// keyring is a small sqlite-backed key/value table for the credentials that
// must survive restarts.
type keyring struct {
	db *sql.DB
}

func openKeyring(path string) (*keyring, error) {
	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	k := &keyring{db: db}
	if err := k.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return k, nil
}

func (k *keyring) migrate() error {
	_, err := k.db.Exec(`
	CREATE TABLE IF NOT EXISTS credentials (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`)
	return err
}

func (k *keyring) Close() error {
	return k.db.Close()
}

// set upserts a key.
func (k *keyring) set(key, value string) error {
	_, err := k.db.Exec(
		`INSERT INTO credentials (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = ?`,
		key, value, value,
	)
	return err
}

// get returns the value for key, or empty string when the key is missing.
func (k *keyring) get(key string) (string, error) {
	var value string
	err := k.db.QueryRow(`SELECT value FROM credentials WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// delete removes a key. Missing keys are not an error.
func (k *keyring) delete(key string) error {
	_, err := k.db.Exec(`DELETE FROM credentials WHERE key = ?`, key)
	return err
}
