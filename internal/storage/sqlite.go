package storage

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a Blob implementation backed by a single-table SQLite
// database. It avoids cgo so the client binary stays portable.
type SQLiteStore struct {
	conn *sql.DB
}

// OpenSQLite opens (creating if needed) a blob store at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open blob db: %w", err)
	}
	if _, err := conn.Exec(`
		CREATE TABLE IF NOT EXISTS blobs (
			key         TEXT PRIMARY KEY,
			data        BLOB NOT NULL,
			updated_at  DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		conn.Close()
		return nil, fmt.Errorf("init blob table: %w", err)
	}
	return &SQLiteStore{conn: conn}, nil
}

// Get returns the blob for key, or (nil, nil) when absent.
func (s *SQLiteStore) Get(key string) ([]byte, error) {
	var data []byte
	err := s.conn.QueryRow(`SELECT data FROM blobs WHERE key = ?`, key).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return data, nil
}

// Set stores the blob under key, replacing any previous value.
func (s *SQLiteStore) Set(key string, data []byte) error {
	_, err := s.conn.Exec(`
		INSERT INTO blobs (key, data, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`, key, data)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}
