package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
)

func (s *Store) Read(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM kv_state WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) Write(key, value string) error {
	_, err := s.db.Exec("INSERT OR REPLACE INTO kv_state (key, value) VALUES (?, ?)", key, value)
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
