package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/notepad/internal/apperr"
)

// Get returns the decoded value stored under key. ok is false when the key
// has never been set.
func (w *Workspace) Get(key string) (value any, ok bool, err error) {
	var raw string
	err = w.db.conn.QueryRow(`SELECT value FROM state WHERE scope = ? AND key = ?`, w.scope, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("index: get %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return nil, false, fmt.Errorf("index: decode %s: %w: %v", key, apperr.ErrMalformed, err)
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value.
func (w *Workspace) Set(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("index: encode %s: %w", key, err)
	}
	_, err = w.db.conn.Exec(`
		INSERT INTO state (scope, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(scope, key) DO UPDATE SET
			value      = excluded.value,
			updated_at = excluded.updated_at
	`, w.scope, key, string(raw), time.Now())
	if err != nil {
		return fmt.Errorf("index: set %s: %w", key, err)
	}
	return nil
}
