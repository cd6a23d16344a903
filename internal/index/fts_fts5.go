//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS notes_fts USING fts5(
			scope UNINDEXED,
			label,
			title,
			body,
			tags,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, scope, label, title, body string, tags []string) error {
	_, _ = tx.Exec(`DELETE FROM notes_fts WHERE scope = ? AND label = ?`, scope, label)
	_, err := tx.Exec(`INSERT INTO notes_fts (scope, label, title, body, tags) VALUES (?, ?, ?, ?, ?)`,
		scope, label, title, body, strings.Join(tags, " "))
	if err != nil {
		return fmt.Errorf("index: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, scope, label string) {
	_, _ = tx.Exec(`DELETE FROM notes_fts WHERE scope = ? AND label = ?`, scope, label)
}

// Search performs an FTS5 full-text search and returns matching results with snippets.
func (w *Workspace) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := w.db.conn.Query(`
		SELECT label,
		       title,
		       snippet(notes_fts, 3, '<b>', '</b>', '...', 64)
		FROM notes_fts
		WHERE notes_fts MATCH ? AND scope = ?
		ORDER BY rank
		LIMIT ?
	`, query, w.scope, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Label, &r.Title, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
