//go:build sqlite_fts5

package index

import (
	"testing"
	"time"
)

func TestFTS5_TableExists(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM notes_fts`).Scan(&count); err != nil {
		t.Fatalf("notes_fts table missing: %v", err)
	}
}

func TestFTS5_SearchWithSnippet(t *testing.T) {
	ws := testDB(t).Workspace("/w")
	row := NoteRow{
		Label:     "fts",
		Title:     "FTS Note",
		Checksum:  "f1",
		Tags:      []string{"search"},
		UpdatedAt: time.Now(),
	}
	if err := ws.UpsertNote(row, "The notepad keeps powerful full-text search capabilities."); err != nil {
		t.Fatalf("UpsertNote: %v", err)
	}

	results, err := ws.Search("powerful", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Label != "fts" {
		t.Errorf("label = %q", results[0].Label)
	}
	if results[0].Snippet == "" {
		t.Error("expected non-empty snippet")
	}
}

func TestFTS5_DeleteRemovesFromFTS(t *testing.T) {
	ws := testDB(t).Workspace("/w")
	_ = ws.UpsertNote(NoteRow{Label: "gone", Checksum: "g", Tags: []string{}, UpdatedAt: time.Now()}, "vanishing content")
	_ = ws.DeleteNote("gone")

	results, _ := ws.Search("vanishing", 10)
	for _, r := range results {
		if r.Label == "gone" {
			t.Error("deleted note still in FTS index")
		}
	}
}

func TestFTS5_UpsertReplacesContent(t *testing.T) {
	ws := testDB(t).Workspace("/w")
	now := time.Now()
	_ = ws.UpsertNote(NoteRow{Label: "evo", Title: "Old", Checksum: "1", Tags: []string{}, UpdatedAt: now}, "original text")
	_ = ws.UpsertNote(NoteRow{Label: "evo", Title: "New", Checksum: "2", Tags: []string{}, UpdatedAt: now}, "replacement text")

	results, _ := ws.Search("original", 10)
	if len(results) != 0 {
		t.Error("old FTS content should be gone")
	}
	results, _ = ws.Search("replacement", 10)
	if len(results) != 1 || results[0].Title != "New" {
		t.Errorf("FTS not updated: %+v", results)
	}
}
