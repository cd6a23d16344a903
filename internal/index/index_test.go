package index

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/starford/notepad/internal/apperr"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "notepad-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM notes`).Scan(&count); err != nil {
		t.Fatalf("notes table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM state`).Scan(&count); err != nil {
		t.Fatalf("state table missing: %v", err)
	}
}

func TestState_GetMissing(t *testing.T) {
	ws := testDB(t).Workspace("/w")
	v, ok, err := ws.Get("notepad.notes")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok || v != nil {
		t.Errorf("Get = %v, %v; want nil, false", v, ok)
	}
}

func TestState_SetGetNested(t *testing.T) {
	ws := testDB(t).Workspace("/w")
	in := []any{
		map[string]any{"label": "a", "text": "hello", "children": []any{
			map[string]any{"label": "a1"},
		}},
	}
	if err := ws.Set("notepad.notes", in); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok, err := ws.Get("notepad.notes")
	if err != nil || !ok {
		t.Fatalf("Get = %v, %v", ok, err)
	}
	list, _ := v.([]any)
	if len(list) != 1 {
		t.Fatalf("decoded = %#v", v)
	}
	m, _ := list[0].(map[string]any)
	if m["label"] != "a" || m["text"] != "hello" {
		t.Errorf("decoded entry = %#v", m)
	}
	children, _ := m["children"].([]any)
	if len(children) != 1 {
		t.Errorf("children = %#v", m["children"])
	}
}

func TestState_SetReplaces(t *testing.T) {
	ws := testDB(t).Workspace("/w")
	_ = ws.Set("k", []any{"one"})
	_ = ws.Set("k", []any{})
	v, _, _ := ws.Get("k")
	if list, _ := v.([]any); len(list) != 0 {
		t.Errorf("value = %#v, want empty list", v)
	}
}

func TestState_ScopesAreIsolated(t *testing.T) {
	db := testDB(t)
	_ = db.Workspace("/one").Set("k", "first")
	if _, ok, _ := db.Workspace("/two").Get("k"); ok {
		t.Error("value leaked across scopes")
	}
}

func TestState_CorruptValue(t *testing.T) {
	db := testDB(t)
	ws := db.Workspace("/w")
	if _, err := db.conn.Exec(`INSERT INTO state (scope, key, value) VALUES (?, ?, ?)`, "/w", "k", "{not json"); err != nil {
		t.Fatal(err)
	}
	_, _, err := ws.Get("k")
	if !errors.Is(err, apperr.ErrMalformed) {
		t.Errorf("err = %v, want ErrMalformed", err)
	}
}

// checksumOf reads one label's checksum through AllChecksums.
func checksumOf(t *testing.T, ws *Workspace, label string) (string, bool) {
	t.Helper()
	all, err := ws.AllChecksums()
	if err != nil {
		t.Fatalf("AllChecksums: %v", err)
	}
	cs, ok := all[label]
	return cs, ok
}

func TestUpsertStoresChecksum(t *testing.T) {
	ws := testDB(t).Workspace("/w")
	row := NoteRow{
		Label:     "hello",
		Title:     "Hello World",
		Checksum:  "abc123",
		Tags:      []string{"go", "test"},
		UpdatedAt: time.Now(),
	}
	if err := ws.UpsertNote(row, "This is a hello world note."); err != nil {
		t.Fatalf("UpsertNote: %v", err)
	}
	if cs, _ := checksumOf(t, ws, "hello"); cs != "abc123" {
		t.Errorf("checksum = %q, want %q", cs, "abc123")
	}
}

func TestDeleteNote(t *testing.T) {
	ws := testDB(t).Workspace("/w")
	_ = ws.UpsertNote(NoteRow{Label: "del", Checksum: "x", Tags: []string{}, UpdatedAt: time.Now()}, "body")

	if err := ws.DeleteNote("del"); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
	if cs, ok := checksumOf(t, ws, "del"); ok {
		t.Errorf("deleted note still has checksum %q", cs)
	}
}

func TestUpsertUpdatesExisting(t *testing.T) {
	ws := testDB(t).Workspace("/w")
	now := time.Now()
	_ = ws.UpsertNote(NoteRow{Label: "up", Title: "Old", Checksum: "1", Tags: []string{}, UpdatedAt: now}, "old body")
	_ = ws.UpsertNote(NoteRow{Label: "up", Title: "New", Checksum: "2", Tags: []string{"new"}, UpdatedAt: now}, "new body")

	if cs, _ := checksumOf(t, ws, "up"); cs != "2" {
		t.Errorf("checksum = %q, want %q", cs, "2")
	}
}

func TestAllChecksums_ClosedDB(t *testing.T) {
	db := testDB(t)
	ws := db.Workspace("/w")
	_ = db.Close()
	if _, err := ws.AllChecksums(); err == nil {
		t.Error("expected error from closed database")
	}
}

func TestSearch_Basic(t *testing.T) {
	ws := testDB(t).Workspace("/w")
	_ = ws.UpsertNote(NoteRow{Label: "s", Title: "Search Me", Checksum: "1", Tags: []string{}, UpdatedAt: time.Now()}, "uniqueword appears here")

	results, err := ws.Search("uniqueword", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Label != "s" {
		t.Errorf("search results = %+v, want 1 hit for s", results)
	}
}

func TestSearch_ScopedToWorkspace(t *testing.T) {
	db := testDB(t)
	_ = db.Workspace("/a").UpsertNote(NoteRow{Label: "x", Checksum: "1", Tags: []string{}, UpdatedAt: time.Now()}, "needle")

	results, err := db.Workspace("/b").Search("needle", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("results leaked across scopes: %+v", results)
	}
}

func TestSync_IndexesAndRemovesStale(t *testing.T) {
	ws := testDB(t).Workspace("/w")
	_ = ws.UpsertNote(NoteRow{Label: "stale", Checksum: "s", Tags: []string{}, UpdatedAt: time.Now()}, "old")

	docs := []Doc{
		{Label: "todo", Text: "# Todo\nbuy #milk"},
		{Label: "ideas", Text: "nothing yet"},
	}
	if err := Sync(ws, docs, quietLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	all, err := ws.AllChecksums()
	if err != nil {
		t.Fatalf("AllChecksums: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("indexed = %v, want todo and ideas", all)
	}
	if _, ok := all["stale"]; ok {
		t.Error("stale entry survived sync")
	}

	results, _ := ws.Search("Todo", 10)
	if len(results) != 1 || results[0].Title != "Todo" {
		t.Errorf("search results = %+v", results)
	}
}
