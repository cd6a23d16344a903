// Package testutil provides shared test helpers for setting up note roots,
// databases and stores.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/starford/notepad/internal/index"
	"github.com/starford/notepad/internal/notepad"
	"github.com/starford/notepad/internal/storage"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "notepad-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestRoot creates a temporary root directory with a storage.FS.
func TestRoot(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	fs, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return fs.Root(), fs
}

// TestStore creates a loaded, empty note store persisted in a temporary
// database workspace.
func TestStore(t *testing.T, opts ...notepad.StoreOption) (*notepad.Store, *storage.FS, *index.Workspace) {
	t.Helper()
	root, fs := TestRoot(t)
	ws := TestDB(t).Workspace(root)
	store := notepad.NewStore(fs, ws, opts...)
	if err := store.Load(t.Context()); err != nil {
		t.Fatal(err)
	}
	return store, fs, ws
}

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
