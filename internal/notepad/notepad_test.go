package notepad

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/starford/notepad/internal/storage"
)

// memState is an in-memory StateStore.
type memState struct {
	mu     sync.Mutex
	values map[string]any
	sets   int
}

func newMemState() *memState {
	return &memState{values: make(map[string]any)}
}

func (m *memState) Get(key string) (any, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memState) Set(key string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	m.sets++
	return nil
}

// flakyFS fails writes while failWrite is set.
type flakyFS struct {
	*storage.FS
	failWrite bool
}

var errDiskFull = errors.New("disk full")

func (f *flakyFS) Write(path string, content []byte) error {
	if f.failWrite {
		return errDiskFull
	}
	return f.FS.Write(path, content)
}

func tempFS(t *testing.T) *flakyFS {
	t.Helper()
	fs, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return &flakyFS{FS: fs}
}

func strptr(s string) *string { return &s }

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func labels(notes []*Note) []string {
	out := make([]string, len(notes))
	for i, n := range notes {
		out[i] = n.Label()
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

type recordingOpener struct {
	mu     sync.Mutex
	opened []string
}

func (r *recordingOpener) Open(_ context.Context, location string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opened = append(r.opened, location)
	return nil
}
