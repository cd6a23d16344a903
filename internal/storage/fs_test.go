package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/notepad/internal/apperr"
)

func tempRoot(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempRoot(t)
	content := []byte("groceries\nmilk\n")
	if err := s.Write("notepad/list.note", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("notepad/list.note")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestAbsolutePathUnderRoot(t *testing.T) {
	s := tempRoot(t)
	abs := filepath.Join(s.Root(), "notepad", "abs.note")
	if err := s.Write(abs, []byte("x")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	ok, err := s.Exists("notepad/abs.note")
	if err != nil || !ok {
		t.Fatalf("Exists = %v, %v", ok, err)
	}
}

func TestExists(t *testing.T) {
	s := tempRoot(t)
	ok, err := s.Exists("missing.note")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if ok {
		t.Error("missing file reported as existing")
	}
	_ = s.Write("here.note", []byte("x"))
	ok, _ = s.Exists("here.note")
	if !ok {
		t.Error("written file reported as missing")
	}
}

func TestDelete(t *testing.T) {
	s := tempRoot(t)
	_ = s.Write("del.note", []byte("bye"))
	if err := s.Delete("del.note"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Read("del.note"); err == nil {
		t.Error("expected error reading deleted file")
	}
	err := s.Delete("del.note")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("second delete err = %v, want ErrNotExist", err)
	}
}

func TestMove(t *testing.T) {
	s := tempRoot(t)
	_ = s.Write("old.note", []byte("data"))
	if err := s.Move("old.note", "sub/new.note", false); err != nil {
		t.Fatalf("Move: %v", err)
	}
	got, err := s.Read("sub/new.note")
	if err != nil {
		t.Fatalf("Read after move: %v", err)
	}
	if string(got) != "data" {
		t.Errorf("content = %q", got)
	}
	if _, err := s.Read("old.note"); err == nil {
		t.Error("old path should not exist")
	}
}

func TestMoveNoClobber(t *testing.T) {
	s := tempRoot(t)
	_ = s.Write("a.note", []byte("a"))
	_ = s.Write("b.note", []byte("b"))

	err := s.Move("a.note", "b.note", false)
	if !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Fatalf("Move err = %v, want ErrAlreadyExists", err)
	}
	got, _ := s.Read("b.note")
	if string(got) != "b" {
		t.Errorf("target overwritten: %q", got)
	}
	got, _ = s.Read("a.note")
	if string(got) != "a" {
		t.Errorf("source lost: %q", got)
	}

	if err := s.Move("a.note", "b.note", true); err != nil {
		t.Fatalf("Move overwrite: %v", err)
	}
	got, _ = s.Read("b.note")
	if string(got) != "a" {
		t.Errorf("overwrite content = %q", got)
	}
}

func TestList(t *testing.T) {
	s := tempRoot(t)
	_ = s.Write("notepad/a.note", []byte("a"))
	_ = s.Write("notepad/b.note", []byte("b"))
	_ = s.Write("notepad/readme.txt", []byte("not a note"))

	items, err := s.List("notepad", ".note")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("len = %d, want 2", len(items))
	}
}

func TestListMissingDir(t *testing.T) {
	s := tempRoot(t)
	items, err := s.List("notepad", ".note")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("len = %d, want 0", len(items))
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempRoot(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.note",
		"/etc/shadow",
	}
	for _, p := range cases {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
	}
}

func TestAtomicWriteNoLeftovers(t *testing.T) {
	s := tempRoot(t)
	_ = s.Write("atomic.note", []byte("original content"))

	updated := []byte("updated content")
	if err := s.Write("atomic.note", updated); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("atomic.note")
	if string(got) != string(updated) {
		t.Errorf("expected updated content, got %q", got)
	}

	matches, _ := filepath.Glob(filepath.Join(s.root, TempPrefix+"*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS("/tmp/notepad-does-not-exist-" + t.Name())
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "notepad-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}
