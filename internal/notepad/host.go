package notepad

import (
	"context"

	"github.com/starford/notepad/internal/storage"
)

// FileSystem is the file capability a Note borrows. storage.FS satisfies it.
type FileSystem interface {
	Root() string
	Exists(path string) (bool, error)
	List(dir, suffix string) ([]storage.FileMeta, error)
	Read(path string) ([]byte, error)
	Write(path string, content []byte) error
	Delete(path string) error
	Move(oldPath, newPath string, overwrite bool) error
}

// StateStore is the workspace-scoped key/value persistence capability.
// Values are nested []any / map[string]any / string trees.
type StateStore interface {
	Get(key string) (value any, ok bool, err error)
	Set(key string, value any) error
}

// Opener displays a note file to the user (editor, pager, browser tab).
type Opener interface {
	Open(ctx context.Context, location string) error
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(ctx context.Context, location string) error

// Open calls f.
func (f OpenerFunc) Open(ctx context.Context, location string) error {
	return f(ctx, location)
}
