// Package storage defines the note file-system abstraction.
package storage

import "time"

// FileMeta describes a note file found on disk.
type FileMeta struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Provider is the interface for note file operations. Paths are either
// relative to the root or absolute paths that resolve under it.
type Provider interface {
	// Root returns the absolute root directory.
	Root() string
	// Exists reports whether a file is present at path.
	Exists(path string) (bool, error)
	// List returns metadata for every file under dir ending in suffix.
	List(dir, suffix string) ([]FileMeta, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Move renames oldPath to newPath. Unless overwrite is set, an existing
	// file at newPath fails the move with apperr.ErrAlreadyExists.
	Move(oldPath, newPath string, overwrite bool) error
}

var _ Provider = (*FS)(nil)
