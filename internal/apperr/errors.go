// Package apperr holds the sentinel errors shared across packages.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidLabel  = errors.New("invalid label")
	ErrDeleted       = errors.New("note deleted")
	ErrMalformed     = errors.New("malformed persisted data")
	ErrCancelled     = errors.New("cancelled")
)
