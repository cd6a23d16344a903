// Package noteservice dispatches the user-facing note commands (new, rename,
// delete, open) against the note store and keeps the search index current.
package noteservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/starford/notepad/internal/apperr"
	"github.com/starford/notepad/internal/index"
	"github.com/starford/notepad/internal/notepad"
	"github.com/starford/notepad/internal/view"
)

// Prompter asks the user for a line of text. ok is false when the user
// dismissed the prompt.
type Prompter interface {
	Prompt(ctx context.Context, message, initial string) (value string, ok bool, err error)
}

// Reporter is the side channel for messages shown to the user.
type Reporter interface {
	Info(msg string)
	Error(msg string)
}

// Service coordinates the store, the search index and the user.
type Service struct {
	store  *notepad.Store
	idx    index.NoteIndex
	prompt Prompter
	report Reporter
	logger *slog.Logger

	mu        sync.Mutex
	listeners []func(*notepad.Note)
}

// NewService creates a note service and subscribes it to store changes.
// idx may be nil when search is not needed.
func NewService(store *notepad.Store, idx index.NoteIndex, prompt Prompter, report Reporter, logger *slog.Logger) *Service {
	s := &Service{store: store, idx: idx, prompt: prompt, report: report, logger: logger}
	store.OnChange(s.handleChange)
	return s
}

// Store returns the underlying note store.
func (s *Service) Store() *notepad.Store {
	return s.store
}

// Subscribe adds fn to the refresh fan-out.
func (s *Service) Subscribe(fn func(*notepad.Note)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// NewNote prompts for a label when none is given, creates the note and
// opens it.
func (s *Service) NewNote(ctx context.Context, label string) error {
	if label == "" {
		v, err := s.ask(ctx, "Name of the new note", "")
		if err != nil {
			return err
		}
		label = v
	}

	n, err := s.store.NewItem(ctx, label, nil, nil)
	if err != nil {
		s.fail(fmt.Sprintf("Could not create note %q", label), err)
		return nil
	}
	s.report.Info(fmt.Sprintf("Created note %q", label))

	if err := s.store.OpenItem(ctx, n); err != nil {
		s.fail(fmt.Sprintf("Could not open note %q", label), err)
	}
	return nil
}

// RenameNote prompts for a new label when none is given and renames.
func (s *Service) RenameNote(ctx context.Context, label, newLabel string) error {
	n := s.lookup(label)
	if n == nil {
		return nil
	}
	if newLabel == "" {
		v, err := s.ask(ctx, fmt.Sprintf("Rename %q to", label), label)
		if err != nil {
			return err
		}
		newLabel = v
	}

	if err := s.store.RenameItem(ctx, n, newLabel); err != nil {
		s.fail(fmt.Sprintf("Could not rename %q to %q", label, newLabel), err)
		return nil
	}
	s.report.Info(fmt.Sprintf("Renamed %q to %q", label, newLabel))
	return nil
}

// DeleteNote removes a note and its file.
func (s *Service) DeleteNote(ctx context.Context, label string) error {
	n := s.lookup(label)
	if n == nil {
		return nil
	}
	if err := s.store.DeleteItem(ctx, n); err != nil {
		s.fail(fmt.Sprintf("Could not delete note %q", label), err)
		return nil
	}
	s.report.Info(fmt.Sprintf("Deleted note %q", label))
	return nil
}

// OpenNote displays a note, creating its file first if needed.
func (s *Service) OpenNote(ctx context.Context, label string) error {
	n := s.lookup(label)
	if n == nil {
		return nil
	}
	if err := s.store.OpenItem(ctx, n); err != nil {
		s.fail(fmt.Sprintf("Could not open note %q", label), err)
	}
	return nil
}

// Tree returns display items for the root notes, filtered by an optional
// glob pattern.
func (s *Service) Tree(pattern string) ([]view.TreeItem, error) {
	notes := s.store.Roots()
	if pattern != "" {
		var err error
		notes, err = s.store.Match(pattern)
		if err != nil {
			return nil, err
		}
	}
	return view.Tree(notes), nil
}

// Search runs a full-text query over note text.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	if s.idx == nil {
		return nil, errors.New("noteservice: search index not configured")
	}
	return s.idx.Search(query, limit)
}

// Reindex brings the search index in line with the store.
func (s *Service) Reindex() error {
	if s.idx == nil {
		return nil
	}
	return index.Sync(s.idx, s.docs(), s.logger)
}

func (s *Service) handleChange(n *notepad.Note) {
	if err := s.Reindex(); err != nil {
		s.logger.Warn("reindex failed", slog.String("error", err.Error()))
	}
	s.mu.Lock()
	listeners := make([]func(*notepad.Note), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(n)
	}
}

func (s *Service) docs() []index.Doc {
	roots := s.store.Roots()
	out := make([]index.Doc, 0, len(roots))
	for _, n := range roots {
		text, _ := n.Text()
		out = append(out, index.Doc{Label: n.Label(), Text: text})
	}
	return out
}

func (s *Service) lookup(label string) *notepad.Note {
	n := s.store.Find(label)
	if n == nil {
		s.report.Error(fmt.Sprintf("Note %q not found", label))
	}
	return n
}

func (s *Service) ask(ctx context.Context, message, initial string) (string, error) {
	v, ok, err := s.prompt.Prompt(ctx, message, initial)
	if err != nil {
		return "", fmt.Errorf("noteservice: prompt: %w", err)
	}
	if !ok {
		return "", apperr.ErrCancelled
	}
	return v, nil
}

func (s *Service) fail(msg string, err error) {
	s.logger.Warn(msg, slog.String("error", err.Error()))
	s.report.Error(fmt.Sprintf("%s: %v", msg, err))
}
