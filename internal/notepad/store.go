package notepad

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/starford/notepad/internal/apperr"
)

// StateKey is the persistence key holding the note list.
const StateKey = "notepad.notes"

// ChangeFunc receives the refresh signal. n is the changed note, or nil when
// the root list itself changed.
type ChangeFunc func(n *Note)

// Store is the ordered collection of top-level notes. It persists the whole
// collection after every mutation and signals a single subscriber.
type Store struct {
	mu sync.Mutex

	files  FileSystem
	state  StateStore
	opener Opener
	logger *slog.Logger
	seed   string
	unique bool

	items    []*Note
	nextID   uint64
	onChange ChangeFunc
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = l
	}
}

// WithOpener sets the host used to display note files.
func WithOpener(o Opener) StoreOption {
	return func(s *Store) {
		s.opener = o
	}
}

// WithSeedText sets the initial content of newly created files.
func WithSeedText(text string) StoreOption {
	return func(s *Store) {
		s.seed = text
	}
}

// WithUniqueLabels toggles the store-wide label uniqueness check.
func WithUniqueLabels(on bool) StoreOption {
	return func(s *Store) {
		s.unique = on
	}
}

// NewStore creates an empty store. Call Load to populate it.
func NewStore(files FileSystem, state StateStore, opts ...StoreOption) *Store {
	s := &Store{
		files:  files,
		state:  state,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		unique: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnChange registers the refresh subscriber, replacing any previous one.
func (s *Store) OnChange(fn ChangeFunc) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Load replaces the collection with the persisted one and resolves every
// note's file. Malformed data leaves the store empty and usable; the
// returned error wraps apperr.ErrMalformed.
func (s *Store) Load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	notes, loadErr := s.decodeState()
	if loadErr != nil {
		notes = nil
	}
	seen := make(map[string]struct{}, len(notes))
	for _, n := range notes {
		s.adopt(n)
		if _, dup := seen[n.label]; dup {
			s.logger.Warn("load: duplicate label", slog.String("label", n.label))
		}
		seen[n.label] = struct{}{}
		if err := n.Create(); err != nil {
			s.logger.Warn("load: resolve failed", slog.String("label", n.label), slog.String("error", err.Error()))
		}
	}
	s.items = notes
	fn := s.onChange
	s.mu.Unlock()

	s.logger.Info("notes loaded", slog.Int("count", len(notes)))
	emit(fn, nil)
	return loadErr
}

func (s *Store) decodeState() ([]*Note, error) {
	v, ok, err := s.state.Get(StateKey)
	if err != nil {
		return nil, fmt.Errorf("notepad: load: %w", err)
	}
	if !ok {
		return nil, nil
	}
	notes, err := decodeNotes(v, s.files)
	if err != nil {
		return nil, fmt.Errorf("notepad: load: %w", err)
	}
	return notes, nil
}

// NewItem creates a note, resolves its file, appends it and persists. On
// I/O failure nothing is appended.
func (s *Store) NewItem(ctx context.Context, label string, text *string, children []*Note) (*Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ValidateLabel(label); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.unique && s.findLocked(label) != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("notepad: note %q: %w", label, apperr.ErrAlreadyExists)
	}
	n := NewNote(s.files, label, text, children)
	s.adopt(n)
	if err := n.Create(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.items = append(s.items, n)
	s.saveLocked()
	fn := s.onChange
	s.mu.Unlock()

	s.logger.Debug("note created", slog.String("label", label))
	emit(fn, nil)
	return n, nil
}

// DeleteItem removes a note and its file. Deleting a note that is not in the
// store is a no-op. If the file cannot be removed the store is unchanged.
func (s *Store) DeleteItem(ctx context.Context, n *Note) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	i := s.indexLocked(n)
	if i < 0 {
		s.mu.Unlock()
		return nil
	}
	if err := n.Delete(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.items = append(s.items[:i:i], s.items[i+1:]...)
	s.saveLocked()
	fn := s.onChange
	s.mu.Unlock()

	s.logger.Debug("note deleted", slog.String("label", n.Label()))
	emit(fn, nil)
	return nil
}

// RenameItem renames a note and moves its file.
func (s *Store) RenameItem(ctx context.Context, n *Note, label string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.indexLocked(n) < 0 {
		s.mu.Unlock()
		return fmt.Errorf("notepad: rename: %w", apperr.ErrNotFound)
	}
	if other := s.findLocked(label); s.unique && other != nil && other != n {
		s.mu.Unlock()
		return fmt.Errorf("notepad: note %q: %w", label, apperr.ErrAlreadyExists)
	}
	if err := n.Rename(label); err != nil {
		s.mu.Unlock()
		return err
	}
	s.saveLocked()
	fn := s.onChange
	s.mu.Unlock()

	s.logger.Debug("note renamed", slog.String("label", label))
	emit(fn, n)
	return nil
}

// OpenItem resolves a note and asks the configured opener to display it.
func (s *Store) OpenItem(ctx context.Context, n *Note) error {
	if !s.contains(n) {
		return fmt.Errorf("notepad: open: %w", apperr.ErrNotFound)
	}
	wasResolved := n.State() == Resolved
	if err := n.Open(ctx, s.opener); err != nil {
		return err
	}
	if !wasResolved {
		s.persist(n)
	}
	return nil
}

// ReadItem resolves a note and refreshes its mirror from disk.
func (s *Store) ReadItem(ctx context.Context, n *Note) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !s.contains(n) {
		return "", fmt.Errorf("notepad: read: %w", apperr.ErrNotFound)
	}
	changed, err := n.Reload()
	if err != nil {
		return "", err
	}
	if changed {
		s.persist(n)
	}
	text, _ := n.Text()
	return text, nil
}

// WriteItem replaces a note's text on disk and in memory.
func (s *Store) WriteItem(ctx context.Context, n *Note, text string) error {
	return s.WriteItemIfMatch(ctx, n, text, "")
}

// WriteItemIfMatch is WriteItem guarded by the checksum of the note's
// current file content. An empty sum writes unconditionally.
func (s *Store) WriteItemIfMatch(ctx context.Context, n *Note, text, sum string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.contains(n) {
		return fmt.Errorf("notepad: write: %w", apperr.ErrNotFound)
	}
	if err := n.WriteIfMatch(text, sum); err != nil {
		return err
	}
	s.persist(n)
	return nil
}

// DocumentSaved handles a save notification for path. It reports whether a
// note owns the file; identical text is ignored.
func (s *Store) DocumentSaved(ctx context.Context, path, text string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("notepad: save notification: %w", err)
	}

	s.mu.Lock()
	var owner *Note
	for _, n := range s.items {
		if n.Location() == abs {
			owner = n
			break
		}
	}
	if owner == nil {
		s.mu.Unlock()
		return false, nil
	}
	if cur, ok := owner.Text(); ok && cur == text {
		s.mu.Unlock()
		return true, nil
	}
	owner.SetText(text)
	s.saveLocked()
	fn := s.onChange
	s.mu.Unlock()

	s.logger.Debug("note text synced", slog.String("label", owner.Label()))
	emit(fn, owner)
	return true, nil
}

// Roots returns the top-level notes in display order.
func (s *Store) Roots() []*Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Note, len(s.items))
	copy(out, s.items)
	return out
}

// Children returns the children of n, nil for a leaf.
func (s *Store) Children(n *Note) []*Note {
	return n.Children()
}

// Find returns the top-level note with label, or nil.
func (s *Store) Find(label string) *Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findLocked(label)
}

// Match returns the top-level notes whose labels match a doublestar glob.
func (s *Store) Match(pattern string) ([]*Note, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("notepad: match %q: %w", pattern, doublestar.ErrBadPattern)
	}
	var out []*Note
	for _, n := range s.Roots() {
		ok, err := doublestar.Match(pattern, n.Label())
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, n)
		}
	}
	return out, nil
}

// Orphans returns the labels of note files on disk that no top-level note
// owns, sorted. Creating a note with such a label adopts the file.
func (s *Store) Orphans() ([]string, error) {
	dir := filepath.Join(s.files.Root(), Dir)
	files, err := s.files.List(dir, Ext)
	if err != nil {
		return nil, fmt.Errorf("notepad: orphans: %w", err)
	}

	owned := make(map[string]struct{})
	for _, n := range s.Roots() {
		if loc := n.Location(); loc != "" {
			owned[loc] = struct{}{}
		}
	}

	var out []string
	for _, f := range files {
		if filepath.Dir(f.Path) != dir {
			continue
		}
		if _, ok := owned[f.Path]; ok {
			continue
		}
		label := strings.TrimSuffix(filepath.Base(f.Path), Ext)
		if ValidateLabel(label) != nil {
			continue
		}
		out = append(out, label)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) contains(n *Note) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexLocked(n) >= 0
}

// persist saves and signals a change of n if it is still in the store.
func (s *Store) persist(n *Note) {
	s.mu.Lock()
	if s.indexLocked(n) < 0 {
		s.mu.Unlock()
		return
	}
	s.saveLocked()
	fn := s.onChange
	s.mu.Unlock()
	emit(fn, n)
}

func (s *Store) adopt(n *Note) {
	s.nextID++
	n.mu.Lock()
	n.id = s.nextID
	n.seed = s.seed
	n.mu.Unlock()
}

func (s *Store) indexLocked(n *Note) int {
	for i, it := range s.items {
		if it == n {
			return i
		}
	}
	return -1
}

func (s *Store) findLocked(label string) *Note {
	for _, n := range s.items {
		if n.Label() == label {
			return n
		}
	}
	return nil
}

// saveLocked writes the collection to the state store. Persistence failures
// are logged; in-memory state stays authoritative.
func (s *Store) saveLocked() {
	if err := s.state.Set(StateKey, encodeNotes(s.items)); err != nil {
		s.logger.Error("save failed", slog.String("error", err.Error()))
	}
}

func emit(fn ChangeFunc, n *Note) {
	if fn != nil {
		fn(n)
	}
}

// IsMalformed reports whether err came from unreadable persisted data.
func IsMalformed(err error) bool {
	return errors.Is(err, apperr.ErrMalformed)
}
