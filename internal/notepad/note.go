// Package notepad implements the note model: notes backed by small files
// under <root>/notepad/, and an ordered store of top-level notes persisted
// to a key/value state store.
package notepad

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/starford/notepad/internal/apperr"
	"github.com/starford/notepad/internal/checksum"
)

// State tracks whether a note has a confirmed backing file.
type State int

const (
	Unresolved State = iota
	Resolved
	Deleted
)

func (s State) String() string {
	switch s {
	case Unresolved:
		return "unresolved"
	case Resolved:
		return "resolved"
	case Deleted:
		return "deleted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var errNoFiles = errors.New("notepad: note has no backing storage")

// Note is a single entry: a label, optional text, optional children and a
// backing file once resolved. Only top-level notes own files; children are
// nested records carried through persistence.
//
// All file I/O on a note is serialized by its mutex.
type Note struct {
	mu sync.Mutex

	files FileSystem
	seed  string

	id       uint64
	label    string
	text     *string
	children []*Note
	location string
	state    State
}

// NewNote returns an unresolved note. files may be nil for notes that never
// touch disk (children). A nil children slice marks a leaf.
func NewNote(files FileSystem, label string, text *string, children []*Note) *Note {
	return &Note{
		files:    files,
		label:    label,
		text:     text,
		children: children,
	}
}

// ID returns the store-local identifier, zero until the note joins a store.
func (n *Note) ID() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.id
}

// Label returns the current label.
func (n *Note) Label() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.label
}

// Text returns the in-memory mirror of the file contents. ok is false when
// no text has been set or read yet.
func (n *Note) Text() (text string, ok bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.text == nil {
		return "", false
	}
	return *n.text, true
}

// Children returns a copy of the child list, nil for a leaf.
func (n *Note) Children() []*Note {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.children == nil {
		return nil
	}
	out := make([]*Note, len(n.children))
	copy(out, n.children)
	return out
}

// Location returns the backing file path, empty while unresolved.
func (n *Note) Location() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.location
}

// State returns the file resolution state.
func (n *Note) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// SetText overwrites the in-memory mirror, typically after the file was
// edited outside the store.
func (n *Note) SetText(text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.text = &text
}

// Create ensures a backing file exists. Existing file content wins over the
// in-memory text.
func (n *Note) Create() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.ensureResolved()
}

// Open resolves the note and asks o to display its file.
func (n *Note) Open(ctx context.Context, o Opener) error {
	n.mu.Lock()
	err := n.ensureResolved()
	loc := n.location
	n.mu.Unlock()
	if err != nil {
		return err
	}
	if o == nil {
		return nil
	}
	if err := o.Open(ctx, loc); err != nil {
		return fmt.Errorf("notepad: open %s: %w", loc, err)
	}
	return nil
}

// Rename changes the label and moves the backing file. A file already
// present at the new location is never overwritten: the rename fails with
// apperr.ErrAlreadyExists and the note keeps its old label.
func (n *Note) Rename(label string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.state == Deleted {
		return apperr.ErrDeleted
	}
	if n.files == nil {
		return errNoFiles
	}
	if label == n.label {
		return nil
	}
	dst, err := Location(n.files.Root(), label)
	if err != nil {
		return err
	}
	taken, err := n.files.Exists(dst)
	if err != nil {
		return fmt.Errorf("notepad: rename %q: %w", n.label, err)
	}
	if taken {
		return fmt.Errorf("notepad: rename %q to %q: %w", n.label, label, apperr.ErrAlreadyExists)
	}

	if n.state == Resolved {
		if err := n.files.Move(n.location, dst, false); err != nil {
			return fmt.Errorf("notepad: rename %q to %q: %w", n.label, label, err)
		}
		n.label = label
		n.location = dst
		return nil
	}

	old := n.label
	n.label = label
	if err := n.ensureResolved(); err != nil {
		n.label = old
		return err
	}
	return nil
}

// Delete removes the backing file, if any. A deleted note is terminal.
func (n *Note) Delete() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.state == Resolved {
		if err := n.files.Delete(n.location); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("notepad: delete %q: %w", n.label, err)
		}
	}
	n.state = Deleted
	n.location = ""
	return nil
}

// Write stores text in the backing file and the mirror.
func (n *Note) Write(text string) error {
	return n.WriteIfMatch(text, "")
}

// WriteIfMatch is Write guarded by the checksum of the current file
// content. A mismatch fails with apperr.ErrConflict and leaves the file
// untouched. An empty sum skips the check.
func (n *Note) WriteIfMatch(text, sum string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if err := n.ensureResolved(); err != nil {
		return err
	}
	if sum != "" {
		cur, err := n.files.Read(n.location)
		if err != nil {
			return fmt.Errorf("notepad: write %q: %w", n.label, err)
		}
		if checksum.Sum(cur) != sum {
			return fmt.Errorf("notepad: write %q: %w", n.label, apperr.ErrConflict)
		}
	}
	if err := n.files.Write(n.location, []byte(text)); err != nil {
		return fmt.Errorf("notepad: write %q: %w", n.label, err)
	}
	n.text = &text
	return nil
}

// Reload re-reads the backing file into the mirror and reports whether the
// text changed.
func (n *Note) Reload() (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.state == Resolved {
		data, err := n.files.Read(n.location)
		if err != nil {
			return false, fmt.Errorf("notepad: reload %q: %w", n.label, err)
		}
		text := string(data)
		changed := n.text == nil || *n.text != text
		n.text = &text
		return changed, nil
	}

	before := n.text
	if err := n.ensureResolved(); err != nil {
		return false, err
	}
	return before == nil || n.text == nil || *before != *n.text, nil
}

// ensureResolved is the single transition Unresolved → Resolved shared by
// create and open. Callers hold n.mu.
func (n *Note) ensureResolved() error {
	switch n.state {
	case Resolved:
		return nil
	case Deleted:
		return apperr.ErrDeleted
	}
	if n.files == nil {
		return errNoFiles
	}

	loc, err := Location(n.files.Root(), n.label)
	if err != nil {
		return err
	}
	exists, err := n.files.Exists(loc)
	if err != nil {
		return fmt.Errorf("notepad: resolve %q: %w", n.label, err)
	}

	if exists {
		data, err := n.files.Read(loc)
		if err != nil {
			return fmt.Errorf("notepad: resolve %q: %w", n.label, err)
		}
		text := string(data)
		n.text = &text
	} else {
		content := n.seed
		if n.text != nil {
			content = *n.text
		}
		if err := n.files.Write(loc, []byte(content)); err != nil {
			return fmt.Errorf("notepad: create %q: %w", n.label, err)
		}
		n.text = &content
	}

	n.location = loc
	n.state = Resolved
	return nil
}
