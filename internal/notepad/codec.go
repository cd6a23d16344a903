package notepad

import (
	"fmt"

	"github.com/starford/notepad/internal/apperr"
)

// Keys of the persisted note mapping.
const (
	keyLabel    = "label"
	keyText     = "text"
	keyChildren = "children"
)

// encodeNotes turns notes into the persisted nested form. Locations are not
// persisted; they are derived again from labels on load.
func encodeNotes(notes []*Note) []any {
	out := make([]any, 0, len(notes))
	for _, n := range notes {
		out = append(out, encodeNote(n))
	}
	return out
}

func encodeNote(n *Note) map[string]any {
	n.mu.Lock()
	label, text, children := n.label, n.text, n.children
	n.mu.Unlock()

	m := map[string]any{keyLabel: label}
	if text != nil {
		m[keyText] = *text
	}
	if children != nil {
		m[keyChildren] = encodeNotes(children)
	}
	return m
}

// decodeNotes rebuilds top-level notes from the persisted form. A nil value
// decodes to no notes. Any shape violation yields an error wrapping
// apperr.ErrMalformed.
func decodeNotes(v any, files FileSystem) ([]*Note, error) {
	return decodeList(v, files, "notes", true)
}

func decodeList(v any, files FileSystem, where string, top bool) ([]*Note, error) {
	if v == nil {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s: expected a list, got %T", apperr.ErrMalformed, where, v)
	}
	out := make([]*Note, 0, len(list))
	for i, item := range list {
		n, err := decodeNote(item, files, fmt.Sprintf("%s[%d]", where, i), top)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func decodeNote(v any, files FileSystem, where string, top bool) (*Note, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s: expected a mapping, got %T", apperr.ErrMalformed, where, v)
	}

	label, ok := m[keyLabel].(string)
	if !ok || label == "" {
		return nil, fmt.Errorf("%w: %s: missing label", apperr.ErrMalformed, where)
	}
	if top {
		if err := ValidateLabel(label); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", apperr.ErrMalformed, where, err)
		}
	}

	var text *string
	if raw, present := m[keyText]; present && raw != nil {
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s: text must be a string, got %T", apperr.ErrMalformed, where, raw)
		}
		text = &s
	}

	var children []*Note
	if raw, present := m[keyChildren]; present && raw != nil {
		var err error
		children, err = decodeList(raw, nil, where+"."+keyChildren, false)
		if err != nil {
			return nil, err
		}
	}

	if !top {
		files = nil
	}
	return NewNote(files, label, text, children), nil
}
