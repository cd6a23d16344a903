// Package view maps notes to display metadata for tree hosts. It holds no
// state; everything is derived from the note on each call.
package view

import (
	"github.com/starford/notepad/internal/notepad"
	"github.com/starford/notepad/internal/parser"
)

// Collapsible is the expand state a tree host shows for an item.
type Collapsible string

const (
	CollapsibleNone      Collapsible = "none"
	CollapsibleCollapsed Collapsible = "collapsed"
)

// TreeItem is the display form of one note.
type TreeItem struct {
	ID           uint64      `json:"id"`
	Label        string      `json:"label"`
	Collapsible  Collapsible `json:"collapsible"`
	Description  string      `json:"description,omitempty"`
	Tooltip      string      `json:"tooltip,omitempty"`
	Tags         []string    `json:"tags"`
	ResourcePath string      `json:"resource_path,omitempty"`
	State        string      `json:"state"`
	Children     []TreeItem  `json:"children,omitempty"`
}

// Item describes n without descending into its children. A note is a
// container exactly when it has a children list, even an empty one.
func Item(n *notepad.Note) TreeItem {
	item := TreeItem{
		ID:           n.ID(),
		Label:        n.Label(),
		Collapsible:  CollapsibleNone,
		Tags:         []string{},
		ResourcePath: n.Location(),
		State:        n.State().String(),
	}
	if n.Children() != nil {
		item.Collapsible = CollapsibleCollapsed
	}
	if text, ok := n.Text(); ok {
		res := parser.Parse([]byte(text))
		if res.Title != "" && res.Title != item.Label {
			item.Description = res.Title
		}
		item.Tooltip = res.Summary
		if res.Tags != nil {
			item.Tags = res.Tags
		}
	}
	return item
}

// Tree describes notes and all of their descendants.
func Tree(notes []*notepad.Note) []TreeItem {
	out := make([]TreeItem, 0, len(notes))
	for _, n := range notes {
		item := Item(n)
		if children := n.Children(); len(children) > 0 {
			item.Children = Tree(children)
		}
		out = append(out, item)
	}
	return out
}
