package api

import (
	"github.com/starford/notepad/internal/index"
	"github.com/starford/notepad/internal/view"
)

// CreateNoteRequest is the request body for creating a note.
type CreateNoteRequest struct {
	Label string  `json:"label" example:"groceries" validate:"required"`
	Text  *string `json:"text,omitempty" example:"milk, eggs"`
}

// UpdateNoteRequest is the request body for replacing a note's text.
type UpdateNoteRequest struct {
	Text *string `json:"text" example:"milk, eggs, bread" validate:"required"`
}

// RenameNoteRequest is the request body for renaming a note.
type RenameNoteRequest struct {
	Label string `json:"label" example:"shopping" validate:"required"`
}

// NoteDetail is the full note response type.
type NoteDetail struct {
	Label    string `json:"label" example:"groceries" validate:"required"`
	Text     string `json:"text" example:"milk, eggs" validate:"required"`
	Location string `json:"location" example:"/home/me/notes/notepad/groceries.note" validate:"required"`
	Checksum string `json:"checksum" example:"abc123..." validate:"required"`
	State    string `json:"state" example:"resolved" validate:"required"`
}

// TreeResponse wraps display items for a list of notes.
type TreeResponse struct {
	Notes []view.TreeItem `json:"notes" validate:"required"`
}

// OrphansResponse lists note files on disk that no note owns.
type OrphansResponse struct {
	Labels []string `json:"labels" example:"old-draft" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results" validate:"required"`
}
