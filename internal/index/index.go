package index

// NoteIndex defines the search operations the rest of the app relies on.
// Consumers should depend on this interface rather than the concrete
// *Workspace type to facilitate testing with mocks.
type NoteIndex interface {
	UpsertNote(n NoteRow, body string) error
	DeleteNote(label string) error
	AllChecksums() (map[string]string, error)
	Search(query string, limit int) ([]SearchResult, error)
}

// Verify *Workspace satisfies NoteIndex at compile time.
var _ NoteIndex = (*Workspace)(nil)
