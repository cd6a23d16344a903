package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/starford/notepad/internal/checksum"
	"github.com/starford/notepad/internal/index"
	"github.com/starford/notepad/internal/notepad"
	"github.com/starford/notepad/internal/noteservice"
	"github.com/starford/notepad/internal/view"
)

// Handler holds API route handlers.
type Handler struct {
	svc   *noteservice.Service
	store *notepad.Store
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc, store: svc.Store()}
}

// noteLabel extracts the label path parameter. Encoded characters from
// OpenAPI clients (e.g. my%20note) are decoded.
func noteLabel(r *http.Request) string {
	raw := chi.URLParam(r, "label")
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// find resolves the label parameter to a note, writing 404 when absent.
func (h *Handler) find(w http.ResponseWriter, r *http.Request) (*notepad.Note, string, bool) {
	label := noteLabel(r)
	n := h.store.Find(label)
	if n == nil {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return nil, label, false
	}
	return n, label, true
}

func detail(n *notepad.Note) NoteDetail {
	text, _ := n.Text()
	return NoteDetail{
		Label:    n.Label(),
		Text:     text,
		Location: n.Location(),
		Checksum: checksum.SumString(text),
		State:    n.State().String(),
	}
}

func writeNote(w http.ResponseWriter, status int, d NoteDetail) {
	w.Header().Set("ETag", `"`+d.Checksum+`"`)
	writeJSON(w, status, d)
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List top-level notes as tree items
//	@Tags			notes
//	@Produce		json
//	@Param			match	query		string	false	"Glob over labels (doublestar syntax)"
//	@Success		200		{object}	TreeResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Tree(r.URL.Query().Get("match"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, TreeResponse{Notes: items})
}

// ListOrphans handles GET /api/orphans.
//
//	@Summary		List note files that no note owns
//	@Tags			notes
//	@Produce		json
//	@Success		200	{object}	OrphansResponse
//	@Security		BearerAuth
//	@Router			/orphans [get]
func (h *Handler) ListOrphans(w http.ResponseWriter, r *http.Request) {
	labels, err := h.store.Orphans()
	if err != nil {
		writeError(w, "list orphans", "", err)
		return
	}
	if labels == nil {
		labels = []string{}
	}
	writeJSON(w, http.StatusOK, OrphansResponse{Labels: labels})
}

// ListChildren handles GET /api/notes/{label}/children.
//
//	@Summary		List the nested items of a note
//	@Tags			notes
//	@Produce		json
//	@Param			label	path		string	true	"Note label"
//	@Success		200		{object}	TreeResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{label}/children [get]
func (h *Handler) ListChildren(w http.ResponseWriter, r *http.Request) {
	n, _, ok := h.find(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, TreeResponse{Notes: view.Tree(h.store.Children(n))})
}

// GetNote handles GET /api/notes/{label}.
//
//	@Summary		Get a single note by label
//	@Tags			notes
//	@Produce		json
//	@Param			label	path		string	true	"Note label"
//	@Success		200		{object}	NoteDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{label} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	n, label, ok := h.find(w, r)
	if !ok {
		return
	}
	if _, err := h.store.ReadItem(r.Context(), n); err != nil {
		writeError(w, "get note", label, err)
		return
	}
	writeNote(w, http.StatusOK, detail(n))
}

// CreateNote handles POST /api/notes.
//
//	@Summary		Create a new note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateNoteRequest	true	"Note to create"
//	@Success		201		{object}	NoteDetail
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Label == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("label is required"))
		return
	}
	n, err := h.store.NewItem(r.Context(), req.Label, req.Text, nil)
	if err != nil {
		writeError(w, "create note", req.Label, err)
		return
	}
	writeNote(w, http.StatusCreated, detail(n))
}

// UpdateNote handles PUT /api/notes/{label}.
//
//	@Summary		Replace a note's text with optimistic concurrency
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			label		path		string				true	"Note label"
//	@Param			If-Match	header		string				false	"SHA-256 checksum of the current text"
//	@Param			body		body		UpdateNoteRequest	true	"New text"
//	@Success		200			{object}	NoteDetail
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{label} [put]
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	n, label, ok := h.find(w, r)
	if !ok {
		return
	}
	var req UpdateNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Text == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("text is required"))
		return
	}

	// Strip surrounding quotes if present (standard ETag format).
	ifMatch := strings.Trim(r.Header.Get("If-Match"), `"`)

	if err := h.store.WriteItemIfMatch(r.Context(), n, *req.Text, ifMatch); err != nil {
		writeError(w, "update note", label, err)
		return
	}
	writeNote(w, http.StatusOK, detail(n))
}

// RenameNote handles POST /api/notes/{label}/rename.
//
//	@Summary		Rename a note and move its file
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			label	path		string				true	"Current label"
//	@Param			body	body		RenameNoteRequest	true	"New label"
//	@Success		200		{object}	NoteDetail
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{label}/rename [post]
func (h *Handler) RenameNote(w http.ResponseWriter, r *http.Request) {
	n, label, ok := h.find(w, r)
	if !ok {
		return
	}
	var req RenameNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Label == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("label is required"))
		return
	}
	if err := h.store.RenameItem(r.Context(), n, req.Label); err != nil {
		writeError(w, "rename note", label, err)
		return
	}
	writeNote(w, http.StatusOK, detail(n))
}

// DeleteNote handles DELETE /api/notes/{label}.
//
//	@Summary		Delete a note and its file
//	@Tags			notes
//	@Param			label	path	string	true	"Note label"
//	@Success		204		"Note deleted"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{label} [delete]
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	n, label, ok := h.find(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteItem(r.Context(), n); err != nil {
		writeError(w, "delete note", label, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across note text
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search", "", err)
		return
	}
	if results == nil {
		results = []index.SearchResult{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

