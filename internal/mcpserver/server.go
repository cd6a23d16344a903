// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes note tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/notepad/internal/checksum"
	"github.com/starford/notepad/internal/notepad"
	"github.com/starford/notepad/internal/noteservice"
)

const formatURI = "notepad://note-format"

// Server wraps the MCP server with note tools.
type Server struct {
	mcp   *server.MCPServer
	svc   *noteservice.Service
	store *notepad.Store
}

type noteResult struct {
	Label    string `json:"label"`
	Text     string `json:"text"`
	Checksum string `json:"checksum"`
}

// New creates a new MCP server with all note tools registered.
func New(svc *noteservice.Service, version string) *Server {
	s := &Server{svc: svc, store: svc.Store()}

	s.mcp = server.NewMCPServer(
		"Notepad",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List notes as tree items, optionally filtered by a glob over labels."),
		mcp.WithString("match", mcp.Description("Optional glob (e.g. work-*)")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the text of a note along with its checksum."),
		mcp.WithString("label", mcp.Required(), mcp.Description("Note label")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a new note. If a file for the label already exists on disk "+
			"its content is kept. Read the format via get_note_contract or "+formatURI+" first."),
		mcp.WithString("label", mcp.Required(), mcp.Description("Label of the new note")),
		mcp.WithString("text", mcp.Description("Initial text")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("write_note",
		mcp.WithDescription("Replace the text of a note."),
		mcp.WithString("label", mcp.Required(), mcp.Description("Note label")),
		mcp.WithString("text", mcp.Required(), mcp.Description("New text")),
		mcp.WithString("checksum", mcp.Description("Checksum from read_note; the write fails if the file changed since")),
	), s.writeNote)

	s.mcp.AddTool(mcp.NewTool("rename_note",
		mcp.WithDescription("Rename a note and move its file. Never overwrites another note."),
		mcp.WithString("label", mcp.Required(), mcp.Description("Current label")),
		mcp.WithString("new_label", mcp.Required(), mcp.Description("New label")),
	), s.renameNote)

	s.mcp.AddTool(mcp.NewTool("delete_note",
		mcp.WithDescription("Delete a note and its file."),
		mcp.WithString("label", mcp.Required(), mcp.Description("Note label")),
	), s.deleteNote)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Full-text search through note text, titles and tags."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 20)")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("get_note_contract",
		mcp.WithDescription("Returns the note format and label rules. "+
			"Call this before creating or renaming notes."),
	), s.getNoteContract)

	s.mcp.AddResource(
		mcp.NewResource(formatURI, "Note Format",
			mcp.WithResourceDescription("Note file format and label rules."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) find(label string) (*notepad.Note, *mcp.CallToolResult) {
	n := s.store.Find(label)
	if n == nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("not found: %s", label))
	}
	return n, nil
}

func (s *Server) listNotes(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := s.svc.Tree(req.GetString("match", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(items)
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	label, err := req.RequireString("label")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, miss := s.find(label)
	if miss != nil {
		return miss, nil
	}
	text, err := s.store.ReadItem(ctx, n)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(noteResult{Label: n.Label(), Text: text, Checksum: checksum.SumString(text)})
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	label, err := req.RequireString("label")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var text *string
	if v, ok := req.GetArguments()["text"].(string); ok {
		text = &v
	}

	if _, err := s.store.NewItem(ctx, label, text, nil); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", label)), nil
}

func (s *Server) writeNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	label, err := req.RequireString("label")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, miss := s.find(label)
	if miss != nil {
		return miss, nil
	}
	if err := s.store.WriteItemIfMatch(ctx, n, text, req.GetString("checksum", "")); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("written: %s", label)), nil
}

func (s *Server) renameNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	label, err := req.RequireString("label")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	newLabel, err := req.RequireString("new_label")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, miss := s.find(label)
	if miss != nil {
		return miss, nil
	}
	if err := s.store.RenameItem(ctx, n, newLabel); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("renamed: %s -> %s", label, newLabel)), nil
}

func (s *Server) deleteNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	label, err := req.RequireString("label")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, miss := s.find(label)
	if miss != nil {
		return miss, nil
	}
	if err := s.store.DeleteItem(ctx, n); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", label)), nil
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, req.GetInt("limit", 20))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("no matches"), nil
	}
	return jsonResult(results)
}

func (s *Server) getNoteContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteFormatContract), nil
}

func (s *Server) readNoteFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatURI,
			MIMEType: "text/markdown",
			Text:     NoteFormatContract,
		},
	}, nil
}
