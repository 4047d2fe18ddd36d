// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Ansuz tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/ansuz/internal/noteservice"
)

// Server wraps the MCP server with Ansuz tools.
type Server struct {
	mcp *server.MCPServer
	svc *noteservice.Service
}

// New creates a new MCP server with all Ansuz tools registered.
func New(svc *noteservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Ansuz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Search note titles, aliases, keywords and abstracts."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("get_note",
		mcp.WithDescription("Read a note with its content, derived status and backlinks."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Ten-digit note ID")),
	), s.getNote)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the raw content of a note."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Ten-digit note ID")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a new note skeleton. The ID is derived from the "+
			"current timestamp. The skeleton follows the canonical note format; read "+
			"the contract first via the get_note_contract tool or the "+
			"ansuz://note-format resource, then fill in the title and body."),
		mcp.WithBoolean("metadata", mcp.Description("Include the metadata comment block")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find every location that references the specified note."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Ten-digit note ID")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("format_note",
		mcp.WithDescription("Normalize a note on disk: resolve reference checkboxes, "+
			"aggregate nested checklists and correct the status tag."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Ten-digit note ID")),
	), s.formatNote)

	s.mcp.AddTool(mcp.NewTool("reconcile_note",
		mcp.WithDescription("Recompute the note's status and propagate it into the "+
			"checkbox state of every referencing file."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Ten-digit note ID")),
	), s.reconcileNote)

	s.mcp.AddTool(mcp.NewTool("get_note_contract",
		mcp.WithDescription("Returns the canonical Ansuz note format contract. "+
			"Call this before creating or editing notes to ensure correct structure."),
	), s.getNoteContract)

	// Resource: note format contract.
	s.mcp.AddResource(
		mcp.NewResource("ansuz://note-format", "Note Format Contract",
			mcp.WithResourceDescription("Canonical Typst note format that all notes must follow."),
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

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results := s.svc.Search(ctx, query)
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.GetNote(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	out, _ := json.MarshalIndent(note, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.GetNote(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	return mcp.NewToolResultText(note.Content), nil
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	withMetadata := req.GetBool("metadata", false)

	id, err := s.svc.CreateNote(ctx, withMetadata)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", id)), nil
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	locs := s.svc.Backlinks(ctx, id)
	if len(locs) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	out, _ := json.MarshalIndent(locs, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) formatNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	changed, err := s.svc.FormatNote(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !changed {
		return mcp.NewToolResultText("already formatted"), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("formatted: %s", id)), nil
}

func (s *Server) reconcileNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	edits, err := s.svc.Reconcile(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("updated %d file(s)", len(edits))), nil
}

func (s *Server) getNoteContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteFormatContract), nil
}

func (s *Server) readNoteFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "ansuz://note-format",
			MIMEType: "text/markdown",
			Text:     NoteFormatContract,
		},
	}, nil
}
