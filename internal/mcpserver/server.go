// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the vault's tag relationships via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/brymcon/mindlink/internal/linker"
	"github.com/brymcon/mindlink/internal/updater"
)

const formatURI = "mindlink://related-notes-format"

// RegionFormat documents the generated region written into each note.
var RegionFormat = "# Related notes region\n\n" +
	"Each linked note ends with a generated region. Text outside the markers is never changed.\n\n" +
	"```markdown\n" +
	updater.StartMarker + "\n" +
	updater.Heading + "\n" +
	"- [[other-note]]\n" +
	updater.EndMarker + "\n" +
	"```\n\n" +
	"Frontmatter `tags` is rewritten as a sorted, deduplicated list.\n"

// Server wraps the MCP server with vault tools.
type Server struct {
	mcp    *server.MCPServer
	holder *linker.Holder
}

// New creates a new MCP server with all tools registered.
func New(h *linker.Holder, version string) *Server {
	s := &Server{holder: h}

	s.mcp = server.NewMCPServer(
		"mindlink",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("related_notes",
		mcp.WithDescription("List the notes related to a note, ranked by the number of shared tags."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note (e.g. folder/note.md)")),
	), s.relatedNotes)

	s.mcp.AddTool(mcp.NewTool("notes_by_tag",
		mcp.WithDescription("List the notes carrying a tag, in vault order."),
		mcp.WithString("tag", mcp.Required(), mcp.Description("Tag to look up")),
	), s.notesByTag)

	s.mcp.AddTool(mcp.NewTool("list_tags",
		mcp.WithDescription("List every tag in the vault with its note count."),
	), s.listTags)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the full content of a Markdown note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note (e.g. folder/note.md)")),
	), s.readNote)

	s.mcp.AddResource(
		mcp.NewResource(formatURI, "Related Notes Format",
			mcp.WithResourceDescription("Format of the generated related-notes region."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFormatResource,
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

func (s *Server) snapshot() (*linker.Snapshot, *mcp.CallToolResult) {
	snap := s.holder.Current()
	if snap == nil {
		return nil, mcp.NewToolResultError("vault not loaded")
	}
	return snap, nil
}

type relatedEntry struct {
	Path   string `json:"path"`
	Name   string `json:"name"`
	Shared int    `json:"shared"`
}

func (s *Server) relatedNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	snap, errRes := s.snapshot()
	if errRes != nil {
		return errRes, nil
	}
	if !snap.Graph().Has(path) {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	rel := snap.Graph().Related(path)
	if len(rel) == 0 {
		return mcp.NewToolResultText("no related notes found"), nil
	}
	out := make([]relatedEntry, 0, len(rel))
	for _, r := range rel {
		n, _ := snap.Note(r.Target)
		out = append(out, relatedEntry{Path: r.Target, Name: n.Name, Shared: r.Shared})
	}
	data, _ := json.MarshalIndent(out, "", "  ")
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) notesByTag(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tag, err := req.RequireString("tag")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	snap, errRes := s.snapshot()
	if errRes != nil {
		return errRes, nil
	}
	notes := snap.Graph().Tags().Notes(tag)
	if len(notes) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("no notes tagged %q", tag)), nil
	}
	return mcp.NewToolResultText(strings.Join(notes, "\n")), nil
}

func (s *Server) listTags(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, errRes := s.snapshot()
	if errRes != nil {
		return errRes, nil
	}
	idx := snap.Graph().Tags()
	lines := make([]string, 0, idx.Len())
	for _, t := range idx.Tags() {
		lines = append(lines, fmt.Sprintf("%s (%d)", t, idx.Count(t)))
	}
	if len(lines) == 0 {
		return mcp.NewToolResultText("no tags found"), nil
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.holder.Store().Read(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) readFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatURI,
			MIMEType: "text/markdown",
			Text:     RegionFormat,
		},
	}, nil
}
