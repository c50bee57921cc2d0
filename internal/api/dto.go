package api

import (
	"time"

	"github.com/brymcon/mindlink/internal/index"
	"github.com/brymcon/mindlink/internal/linker"
)

// NoteListItem is a lightweight item in a list response.
type NoteListItem struct {
	Path     string   `json:"path" example:"notes/hello.md" validate:"required"`
	Name     string   `json:"name" example:"hello" validate:"required"`
	Tags     []string `json:"tags" example:"go,cli"`
	Related  int      `json:"related" example:"3"`
	Degraded bool     `json:"degraded,omitempty"`
}

// NoteListResponse wraps paginated note listings.
type NoteListResponse struct {
	Notes []NoteListItem `json:"notes" validate:"required"`
	Total int            `json:"total" example:"42" validate:"required"`
}

// RelatedItem is one scored related note.
type RelatedItem struct {
	Path   string `json:"path" example:"notes/world.md" validate:"required"`
	Name   string `json:"name" example:"world" validate:"required"`
	Shared int    `json:"shared" example:"2" validate:"required"`
}

// NoteDetail is the response payload for a single note.
type NoteDetail struct {
	Path      string         `json:"path" validate:"required"`
	Name      string         `json:"name" validate:"required"`
	Tags      []string       `json:"tags"`
	Header    map[string]any `json:"frontmatter,omitempty"`
	Keys      []string       `json:"frontmatter_keys,omitempty"` // header key order
	Related   []RelatedItem  `json:"related"`
	Degraded  bool           `json:"degraded,omitempty"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// TagCount is a tag with the number of notes carrying it.
type TagCount struct {
	Tag   string `json:"tag" example:"go" validate:"required"`
	Count int    `json:"count" example:"7" validate:"required"`
}

// GraphNode is a node in the relationship graph.
type GraphNode struct {
	ID    string   `json:"id" example:"notes/hello.md" validate:"required"`
	Title string   `json:"title,omitempty" example:"hello"`
	Tags  []string `json:"tags,omitempty"`
}

// GraphLink is an undirected edge in the relationship graph.
type GraphLink struct {
	Source string `json:"source" example:"notes/hello.md" validate:"required"`
	Target string `json:"target" example:"notes/world.md" validate:"required"`
	Shared int    `json:"shared" example:"2"`
}

// GraphResponse wraps the relationship graph.
type GraphResponse struct {
	Nodes []GraphNode `json:"nodes" validate:"required"`
	Links []GraphLink `json:"links" validate:"required"`
}

// PreviewRequest optionally carries extra tags to merge.
type PreviewRequest struct {
	Tags []string `json:"tags" example:"reference"`
}

// PreviewResponse is the content a link pass would write.
type PreviewResponse struct {
	Path     string   `json:"path" validate:"required"`
	Changed  bool     `json:"changed"`
	Tags     []string `json:"tags"`
	Related  []string `json:"related"`
	Content  string   `json:"content"`
	Checksum string   `json:"checksum"`
}

// StatusResponse describes the loaded snapshot.
type StatusResponse struct {
	Notes     int              `json:"notes"`
	Tags      int              `json:"tags"`
	Connected int              `json:"connected"`
	Load      linker.LoadStats `json:"load"`
	Skipped   []index.Skip     `json:"skipped,omitempty"`
	BuiltAt   time.Time        `json:"built_at"`
}
