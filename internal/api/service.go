package api

import (
	"bytes"
	"errors"
	"slices"

	"github.com/brymcon/mindlink/internal/apperr"
	"github.com/brymcon/mindlink/internal/checksum"
	"github.com/brymcon/mindlink/internal/linker"
	"github.com/brymcon/mindlink/internal/models"
	"github.com/brymcon/mindlink/internal/updater"
)

// Service answers API queries from the current vault snapshot.
type Service struct {
	holder *linker.Holder
}

// NewService creates a new API service.
func NewService(h *linker.Holder) *Service {
	return &Service{holder: h}
}

func (s *Service) snapshot() (*linker.Snapshot, error) {
	snap := s.holder.Current()
	if snap == nil {
		return nil, apperr.ErrNotReady
	}
	return snap, nil
}

// Ready reports whether a snapshot is loaded.
func (s *Service) Ready() bool { return s.holder.Ready() }

// Status summarizes the loaded snapshot.
func (s *Service) Status() (*StatusResponse, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	g := snap.Graph()
	return &StatusResponse{
		Notes:     len(g.Paths()),
		Tags:      g.Tags().Len(),
		Connected: g.Connected(),
		Load:      snap.Stats(),
		Skipped:   g.Skipped(),
		BuiltAt:   snap.BuiltAt(),
	}, nil
}

// ListNotes returns notes in vault order, optionally filtered by tag.
func (s *Service) ListNotes(tag string, limit, offset int) ([]NoteListItem, int, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, 0, err
	}
	items := []NoteListItem{}
	for _, n := range snap.Notes() {
		if tag != "" && !slices.Contains(n.Tags, tag) {
			continue
		}
		items = append(items, NoteListItem{
			Path:     n.Path,
			Name:     n.Name,
			Tags:     n.Tags,
			Related:  len(snap.Graph().RelatedPaths(n.Path)),
			Degraded: n.Degraded,
		})
	}
	total := len(items)
	if offset > 0 {
		items = items[min(offset, total):]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items, total, nil
}

// GetNote returns a note with its related notes.
func (s *Service) GetNote(path string) (*NoteDetail, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	n, ok := snap.Note(path)
	if !ok {
		return nil, apperr.ErrNotFound
	}
	header := n.Header
	if len(header) == 0 {
		header = nil
	}
	return &NoteDetail{
		Path:      n.Path,
		Name:      n.Name,
		Tags:      n.Tags,
		Header:    header,
		Keys:      n.Keys,
		Related:   relations(snap, path),
		Degraded:  n.Degraded,
		UpdatedAt: snap.BuiltAt(),
	}, nil
}

// Related returns the scored related notes of path.
func (s *Service) Related(path string) ([]RelatedItem, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	if !snap.Graph().Has(path) {
		return nil, apperr.ErrNotFound
	}
	return relations(snap, path), nil
}

func relations(snap *linker.Snapshot, path string) []RelatedItem {
	rel := snap.Graph().Related(path)
	out := make([]RelatedItem, 0, len(rel))
	for _, r := range rel {
		out = append(out, RelatedItem{Path: r.Target, Name: models.NameOf(r.Target), Shared: r.Shared})
	}
	return out
}

// Tags returns every tag with its note count, sorted by tag.
func (s *Service) Tags() ([]TagCount, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	idx := snap.Graph().Tags()
	out := make([]TagCount, 0, idx.Len())
	for _, t := range idx.Tags() {
		out = append(out, TagCount{Tag: t, Count: idx.Count(t)})
	}
	return out, nil
}

// TagNotes returns the notes carrying tag, in vault order.
func (s *Service) TagNotes(tag string) ([]string, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	notes := snap.Graph().Tags().Notes(tag)
	if len(notes) == 0 {
		return nil, apperr.ErrNotFound
	}
	return notes, nil
}

// Graph returns every note as a node and every relation as an undirected link.
func (s *Service) Graph() (*GraphResponse, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	g := snap.Graph()
	resp := &GraphResponse{Nodes: []GraphNode{}, Links: []GraphLink{}}
	for _, p := range g.Paths() {
		n, _ := snap.Note(p)
		resp.Nodes = append(resp.Nodes, GraphNode{ID: p, Title: n.Name, Tags: n.Tags})
	}
	for _, e := range g.Edges() {
		resp.Links = append(resp.Links, GraphLink{Source: e.Source, Target: e.Target, Shared: e.Shared})
	}
	return resp, nil
}

// Preview renders the update a link pass would apply to path, merging extra
// into the existing tags. Nothing is written.
func (s *Service) Preview(path string, extra []string) (*PreviewResponse, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	p, ok := snap.Plan(path, extra)
	if !ok {
		return nil, apperr.ErrNotFound
	}
	data, err := s.holder.Store().Read(path)
	if err != nil {
		return nil, apperr.ErrNotFound
	}
	out, err := updater.Render(data, p)
	if err != nil {
		if errors.Is(err, updater.ErrMalformedHeader) || errors.Is(err, updater.ErrUnterminatedRegion) {
			return nil, errors.Join(apperr.ErrUnprocessable, err)
		}
		return nil, err
	}
	return &PreviewResponse{
		Path:     path,
		Changed:  !bytes.Equal(data, out),
		Tags:     p.Tags,
		Related:  p.Related,
		Content:  string(out),
		Checksum: checksum.Sum(out),
	}, nil
}
