// Package linker loads a vault, scores note relationships and drives the
// tag suggestion and update pass over every note.
package linker

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/brymcon/mindlink/internal/index"
	"github.com/brymcon/mindlink/internal/models"
	"github.com/brymcon/mindlink/internal/oracle"
	"github.com/brymcon/mindlink/internal/parser"
	"github.com/brymcon/mindlink/internal/storage"
)

// LoadStats counts what Load saw.
type LoadStats struct {
	Files      int `json:"files"`
	Parsed     int `json:"parsed"`
	Unreadable int `json:"unreadable"`
	NotText    int `json:"not_text"`
	Degraded   int `json:"degraded"`
}

// Skipped is the number of files that did not become notes.
func (s LoadStats) Skipped() int { return s.Unreadable + s.NotText }

// Load reads and parses every note file under the store root. Files that
// cannot be read or are not text are skipped and counted; a malformed header
// degrades the note but keeps it.
func Load(store storage.Provider, exts []string, logger *slog.Logger) ([]models.Note, LoadStats, error) {
	entries, err := store.List("", exts)
	if err != nil {
		return nil, LoadStats{}, fmt.Errorf("linker: load vault: %w", err)
	}

	stats := LoadStats{Files: len(entries)}
	notes := make([]models.Note, 0, len(entries))
	for _, e := range entries {
		data, err := store.Read(e.Path)
		if err != nil {
			stats.Unreadable++
			logger.Warn("skipping unreadable file", slog.String("path", e.Path), slog.String("error", err.Error()))
			continue
		}
		n, err := parser.Parse(e.Path, data)
		if err != nil {
			if errors.Is(err, parser.ErrNotText) {
				stats.NotText++
				logger.Warn("skipping non-text file", slog.String("path", e.Path))
			} else {
				stats.Unreadable++
				logger.Warn("skipping file", slog.String("path", e.Path), slog.String("error", err.Error()))
			}
			continue
		}
		if n.Degraded {
			stats.Degraded++
			logger.Warn("malformed frontmatter ignored", slog.String("path", e.Path))
		}
		notes = append(notes, n)
	}
	stats.Parsed = len(notes)
	logger.Info("vault loaded",
		slog.Int("notes", stats.Parsed),
		slog.Int("skipped", stats.Skipped()),
		slog.Int("degraded", stats.Degraded))
	return notes, stats, nil
}

// Snapshot is an immutable view of a loaded vault and its relationship graph.
type Snapshot struct {
	notes   []models.Note
	byPath  map[string]int
	graph   *index.Graph
	stats   LoadStats
	builtAt time.Time
}

// NewSnapshot scores notes with opts.
func NewSnapshot(notes []models.Note, stats LoadStats, opts index.Options) *Snapshot {
	s := &Snapshot{
		notes:   notes,
		byPath:  make(map[string]int, len(notes)),
		graph:   index.Compute(notes, opts),
		stats:   stats,
		builtAt: time.Now(),
	}
	for i, n := range notes {
		if _, ok := s.byPath[n.Path]; !ok {
			s.byPath[n.Path] = i
		}
	}
	return s
}

// Note returns the note at path.
func (s *Snapshot) Note(path string) (models.Note, bool) {
	i, ok := s.byPath[path]
	if !ok {
		return models.Note{}, false
	}
	return s.notes[i], true
}

// Notes returns every loaded note in vault order.
func (s *Snapshot) Notes() []models.Note { return s.notes }

// Graph returns the relationship graph.
func (s *Snapshot) Graph() *index.Graph { return s.graph }

// Stats returns the load counters.
func (s *Snapshot) Stats() LoadStats { return s.stats }

// BuiltAt is when the snapshot was computed.
func (s *Snapshot) BuiltAt() time.Time { return s.builtAt }

// Plan returns the update payload for path with suggested merged into its
// existing tags.
func (s *Snapshot) Plan(path string, suggested []string) (models.UpdatePayload, bool) {
	n, ok := s.Note(path)
	if !ok || !s.graph.Has(path) {
		return models.UpdatePayload{}, false
	}
	return models.UpdatePayload{
		Path:    path,
		Tags:    models.MergeTags(n.Tags, suggested),
		Related: s.graph.RelatedPaths(path),
	}, true
}

// RelatedContext returns the related notes of path as oracle context.
func (s *Snapshot) RelatedContext(path string) []oracle.RelatedNote {
	paths := s.graph.RelatedPaths(path)
	out := make([]oracle.RelatedNote, 0, len(paths))
	for _, p := range paths {
		if n, ok := s.Note(p); ok {
			out = append(out, oracle.RelatedNote{Name: n.Name, Tags: n.Tags})
		}
	}
	return out
}
