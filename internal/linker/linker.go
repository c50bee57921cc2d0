package linker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/brymcon/mindlink/internal/index"
	"github.com/brymcon/mindlink/internal/oracle"
	"github.com/brymcon/mindlink/internal/storage"
	"github.com/brymcon/mindlink/internal/updater"
)

// Oracle suggests concepts and tags for a note. *oracle.Client implements it.
type Oracle interface {
	ExtractConcepts(ctx context.Context, text string) ([]string, error)
	SuggestTags(ctx context.Context, text string, related []oracle.RelatedNote, concepts []string) ([]string, error)
}

// Status is the per-note result of a link pass.
type Status string

const (
	StatusUpdated   Status = "updated"
	StatusUnchanged Status = "unchanged"
	StatusPlanned   Status = "planned"
	StatusFailed    Status = "failed"
)

// NoteResult records what happened to one note.
type NoteResult struct {
	Path      string   `json:"path"`
	Status    Status   `json:"status"`
	Tags      []string `json:"tags,omitempty"`
	Related   []string `json:"related,omitempty"`
	Suggested []string `json:"suggested,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// Summary reports a whole link pass.
type Summary struct {
	Load           LoadStats    `json:"load"`
	GraphSkipped   int          `json:"graph_skipped"`
	Connected      int          `json:"connected"`
	Updated        int          `json:"updated"`
	Unchanged      int          `json:"unchanged"`
	Planned        int          `json:"planned"`
	Failed         int          `json:"failed"`
	OracleFailures int          `json:"oracle_failures"`
	DryRun         bool         `json:"dry_run"`
	Results        []NoteResult `json:"results"`
}

// Linker runs the link pass over a vault.
type Linker struct {
	store   storage.Provider
	exts    []string
	opts    index.Options
	oracle  Oracle
	updater *updater.Updater
	logger  *slog.Logger
}

// New creates a Linker. oracle may be nil, in which case existing tags are
// only normalized and related-notes regions refreshed.
func New(store storage.Provider, exts []string, opts index.Options, o Oracle, u *updater.Updater, logger *slog.Logger) *Linker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Linker{store: store, exts: exts, opts: opts, oracle: o, updater: u, logger: logger}
}

// Run loads the vault, computes the relationship graph, then for each note in
// vault order asks the oracle for tags and applies the update. Notes are
// processed one at a time; a cancelled ctx stops before the next note and
// returns the partial summary with ctx's error.
func (l *Linker) Run(ctx context.Context) (*Summary, error) {
	notes, stats, err := Load(l.store, l.exts, l.logger)
	if err != nil {
		return nil, err
	}
	snap := NewSnapshot(notes, stats, l.opts)
	g := snap.Graph()
	for _, s := range g.Skipped() {
		l.logger.Warn("note excluded from graph",
			slog.Int("position", s.Position),
			slog.String("path", s.Path),
			slog.String("reason", s.Reason))
	}

	sum := &Summary{
		Load:         stats,
		GraphSkipped: len(g.Skipped()),
		Connected:    g.Connected(),
		DryRun:       l.updater.DryRun(),
	}
	paths := g.Paths()
	l.logger.Info("relationships computed",
		slog.Int("notes", len(paths)),
		slog.Int("connected", sum.Connected),
		slog.Int("threshold", l.opts.Threshold),
		slog.Int("limit", l.opts.Limit))

	for i, p := range paths {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		res := l.linkNote(ctx, snap, p, sum)
		sum.Results = append(sum.Results, res)
		switch res.Status {
		case StatusUpdated:
			sum.Updated++
		case StatusUnchanged:
			sum.Unchanged++
		case StatusPlanned:
			sum.Planned++
		case StatusFailed:
			sum.Failed++
		}
		l.logger.Info("note processed",
			slog.String("path", p),
			slog.String("status", string(res.Status)),
			slog.String("progress", fmt.Sprintf("%d/%d", i+1, len(paths))))
	}
	return sum, nil
}

func (l *Linker) linkNote(ctx context.Context, snap *Snapshot, path string, sum *Summary) NoteResult {
	n, _ := snap.Note(path)
	if n.Degraded {
		// Malformed headers are never rewritten.
		return l.failed(NoteResult{Path: path, Tags: n.Tags}, updater.ErrMalformedHeader)
	}
	suggested := l.suggest(ctx, snap, path, n.Body, sum)

	p, _ := snap.Plan(path, suggested)
	res := NoteResult{Path: path, Tags: p.Tags, Related: p.Related, Suggested: suggested}

	out, err := l.updater.Apply(p)
	if err != nil {
		return l.failed(res, err)
	}
	res.Status = Status(out)
	return res
}

func (l *Linker) failed(res NoteResult, err error) NoteResult {
	res.Status = StatusFailed
	res.Error = err.Error()
	attrs := []any{slog.String("path", res.Path), slog.String("error", err.Error())}
	if errors.Is(err, updater.ErrMalformedHeader) {
		l.logger.Warn("note left untouched", attrs...)
	} else {
		l.logger.Error("update failed", attrs...)
	}
	return res
}

// suggest asks the oracle for tags. Oracle failures are counted and degrade
// to no suggestions.
func (l *Linker) suggest(ctx context.Context, snap *Snapshot, path, body string, sum *Summary) []string {
	if l.oracle == nil {
		return nil
	}
	concepts, err := l.oracle.ExtractConcepts(ctx, body)
	if err != nil {
		sum.OracleFailures++
		l.logger.Warn("concept extraction failed", slog.String("path", path), slog.String("error", err.Error()))
		concepts = nil
	}
	l.logger.Debug("key concepts", slog.String("path", path), slog.Any("concepts", concepts))

	tags, err := l.oracle.SuggestTags(ctx, body, snap.RelatedContext(path), concepts)
	if err != nil {
		sum.OracleFailures++
		l.logger.Warn("tag suggestion failed", slog.String("path", path), slog.String("error", err.Error()))
		return nil
	}
	return tags
}
