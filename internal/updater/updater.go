package updater

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/brymcon/mindlink/internal/models"
	"github.com/brymcon/mindlink/internal/storage"
)

// Outcome is the effect Apply had on a note.
type Outcome string

const (
	// Updated means the note was rewritten.
	Updated Outcome = "updated"
	// Unchanged means the note already matched the payload.
	Unchanged Outcome = "unchanged"
	// Planned means a rewrite was due but dry-run suppressed it.
	Planned Outcome = "planned"
)

// Updater applies update payloads to notes in a vault.
type Updater struct {
	store  storage.Provider
	dryRun bool
	logger *slog.Logger
}

// Option configures an Updater.
type Option func(*Updater)

// WithDryRun disables all writes when enabled.
func WithDryRun(enabled bool) Option {
	return func(u *Updater) { u.dryRun = enabled }
}

// WithLogger sets the logger used for per-note diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(u *Updater) { u.logger = l }
}

// New creates an Updater writing through store.
func New(store storage.Provider, opts ...Option) *Updater {
	u := &Updater{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// DryRun reports whether writes are suppressed.
func (u *Updater) DryRun() bool { return u.dryRun }

// Apply rewrites the note named by p.Path. Content that already matches is
// not written again; in dry-run mode nothing is written at all.
func (u *Updater) Apply(p models.UpdatePayload) (Outcome, error) {
	data, err := u.store.Read(p.Path)
	if err != nil {
		return "", err
	}
	out, err := Render(data, p)
	if err != nil {
		return "", fmt.Errorf("%s: %w", p.Path, err)
	}
	if bytes.Equal(data, out) {
		return Unchanged, nil
	}
	if u.dryRun {
		u.logger.Info("dry run: note would change",
			slog.String("path", p.Path),
			slog.Int("bytes_before", len(data)),
			slog.Int("bytes_after", len(out)))
		return Planned, nil
	}
	if err := u.store.Write(p.Path, out); err != nil {
		return "", err
	}
	u.logger.Debug("note updated", slog.String("path", p.Path))
	return Updated, nil
}
