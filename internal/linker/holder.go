package linker

import (
	"log/slog"
	"sync"

	"github.com/brymcon/mindlink/internal/index"
	"github.com/brymcon/mindlink/internal/storage"
)

// Holder owns the current snapshot for long-running readers. Rebuild swaps
// in a fresh snapshot; readers never see a partial one.
type Holder struct {
	store  storage.Provider
	exts   []string
	opts   index.Options
	logger *slog.Logger

	mu   sync.RWMutex
	snap *Snapshot
}

// NewHolder creates an empty Holder. Call Rebuild before Current.
func NewHolder(store storage.Provider, exts []string, opts index.Options, logger *slog.Logger) *Holder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Holder{store: store, exts: exts, opts: opts, logger: logger}
}

// Rebuild reloads the vault and replaces the current snapshot. On error the
// previous snapshot stays in place.
func (h *Holder) Rebuild() (*Snapshot, error) {
	notes, stats, err := Load(h.store, h.exts, h.logger)
	if err != nil {
		return nil, err
	}
	snap := NewSnapshot(notes, stats, h.opts)

	h.mu.Lock()
	h.snap = snap
	h.mu.Unlock()
	return snap, nil
}

// Current returns the latest snapshot, or nil before the first Rebuild.
func (h *Holder) Current() *Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.snap
}

// Ready reports whether a snapshot has been built.
func (h *Holder) Ready() bool { return h.Current() != nil }

// Store returns the vault storage.
func (h *Holder) Store() storage.Provider { return h.store }
