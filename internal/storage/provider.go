// Package storage defines the vault file-system abstraction.
package storage

import "time"

// Entry describes one candidate note file.
type Entry struct {
	Path    string    `json:"path"` // slash-separated, relative to the vault root
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Provider is the interface for vault file operations.
type Provider interface {
	// Root returns the absolute vault root.
	Root() string
	// List returns every file under dir (relative to vault root) whose
	// extension is in exts, in lexical order. Hidden entries are skipped.
	List(dir string, exts []string) ([]Entry, error)
	// Read returns the raw bytes of the file at path (relative to vault root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to vault root).
	Write(path string, content []byte) error
}
