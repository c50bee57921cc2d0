// Package models defines the domain types for mindlink.
package models

import (
	"path"
	"slices"
	"strings"
)

// Note represents a parsed note in the vault. Notes are never mutated after
// the parser produces them; updates go through the updater and the file.
type Note struct {
	Path   string         `json:"path"`
	Name   string         `json:"name"`
	Body   string         `json:"-"`
	Header map[string]any `json:"header,omitempty"`
	Keys   []string       `json:"-"` // header keys in document order
	Tags   []string       `json:"tags"`
	// Degraded is set when a header block was present but could not be decoded.
	Degraded bool `json:"degraded,omitempty"`
}

// NameOf derives the display name of a note from its vault-relative path.
func NameOf(p string) string {
	base := path.Base(strings.ReplaceAll(p, `\`, "/"))
	return strings.TrimSuffix(base, path.Ext(base))
}

// Relation is a scored edge from one note to another.
type Relation struct {
	Target string `json:"target"`
	Shared int    `json:"shared"`
}

// UpdatePayload is everything the updater needs to rewrite one note.
type UpdatePayload struct {
	Path    string
	Tags    []string
	Related []string
}

// NormalizeTags returns the tags deduplicated and sorted.
func NormalizeTags(tags []string) []string {
	out := slices.Clone(tags)
	slices.Sort(out)
	out = slices.Compact(out)
	if out == nil {
		out = []string{}
	}
	return out
}

// MergeTags unions existing and suggested tags, deduplicated and sorted.
func MergeTags(existing, suggested []string) []string {
	all := make([]string, 0, len(existing)+len(suggested))
	all = append(all, existing...)
	all = append(all, suggested...)
	return NormalizeTags(all)
}
