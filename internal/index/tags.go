// Package index builds the tag index and the shared-tag relationship graph
// for a vault.
package index

import (
	"sort"

	"github.com/brymcon/mindlink/internal/models"
)

// TagIndex maps each tag to the notes carrying it. Postings keep the order in
// which notes were added, so iteration is deterministic for a given vault order.
type TagIndex struct {
	postings map[string][]int // tag → positions into paths
	paths    []string
}

// BuildTagIndex indexes notes in the given order. A note appears under a tag
// once, however often the tag repeats in its header.
func BuildTagIndex(notes []models.Note) *TagIndex {
	idx := &TagIndex{postings: make(map[string][]int)}
	for _, n := range notes {
		idx.add(n)
	}
	return idx
}

func (idx *TagIndex) add(n models.Note) int {
	pos := len(idx.paths)
	idx.paths = append(idx.paths, n.Path)
	for _, t := range n.Tags {
		list := idx.postings[t]
		if len(list) > 0 && list[len(list)-1] == pos {
			continue
		}
		idx.postings[t] = append(list, pos)
	}
	return pos
}

// Notes returns the paths of the notes tagged with tag, in vault order.
func (idx *TagIndex) Notes(tag string) []string {
	list := idx.postings[tag]
	out := make([]string, len(list))
	for i, pos := range list {
		out[i] = idx.paths[pos]
	}
	return out
}

// Count returns how many notes carry tag.
func (idx *TagIndex) Count(tag string) int {
	return len(idx.postings[tag])
}

// Tags returns every indexed tag, sorted.
func (idx *TagIndex) Tags() []string {
	out := make([]string, 0, len(idx.postings))
	for t := range idx.postings {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of distinct tags.
func (idx *TagIndex) Len() int { return len(idx.postings) }
