package index

import (
	"slices"
	"sort"

	"github.com/brymcon/mindlink/internal/models"
)

// Defaults for Options.
const (
	DefaultThreshold = 2
	DefaultLimit     = 5
)

// Options controls relationship scoring.
type Options struct {
	// Threshold is the minimum number of shared tags for two notes to relate.
	Threshold int
	// Limit caps the related notes kept per note.
	Limit int
}

// Skip records a note excluded from the graph.
type Skip struct {
	Position int    `json:"position"`
	Path     string `json:"path"`
	Reason   string `json:"reason"`
}

// Edge is an undirected relation between two notes.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Shared int    `json:"shared"`
}

// Graph holds the related notes of every accepted note. It is read-only
// once Compute returns.
type Graph struct {
	opts    Options
	order   []string
	related map[string][]models.Relation
	tags    *TagIndex
	skipped []Skip
}

// Compute scores every note against the others by shared-tag count.
//
// For each note the co-occurrence counter is filled by walking its tags in
// header order and, per tag, the tagged notes in vault order. Entries below
// the threshold are dropped, the rest are stably sorted by count descending
// (ties keep first-encountered order) and truncated to the limit.
func Compute(notes []models.Note, opts Options) *Graph {
	g := &Graph{
		opts:    opts,
		related: make(map[string][]models.Relation, len(notes)),
	}

	accepted := make([]models.Note, 0, len(notes))
	seen := make(map[string]struct{}, len(notes))
	for i, n := range notes {
		switch _, dup := seen[n.Path]; {
		case n.Path == "":
			g.skipped = append(g.skipped, Skip{Position: i, Reason: "missing path"})
			continue
		case dup:
			g.skipped = append(g.skipped, Skip{Position: i, Path: n.Path, Reason: "duplicate path"})
			continue
		}
		seen[n.Path] = struct{}{}
		accepted = append(accepted, n)
	}

	g.tags = BuildTagIndex(accepted)
	for self, n := range accepted {
		g.order = append(g.order, n.Path)
		g.related[n.Path] = g.score(self, n)
	}
	return g
}

func (g *Graph) score(self int, n models.Note) []models.Relation {
	counts := make(map[int]int)
	var firstSeen []int
	for _, t := range n.Tags {
		for _, other := range g.tags.postings[t] {
			if other == self {
				continue
			}
			if counts[other] == 0 {
				firstSeen = append(firstSeen, other)
			}
			counts[other]++
		}
	}

	out := make([]models.Relation, 0, len(firstSeen))
	for _, other := range firstSeen {
		if c := counts[other]; c >= g.opts.Threshold {
			out = append(out, models.Relation{Target: g.tags.paths[other], Shared: c})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Shared > out[j].Shared })

	limit := max(g.opts.Limit, 0)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Has reports whether path is a note of the graph.
func (g *Graph) Has(path string) bool {
	_, ok := g.related[path]
	return ok
}

// Related returns the scored related notes of path.
func (g *Graph) Related(path string) []models.Relation {
	return slices.Clone(g.related[path])
}

// RelatedPaths returns the related note paths of path, best first.
func (g *Graph) RelatedPaths(path string) []string {
	rel := g.related[path]
	out := make([]string, len(rel))
	for i, r := range rel {
		out[i] = r.Target
	}
	return out
}

// Map returns the related-notes map: an entry for every accepted note.
func (g *Graph) Map() map[string][]string {
	out := make(map[string][]string, len(g.related))
	for p := range g.related {
		out[p] = g.RelatedPaths(p)
	}
	return out
}

// Paths returns the accepted note paths in vault order.
func (g *Graph) Paths() []string { return slices.Clone(g.order) }

// Tags returns the tag index the graph was scored with.
func (g *Graph) Tags() *TagIndex { return g.tags }

// Skipped lists the notes excluded from scoring.
func (g *Graph) Skipped() []Skip { return slices.Clone(g.skipped) }

// Options returns the scoring options.
func (g *Graph) Options() Options { return g.opts }

// Connected returns the number of notes with at least one related note.
func (g *Graph) Connected() int {
	n := 0
	for _, rel := range g.related {
		if len(rel) > 0 {
			n++
		}
	}
	return n
}

// Edges returns the graph as undirected edges, each pair once, in vault
// order of the source.
func (g *Graph) Edges() []Edge {
	type pair struct{ a, b string }
	seen := make(map[pair]struct{})
	var out []Edge
	for _, src := range g.order {
		for _, r := range g.related[src] {
			k := pair{src, r.Target}
			if r.Target < src {
				k = pair{r.Target, src}
			}
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, Edge{Source: src, Target: r.Target, Shared: r.Shared})
		}
	}
	return out
}
