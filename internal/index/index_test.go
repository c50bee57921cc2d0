package index

import (
	"fmt"
	"reflect"
	"slices"
	"testing"

	"pgregory.net/rapid"

	"github.com/brymcon/mindlink/internal/models"
)

func note(path string, tags ...string) models.Note {
	return models.Note{Path: path, Name: models.NameOf(path), Tags: tags}
}

func TestTagIndex(t *testing.T) {
	idx := BuildTagIndex([]models.Note{
		note("a.md", "x", "y"),
		note("b.md", "y", "y"),
		note("c.md"),
	})
	if got := idx.Notes("y"); !reflect.DeepEqual(got, []string{"a.md", "b.md"}) {
		t.Errorf("Notes(y) = %v", got)
	}
	if got := idx.Notes("missing"); len(got) != 0 {
		t.Errorf("Notes(missing) = %v", got)
	}
	if got := idx.Tags(); !reflect.DeepEqual(got, []string{"x", "y"}) {
		t.Errorf("Tags() = %v", got)
	}
	if idx.Count("y") != 2 || idx.Len() != 2 {
		t.Errorf("Count(y) = %d, Len = %d", idx.Count("y"), idx.Len())
	}
}

func TestCompute_ThreeNoteExample(t *testing.T) {
	g := Compute([]models.Note{
		note("A.md", "x", "y"),
		note("B.md", "x", "y", "z"),
		note("C.md", "x"),
	}, Options{Threshold: 2, Limit: 5})

	want := map[string][]string{
		"A.md": {"B.md"},
		"B.md": {"A.md"},
		"C.md": {},
	}
	if got := g.Map(); !reflect.DeepEqual(got, want) {
		t.Errorf("Map() = %v, want %v", got, want)
	}
	if rel := g.Related("A.md"); len(rel) != 1 || rel[0].Shared != 2 {
		t.Errorf("Related(A) = %+v", rel)
	}
}

func TestCompute_NoTagsEmptyEntry(t *testing.T) {
	g := Compute([]models.Note{note("lonely.md"), note("x.md", "a")}, Options{Threshold: 1, Limit: 5})
	if !g.Has("lonely.md") {
		t.Fatal("note without tags must still have an entry")
	}
	if got := g.RelatedPaths("lonely.md"); len(got) != 0 {
		t.Errorf("RelatedPaths = %v", got)
	}
}

func TestCompute_TiesKeepFirstEncounteredOrder(t *testing.T) {
	// With threshold 1, n relates to every other note. Encounter order walks
	// n's tags in sequence: tag "b" yields z then y, tag "a" then adds x.
	g := Compute([]models.Note{
		note("x.md", "a"),
		note("z.md", "b"),
		note("y.md", "b"),
		note("n.md", "b", "a"),
	}, Options{Threshold: 1, Limit: 10})

	// y and z come from the postings of "b" in vault order (z before y).
	want := []string{"z.md", "y.md", "x.md"}
	if got := g.RelatedPaths("n.md"); !reflect.DeepEqual(got, want) {
		t.Errorf("RelatedPaths(n) = %v, want %v", got, want)
	}
}

func TestCompute_SortedByCountThenStable(t *testing.T) {
	g := Compute([]models.Note{
		note("one.md", "a"),
		note("three.md", "a", "b", "c"),
		note("two.md", "a", "b"),
		note("src.md", "a", "b", "c"),
	}, Options{Threshold: 1, Limit: 10})

	want := []models.Relation{
		{Target: "three.md", Shared: 3},
		{Target: "two.md", Shared: 2},
		{Target: "one.md", Shared: 1},
	}
	if got := g.Related("src.md"); !reflect.DeepEqual(got, want) {
		t.Errorf("Related(src) = %+v, want %+v", got, want)
	}
}

func TestCompute_Limit(t *testing.T) {
	var notes []models.Note
	for i := range 8 {
		notes = append(notes, note(fmt.Sprintf("n%d.md", i), "a", "b"))
	}
	g := Compute(notes, Options{Threshold: 2, Limit: 3})
	got := g.RelatedPaths("n0.md")
	if !reflect.DeepEqual(got, []string{"n1.md", "n2.md", "n3.md"}) {
		t.Errorf("RelatedPaths(n0) = %v", got)
	}

	g = Compute(notes, Options{Threshold: 2, Limit: 0})
	if got := g.RelatedPaths("n0.md"); len(got) != 0 {
		t.Errorf("limit 0 should yield empty lists, got %v", got)
	}
}

func TestCompute_DuplicateTagCountsOnce(t *testing.T) {
	g := Compute([]models.Note{
		note("a.md", "x", "x"),
		note("b.md", "x"),
	}, Options{Threshold: 2, Limit: 5})
	if got := g.RelatedPaths("a.md"); len(got) != 0 {
		t.Errorf("a repeated tag must not count twice: %v", got)
	}
}

func TestCompute_MalformedNotesSkipped(t *testing.T) {
	g := Compute([]models.Note{
		note("a.md", "x", "y"),
		note("", "x", "y"),
		note("a.md", "x", "y"),
		note("b.md", "x", "y"),
	}, Options{Threshold: 2, Limit: 5})

	skipped := g.Skipped()
	if len(skipped) != 2 {
		t.Fatalf("skipped = %+v, want 2 entries", skipped)
	}
	if skipped[0].Position != 1 || skipped[1].Path != "a.md" {
		t.Errorf("skipped = %+v", skipped)
	}
	if got := g.RelatedPaths("a.md"); !reflect.DeepEqual(got, []string{"b.md"}) {
		t.Errorf("RelatedPaths(a) = %v", got)
	}
	if len(g.Paths()) != 2 {
		t.Errorf("Paths() = %v", g.Paths())
	}
}

func TestGraph_Edges(t *testing.T) {
	g := Compute([]models.Note{
		note("a.md", "x", "y"),
		note("b.md", "x", "y"),
		note("c.md", "x", "y"),
	}, Options{Threshold: 2, Limit: 5})
	edges := g.Edges()
	if len(edges) != 3 {
		t.Fatalf("edges = %+v, want 3 undirected edges", edges)
	}
	if g.Connected() != 3 {
		t.Errorf("Connected() = %d", g.Connected())
	}
}

// vaultGen draws small vaults over a small tag alphabet so overlaps are common.
func vaultGen() *rapid.Generator[[]models.Note] {
	return rapid.Custom(func(t *rapid.T) []models.Note {
		n := rapid.IntRange(0, 12).Draw(t, "notes")
		notes := make([]models.Note, n)
		for i := range notes {
			tags := rapid.SliceOfDistinct(rapid.SampledFrom([]string{"a", "b", "c", "d", "e"}), rapid.ID[string]).Draw(t, fmt.Sprintf("tags%d", i))
			notes[i] = note(fmt.Sprintf("n%02d.md", i), tags...)
		}
		return notes
	})
}

func sharedCount(a, b models.Note) int {
	c := 0
	for _, t := range a.Tags {
		if slices.Contains(b.Tags, t) {
			c++
		}
	}
	return c
}

func TestCompute_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		notes := vaultGen().Draw(t, "vault")
		opts := Options{
			Threshold: rapid.IntRange(1, 4).Draw(t, "threshold"),
			Limit:     rapid.IntRange(0, 6).Draw(t, "limit"),
		}
		g := Compute(notes, opts)
		byPath := make(map[string]models.Note, len(notes))
		for _, n := range notes {
			byPath[n.Path] = n
		}

		for _, n := range notes {
			rel := g.Related(n.Path)
			if len(n.Tags) == 0 && len(rel) != 0 {
				t.Fatalf("%s has no tags but relates to %v", n.Path, rel)
			}
			if len(rel) > opts.Limit {
				t.Fatalf("%s: %d related exceeds limit %d", n.Path, len(rel), opts.Limit)
			}
			for i, r := range rel {
				if r.Target == n.Path {
					t.Fatalf("%s relates to itself", n.Path)
				}
				if r.Shared < opts.Threshold {
					t.Fatalf("%s→%s shared %d below threshold", n.Path, r.Target, r.Shared)
				}
				if want := sharedCount(n, byPath[r.Target]); r.Shared != want {
					t.Fatalf("%s→%s shared = %d, want %d", n.Path, r.Target, r.Shared, want)
				}
				if i > 0 && rel[i-1].Shared < r.Shared {
					t.Fatalf("%s: not sorted by count: %+v", n.Path, rel)
				}
			}
			// Any qualifying note left out must be outranked by every kept one.
			if len(rel) == opts.Limit {
				if len(rel) == 0 {
					continue
				}
				last := rel[len(rel)-1].Shared
				for _, o := range notes {
					if o.Path == n.Path || slices.ContainsFunc(rel, func(r models.Relation) bool { return r.Target == o.Path }) {
						continue
					}
					if c := sharedCount(n, o); c > last {
						t.Fatalf("%s: %s (shared %d) dropped while %d kept", n.Path, o.Path, c, last)
					}
				}
			} else {
				for _, o := range notes {
					if o.Path == n.Path || sharedCount(n, o) < opts.Threshold {
						continue
					}
					if !slices.ContainsFunc(rel, func(r models.Relation) bool { return r.Target == o.Path }) {
						t.Fatalf("%s: qualifying %s missing from %+v", n.Path, o.Path, rel)
					}
				}
			}
		}
	})
}

func TestCompute_Deterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		notes := vaultGen().Draw(t, "vault")
		opts := Options{Threshold: 1, Limit: 5}
		a := Compute(notes, opts).Map()
		b := Compute(notes, opts).Map()
		if !reflect.DeepEqual(a, b) {
			t.Fatalf("two computations differ:\n%v\n%v", a, b)
		}
	})
}
