// Package oracle asks a language model for key concepts and tag suggestions.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Providers accepted by NewGenerator.
const (
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
	ProviderClaude = "claude"
	ProviderNone   = "none"
)

// DefaultExcerptChars caps the note text sent in a prompt.
const DefaultExcerptChars = 8000

// Generator turns a prompt into a text completion.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config selects and configures a backend.
type Config struct {
	Provider     string
	Model        string
	APIKey       string
	URL          string
	Temperature  float64
	Timeout      time.Duration
	ExcerptChars int
}

// NewGenerator returns the backend named by cfg.Provider. Provider "none"
// yields a nil Generator and no error.
func NewGenerator(cfg Config) (Generator, error) {
	switch cfg.Provider {
	case ProviderGemini:
		if cfg.APIKey == "" {
			return nil, errors.New("oracle: gemini requires an api key")
		}
		return NewGemini(cfg), nil
	case ProviderOllama:
		return NewOllama(cfg), nil
	case ProviderClaude:
		return NewClaudeCLI(cfg), nil
	case ProviderNone, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("oracle: unknown provider %q", cfg.Provider)
	}
}

// RelatedNote is the context handed to the tag prompt for one related note.
type RelatedNote struct {
	Name string
	Tags []string
}

// Client builds prompts and parses completions.
type Client struct {
	gen     Generator
	excerpt int
}

// NewClient wraps gen. excerpt <= 0 uses DefaultExcerptChars.
func NewClient(gen Generator, excerpt int) *Client {
	if excerpt <= 0 {
		excerpt = DefaultExcerptChars
	}
	return &Client{gen: gen, excerpt: excerpt}
}

// ExtractConcepts returns the key concepts of a note's text.
func (c *Client) ExtractConcepts(ctx context.Context, text string) ([]string, error) {
	out, err := c.gen.Generate(ctx, ConceptsPrompt(truncate(text, c.excerpt)))
	if err != nil {
		return nil, fmt.Errorf("oracle: extract concepts: %w", err)
	}
	return ParseList(out), nil
}

// SuggestTags returns tags for a note given its related notes and concepts.
func (c *Client) SuggestTags(ctx context.Context, text string, related []RelatedNote, concepts []string) ([]string, error) {
	out, err := c.gen.Generate(ctx, TagsPrompt(truncate(text, c.excerpt), related, concepts))
	if err != nil {
		return nil, fmt.Errorf("oracle: suggest tags: %w", err)
	}
	return ParseList(out), nil
}

// ConceptsPrompt is the prompt used by ExtractConcepts.
func ConceptsPrompt(excerpt string) string {
	return `Read the following note and extract 5-7 key concepts or topics that are central to the content.
Just list the concepts separated by commas, without any explanation.

Note Content:
` + excerpt + "\n"
}

// TagsPrompt is the prompt used by SuggestTags.
func TagsPrompt(excerpt string, related []RelatedNote, concepts []string) string {
	lines := make([]string, 0, len(related))
	for _, r := range related {
		tags := "no tags"
		if len(r.Tags) > 0 {
			tags = strings.Join(r.Tags, ", ")
		}
		lines = append(lines, fmt.Sprintf("- %s (tags: %s)", r.Name, tags))
	}
	keys := "No key concepts identified"
	if len(concepts) > 0 {
		keys = strings.Join(concepts, ", ")
	}

	var b strings.Builder
	b.WriteString("You are an expert in knowledge management and personal knowledge graphs.\n")
	b.WriteString("Your task is to analyze the following note and generate a list of 5-10 highly relevant tags.\n\n")
	b.WriteString("Consider:\n")
	b.WriteString("1. The note's content and main topics\n")
	fmt.Fprintf(&b, "2. The key concepts identified: %s\n", keys)
	b.WriteString("3. Related notes and their existing tags (for consistency)\n")
	b.WriteString("4. Create a balanced mix of specific and general tags\n\n")
	b.WriteString("Generate tags that will:\n")
	b.WriteString("- Create meaningful connections between notes\n")
	b.WriteString("- Help with future discoverability\n")
	b.WriteString("- Maintain consistency with existing tags where appropriate\n")
	b.WriteString("- Include both topic tags and type tags (e.g., #article, #project, #reference)\n\n")
	b.WriteString("Output ONLY the tags, separated by commas, without any explanation or additional text.\n\n")
	b.WriteString("---\nRelated Notes:\n")
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n---\nNote Content (excerpt):\n")
	b.WriteString(excerpt)
	b.WriteString("\n---\nTags:\n")
	return b.String()
}

// ParseList splits a completion into items: asterisks are removed, items are
// separated by commas or newlines, trimmed, and empty items dropped.
func ParseList(s string) []string {
	s = strings.ReplaceAll(s, "*", "")
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '\n' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
