// Package updater rewrites a note's frontmatter tags and its generated
// related-notes region, leaving everything else in the file as it was.
package updater

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/brymcon/mindlink/internal/models"
	"github.com/brymcon/mindlink/internal/parser"
)

// Region markers and heading of the generated related-notes block.
const (
	StartMarker = "<!-- related notes start -->"
	EndMarker   = "<!-- related notes end -->"
	Heading     = "## Related Notes"
)

var (
	// ErrMalformedHeader is returned when the note has a delimited frontmatter
	// block that is not a YAML mapping. The note is left untouched.
	ErrMalformedHeader = errors.New("updater: malformed frontmatter")
	// ErrUnterminatedRegion is returned when the start marker has no end
	// marker after it.
	ErrUnterminatedRegion = errors.New("updater: related notes region has no end marker")
)

// Render returns content with the payload applied. It is pure and
// idempotent: rendering its own output with the same payload is a no-op.
func Render(content []byte, p models.UpdatePayload) ([]byte, error) {
	if !utf8.Valid(content) {
		return nil, parser.ErrNotText
	}
	doc := parser.Split(content)
	if doc.Malformed {
		return nil, ErrMalformedHeader
	}
	header := doc.Header
	if header == nil {
		header = parser.EmptyHeader()
	}
	setTags(header, models.NormalizeTags(p.Tags))

	fm, err := encodeHeader(header)
	if err != nil {
		return nil, err
	}
	body, err := replaceRegion(string(doc.Body), RenderLinks(p.Related))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Grow(len(fm) + len(body) + 8)
	buf.WriteString("---\n")
	buf.Write(fm)
	buf.WriteString("---\n")
	buf.WriteString(body)
	return buf.Bytes(), nil
}

// RenderLinks renders the text placed strictly between the region markers.
func RenderLinks(related []string) string {
	var b strings.Builder
	b.WriteString("\n" + Heading + "\n")
	for _, p := range related {
		fmt.Fprintf(&b, "- [[%s]]\n", models.NameOf(p))
	}
	return b.String()
}

// replaceRegion swaps the text between the markers for inner, or appends a
// new region when the body has no start marker.
func replaceRegion(body, inner string) (string, error) {
	start := strings.Index(body, StartMarker)
	if start < 0 {
		trimmed := strings.TrimRight(body, " \t\r\n")
		region := StartMarker + inner + EndMarker + "\n"
		if trimmed == "" {
			return region, nil
		}
		return trimmed + "\n\n" + region, nil
	}
	from := start + len(StartMarker)
	end := strings.Index(body[from:], EndMarker)
	if end < 0 {
		return "", ErrUnterminatedRegion
	}
	return body[:from] + inner + body[from+end:], nil
}

// setTags replaces the value of the "tags" key, adding the key at the end
// when it is missing.
func setTags(m *yaml.Node, tags []string) {
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, t := range tags {
		seq.Content = append(seq.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: t})
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == "tags" {
			seq.LineComment = m.Content[i+1].LineComment
			m.Content[i+1] = seq
			return
		}
	}
	m.Content = append(m.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: "tags"},
		seq,
	)
}

func encodeHeader(m *yaml.Node) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("updater: encode frontmatter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("updater: encode frontmatter: %w", err)
	}
	return buf.Bytes(), nil
}
