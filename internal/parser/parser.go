// Package parser splits notes into a YAML frontmatter header and a Markdown body.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/brymcon/mindlink/internal/models"
)

const delim = "---"

// ErrNotText is returned for content that is not valid UTF-8.
var ErrNotText = errors.New("parser: content is not UTF-8 text")

// Document is the raw split of a note file.
type Document struct {
	// Header is the frontmatter mapping node. It is nil when the file has no
	// frontmatter or the frontmatter is malformed.
	Header *yaml.Node
	// Present reports whether an opening and closing delimiter were found.
	Present bool
	// Malformed reports a delimited block that is not a single YAML mapping
	// with unique keys.
	Malformed bool
	// Body is everything after the closing delimiter line, or the whole
	// content when there is no usable header.
	Body []byte

	fields map[string]any
}

// Split separates the frontmatter block from the body. The opening delimiter
// must be the very first line; the block ends at the next line that is
// exactly "---".
func Split(data []byte) Document {
	block, body, ok := splitFrontmatter(data)
	if !ok {
		return Document{Body: data}
	}
	node, fields, err := decodeHeader(block)
	if err != nil {
		return Document{Present: true, Malformed: true, Body: data}
	}
	return Document{Header: node, Present: true, Body: body, fields: fields}
}

// Parse turns raw note content into a Note. A malformed header degrades to an
// empty one with the full content as body; only non-text input is an error.
func Parse(path string, data []byte) (models.Note, error) {
	if !utf8.Valid(data) {
		return models.Note{}, fmt.Errorf("%s: %w", path, ErrNotText)
	}

	doc := Split(data)
	note := models.Note{
		Path:     path,
		Name:     models.NameOf(path),
		Body:     string(doc.Body),
		Header:   map[string]any{},
		Tags:     []string{},
		Degraded: doc.Malformed,
	}
	if doc.Header == nil {
		return note, nil
	}
	if doc.fields != nil {
		note.Header = doc.fields
	}
	note.Keys = headerKeys(doc.Header)
	note.Tags = extractTags(doc.fields)
	return note, nil
}

// splitFrontmatter returns the header block and body when data opens with a
// delimiter line and a closing delimiter line follows.
func splitFrontmatter(data []byte) (block, body []byte, ok bool) {
	first := bytes.IndexByte(data, '\n')
	if first < 0 || !isDelim(data[:first]) {
		return nil, nil, false
	}

	start := first + 1
	for off := start; off <= len(data); {
		end := bytes.IndexByte(data[off:], '\n')
		var line []byte
		next := len(data) + 1
		if end < 0 {
			line = data[off:]
		} else {
			line = data[off : off+end]
			next = off + end + 1
		}
		if isDelim(line) {
			if next > len(data) {
				return data[start:off], nil, true
			}
			return data[start:off], data[next:], true
		}
		off = next
	}
	return nil, nil, false
}

func isDelim(line []byte) bool {
	return string(bytes.TrimRight(line, " \t\r")) == delim
}

// decodeHeader parses the block into a mapping node and its decoded fields.
// An empty or null document yields an empty mapping. A second document or a
// mapping that does not decode (duplicate keys) is an error.
func decodeHeader(block []byte) (*yaml.Node, map[string]any, error) {
	dec := yaml.NewDecoder(bytes.NewReader(block))
	var doc yaml.Node
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return EmptyHeader(), map[string]any{}, nil
		}
		return nil, nil, err
	}
	var extra yaml.Node
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("parser: frontmatter holds more than one document")
	}

	if doc.Kind == 0 || len(doc.Content) == 0 {
		return EmptyHeader(), map[string]any{}, nil
	}
	root := doc.Content[0]
	switch {
	case root.Kind == yaml.MappingNode:
	case root.Kind == yaml.ScalarNode && root.ShortTag() == "!!null":
		return EmptyHeader(), map[string]any{}, nil
	default:
		return nil, nil, fmt.Errorf("parser: frontmatter is not a mapping")
	}
	fields := map[string]any{}
	if err := root.Decode(&fields); err != nil {
		return nil, nil, fmt.Errorf("parser: decode frontmatter: %w", err)
	}
	return root, fields, nil
}

// EmptyHeader returns a new, empty frontmatter mapping node.
func EmptyHeader() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

func headerKeys(m *yaml.Node) []string {
	keys := make([]string, 0, len(m.Content)/2)
	for i := 0; i+1 < len(m.Content); i += 2 {
		keys = append(keys, m.Content[i].Value)
	}
	return keys
}

// extractTags returns the string elements of the "tags" sequence in order,
// without duplicates. Any other shape means no tags.
func extractTags(fm map[string]any) []string {
	out := []string{}
	seq, ok := fm["tags"].([]any)
	if !ok {
		return out
	}
	seen := make(map[string]struct{}, len(seq))
	for _, item := range seq {
		s, ok := item.(string)
		if !ok {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
