package oracle

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// ClaudeCLI shells out to the claude command line in print mode.
type ClaudeCLI struct {
	bin   string
	model string
}

// NewClaudeCLI creates a ClaudeCLI backend from cfg. cfg.URL, when set,
// overrides the binary path.
func NewClaudeCLI(cfg Config) *ClaudeCLI {
	c := &ClaudeCLI{bin: cfg.URL, model: cfg.Model}
	if c.bin == "" {
		c.bin = "claude"
	}
	if c.model == "" || strings.HasPrefix(c.model, "gemini") {
		c.model = "haiku"
	}
	return c
}

// Generate implements Generator.
func (c *ClaudeCLI) Generate(ctx context.Context, prompt string) (string, error) {
	cmd := exec.CommandContext(ctx, c.bin, "-p",
		"--model", c.model,
		"--tools", "",
		"--no-session-persistence",
	)
	cmd.Stdin = strings.NewReader(prompt)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("claude -p failed: %w\nstderr: %s", err, stderr.String())
	}
	return stripFences(stdout.String()), nil
}

// stripFences removes a ``` wrapper around the output.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	lines := strings.Split(s, "\n")
	if len(lines) < 2 {
		return s
	}
	if strings.HasPrefix(lines[0], "```") {
		lines = lines[1:]
	}
	if n := len(lines); n > 0 && strings.TrimSpace(lines[n-1]) == "```" {
		lines = lines[:n-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
