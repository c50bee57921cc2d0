package oracle

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

const (
	ollamaDefaultURL   = "http://localhost:11434"
	ollamaDefaultModel = "llama3.2"
)

// Ollama calls a local Ollama server.
type Ollama struct {
	url         string
	model       string
	temperature float64
	client      *http.Client
}

// NewOllama creates an Ollama backend from cfg.
func NewOllama(cfg Config) *Ollama {
	o := &Ollama{
		url:         strings.TrimRight(cfg.URL, "/"),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		client:      &http.Client{Timeout: timeoutOr(cfg.Timeout)},
	}
	if o.url == "" {
		o.url = ollamaDefaultURL
	}
	if o.model == "" || strings.HasPrefix(o.model, "gemini") {
		o.model = ollamaDefaultModel
	}
	return o
}

type ollamaRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// Generate implements Generator.
func (o *Ollama) Generate(ctx context.Context, prompt string) (string, error) {
	req := ollamaRequest{
		Model:   o.model,
		Prompt:  prompt,
		Options: map[string]any{"temperature": o.temperature},
	}
	var resp ollamaResponse
	status, err := postJSON(ctx, o.client, o.url+"/api/generate", nil, req, &resp)
	if err != nil {
		return "", fmt.Errorf("ollama: %w", err)
	}
	if resp.Error != "" {
		return "", fmt.Errorf("ollama: %s", resp.Error)
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("ollama: unexpected status %d", status)
	}
	return resp.Response, nil
}
