package internal

import (
	"io"

	"github.com/brymcon/mindlink/internal/oracle"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config    *Config
	generator oracle.Generator
	customGen bool
	logOutput io.Writer
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithGenerator replaces the configured oracle backend. A nil generator
// disables tag suggestions.
func WithGenerator(g oracle.Generator) Option {
	return func(a *application) {
		a.generator = g
		a.customGen = true
	}
}

// WithLogOutput sets where the JSON log is written.
func WithLogOutput(w io.Writer) Option {
	return func(a *application) {
		a.logOutput = w
	}
}
