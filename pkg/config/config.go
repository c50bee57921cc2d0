// Package config provides YAML-based configuration loading with environment variable expansion.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// envTag marks a scalar whose value names an environment variable.
const envTag = "!env"

// Validator is an interface for configuration validation.
type Validator interface {
	Validate() error
}

// Load loads configuration from a YAML file with environment variable expansion.
// Both ${VAR} references and scalars tagged !env (e.g. `api_key: !env GEMINI_API_KEY`)
// are resolved; unset variables become empty strings. Overrides run after
// decoding and before validation.
func Load[T any](filename string, target *T, overrides ...func(*T)) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	if err := Decode([]byte(os.ExpandEnv(string(data))), target); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}
	for _, override := range overrides {
		override(target)
	}

	if validator, ok := any(target).(Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
	}

	return nil
}

// Decode unmarshals YAML into target after resolving !env tags.
func Decode[T any](data []byte, target *T) error {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return err
	}
	if root.Kind == 0 {
		return nil
	}
	resolveEnv(&root)
	return root.Decode(target)
}

func resolveEnv(n *yaml.Node) {
	if n.Kind == yaml.ScalarNode && n.Tag == envTag {
		n.Value = os.Getenv(n.Value)
		n.Tag = "!!str"
		n.Style = yaml.DoubleQuotedStyle
	}
	for _, c := range n.Content {
		resolveEnv(c)
	}
}
