package internal

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/brymcon/mindlink/internal/index"
	"github.com/brymcon/mindlink/internal/oracle"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Vault   VaultConfig       `yaml:"vault"`
	DryRun  bool              `yaml:"dry_run"`
	Linking LinkingConfig     `yaml:"linking"`
	Oracle  OracleConfig      `yaml:"oracle"`
	HTTP    HTTPConfig        `yaml:"http"`
	Auth    AuthConfig        `yaml:"auth"`
	Watch   WatchConfig       `yaml:"watch"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Vault.Validate(); err != nil {
		return fmt.Errorf("vault: %w", err)
	}
	if err := c.Linking.Validate(); err != nil {
		return fmt.Errorf("linking: %w", err)
	}
	if err := c.Oracle.Validate(); err != nil {
		return fmt.Errorf("oracle: %w", err)
	}
	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http: %w", err)
	}
	if err := c.Watch.Validate(); err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
}

// VaultConfig locates the notes.
type VaultConfig struct {
	Path       string   `yaml:"path"`
	Extensions []string `yaml:"extensions"`
}

// Validate validates the vault configuration. Windows separators in Path are
// normalised to forward slashes.
func (c *VaultConfig) Validate() error {
	c.Path = strings.ReplaceAll(c.Path, `\`, "/")
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.Extensions, validation.Required,
			validation.Each(validation.Required, validation.By(dotPrefixed))),
	)
}

func dotPrefixed(v any) error {
	if s, _ := v.(string); !strings.HasPrefix(s, ".") {
		return fmt.Errorf("must start with a dot")
	}
	return nil
}

// LinkingConfig controls relationship scoring.
type LinkingConfig struct {
	SharedTagsThreshold int `yaml:"shared_tags_threshold"`
	RelatedNotesLimit   int `yaml:"related_notes_limit"`
}

// Validate validates the linking configuration.
func (c *LinkingConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.SharedTagsThreshold, validation.Required, validation.Min(1)),
		validation.Field(&c.RelatedNotesLimit, validation.Min(0)),
	)
}

// Options converts the linking settings to scoring options.
func (c *LinkingConfig) Options() index.Options {
	return index.Options{Threshold: c.SharedTagsThreshold, Limit: c.RelatedNotesLimit}
}

// OracleConfig selects the tag suggestion backend.
type OracleConfig struct {
	Provider     string        `yaml:"provider"`
	Model        string        `yaml:"model"`
	APIKey       string        `yaml:"api_key"`
	URL          string        `yaml:"url"`
	Temperature  float64       `yaml:"temperature"`
	Timeout      time.Duration `yaml:"timeout"`
	ExcerptChars int           `yaml:"excerpt_chars"`
}

// Validate validates the oracle configuration. The API key is checked when
// the backend is built, so that read-only modes run without one.
func (c *OracleConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Provider, validation.Required,
			validation.In(oracle.ProviderGemini, oracle.ProviderOllama, oracle.ProviderClaude, oracle.ProviderNone)),
		validation.Field(&c.Temperature, validation.Min(0.0), validation.Max(2.0)),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
		validation.Field(&c.ExcerptChars, validation.Min(0)),
	)
}

// Backend converts the settings for oracle.NewGenerator.
func (c *OracleConfig) Backend() oracle.Config {
	return oracle.Config{
		Provider:     c.Provider,
		Model:        c.Model,
		APIKey:       c.APIKey,
		URL:          c.URL,
		Temperature:  c.Temperature,
		Timeout:      c.Timeout,
		ExcerptChars: c.ExcerptChars,
	}
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// WatchConfig tunes the serve-mode file watcher.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// Validate validates the watch configuration.
func (c *WatchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Debounce, validation.Min(time.Duration(0))),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
// Dry-run is on until explicitly disabled.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
		},
		Vault: VaultConfig{
			Extensions: []string{".md"},
		},
		DryRun: true,
		Linking: LinkingConfig{
			SharedTagsThreshold: index.DefaultThreshold,
			RelatedNotesLimit:   index.DefaultLimit,
		},
		Oracle: OracleConfig{
			Provider:     oracle.ProviderGemini,
			Model:        "gemini-2.5-flash-preview-05-20",
			Temperature:  0.2,
			Timeout:      2 * time.Minute,
			ExcerptChars: oracle.DefaultExcerptChars,
		},
		HTTP: HTTPConfig{
			Port: 8080,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
		},
	}
}
