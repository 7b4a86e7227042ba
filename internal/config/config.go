// Package config loads and saves careerpilot user configuration from
// ~/.careerpilot/config.yaml. This is the single source of truth for
// API credentials, model selection, the scoring fan-out width and the
// profile the assistant scores jobs against.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// UserConfig holds all careerpilot configuration.
type UserConfig struct {
	// Assistant backend
	GeminiAPIKey string `yaml:"gemini_api_key,omitempty"`
	Model        string `yaml:"model,omitempty"`
	// RequestTimeout bounds every gateway call ("30s", "2m", ...).
	RequestTimeout string `yaml:"request_timeout,omitempty"`

	// ScoringConcurrency caps in-flight scoring requests in the
	// recommendation fan-out.
	ScoringConcurrency int `yaml:"scoring_concurrency,omitempty"`

	// Profile is matched against job postings when scoring.
	Profile Profile `yaml:"profile,omitempty"`

	// UI settings
	Theme string `yaml:"theme,omitempty"` // "dark" or "light"

	// DebugLog enables the file log under the config directory.
	DebugLog bool `yaml:"debug_log,omitempty"`
}

// Profile describes the user the assistant works for.
type Profile struct {
	Name      string   `yaml:"name,omitempty"`
	Title     string   `yaml:"title,omitempty"`
	Summary   string   `yaml:"summary,omitempty"`
	Skills    []string `yaml:"skills,omitempty"`
	Locations []string `yaml:"locations,omitempty"`
}

// Default returns the baseline configuration.
func Default() *UserConfig {
	return &UserConfig{
		Model:              "gemini-2.5-flash",
		RequestTimeout:     "45s",
		ScoringConcurrency: 4,
		Theme:              "dark",
		Profile: Profile{
			Title:  "Software Engineer",
			Skills: []string{"go", "sql", "kubernetes"},
		},
	}
}

// Dir returns the careerpilot config directory.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".careerpilot"
	}
	return filepath.Join(home, ".careerpilot")
}

// DefaultPath returns the config file location.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Load reads the config at path, falling back to defaults when the file
// does not exist. Environment variables CAREERPILOT_API_KEY and
// GEMINI_API_KEY override the stored key, in that order.
func Load(path string) (*UserConfig, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// First run: defaults only.
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if key := os.Getenv("CAREERPILOT_API_KEY"); key != "" {
		cfg.GeminiAPIKey = key
	} else if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		cfg.GeminiAPIKey = key
	}

	cfg.applyDefaults()
	return cfg, nil
}

// Save writes the config to path, creating the directory if needed.
func (c *UserConfig) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Timeout parses RequestTimeout, falling back to the default on junk.
func (c *UserConfig) Timeout() time.Duration {
	d, err := time.ParseDuration(c.RequestTimeout)
	if err != nil || d <= 0 {
		return 45 * time.Second
	}
	return d
}

func (c *UserConfig) applyDefaults() {
	if c.Model == "" {
		c.Model = "gemini-2.5-flash"
	}
	if c.RequestTimeout == "" {
		c.RequestTimeout = "45s"
	}
	if c.ScoringConcurrency <= 0 {
		c.ScoringConcurrency = 4
	}
	if c.Theme == "" {
		c.Theme = "dark"
	}
}
