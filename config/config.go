// Package config provides configuration loading and management for
// Promptforge.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/promptforge/validate"
)

// Config represents the complete Promptforge configuration
type Config struct {
	Build      BuildConfig      `yaml:"build"`
	Validation ValidationConfig `yaml:"validation"`
	Watch      WatchConfig      `yaml:"watch"`
}

// BuildConfig configures template assembly
type BuildConfig struct {
	// ModulesDir is the directory holding agent module folders (default: "modules")
	ModulesDir string `yaml:"modules_dir"`
	// Template is the template file name within an agent module (default: agent_prompt_modular.xml)
	Template string `yaml:"template"`
	// Output is the assembled artifact file name (default: agent_prompt.xml)
	Output string `yaml:"output"`
	// PartsDir is the component directory name within an agent module (default: prompt-parts)
	PartsDir string `yaml:"parts_dir"`
	// MaxDepth bounds nested fragment resolution (default: 10)
	MaxDepth int `yaml:"max_depth"`
	// Annotate inserts SOURCE provenance comments into the output
	Annotate bool `yaml:"annotate"`
}

// ValidationConfig configures the validation pass
type ValidationConfig struct {
	// Enabled runs the validator after every build
	Enabled bool `yaml:"enabled"`
	// Strict turns critical findings into build failures
	Strict bool `yaml:"strict"`
	// Rules are additional pattern rules applied on top of the built-ins
	Rules []validate.PatternRule `yaml:"rules"`
}

// WatchConfig configures watch mode
type WatchConfig struct {
	// Debounce is how long to wait for more changes before rebuilding
	Debounce time.Duration `yaml:"debounce"`
	// Ignore is a list of glob patterns for paths to skip
	Ignore []string `yaml:"ignore"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Build: BuildConfig{
			ModulesDir: "modules",
			Template:   "agent_prompt_modular.xml",
			Output:     "agent_prompt.xml",
			PartsDir:   "prompt-parts",
			MaxDepth:   10,
		},
		Validation: ValidationConfig{
			Enabled: false,
			Strict:  false,
		},
		Watch: WatchConfig{
			Debounce: 200 * time.Millisecond,
			Ignore:   []string{"**/.git/**"},
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Build.Template == "" {
		return fmt.Errorf("build.template is required")
	}
	if c.Build.Output == "" {
		return fmt.Errorf("build.output is required")
	}
	if c.Build.PartsDir == "" {
		return fmt.Errorf("build.parts_dir is required")
	}
	if c.Build.MaxDepth < 1 {
		return fmt.Errorf("build.max_depth must be at least 1")
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	for _, rule := range c.Validation.Rules {
		if rule.Name == "" {
			return fmt.Errorf("validation rule without a name")
		}
		if rule.Pattern == "" {
			return fmt.Errorf("validation rule %s has no pattern", rule.Name)
		}
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Build
	if other.Build.ModulesDir != "" {
		c.Build.ModulesDir = other.Build.ModulesDir
	}
	if other.Build.Template != "" {
		c.Build.Template = other.Build.Template
	}
	if other.Build.Output != "" {
		c.Build.Output = other.Build.Output
	}
	if other.Build.PartsDir != "" {
		c.Build.PartsDir = other.Build.PartsDir
	}
	if other.Build.MaxDepth != 0 {
		c.Build.MaxDepth = other.Build.MaxDepth
	}
	if other.Build.Annotate {
		c.Build.Annotate = true
	}

	// Validation
	if other.Validation.Enabled {
		c.Validation.Enabled = true
	}
	if other.Validation.Strict {
		c.Validation.Strict = true
	}
	if len(other.Validation.Rules) > 0 {
		c.Validation.Rules = other.Validation.Rules
	}

	// Watch
	if other.Watch.Debounce != 0 {
		c.Watch.Debounce = other.Watch.Debounce
	}
	if len(other.Watch.Ignore) > 0 {
		c.Watch.Ignore = other.Watch.Ignore
	}
}
