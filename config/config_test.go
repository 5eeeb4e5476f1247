package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/c360studio/promptforge/validate"
)

func ruleWith(name, pattern string) validate.PatternRule {
	return validate.PatternRule{Name: name, Pattern: pattern}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Build.ModulesDir != "modules" {
		t.Errorf("expected default modules dir modules, got %s", cfg.Build.ModulesDir)
	}
	if cfg.Build.Template != "agent_prompt_modular.xml" {
		t.Errorf("expected default template agent_prompt_modular.xml, got %s", cfg.Build.Template)
	}
	if cfg.Build.Output != "agent_prompt.xml" {
		t.Errorf("expected default output agent_prompt.xml, got %s", cfg.Build.Output)
	}
	if cfg.Build.PartsDir != "prompt-parts" {
		t.Errorf("expected default parts dir prompt-parts, got %s", cfg.Build.PartsDir)
	}
	if cfg.Build.MaxDepth != 10 {
		t.Errorf("expected default max depth 10, got %d", cfg.Build.MaxDepth)
	}
	if cfg.Validation.Enabled {
		t.Error("validation should be disabled by default")
	}
	if cfg.Watch.Debounce != 200*time.Millisecond {
		t.Errorf("expected default debounce 200ms, got %s", cfg.Watch.Debounce)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing template",
			modify:  func(c *Config) { c.Build.Template = "" },
			wantErr: true,
		},
		{
			name:    "missing output",
			modify:  func(c *Config) { c.Build.Output = "" },
			wantErr: true,
		},
		{
			name:    "missing parts dir",
			modify:  func(c *Config) { c.Build.PartsDir = "" },
			wantErr: true,
		},
		{
			name:    "zero max depth",
			modify:  func(c *Config) { c.Build.MaxDepth = 0 },
			wantErr: true,
		},
		{
			name:    "negative debounce",
			modify:  func(c *Config) { c.Watch.Debounce = -time.Second },
			wantErr: true,
		},
		{
			name: "rule without name",
			modify: func(c *Config) {
				c.Validation.Rules = append(c.Validation.Rules, ruleWith("", "x"))
			},
			wantErr: true,
		},
		{
			name: "rule without pattern",
			modify: func(c *Config) {
				c.Validation.Rules = append(c.Validation.Rules, ruleWith("r", ""))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "promptforge.yaml")

	content := `build:
  modules_dir: agents
  max_depth: 4
validation:
  enabled: true
  strict: true
  rules:
    - name: no-todo
      pattern: "TODO"
      severity: high
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Build.ModulesDir != "agents" {
		t.Errorf("ModulesDir = %s, want agents", cfg.Build.ModulesDir)
	}
	if cfg.Build.MaxDepth != 4 {
		t.Errorf("MaxDepth = %d, want 4", cfg.Build.MaxDepth)
	}
	// Unset fields keep their defaults.
	if cfg.Build.Template != "agent_prompt_modular.xml" {
		t.Errorf("Template = %s, want default", cfg.Build.Template)
	}
	if !cfg.Validation.Enabled || !cfg.Validation.Strict {
		t.Error("validation settings not loaded")
	}
	if len(cfg.Validation.Rules) != 1 || cfg.Validation.Rules[0].Name != "no-todo" {
		t.Errorf("rules not loaded: %+v", cfg.Validation.Rules)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestMerge(t *testing.T) {
	base := DefaultConfig()
	other := &Config{}
	other.Build.ModulesDir = "custom"
	other.Build.MaxDepth = 3
	other.Validation.Strict = true

	base.Merge(other)

	if base.Build.ModulesDir != "custom" {
		t.Errorf("ModulesDir = %s, want custom", base.Build.ModulesDir)
	}
	if base.Build.MaxDepth != 3 {
		t.Errorf("MaxDepth = %d, want 3", base.Build.MaxDepth)
	}
	if !base.Validation.Strict {
		t.Error("Strict not merged")
	}
	// Zero values in the overlay leave the base untouched.
	if base.Build.Template != "agent_prompt_modular.xml" {
		t.Errorf("Template = %s, want default preserved", base.Build.Template)
	}
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.Build.ModulesDir = "roundtrip"
	if err := cfg.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if loaded.Build.ModulesDir != "roundtrip" {
		t.Errorf("ModulesDir = %s, want roundtrip", loaded.Build.ModulesDir)
	}
}
