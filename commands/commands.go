// Package commands implements the promptforge CLI subcommands.
package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/c360studio/promptforge/config"
)

// modulePaths holds the resolved file layout of one agent module. The
// conventional layout is modules/<agent>/ with the template, output, and
// parts directory inside it; every piece is overridable by config or flag.
type modulePaths struct {
	Dir      string
	Template string
	Output   string
	PartsDir string
}

// resolvePaths derives the module layout for an agent from configuration.
func resolvePaths(cfg *config.Config, agent string) modulePaths {
	dir := filepath.Join(cfg.Build.ModulesDir, agent)
	return modulePaths{
		Dir:      dir,
		Template: filepath.Join(dir, cfg.Build.Template),
		Output:   filepath.Join(dir, cfg.Build.Output),
		PartsDir: filepath.Join(dir, cfg.Build.PartsDir),
	}
}

// loadConfig loads the layered configuration for a command invocation.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cfg, err := config.LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
		return cfg, nil
	}

	return config.NewLoader(nil).Load()
}

// writeFileAtomic writes data to path via a temp file and rename, so a
// failed run never leaves a partial artifact behind.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}
