package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/c360studio/promptforge/template"
)

// NewInitCmd creates the init command, which scaffolds a new agent module
// with a starter template and parts.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init <agent>",
		Short: "Scaffold a new agent module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			agent := args[0]
			paths := resolvePaths(cfg, agent)

			if _, err := os.Stat(paths.Template); err == nil {
				return fmt.Errorf("module already exists: %s", paths.Dir)
			}

			if err := os.MkdirAll(paths.PartsDir, 0755); err != nil {
				return fmt.Errorf("create module directories: %w", err)
			}

			if err := os.WriteFile(paths.Template, []byte(template.StarterTemplate(agent)), 0644); err != nil {
				return fmt.Errorf("write template: %w", err)
			}

			for rel, content := range template.StarterParts(agent) {
				full := filepath.Join(paths.PartsDir, filepath.FromSlash(rel))
				if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
					return fmt.Errorf("create parts directory: %w", err)
				}
				if err := os.WriteFile(full, []byte(content), 0644); err != nil {
					return fmt.Errorf("write part %s: %w", rel, err)
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "initialized agent module %s\n", paths.Dir)
			fmt.Fprintf(cmd.OutOrStdout(), "edit the parts under %s, then run: promptforge build %s\n",
				paths.PartsDir, agent)
			return nil
		},
	}

	return cmd
}
