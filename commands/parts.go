package commands

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/c360studio/promptforge/fragment"
)

// NewPartsCmd creates the parts command, which lists the fragments
// available under an agent's component directory.
func NewPartsCmd() *cobra.Command {
	var (
		patterns []string
		jsonOut  bool
	)

	cmd := &cobra.Command{
		Use:   "parts <agent>",
		Short: "List the reusable components of an agent module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			paths := resolvePaths(cfg, args[0])
			parts, err := fragment.ListParts(paths.PartsDir, patterns)
			if err != nil {
				return err
			}

			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(parts)
			}

			if len(parts) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no parts found under %s\n", paths.PartsDir)
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PATH\tTIER\tSIZE\tDESCRIPTION")
			for _, p := range parts {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", p.Path, p.Tier, p.Size, p.Description)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringSliceVar(&patterns, "pattern", nil, "Glob patterns to filter parts (supports **)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the listing as JSON")

	return cmd
}
