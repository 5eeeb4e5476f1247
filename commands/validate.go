package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/c360studio/promptforge/report"
	"github.com/c360studio/promptforge/validate"
)

// NewValidateCmd creates the validate command, which checks an already
// composed artifact without rebuilding it.
func NewValidateCmd() *cobra.Command {
	var (
		file    string
		strict  bool
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "validate <agent>",
		Short: "Validate a composed prompt artifact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			target := file
			if target == "" {
				target = resolvePaths(cfg, args[0]).Output
			}

			data, err := os.ReadFile(target)
			if err != nil {
				return fmt.Errorf("read artifact: %w", err)
			}

			v := validate.New(cfg.Validation.Rules, nil)
			findings, err := v.Validate(string(data))
			if err != nil {
				return err
			}

			sum := report.New(target)
			sum.Findings = findings

			failed := (strict || cfg.Validation.Strict) && validate.HasCritical(findings)
			if failed {
				sum.Fail("validating", validate.ErrValidationFailed)
			}

			if jsonOut {
				if err := sum.WriteJSON(cmd.OutOrStdout()); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%d finding(s) in %s\n", len(findings), target)
				if err := sum.WriteText(cmd.OutOrStdout()); err != nil {
					return err
				}
			}

			if failed {
				return validate.ErrValidationFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Artifact file to validate (default: the agent's output file)")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail on critical findings")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the report as JSON")

	return cmd
}
