package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/c360studio/promptforge/compose"
	"github.com/c360studio/promptforge/config"
	"github.com/c360studio/promptforge/report"
)

// buildFlags are the per-invocation overrides for a build.
type buildFlags struct {
	template string
	output   string
	partsDir string
	maxDepth int
	toStdout bool
	validate bool
	strict   bool
	annotate bool
	verbose  bool
	jsonOut  bool
}

// NewBuildCmd creates the build command.
func NewBuildCmd() *cobra.Command {
	var flags buildFlags

	cmd := &cobra.Command{
		Use:   "build <agent>",
		Short: "Assemble an agent prompt from modular components",
		Long: `Build reads the agent's modular template, resolves every component
reference against the parts directory, and writes the assembled prompt
artifact. References may nest: a part can reference further parts, up
to the configured depth limit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			applyBuildFlags(cmd, cfg, &flags)
			return runBuild(cmd, cfg, args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.template, "template", "", "Template file name within the module")
	cmd.Flags().StringVar(&flags.output, "output", "", "Output file name within the module")
	cmd.Flags().StringVar(&flags.partsDir, "parts-dir", "", "Component directory name within the module")
	cmd.Flags().IntVar(&flags.maxDepth, "max-depth", 0, "Maximum nested reference depth")
	cmd.Flags().BoolVar(&flags.toStdout, "stdout", false, "Write the artifact to stdout instead of the output file")
	cmd.Flags().BoolVar(&flags.validate, "validate", false, "Validate the assembled artifact")
	cmd.Flags().BoolVar(&flags.strict, "strict", false, "Fail the build on critical validation findings")
	cmd.Flags().BoolVar(&flags.annotate, "annotate", false, "Insert SOURCE provenance comments into the artifact")
	cmd.Flags().BoolVar(&flags.verbose, "verbose", false, "Include the fragment manifest and resolution trace in the report")
	cmd.Flags().BoolVar(&flags.jsonOut, "json", false, "Emit the report as JSON")

	return cmd
}

// applyBuildFlags layers explicit flags over the loaded configuration.
func applyBuildFlags(cmd *cobra.Command, cfg *config.Config, flags *buildFlags) {
	if flags.template != "" {
		cfg.Build.Template = flags.template
	}
	if flags.output != "" {
		cfg.Build.Output = flags.output
	}
	if flags.partsDir != "" {
		cfg.Build.PartsDir = flags.partsDir
	}
	if flags.maxDepth > 0 {
		cfg.Build.MaxDepth = flags.maxDepth
	}
	if flags.validate {
		cfg.Validation.Enabled = true
	}
	if flags.strict {
		cfg.Validation.Enabled = true
		cfg.Validation.Strict = true
	}
	if flags.annotate {
		cfg.Build.Annotate = true
	}
}

// runBuild performs one composition run and prints its report.
func runBuild(cmd *cobra.Command, cfg *config.Config, agent string, flags buildFlags) error {
	paths := resolvePaths(cfg, agent)

	if _, err := os.Stat(paths.Template); err != nil {
		return fmt.Errorf("template file not found: %s", paths.Template)
	}
	if info, err := os.Stat(paths.PartsDir); err != nil || !info.IsDir() {
		return fmt.Errorf("parts directory not found: %s", paths.PartsDir)
	}

	composer := compose.New(compose.Options{
		PartsDir: paths.PartsDir,
		MaxDepth: cfg.Build.MaxDepth,
		Annotate: cfg.Build.Annotate,
		Validate: cfg.Validation.Enabled,
		Strict:   cfg.Validation.Strict,
		Rules:    cfg.Validation.Rules,
	})

	sum := report.New(paths.Template)
	res, err := composer.Compose(paths.Template)

	sum.FragmentsResolved = res.FragmentsResolved
	if res.Findings != nil {
		sum.Findings = res.Findings
	}
	if flags.verbose {
		sum.Manifest = res.Manifest
		sum.Trace = res.Trace
	}

	if err != nil {
		sum.Fail(string(res.Phase), err)
		emitReport(cmd, sum, flags)
		return err
	}

	if flags.toStdout {
		fmt.Fprint(cmd.OutOrStdout(), res.Output)
		if flags.jsonOut {
			return sum.WriteJSON(cmd.ErrOrStderr())
		}
		return sum.WriteText(cmd.ErrOrStderr())
	}

	if err := writeFileAtomic(paths.Output, []byte(res.Output)); err != nil {
		sum.Fail(string(compose.PhaseDone), err)
		emitReport(cmd, sum, flags)
		return err
	}
	sum.Output = paths.Output

	slog.Info("build completed",
		slog.String("agent", agent),
		slog.Int("fragments", res.FragmentsResolved),
		slog.Int("bytes", len(res.Output)))

	emitReport(cmd, sum, flags)
	return nil
}

// emitReport writes the summary in the requested format.
func emitReport(cmd *cobra.Command, sum *report.Summary, flags buildFlags) {
	if flags.jsonOut {
		_ = sum.WriteJSON(cmd.OutOrStdout())
		return
	}
	_ = sum.WriteText(cmd.OutOrStdout())
}
