package commands

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/c360studio/promptforge/watch"
)

// NewWatchCmd creates the watch command, which rebuilds the artifact
// whenever the template or a part changes.
func NewWatchCmd() *cobra.Command {
	var flags buildFlags

	cmd := &cobra.Command{
		Use:   "watch <agent>",
		Short: "Rebuild the agent prompt on every change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			applyBuildFlags(cmd, cfg, &flags)

			agent := args[0]
			paths := resolvePaths(cfg, agent)

			// Initial build; a broken input should not stop the watch.
			if err := runBuild(cmd, cfg, agent, flags); err != nil {
				slog.Warn("initial build failed", "error", err)
			}

			w, err := watch.New(watch.Config{
				Root:      paths.Dir,
				SkipFiles: []string{cfg.Build.Output},
				Ignore:    cfg.Watch.Ignore,
				Debounce:  cfg.Watch.Debounce,
			})
			if err != nil {
				return fmt.Errorf("create watcher: %w", err)
			}
			defer w.Stop()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := w.Start(ctx); err != nil {
				return fmt.Errorf("start watcher: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "watching %s (ctrl-c to stop)\n", paths.Dir)

			for {
				select {
				case <-ctx.Done():
					return nil
				case batch, ok := <-w.Changes():
					if !ok {
						return nil
					}
					slog.Info("change detected, rebuilding",
						slog.Int("files", len(batch)))
					if err := runBuild(cmd, cfg, agent, flags); err != nil {
						slog.Warn("rebuild failed", "error", err)
					}
				}
			}
		},
	}

	cmd.Flags().StringVar(&flags.template, "template", "", "Template file name within the module")
	cmd.Flags().StringVar(&flags.output, "output", "", "Output file name within the module")
	cmd.Flags().StringVar(&flags.partsDir, "parts-dir", "", "Component directory name within the module")
	cmd.Flags().BoolVar(&flags.validate, "validate", false, "Validate after every rebuild")
	cmd.Flags().BoolVar(&flags.verbose, "verbose", false, "Include the fragment manifest in each report")
	cmd.Flags().BoolVar(&flags.jsonOut, "json", false, "Emit reports as JSON")

	return cmd
}
