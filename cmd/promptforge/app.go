package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/c360studio/promptforge/commands"
)

func rootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   "promptforge",
		Short: "Modular agent prompt assembly",
		Long: `Promptforge builds final agent prompt artifacts from modular components.

A root template carries reference markers of the form

    <!-- REFERENCE: sections/role.xml -->

which are recursively replaced with reusable parts from the module's
component directory. Composition is deterministic, fails fast on missing
or cyclic references, and can validate the assembled artifact.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configureLogging(logLevel)
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	cmd.AddCommand(commands.NewBuildCmd())
	cmd.AddCommand(commands.NewValidateCmd())
	cmd.AddCommand(commands.NewPartsCmd())
	cmd.AddCommand(commands.NewInitCmd())
	cmd.AddCommand(commands.NewWatchCmd())

	// Version command
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

func configureLogging(logLevel string) {
	level := slog.LevelWarn
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}
