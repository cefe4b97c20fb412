// Package cmd provides the CLI commands for multiret.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hayatlabs/multiret/internal/config"
	"github.com/hayatlabs/multiret/internal/logging"
	"github.com/hayatlabs/multiret/pkg/version"
)

var (
	projectDir     string
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for the multiret CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "multiret",
		Short: "Hybrid multilingual retrieval over a document corpus",
		Long: `multiret indexes a multilingual document corpus and answers queries by
fusing BM25 keyword matching with embedding-based semantic search.

Index a CSV corpus with 'multiret index corpus.csv', then query it with
'multiret search "your query"'.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.SetVersionTemplate("multiret version {{.Version}}\n")

	cmd.PersistentFlags().StringVarP(&projectDir, "dir", "C", ".", "Project directory holding config and index data")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	cmd.PersistentPreRunE = setupLogging
	cmd.PersistentPostRun = func(_ *cobra.Command, _ []string) {
		if loggingCleanup != nil {
			loggingCleanup()
			loggingCleanup = nil
		}
	}

	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// setupLogging initializes the default logger from config, with --debug
// overriding the configured level.
func setupLogging(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(projectDir)
	if err != nil {
		// Commands report config errors themselves with proper context;
		// fall back to a stderr logger here.
		cfg = config.NewConfig()
	}

	level := cfg.Logging.Level
	if debugMode {
		level = "debug"
	}

	cleanup, err := logging.SetupDefault(logging.Config{
		Level:         level,
		FilePath:      cfg.Logging.File,
		WriteToStderr: true,
	})
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	loggingCleanup = cleanup

	slog.Debug("logging initialized", slog.String("level", level))
	return nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println(version.String())
		},
	}
}
