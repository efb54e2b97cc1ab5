// cmd/sigdiff/main.go
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sigdiff/internal/config"
	"sigdiff/internal/logging"
)

var (
	flagVerbose bool
	flagConfig  string
)

var rootCmd = &cobra.Command{
	Use:   "sigdiff",
	Short: "Sigdiff reports public interface changes between two revisions",
	Long: `Sigdiff materializes two revisions of a repository into isolated
worktrees, extracts the public interface of each, and reports the symbols
that were added, removed, or changed between them.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file path (default: user config dir)")

	var diffOpts diffOptions
	diffCmd := &cobra.Command{
		Use:   "diff <base> <target> [template]",
		Short: "Diff the public interface between two refs",
		Long: `Diff checks out both refs into temporary worktrees, extracts each
revision's public interface, and prints the added/removed/changed
partition. With a template file the result is rendered through it;
without one a colored summary is printed.`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			diffOpts.baseRef = args[0]
			diffOpts.targetRef = args[1]
			if len(args) == 3 {
				diffOpts.templatePath = args[2]
			}
			return runDiff(&diffOpts)
		},
	}
	diffCmd.Flags().StringVar(&diffOpts.tempDir, "tempdir", "", "directory to create worktrees in (default: private temp dir)")
	diffCmd.Flags().StringVarP(&diffOpts.outputPath, "output", "o", "", "write output to this file instead of stdout (must not exist)")
	diffCmd.Flags().StringVar(&diffOpts.extractorCmd, "extractor", "", "extraction engine command")
	diffCmd.Flags().BoolVar(&diffOpts.noCache, "no-cache", false, "bypass the extraction cache")

	var watchOpts diffOptions
	watchCmd := &cobra.Command{
		Use:   "watch <base> <target> [template]",
		Short: "Re-run the diff whenever the repository's refs change",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			watchOpts.baseRef = args[0]
			watchOpts.targetRef = args[1]
			if len(args) == 3 {
				watchOpts.templatePath = args[2]
			}
			return runWatch(cmd.Context(), &watchOpts)
		},
	}
	watchCmd.Flags().StringVar(&watchOpts.tempDir, "tempdir", "", "directory to create worktrees in (default: private temp dir)")
	watchCmd.Flags().StringVar(&watchOpts.extractorCmd, "extractor", "", "extraction engine command")
	watchCmd.Flags().BoolVar(&watchOpts.noCache, "no-cache", false, "bypass the extraction cache")

	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the extraction result cache",
	}
	cacheStatsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache entry count and size",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCacheStats()
		},
	}
	cacheClearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Drop all cached extraction results",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCacheClear()
		},
	}
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)

	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(cacheCmd)
}

// loadEnvironment resolves config and logger for a command invocation.
func loadEnvironment() (*config.Config, *logging.Logger, error) {
	path := flagConfig
	if path == "" {
		path = config.Path()
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	level := cfg.LogLevel
	if flagVerbose {
		level = "debug"
	}

	logger, err := logging.NewLogger(level)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing logger: %w", err)
	}

	return cfg, logger, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
