package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/meigma/patchkit"
	"github.com/meigma/patchkit/compress"
	"github.com/meigma/patchkit/internal/config"
)

// Global scope flags.
var (
	cfgFile     string
	projectName string
	codecName   string
	verbose     bool
	noProgress  bool
)

var rootCmd = &cobra.Command{
	Use:   "patchkit",
	Short: "Incremental asset cache and archive packer",
	Long: `patchkit keeps a content-addressed, compressed cache of a game asset tree
and a versioned manifest describing it, then packs selected assets into
distribution archives according to a placement index.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", config.DefaultFile, "workspace config file")
	flags.StringVarP(&projectName, "project", "p", "", "project to operate on (default: the only project defined)")
	flags.StringVar(&codecName, "codec", compress.Default.Name(), "store compression codec (zstd, lz4)")
	flags.BoolVar(&verbose, "verbose", false, "enable debug logging")
	flags.BoolVar(&noProgress, "no-progress", false, "do not show progress bar")

	rootCmd.AddCommand(cacheCmd, packCmd, inspectCmd)
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// loadProject resolves the selected project from the config file.
func loadProject(cmd *cobra.Command) patchkit.Project {
	cfg, err := config.Load(cfgFile)
	ExitOnErr(cmd, err)
	p, err := cfg.Project(projectName)
	ExitOnErr(cmd, err)
	return p
}

func selectedCodec(cmd *cobra.Command) compress.Codec {
	c, err := compress.ByName(codecName)
	ExitOnErr(cmd, err)
	return c
}
