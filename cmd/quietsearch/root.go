package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/usestring/quietsearch/internal/config"
	"github.com/usestring/quietsearch/internal/logging"
	"github.com/usestring/quietsearch/internal/mcp"
	"github.com/usestring/quietsearch/internal/pipeline"
)

// globalFlags are shared by all subcommands.
type globalFlags struct {
	settingsFile string
	logLevel     string
	logFile      string
	upstreamURL  string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:           "quietsearch",
		Short:         "Private web search with tracking and scripts removed",
		Long:          "quietsearch fetches search results from the configured provider, keeps only organic results, strips tracking from every link and serves pages with scripts removed. Without a subcommand it runs the MCP server on stdio.",
		Version:       mcp.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, g)
		},
	}

	root.PersistentFlags().StringVarP(&g.settingsFile, "settings", "c", "", "settings file (YAML), overrides QUIETSEARCH_SETTINGS_FILE")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "`debug/info/warn/error`, overrides LOG_LEVEL")
	root.PersistentFlags().StringVar(&g.logFile, "log-file", "", "write logs to this rotated file, overrides LOG_FILE")
	root.PersistentFlags().StringVar(&g.upstreamURL, "upstream", "", "search provider root URL, overrides QUIETSEARCH_UPSTREAM_URL")

	root.AddCommand(
		newServeCmd(g),
		newSearchCmd(g),
		newViewCmd(g),
		newSuggestCmd(g),
	)
	return root
}

// load reads the environment and settings file, applies flag overrides and
// installs the logger. The returned cleanup closes the log file.
func (g *globalFlags) load(defaultLevel string) (*config.Config, func() error, error) {
	cfg := config.Load()
	if g.settingsFile != "" {
		cfg.SettingsFile = g.settingsFile
	}
	if err := cfg.ApplySettingsFile(); err != nil {
		return nil, nil, fmt.Errorf("settings: %w", err)
	}
	if g.upstreamURL != "" {
		cfg.UpstreamBaseURL = g.upstreamURL
	}

	if g.logFile != "" {
		cfg.LogFile = g.logFile
	}
	switch {
	case g.logLevel != "":
		cfg.LogLevel = g.logLevel
	case defaultLevel != "":
		cfg.LogLevel = defaultLevel
	}

	cleanup, err := logging.Setup(logging.Config{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		FilePath:   cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
		Compress:   cfg.LogCompress,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("logging: %w", err)
	}
	return cfg, cleanup, nil
}

// engine loads configuration and builds the search pipeline for one-shot
// commands, which log warnings only unless asked otherwise.
func (g *globalFlags) engine() (*config.Config, *pipeline.Engine, func() error, error) {
	cfg, cleanup, err := g.load("warn")
	if err != nil {
		return nil, nil, nil, err
	}
	e, err := pipeline.FromConfig(cfg, nil)
	if err != nil {
		_ = cleanup()
		return nil, nil, nil, err
	}
	return cfg, e, cleanup, nil
}
