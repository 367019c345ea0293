package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/usestring/quietsearch/pkg/mcpsrv"
)

func newServeCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdio (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, g)
		},
	}
}

func runServe(cmd *cobra.Command, g *globalFlags) error {
	server, err := mcpsrv.NewServer(g.serverOptions()...)
	if err != nil {
		return err
	}
	defer server.Close()

	cfg := server.Deps().Config
	slog.Info("starting quietsearch MCP server on stdio",
		slog.String("upstream", cfg.UpstreamBaseURL),
		slog.Bool("bangs", cfg.BangsFile != ""),
	)
	if err := server.Run(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("server error", slog.String("error", err.Error()))
		return err
	}

	slog.Info("server stopped")
	return nil
}

// serverOptions maps the global flags onto server options. Unset flags leave
// the environment in charge.
func (g *globalFlags) serverOptions() []mcpsrv.Option {
	return []mcpsrv.Option{
		mcpsrv.WithSettingsFile(g.settingsFile),
		mcpsrv.WithUpstreamURL(g.upstreamURL),
		mcpsrv.WithLogLevel(g.logLevel),
		mcpsrv.WithLogFile(g.logFile),
	}
}
