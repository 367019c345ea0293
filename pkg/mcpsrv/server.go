package mcpsrv

import (
	"context"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/quietsearch/internal/cache"
	"github.com/usestring/quietsearch/internal/config"
	"github.com/usestring/quietsearch/internal/logging"
	"github.com/usestring/quietsearch/internal/mcp"
	"github.com/usestring/quietsearch/internal/mcp/tools"
	"github.com/usestring/quietsearch/internal/pipeline"
)

// Server is the quietsearch MCP server.
// It wraps the internal implementation and provides extension points.
type Server struct {
	internal   *mcp.Server
	deps       *Deps
	logCleanup func() error
}

// NewServer creates a new MCP server with the builtin search tools.
//
// Configuration comes from the environment and the optional settings file
// unless WithConfig is given. WithSettingsFile and WithUpstreamURL apply on
// top of either.
func NewServer(opts ...Option) (*Server, error) {
	cfg := defaultServerConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.config == nil {
		cfg.config = config.Load()
	}
	if cfg.settingsFile != "" {
		cfg.config.SettingsFile = cfg.settingsFile
	}
	if err := cfg.config.ApplySettingsFile(); err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if cfg.upstreamURL != "" {
		cfg.config.UpstreamBaseURL = cfg.upstreamURL
	}

	logCfg := logging.Config{
		Level:      cfg.config.LogLevel,
		Format:     cfg.config.LogFormat,
		FilePath:   cfg.config.LogFile,
		MaxSizeMB:  cfg.config.LogMaxSizeMB,
		MaxBackups: cfg.config.LogMaxBackups,
		MaxAgeDays: cfg.config.LogMaxAgeDays,
		Compress:   cfg.config.LogCompress,
	}
	if cfg.logLevel != "" {
		logCfg.Level = cfg.logLevel
	}
	if cfg.logFile != "" {
		logCfg.FilePath = cfg.logFile
	}
	logCleanup, err := logging.Setup(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logging: %w", err)
	}

	engine, err := pipeline.FromConfig(cfg.config, cfg.httpClient)
	if err != nil {
		_ = logCleanup()
		return nil, fmt.Errorf("failed to create search pipeline: %w", err)
	}

	searches, err := cache.NewSearchCache(cfg.config.SearchCacheMaxItems)
	if err != nil {
		_ = logCleanup()
		return nil, fmt.Errorf("failed to create search cache: %w", err)
	}

	toolDeps := &tools.Deps{
		Config: cfg.config,
		Engine: engine,
		Cache:  searches,
	}

	// Same values, different type for the public API
	deps := &Deps{
		Config: cfg.config,
		Engine: engine,
		Cache:  searches,
	}

	var internalOpts []mcp.ServerOption
	if cfg.builtinTools {
		internalOpts = append(internalOpts, mcp.WithBuiltinTools())
	}
	if cfg.builtinPrompts {
		internalOpts = append(internalOpts, mcp.WithBuiltinPrompts())
	}
	for _, ext := range cfg.extensions {
		internalOpts = append(internalOpts, mcp.WithCustomRegistration(func(srv *sdkmcp.Server) {
			ext(srv, deps)
		}))
	}

	internal, err := mcp.NewServer(toolDeps, internalOpts...)
	if err != nil {
		_ = logCleanup()
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	return &Server{
		internal:   internal,
		deps:       deps,
		logCleanup: logCleanup,
	}, nil
}

// Run starts the MCP server with stdio transport.
// The server runs until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.internal.Run(ctx)
}

// Close cleans up server resources.
func (s *Server) Close() error {
	if s.logCleanup != nil {
		return s.logCleanup()
	}
	return nil
}

// Deps returns the dependencies for building custom tools.
func (s *Server) Deps() *Deps {
	return s.deps
}

// MCPServer returns the underlying MCP server, e.g. to connect an in-memory
// transport in tests.
func (s *Server) MCPServer() *sdkmcp.Server {
	return s.internal.MCPServer()
}
