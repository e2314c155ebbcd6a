package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"searxng-mcp/internal/infrastructure/config"
	"searxng-mcp/internal/infrastructure/logger"
	_ "searxng-mcp/internal/infrastructure/metrics" // Register Prometheus metrics
	"searxng-mcp/internal/infrastructure/observability"
	"searxng-mcp/internal/interfaces/httpserver"
	mcproute "searxng-mcp/internal/interfaces/httpserver/routes/mcp"
)

type Application struct {
	config     *config.Config
	tracing    observability.Config
	httpServer *httpserver.HTTPServer
	mcpRoute   *mcproute.MCPRoute
}

func init() {
	// Initialize logger with default settings
	logger.Init("info", "json")
}

// Start serves MCP over stdio or the HTTP API, depending on MCP_TRANSPORT,
// until ctx is cancelled.
func (app *Application) Start(ctx context.Context) error {
	tracer, err := observability.Init(ctx, app.tracing)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeoutDuration())
		defer cancel()
		if err := tracer.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Failed to flush traces")
		}
	}()

	if app.config.MCPTransport == config.TransportStdio {
		log.Info().Msg("Serving MCP over stdio")
		return app.mcpRoute.Server().Run(ctx, &mcp.StdioTransport{})
	}
	return app.httpServer.Run(ctx)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	// Re-initialize logger with config settings
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("http_port", cfg.HTTPPort).
		Str("transport", cfg.MCPTransport).
		Str("searxng_url", cfg.SearxngBaseURL()).
		Str("log_level", cfg.LogLevel).
		Msg("Starting SearXNG MCP service")

	// Create application with dependency injection
	application, err := CreateApplication()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create application")
	}

	if err := application.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server stopped with error")
	}
	log.Info().Msg("Server stopped")
}
