package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"searxng-mcp/internal/infrastructure/config"
	"searxng-mcp/internal/infrastructure/searxng"
	"searxng-mcp/internal/interfaces/httpserver/middlewares"
	"searxng-mcp/internal/interfaces/httpserver/routes/mcp"
	v1 "searxng-mcp/internal/interfaces/httpserver/routes/v1"
)

type HTTPServer struct {
	router       *gin.Engine
	config       *config.Config
	v1Route      *v1.V1Route
	mcpRoute     *mcp.MCPRoute
	searchClient *searxng.Client
}

func NewHTTPServer(
	cfg *config.Config,
	v1Route *v1.V1Route,
	mcpRoute *mcp.MCPRoute,
	searchClient *searxng.Client,
) *HTTPServer {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middlewares.RequestID())
	router.Use(middlewares.RequestLogger())
	router.Use(middlewares.Tracing())
	router.Use(middlewares.CORS())
	router.Use(middlewares.MetricsRecorder())

	s := &HTTPServer{
		router:       router,
		config:       cfg,
		v1Route:      v1Route,
		mcpRoute:     mcpRoute,
		searchClient: searchClient,
	}
	s.setupRoutes()
	return s
}

func (s *HTTPServer) setupRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": s.config.ServiceName})
	})

	s.router.GET("/readyz", s.readyz)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.GET("/tools", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"tools": mcp.Catalog()})
	})

	// Root aliases and /v1 share one in-flight budget
	limiter := middlewares.InFlightLimiter(s.config.HTTPMaxInFlight, s.config.QueueTimeoutDuration())

	s.v1Route.RegisterRouter(s.router.Group("/", limiter))

	v1Group := s.router.Group("/v1", limiter)
	s.v1Route.RegisterRouter(v1Group)
	s.mcpRoute.RegisterRouter(v1Group)
}

// readyz reports not ready while the SearXNG circuit breaker is open.
func (s *HTTPServer) readyz(c *gin.Context) {
	breaker := s.searchClient.CircuitBreaker()
	body := gin.H{
		"status":  "ready",
		"service": s.config.ServiceName,
		"searxng": breaker.GetMetrics(),
	}
	if breaker.GetState() == searxng.StateOpen {
		body["status"] = "not_ready"
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	c.JSON(http.StatusOK, body)
}

// Handler exposes the router, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", s.config.HTTPPort),
		Handler:           s.router,
		ReadHeaderTimeout: s.config.ReadHeaderTimeoutDuration(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("address", srv.Addr).Msg("Server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeoutDuration())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
