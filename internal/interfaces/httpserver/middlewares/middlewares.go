package middlewares

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"searxng-mcp/internal/infrastructure/metrics"
	"searxng-mcp/internal/infrastructure/observability"
	"searxng-mcp/internal/interfaces/httpserver/responses"
	"searxng-mcp/utils/platformerrors"
)

const RequestIDHeader = "X-Request-Id"

// RequestID propagates the caller's X-Request-Id, or assigns a fresh one, and
// stores it in the request context for error reporting.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(RequestIDHeader))
		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.NewString()
		}
		c.Request.Header.Set(RequestIDHeader, requestID)
		c.Writer.Header().Set(RequestIDHeader, requestID)
		c.Request = c.Request.WithContext(platformerrors.WithRequestID(c.Request.Context(), requestID))
		c.Next()
	}
}

// RequestLogger logs HTTP requests
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := platformerrors.RequestIDFromContext(c.Request.Context())

		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("client_ip", c.ClientIP()).
			Str("request_id", requestID).
			Msg("incoming request")

		c.Next()

		for _, e := range c.Errors {
			var platformErr *platformerrors.PlatformError
			if errors.As(e.Err, &platformErr) {
				platformerrors.LogError(log.With().
					Str("method", c.Request.Method).
					Str("path", c.Request.URL.Path).
					Int("status", c.Writer.Status()).
					Logger(), platformErr)
				continue
			}
			log.Error().
				Str("method", c.Request.Method).
				Str("path", c.Request.URL.Path).
				Int("status", c.Writer.Status()).
				Str("request_id", requestID).
				Err(e.Err).
				Msg("request error")
		}

		logEvent := log.Info()
		if c.Writer.Status() >= 400 {
			logEvent = log.Warn()
		}
		logEvent.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Str("request_id", requestID).
			Dur("duration", time.Since(start)).
			Msg("request completed")
	}
}

// Tracing opens a server span per request, continuing any trace context the
// caller propagated. It is a no-op unless a tracer provider is installed.
func Tracing() gin.HandlerFunc {
	tracer := observability.Tracer()

	return func(c *gin.Context) {
		ctx := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		ctx, span := tracer.Start(ctx, c.Request.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", c.Request.Method),
				semconv.HTTPRoute(route),
				attribute.String("request.id", platformerrors.RequestIDFromContext(ctx)),
			),
		)
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(attribute.Int("http.response.status_code", status))
		if status >= 500 {
			span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", status))
		}
		for _, e := range c.Errors {
			span.RecordError(e.Err)
		}
	}
}

// CORS adds CORS headers
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		// MCP clients send session and protocol headers on preflight
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-Id, Mcp-Session-Id, mcp-protocol-version")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-Id")
		c.Writer.Header().Set("Access-Control-Max-Age", "3600")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// MetricsRecorder records HTTP request metrics for Prometheus
func MetricsRecorder() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		switch c.Request.URL.Path {
		case "/health", "/healthz", "/readyz", "/metrics":
			return
		}

		metrics.RecordRequest(c.Request.Method, strconv.Itoa(c.Writer.Status()))
	}
}

// InFlightLimiter bounds concurrently served requests to maxInFlight. A
// request that cannot get a slot within queueTimeout is rejected with 503.
func InFlightLimiter(maxInFlight int, queueTimeout time.Duration) gin.HandlerFunc {
	sem := semaphore.NewWeighted(int64(max(maxInFlight, 1)))

	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), queueTimeout)
		err := sem.Acquire(ctx, 1)
		cancel()
		if err != nil {
			metrics.RejectedRequestsTotal.Inc()
			log.Warn().
				Str("path", c.Request.URL.Path).
				Dur("queue_timeout", queueTimeout).
				Msg("no in-flight slot available, rejecting request")
			responses.HandleNewError(c, platformerrors.ErrorTypeUnavailable, "server busy, retry later", "c4f1a7e2-6b3d-4d8e-9f5a-2e7b0c1d3a94")
			return
		}

		metrics.InFlightRequests.Inc()
		defer func() {
			metrics.InFlightRequests.Dec()
			sem.Release(1)
		}()

		c.Next()
	}
}
