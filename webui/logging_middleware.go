// Package webui provides the HTTP and WebSocket surface the browser editor
// consumes. This file contains the HTTP request logging middleware.
package webui

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"inkwell/logging"
)

// correlationIDLength is how many characters of the uuid go into each
// request's correlation ID.
const correlationIDLength = 8

// LoggingMiddleware logs HTTP requests with a per-request correlation ID,
// method, path, status code, and duration. Thread-safe for concurrent
// requests.
type LoggingMiddleware struct {
	logger *logging.Logger

	// skipPaths are paths excluded from logging (health checks)
	skipPaths map[string]bool
}

// LoggingMiddlewareConfig holds configuration for the LoggingMiddleware.
type LoggingMiddlewareConfig struct {
	// Logger for request logging; nil disables logging entirely
	Logger *logging.Logger

	// SkipPaths are paths to skip logging (default: none)
	SkipPaths []string
}

// NewLoggingMiddleware creates a middleware with the given configuration.
func NewLoggingMiddleware(config LoggingMiddlewareConfig) *LoggingMiddleware {
	skipPaths := make(map[string]bool)
	for _, path := range config.SkipPaths {
		skipPaths[path] = true
	}
	return &LoggingMiddleware{
		logger:    config.Logger,
		skipPaths: skipPaths,
	}
}

// Handler wraps an http.Handler with request logging. Each request gets a
// correlation ID echoed in the X-Request-ID response header so client-side
// reports can be matched to server logs.
func (m *LoggingMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.skipPaths[r.URL.Path] || m.logger == nil {
			next.ServeHTTP(w, r)
			return
		}

		correlationID := uuid.New().String()[:correlationIDLength]
		w.Header().Set("X-Request-ID", correlationID)

		start := time.Now()
		wrapped := &responseWriterWrapper{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		m.logger.Infow("http request",
			"request_id", correlationID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"remote_addr", clientIP(r),
		)
	})
}

// responseWriterWrapper wraps http.ResponseWriter to capture the status code.
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	if !w.wroteHeader {
		w.statusCode = statusCode
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *responseWriterWrapper) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// Flush implements http.Flusher when the underlying writer supports it.
func (w *responseWriterWrapper) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// clientIP extracts the client IP, preferring proxy headers.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for i := 0; i < len(xff); i++ {
			if xff[i] == ',' {
				return xff[:i]
			}
		}
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
