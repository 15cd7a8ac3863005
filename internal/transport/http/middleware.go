package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// LoggerMiddleware creates a middleware that logs HTTP requests.
func LoggerMiddleware(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		// Process request
		c.Next()

		// Log after request
		logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	}
}

// OriginMiddleware rejects requests whose Origin is not allowed before any
// handler runs. Requests without an Origin header pass through untouched.
// Preflight requests from allowed origins are answered here.
func OriginMiddleware(origins *originPolicy, logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}

		if !origins.allows(origin) {
			logger.Warn().Str("origin", origin).Str("path", c.Request.URL.Path).Msg("blocked request from disallowed origin")
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Error: "origin not allowed"})
			return
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Vary", "Origin")

		if c.Request.Method == http.MethodOptions {
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type")
			c.Header("Access-Control-Max-Age", "600")
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// originGuard is OriginMiddleware for handlers mounted outside gin.
func originGuard(origins *originPolicy, logger *zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && !origins.allows(origin) {
			logger.Warn().Str("origin", origin).Str("path", r.URL.Path).Msg("blocked request from disallowed origin")
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusForbidden)
			_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "origin not allowed"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
