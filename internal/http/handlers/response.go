// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the standard response utilities used across all endpoints:
// the error envelope, centralized failure logging, and success helpers. Every
// failure carries a stable machine-readable `code` next to the human `error`
// message the landing-page client displays.
//
// Example error response:
//
//	HTTP/1.1 400 Bad Request
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "validation_failed",
//	  "error": "Validation failed",
//	  "details": { "email": "Invalid email format" }
//	}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/CoolAssPuppy/landing-pages/internal/http/middleware"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"validation_failed"`
	// Human-readable message (safe to show to users)
	Error string `json:"error" example:"Validation failed"`
	// Per-field messages, present on validation failures only
	Details map[string]string `json:"details,omitempty"`
}

// fail aborts the request with a structured error and logs server-side errors.
func fail(c *gin.Context, status int, code, msg string) {
	failDetails(c, status, code, msg, nil)
}

// failDetails is fail with per-field details attached.
func failDetails(c *gin.Context, status int, code, msg string, details map[string]string) {
	reqID := middleware.RequestIDFrom(c)
	if reqID == "" {
		reqID = c.Writer.Header().Get("X-Request-ID")
	}

	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: reqID,
		Code:      code,
		Error:     msg,
		Details:   details,
	})
}

// Fail is the exported variant of fail() for router-level fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// noContent writes an HTTP 204 No Content response.
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
