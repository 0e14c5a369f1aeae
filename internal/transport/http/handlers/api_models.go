package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	return ErrorResponse{
		Error:   errorMsg,
		TraceID: c.GetString("trace_id"),
	}
}

// StatusResponse is the success/code/message envelope returned by user endpoints.
type StatusResponse struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
}

// SessionResponse describes the identity carried by the presented token.
type SessionResponse struct {
	Success   bool      `json:"success"`
	Code      int       `json:"code"`
	ID        string    `json:"id"`
	Username  string    `json:"username,omitempty"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenIssueRequest defines the payload for the development token endpoint.
type TokenIssueRequest struct {
	ID       string `json:"id" binding:"required"`
	Username string `json:"username"`
}

// TokenIssueResponse carries a freshly signed bearer token.
type TokenIssueResponse struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Token   string `json:"token"`
}

// HealthResponse reports liveness.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// ReadinessResponse reports the state of each dependency.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
