package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/arklim/calendar-iam/internal/core/domain"
	"github.com/arklim/calendar-iam/internal/core/port"
	"github.com/arklim/calendar-iam/internal/infra/security"
)

const (
	// ClaimsKey holds the verified *domain.TokenClaims.
	ClaimsKey = "claims"
	// AccessTokenKey holds the raw bearer token that passed verification.
	AccessTokenKey = "access_token"
	// AuthRejectionKey records why the auth middleware rejected a request.
	AuthRejectionKey = "auth_rejection"
)

// ErrorResponse matches the handlers.ErrorResponse structure
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// newErrorResponse creates an error response with trace ID
func newErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	return ErrorResponse{
		Error:   errorMsg,
		TraceID: GetTraceID(c),
	}
}

func reject(c *gin.Context, status int, reason, msg string) {
	c.Set(AuthRejectionKey, reason)
	c.AbortWithStatusJSON(status, newErrorResponse(c, msg))
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
// It returns an empty string when the header is absent or not a bearer credential.
func BearerToken(c *gin.Context) string {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// RequireAuth verifies the bearer token and rejects tokens present in the denylist.
func RequireAuth(verifier port.TokenVerifier, denylist port.TokenDenylist) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			reject(c, http.StatusUnauthorized, "missing", "missing authorization header")
			return
		}

		token := BearerToken(c)
		if token == "" {
			reject(c, http.StatusUnauthorized, "malformed", "invalid authorization format: expected 'Bearer <token>'")
			return
		}

		ctx := c.Request.Context()
		claims, err := verifier.Verify(ctx, token)
		if err != nil {
			switch {
			case errors.Is(err, security.ErrExpiredAccessToken):
				reject(c, http.StatusUnauthorized, "expired", "access token expired")
			case errors.Is(err, security.ErrInvalidAccessToken), errors.Is(err, domain.ErrMalformedToken):
				reject(c, http.StatusUnauthorized, "invalid", "invalid access token")
			default:
				reject(c, http.StatusInternalServerError, "error", "authentication failed")
			}
			return
		}

		if denylist != nil {
			revoked, err := denylist.IsRevoked(ctx, token)
			switch {
			case errors.Is(err, domain.ErrStoreUnavailable), errors.Is(err, context.DeadlineExceeded):
				reject(c, http.StatusServiceUnavailable, "revocation_unavailable", "revocation state unavailable")
				return
			case err != nil:
				reject(c, http.StatusInternalServerError, "error", "authentication failed")
				return
			case revoked:
				reject(c, http.StatusUnauthorized, "revoked", "token revoked")
				return
			}
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(ClaimsKey, claims)
		c.Set(AccessTokenKey, token)

		if reqCtx := GetRequestContext(c); reqCtx != nil {
			reqCtx.UserID = claims.UserID
		}

		c.Next()
	}
}

// GetAuthenticatedUserID retrieves the user ID from context (helper for handlers)
func GetAuthenticatedUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return "", false
	}

	if id, ok := userID.(string); ok {
		return id, true
	}

	return "", false
}

// GetClaims retrieves the verified claims stored by RequireAuth.
func GetClaims(c *gin.Context) (*domain.TokenClaims, bool) {
	value, exists := c.Get(ClaimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*domain.TokenClaims)
	return claims, ok && claims != nil
}

// GetAccessToken returns the bearer token accepted by RequireAuth, falling back to the header.
func GetAccessToken(c *gin.Context) string {
	if token := c.GetString(AccessTokenKey); token != "" {
		return token
	}
	return BearerToken(c)
}
