package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arklim/calendar-iam/internal/core/domain"
	"github.com/arklim/calendar-iam/internal/core/port"
	"github.com/arklim/calendar-iam/internal/transport/http/middleware"
)

const (
	logoutMessage       = "Successful logout"
	missingTokenMessage = "Token is missing"
)

// SessionHandler exposes logout and the session probe for authenticated users.
type SessionHandler struct {
	denylist port.TokenDenylist
	logger   *zap.Logger
}

// NewSessionHandler constructs a session handler.
func NewSessionHandler(denylist port.TokenDenylist, logger *zap.Logger) *SessionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionHandler{denylist: denylist, logger: logger}
}

// RegisterRoutes binds the session routes behind the supplied auth middleware.
func (h *SessionHandler) RegisterRoutes(r *gin.RouterGroup, auth gin.HandlerFunc) {
	if r == nil {
		return
	}

	r.POST("/logout", auth, h.Logout)
	r.GET("/session", auth, h.Session)
}

// Logout godoc
// @Summary Log out
// @Description Revokes the presented bearer token until it would have expired anyway.
// @Tags User
// @Produce json
// @Security BearerAuth
// @Success 200 {object} StatusResponse
// @Failure 400 {object} StatusResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/v1/user/logout [post]
func (h *SessionHandler) Logout(c *gin.Context) {
	token := middleware.GetAccessToken(c)
	if token == "" {
		c.JSON(http.StatusBadRequest, StatusResponse{Success: false, Code: http.StatusBadRequest, Message: missingTokenMessage})
		return
	}

	// The revocation must complete even when the client hangs up.
	ctx := context.WithoutCancel(c.Request.Context())
	if err := h.denylist.Revoke(ctx, token); err != nil {
		if errors.Is(err, domain.ErrMalformedToken) {
			c.JSON(http.StatusBadRequest, StatusResponse{Success: false, Code: http.StatusBadRequest, Message: missingTokenMessage})
			return
		}
		h.logger.Warn("logout revocation failed", zap.Error(err))
	}

	c.JSON(http.StatusOK, StatusResponse{Success: true, Code: http.StatusOK, Message: logoutMessage})
}

// Session godoc
// @Summary Inspect the current session
// @Description Returns the identity asserted by a valid, non-revoked bearer token.
// @Tags User
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SessionResponse
// @Failure 401 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /api/v1/user/session [get]
func (h *SessionHandler) Session(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	c.JSON(http.StatusOK, SessionResponse{
		Success:   true,
		Code:      http.StatusOK,
		ID:        claims.UserID,
		Username:  claims.Username,
		IssuedAt:  claims.IssuedAt.UTC().Truncate(time.Second),
		ExpiresAt: claims.ExpiresAt.UTC().Truncate(time.Second),
	})
}
