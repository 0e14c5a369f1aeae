package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arklim/calendar-iam/internal/core/port"
)

// TokenHandler issues bearer tokens in development so logout can be exercised
// without a user store.
type TokenHandler struct {
	issuer port.TokenIssuer
}

// NewTokenHandler constructs a token handler.
func NewTokenHandler(issuer port.TokenIssuer) *TokenHandler {
	return &TokenHandler{issuer: issuer}
}

// RegisterRoutes binds token endpoints.
func (h *TokenHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/token", h.IssueToken)
}

// IssueToken godoc
// @Summary Issue a development token
// @Description Signs a bearer token for the supplied identity. Only mounted in development.
// @Tags User
// @Accept json
// @Produce json
// @Param request body TokenIssueRequest true "Identity"
// @Success 200 {object} TokenIssueResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/user/token [post]
func (h *TokenHandler) IssueToken(c *gin.Context) {
	var req TokenIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "id is required"))
		return
	}

	token, err := h.issuer.Issue(c.Request.Context(), req.ID, req.Username)
	if err != nil {
		RespondWithMappedError(c, err, nil, http.StatusInternalServerError, "failed to issue token")
		return
	}

	c.JSON(http.StatusOK, TokenIssueResponse{Success: true, Code: http.StatusOK, Token: token})
}
