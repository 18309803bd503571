package handlers

import (
	"errors"
	"net/http"

	"github.com/devtoolkit/auth-service/internal/tokens"
	"github.com/devtoolkit/auth-service/pkg/logger"
	"github.com/devtoolkit/auth-service/pkg/metrics"
	"github.com/devtoolkit/auth-service/pkg/middleware"
	"github.com/devtoolkit/auth-service/pkg/response"
	"github.com/gin-gonic/gin"
)

// LoginRequest carries the credentials presented to /auth/login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthHandler holds dependencies
type AuthHandler struct {
	lifecycle *tokens.Service
}

func NewAuthHandler(lifecycle *tokens.Service) *AuthHandler {
	return &AuthHandler{lifecycle: lifecycle}
}

// Register routes under /auth. These routes are exempt from the
// authentication gate: login has no token yet, refresh presents a
// refresh token the gate would not find in the store, and logout must
// succeed even for an expired session.
func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	a := rg.Group("/auth")
	a.POST("/login", h.Login)
	a.POST("/refresh-token", h.Refresh)
	a.POST("/logout", h.Logout)
}

// RegisterProtected mounts the routes that require an authenticated
// principal. The caller wires the gate onto the group.
func (h *AuthHandler) RegisterProtected(rg *gin.RouterGroup) {
	rg.GET("/me", h.Me)
}

// Login authenticates credentials and returns a fresh token pair.
// A new login revokes every prior access token for the subject.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, response.ValidationError, err.Error())
		return
	}

	pair, err := h.lifecycle.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, tokens.ErrAuthenticationFailed) {
			metrics.LoginAttempts.WithLabelValues("failed").Inc()
			response.Fail(c, response.Unauthorized, "invalid email or password")
			return
		}
		metrics.LoginAttempts.WithLabelValues("error").Inc()
		logger.Errorf("login failed: %v", err)
		response.Fail(c, response.Error, "")
		return
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	response.OK(c, pair)
}

// Refresh rotates the access token for the bearer refresh token.
// Deliberate asymmetry inherited from the lifecycle contract: a missing
// or invalid refresh token is a silent no-op that writes an empty 200
// body, not an error envelope, and the success body is the raw pair,
// not the standard envelope.
func (h *AuthHandler) Refresh(c *gin.Context) {
	raw, ok := middleware.BearerToken(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{})
		return
	}

	pair, err := h.lifecycle.Refresh(c.Request.Context(), raw)
	if err != nil {
		logger.Errorf("refresh failed: %v", err)
		response.Fail(c, response.Error, "")
		return
	}
	if pair == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, pair)
}

// Logout invalidates the presented access token. Absent headers,
// unknown tokens and repeated logouts are no-ops that still answer 200;
// a store failure is a server error like on any other path.
func (h *AuthHandler) Logout(c *gin.Context) {
	if raw, ok := middleware.BearerToken(c); ok {
		if err := h.lifecycle.Logout(c.Request.Context(), raw); err != nil {
			logger.Errorf("logout: %v", err)
			response.Fail(c, response.Error, "")
			return
		}
	}
	response.OK(c, nil)
}

// Me returns the authenticated principal attached by the gate.
func (h *AuthHandler) Me(c *gin.Context) {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		response.Fail(c, response.LoginRequired, "")
		return
	}
	response.OK(c, gin.H{"subject": p.Subject, "name": p.Name, "roles": p.Roles})
}
