package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/angryrobotdeals/mtagent/internal/auth"
	"github.com/angryrobotdeals/mtagent/internal/service"
)

// AuthHandler exposes the token lifecycle routes. Register and
// update-token only require bearer presence; login is admin-gated.
type AuthHandler struct {
	Tokens *service.TokenService
	Logger *zap.Logger
}

func (h *AuthHandler) Register(r *gin.Engine, guard *auth.Guard) {
	g := r.Group("/auth")
	g.POST("/register", guard.RequireAnyToken(), h.register)
	g.POST("/update-token", guard.RequireAnyToken(), h.updateToken)
	g.POST("/login", guard.RequireAdminToken(), h.login)
	g.GET("/tokens", guard.RequireAnyToken(), h.listTokens)
	g.DELETE("/token/:username", guard.RequireAnyToken(), h.deleteToken)
}

type usernameRequest struct {
	Username string `json:"username"`
}

func (h *AuthHandler) register(c *gin.Context) {
	var req usernameRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Username) == "" {
		Error(c, http.StatusBadRequest, "username required", nil)
		return
	}
	token, err := h.Tokens.Register(c.Request.Context(), req.Username)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAlreadyExists):
			Error(c, http.StatusConflict, "user already exists", nil)
		case errors.Is(err, service.ErrValidation):
			Error(c, http.StatusBadRequest, "username required", nil)
		default:
			Error(c, http.StatusBadGateway, err.Error(), nil)
		}
		return
	}
	Ok(c, gin.H{"token": token}, nil)
}

func (h *AuthHandler) updateToken(c *gin.Context) {
	var req usernameRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Username) == "" {
		Error(c, http.StatusBadRequest, "username required", nil)
		return
	}
	token, err := h.Tokens.UpdateToken(c.Request.Context(), req.Username)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			Error(c, http.StatusNotFound, "user not found", nil)
		case errors.Is(err, service.ErrValidation):
			Error(c, http.StatusBadRequest, "username required", nil)
		default:
			Error(c, http.StatusBadGateway, err.Error(), nil)
		}
		return
	}
	Ok(c, gin.H{"token": token}, nil)
}

func (h *AuthHandler) login(c *gin.Context) {
	var req usernameRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Username) == "" {
		Error(c, http.StatusBadRequest, "username required", nil)
		return
	}
	token, err := h.Tokens.Login(c.Request.Context(), req.Username)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			Error(c, http.StatusNotFound, "user not found", nil)
		case errors.Is(err, service.ErrValidation):
			Error(c, http.StatusBadRequest, "username required", nil)
		default:
			Error(c, http.StatusBadGateway, err.Error(), nil)
		}
		return
	}
	Ok(c, gin.H{"message": "login ok", "token": token}, nil)
}

func (h *AuthHandler) listTokens(c *gin.Context) {
	users, err := h.Tokens.List(c.Request.Context())
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, users, nil)
}

func (h *AuthHandler) deleteToken(c *gin.Context) {
	username := strings.TrimSpace(c.Param("username"))
	if username == "" {
		Error(c, http.StatusBadRequest, "username required", nil)
		return
	}
	if err := h.Tokens.Revoke(c.Request.Context(), username); err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			Error(c, http.StatusNotFound, "user not found", nil)
		default:
			Error(c, http.StatusBadGateway, err.Error(), nil)
		}
		return
	}
	Ok(c, gin.H{"deleted": username}, nil)
}
