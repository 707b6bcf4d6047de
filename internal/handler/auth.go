package handler

import (
	"net/http"

	"github.com/lorenzotomasdiez/ArcAPI/internal/dto"
	"github.com/lorenzotomasdiez/ArcAPI/internal/middleware"
	"github.com/lorenzotomasdiez/ArcAPI/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct{ svc service.AuthService }

func NewAuthHandler(svc service.AuthService) *AuthHandler { return &AuthHandler{svc: svc} }

// Signup registers a new account and returns a token pair (POST /v1/auth/signup).
func (h *AuthHandler) Signup(c *gin.Context) {
	var req dto.SignupRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Signup(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Login exchanges credentials for a token pair (POST /v1/auth/login).
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Refresh issues a fresh token pair from a refresh token (POST /v1/auth/refresh).
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		_ = c.Error(service.ErrInvalidCredentials)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Profile returns the authenticated user (GET /v1/auth/me).
func (h *AuthHandler) Profile(c *gin.Context) {
	resp, err := h.svc.Profile(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CreateAPIKey mints a machine key; the plaintext is returned exactly once
// (POST /v1/api-keys).
func (h *AuthHandler) CreateAPIKey(c *gin.Context) {
	var req dto.CreateAPIKeyRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateAPIKey(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListAPIKeys lists the user's keys without plaintext (GET /v1/api-keys).
func (h *AuthHandler) ListAPIKeys(c *gin.Context) {
	resp, err := h.svc.ListAPIKeys(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RevokeAPIKey deactivates a key (DELETE /v1/api-keys/:id).
func (h *AuthHandler) RevokeAPIKey(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.RevokeAPIKey(c.Request.Context(), middleware.UserID(c), id); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
