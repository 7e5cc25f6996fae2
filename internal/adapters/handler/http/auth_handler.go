package http

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/grepguru/zenlock-engine/internal/core/services"
)

// AuthHandler exchanges the shared device key for a bearer token. There is
// no user store: a device proves possession of the key configured on the
// server and gets a device-scoped JWT back.
type AuthHandler struct {
	tokens    *services.TokenService
	deviceKey string
}

func NewAuthHandler(tokens *services.TokenService, deviceKey string) *AuthHandler {
	return &AuthHandler{
		tokens:    tokens,
		deviceKey: deviceKey,
	}
}

type tokenRequest struct {
	DeviceID  string `json:"device_id" binding:"required"`
	DeviceKey string `json:"device_key" binding:"required"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

func (h *AuthHandler) Token(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if subtle.ConstantTimeCompare([]byte(req.DeviceKey), []byte(h.deviceKey)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid device key"})
		return
	}

	token, err := h.tokens.GenerateToken(req.DeviceID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, tokenResponse{Token: token})
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/token", h.Token)
	}
}
