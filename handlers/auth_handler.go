package handlers

import (
	"errors"
	"net/http"

	"acroparty/middleware"
	"acroparty/services"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type GuestRequest struct {
	Nickname string `json:"nickname" binding:"required,min=2,max=32"`
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Nickname string `json:"nickname" binding:"required,min=2,max=32"`
	Password string `json:"password" binding:"required,min=8"`
}

type ConvertRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Guest creates an anonymous player; the returned token authenticates all
// later game actions.
func (h *AuthHandler) Guest(c *gin.Context) {
	var req GuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	player, err := h.authService.CreateGuest(req.Nickname)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create guest"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"player": player,
		"token":  player.GuestToken,
	})
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	player, token, err := h.authService.Register(req.Email, req.Nickname, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"player": player,
		"token":  token,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	player, token, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": services.ErrInvalidCredentials.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"player": player,
		"token":  token,
	})
}

// Convert upgrades the authenticated guest into a registered account so their
// accumulated statistics survive the upgrade.
func (h *AuthHandler) Convert(c *gin.Context) {
	player := middleware.PlayerFromContext(c)

	var req ConvertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	converted, token, err := h.authService.ConvertGuest(player, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotGuest):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrEmailTaken):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to convert account"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"player": converted,
		"token":  token,
	})
}

func (h *AuthHandler) Me(c *gin.Context) {
	player := middleware.PlayerFromContext(c)
	c.JSON(http.StatusOK, gin.H{"player": player})
}
