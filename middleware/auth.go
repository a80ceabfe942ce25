package middleware

import (
	"net/http"
	"strings"

	"acroparty/models"
	"acroparty/services"

	"github.com/gin-gonic/gin"
)

const playerContextKey = "player"

// ResolvePlayer turns a bearer token (JWT or guest token) into the current
// player and stores it in the request context. Missing or bad tokens are not
// an error here; RequirePlayer gates the routes that need an identity.
func ResolvePlayer(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		token := strings.TrimPrefix(header, "Bearer ")
		if player, err := auth.ResolvePlayer(token); err == nil {
			c.Set(playerContextKey, player)
		}
		c.Next()
	}
}

func RequirePlayer() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := c.Get(playerContextKey); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

// PlayerFromContext fetches the player placed by ResolvePlayer.
func PlayerFromContext(c *gin.Context) *models.Player {
	if value, ok := c.Get(playerContextKey); ok {
		if player, ok := value.(*models.Player); ok {
			return player
		}
	}
	return nil
}
