package routes

import (
	"net/http"

	"acroparty/delectus"
	"acroparty/handlers"
	"acroparty/middleware"
	"acroparty/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

func SetupRoutes(
	router *gin.Engine,
	authHandler *handlers.AuthHandler,
	gameHandler *handlers.GameHandler,
	roundHandler *handlers.RoundHandler,
	hub *services.Hub,
	authService *services.AuthService,
	gameService *services.GameService,
	scheduler *delectus.Scheduler,
) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.Use(middleware.ResolvePlayer(authService))
	{
		auth := api.Group("/auth")
		{
			auth.POST("/guest", authHandler.Guest)
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/convert", middleware.RequirePlayer(), authHandler.Convert)
			auth.GET("/me", middleware.RequirePlayer(), authHandler.Me)
		}

		games := api.Group("/games")
		{
			games.GET("", gameHandler.ListPublic)
			games.GET("/:code", gameHandler.Show)
			games.GET("/:code/qr", gameHandler.QRCode)
			games.GET("/:code/round", gameHandler.CurrentRound)

			protected := games.Group("")
			protected.Use(middleware.RequirePlayer())
			{
				protected.POST("", gameHandler.Create)
				protected.POST("/:code/join", gameHandler.Join)
				protected.POST("/:code/leave", gameHandler.Leave)
				protected.POST("/:code/start", gameHandler.Start)
				protected.POST("/:code/rematch", gameHandler.Rematch)
				protected.PUT("/:code/settings", gameHandler.UpdateSettings)
				protected.DELETE("/:code/players/:playerId", gameHandler.Kick)
			}
		}

		rounds := api.Group("/rounds")
		rounds.Use(middleware.RequirePlayer())
		{
			rounds.POST("/:id/answer", roundHandler.SubmitAnswer)
			rounds.POST("/:id/vote", roundHandler.SubmitVote)
			rounds.POST("/:id/voting", roundHandler.StartVoting)
			rounds.POST("/:id/complete", roundHandler.Complete)
		}

		// Scheduler visibility for operators.
		api.GET("/debug/delectus", func(c *gin.Context) {
			c.JSON(http.StatusOK, scheduler.GetStatus())
		})
	}

	// WebSocket endpoint for real-time game events. Browsers cannot set the
	// Authorization header on a WebSocket dial, so the token rides the query.
	router.GET("/ws/:code", func(c *gin.Context) {
		code := c.Param("code")
		game, err := gameService.GetGameByCode(code)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
			return
		}

		player, err := authService.ResolvePlayer(c.Query("token"))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}

		hub.RegisterClient(conn, game.Code, player.ID, player.Nickname)
	})
}
