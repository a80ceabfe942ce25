package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"acroparty/middleware"
	"acroparty/models"
	"acroparty/services"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"
)

type GameHandler struct {
	gameService  *services.GameService
	roundService *services.RoundService
	joinBaseURL  string
}

func NewGameHandler(gameService *services.GameService, roundService *services.RoundService, joinBaseURL string) *GameHandler {
	return &GameHandler{
		gameService:  gameService,
		roundService: roundService,
		joinBaseURL:  joinBaseURL,
	}
}

func (h *GameHandler) ListPublic(c *gin.Context) {
	games, err := h.gameService.ListPublicGames()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list games"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"games": games})
}

func (h *GameHandler) Create(c *gin.Context) {
	player := middleware.PlayerFromContext(c)

	// An empty body creates a game with default settings.
	var req services.CreateGameRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	game, err := h.gameService.CreateGame(c.Request.Context(), player, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"game": game})
}

func (h *GameHandler) Show(c *gin.Context) {
	game, ok := h.lookupGame(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"game":          game,
		"players_count": h.gameService.ActiveMemberCount(game.ID),
	})
}

func (h *GameHandler) Join(c *gin.Context) {
	player := middleware.PlayerFromContext(c)
	game, ok := h.lookupGame(c)
	if !ok {
		return
	}

	// The body is optional; only password-protected games need one.
	var req services.JoinGameRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	if err := h.gameService.JoinGame(c.Request.Context(), game, player, req.Password); err != nil {
		respondError(c, err)
		return
	}

	fresh, err := h.gameService.GetGameByCode(game.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"game": fresh})
}

func (h *GameHandler) Leave(c *gin.Context) {
	player := middleware.PlayerFromContext(c)
	game, ok := h.lookupGame(c)
	if !ok {
		return
	}

	if err := h.gameService.LeaveGame(c.Request.Context(), game, player); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"left": true})
}

func (h *GameHandler) Start(c *gin.Context) {
	player := middleware.PlayerFromContext(c)
	game, ok := h.lookupGame(c)
	if !ok {
		return
	}

	fresh, round, err := h.gameService.StartGame(c.Request.Context(), game, player)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"game":  fresh,
		"round": round,
	})
}

func (h *GameHandler) Kick(c *gin.Context) {
	player := middleware.PlayerFromContext(c)
	game, ok := h.lookupGame(c)
	if !ok {
		return
	}

	targetID, err := strconv.ParseUint(c.Param("playerId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid player id"})
		return
	}

	if err := h.gameService.KickPlayer(c.Request.Context(), game, player, uint(targetID)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"kicked": true})
}

func (h *GameHandler) Rematch(c *gin.Context) {
	player := middleware.PlayerFromContext(c)
	game, ok := h.lookupGame(c)
	if !ok {
		return
	}

	fresh, err := h.gameService.Rematch(c.Request.Context(), game, player)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"game": fresh})
}

func (h *GameHandler) UpdateSettings(c *gin.Context) {
	player := middleware.PlayerFromContext(c)
	game, ok := h.lookupGame(c)
	if !ok {
		return
	}

	var settings models.GameSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.gameService.UpdateSettings(c.Request.Context(), game, player, settings); err != nil {
		respondError(c, err)
		return
	}

	fresh, err := h.gameService.GetGameByCode(game.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"game": fresh})
}

// CurrentRound returns the round in progress, if any, so a reconnecting
// client can rebuild its view without waiting for the next event.
func (h *GameHandler) CurrentRound(c *gin.Context) {
	game, ok := h.lookupGame(c)
	if !ok {
		return
	}

	round, err := h.roundService.CurrentRound(game)
	if errors.Is(err, services.ErrRoundNotFound) {
		c.JSON(http.StatusOK, gin.H{"round": nil})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	payload := gin.H{"round": round}
	if round.IsVoting() || round.IsCompleted() {
		answers, err := h.roundService.AnswersForRound(round.ID)
		if err == nil {
			payload["answers"] = answers
		}
	}
	c.JSON(http.StatusOK, payload)
}

// QRCode renders the game's join link as a PNG for sharing on a screen.
func (h *GameHandler) QRCode(c *gin.Context) {
	game, ok := h.lookupGame(c)
	if !ok {
		return
	}

	link := fmt.Sprintf("%s/join/%s", h.joinBaseURL, game.Code)
	png, err := qrcode.Encode(link, qrcode.Medium, 256)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render code"})
		return
	}

	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, "image/png", png)
}

func (h *GameHandler) lookupGame(c *gin.Context) (*models.Game, bool) {
	game, err := h.gameService.GetGameByCode(c.Param("code"))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return game, true
}
