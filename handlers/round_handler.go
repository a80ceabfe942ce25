package handlers

import (
	"net/http"
	"strconv"

	"acroparty/middleware"
	"acroparty/models"
	"acroparty/services"

	"github.com/gin-gonic/gin"
)

type RoundHandler struct {
	roundService *services.RoundService
	gameService  *services.GameService
}

func NewRoundHandler(roundService *services.RoundService, gameService *services.GameService) *RoundHandler {
	return &RoundHandler{roundService: roundService, gameService: gameService}
}

type SubmitAnswerRequest struct {
	Text string `json:"text" binding:"required"`
}

type SubmitVoteRequest struct {
	AnswerID uint `json:"answer_id" binding:"required"`
}

func (h *RoundHandler) SubmitAnswer(c *gin.Context) {
	player := middleware.PlayerFromContext(c)
	round, ok := h.lookupRound(c)
	if !ok {
		return
	}

	var req SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	answer, err := h.roundService.SubmitAnswer(c.Request.Context(), round, player, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"answer": answer})
}

func (h *RoundHandler) SubmitVote(c *gin.Context) {
	player := middleware.PlayerFromContext(c)
	round, ok := h.lookupRound(c)
	if !ok {
		return
	}

	var req SubmitVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	vote, err := h.roundService.SubmitVote(c.Request.Context(), round, player, req.AnswerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vote": vote})
}

// StartVoting lets the host cut the answer phase short. The orchestrator will
// otherwise flip the round when the answer deadline passes.
func (h *RoundHandler) StartVoting(c *gin.Context) {
	player := middleware.PlayerFromContext(c)
	round, ok := h.lookupRound(c)
	if !ok {
		return
	}

	if !h.gameService.IsHost(&round.Game, player.ID) {
		respondError(c, services.ErrNotHost)
		return
	}

	fresh, answers, err := h.roundService.StartVoting(c.Request.Context(), round)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"round":   fresh,
		"answers": answers,
	})
}

// Complete lets the host cut the voting phase short.
func (h *RoundHandler) Complete(c *gin.Context) {
	player := middleware.PlayerFromContext(c)
	round, ok := h.lookupRound(c)
	if !ok {
		return
	}

	if !h.gameService.IsHost(&round.Game, player.ID) {
		respondError(c, services.ErrNotHost)
		return
	}

	results, err := h.roundService.CompleteRound(c.Request.Context(), round)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (h *RoundHandler) lookupRound(c *gin.Context) (*models.Round, bool) {
	roundID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid round id"})
		return nil, false
	}

	round, err := h.roundService.GetRoundByID(uint(roundID))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return round, true
}
