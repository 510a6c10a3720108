package handlers

import (
	"net/http"

	"rps_arena/internal/domain"

	"github.com/gin-gonic/gin"
)

type StartMatchRequest struct {
	Address string `json:"address" binding:"required"`
}

func (h *Handler) StartMatch(c *gin.Context) {
	var req StartMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	match, err := h.Matches.StartMatch(c.Request.Context(), req.Address)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"match": match})
}

type PlayRoundRequest struct {
	MatchID    string `json:"matchId" binding:"required"`
	PlayerMove string `json:"playerMove" binding:"required"`
}

func (h *Handler) PlayRound(c *gin.Context) {
	var req PlayRoundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	move, err := domain.ParseMove(req.PlayerMove)
	if err != nil {
		abortWithError(c, err)
		return
	}

	match, outcome, err := h.Matches.PlayRound(c.Request.Context(), req.MatchID, move)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"match":       match,
		"roundResult": outcome,
	})
}

type AbandonMatchRequest struct {
	MatchID string `json:"matchId" binding:"required"`
}

func (h *Handler) AbandonMatch(c *gin.Context) {
	var req AbandonMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	match, err := h.Matches.AbandonMatch(c.Request.Context(), req.MatchID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"match": match})
}

// ResumeMatch returns the caller's resumable match or null. Clients poll
// this, so absence is a 200 with a null match, never an error.
func (h *Handler) ResumeMatch(c *gin.Context) {
	address := c.Query("address")
	if address == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "address is required"})
		return
	}

	match, err := h.Matches.GetActiveMatch(c.Request.Context(), address)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"match": match})
}

// MatchStatus mirrors ResumeMatch: a missing match is a null value.
func (h *Handler) MatchStatus(c *gin.Context) {
	matchID := c.Query("matchId")
	if matchID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "matchId is required"})
		return
	}

	match, err := h.Matches.GetMatchStatus(c.Request.Context(), matchID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"match": match})
}

func (h *Handler) PlayerStats(c *gin.Context) {
	address := c.Query("address")
	if address == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "address is required"})
		return
	}

	stats, err := h.Matches.Stats(c.Request.Context(), address)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": stats})
}
