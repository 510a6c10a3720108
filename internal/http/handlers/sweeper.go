package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Reap closes stale rooms and matches. Idempotent; meant to be hit on a
// fixed schedule by an external trigger (cmd/sweeper or a cron job).
func (h *Handler) Reap(c *gin.Context) {
	res, err := h.Sweeper.Reap(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"roomsReaped":   res.RoomsReaped,
		"matchesReaped": res.MatchesReaped,
	})
}
