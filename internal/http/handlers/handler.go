package handlers

import (
	"net/http"

	"rps_arena/internal/domain"
	"rps_arena/internal/logger"
	"rps_arena/internal/service"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Rooms   *service.RoomService
	Matches *service.AIMatchService
	Sweeper *service.Sweeper
}

func NewHandler(rooms *service.RoomService, matches *service.AIMatchService, sweeper *service.Sweeper) *Handler {
	return &Handler{
		Rooms:   rooms,
		Matches: matches,
		Sweeper: sweeper,
	}
}

// abortWithError maps the error taxonomy onto response codes. Callers
// never branch on message text, only on the kind.
func abortWithError(c *gin.Context, err error) {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case domain.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case domain.KindForbidden:
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case domain.KindConflict:
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case domain.KindRateLimited:
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
	default:
		logger.Error("internal error", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
