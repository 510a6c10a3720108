package handlers

import (
	"net/http"

	"rps_arena/internal/domain"
	"rps_arena/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateRoomRequest - параметры создания комнаты
type CreateRoomRequest struct {
	Creator   string `json:"creator" binding:"required"`
	BetAmount string `json:"betAmount"`
	IsFree    bool   `json:"isFree"`
	ChainID   int64  `json:"chainId"`
}

func (h *Handler) CreateRoom(c *gin.Context) {
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	room, err := h.Rooms.Create(c.Request.Context(), req.Creator, req.BetAmount, req.IsFree, req.ChainID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"roomId":  room.RoomID,
		"chainId": room.ChainID,
	})
}

type JoinRoomRequest struct {
	RoomID string `json:"roomId" binding:"required"`
	Joiner string `json:"joiner" binding:"required"`
}

func (h *Handler) JoinRoom(c *gin.Context) {
	var req JoinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	room, err := h.Rooms.Join(c.Request.Context(), req.RoomID, req.Joiner)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"betAmount": room.BetAmount,
		"isFree":    room.IsFree,
	})
}

type CancelRoomRequest struct {
	RoomID  string `json:"roomId" binding:"required"`
	Creator string `json:"creator" binding:"required"`
}

func (h *Handler) CancelRoom(c *gin.Context) {
	var req CancelRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	if err := h.Rooms.Cancel(c.Request.Context(), req.RoomID, req.Creator); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{})
}

type SubmitMoveRequest struct {
	RoomID string `json:"roomId" binding:"required"`
	Player string `json:"player" binding:"required"`
	Move   string `json:"move" binding:"required"`
}

func (h *Handler) SubmitMove(c *gin.Context) {
	var req SubmitMoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	move, err := domain.ParseMove(req.Move)
	if err != nil {
		abortWithError(c, err)
		return
	}

	room, err := h.Rooms.SubmitMove(c.Request.Context(), req.RoomID, req.Player, move)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": room.Status})
}

type RematchRequest struct {
	RoomID string `json:"roomId" binding:"required"`
	Player string `json:"player" binding:"required"`
	Action string `json:"action" binding:"required,oneof=request accept leave"`
}

func (h *Handler) Rematch(c *gin.Context) {
	var req RematchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	room, err := h.Rooms.Rematch(c.Request.Context(), req.RoomID, req.Player, service.RematchAction(req.Action))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": room.Status})
}

// RoomStatus is the polling endpoint. Moves and results are hidden until
// the room is finished, so neither party can peek at the other's move.
func (h *Handler) RoomStatus(c *gin.Context) {
	roomID := c.Query("roomId")
	if roomID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "roomId is required"})
		return
	}

	room, err := h.Rooms.Status(c.Request.Context(), roomID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	resp := gin.H{
		"roomId":           room.RoomID,
		"status":           room.Status,
		"creator":          room.Creator,
		"joiner":           room.Joiner,
		"chainId":          room.ChainID,
		"betAmount":        room.BetAmount,
		"isFree":           room.IsFree,
		"rematchRequested": room.RematchRequested,
		"playerLeft":       room.PlayerLeft,
	}
	if room.Status == domain.RoomFinished {
		resp["creatorMove"] = room.CreatorMove
		resp["joinerMove"] = room.JoinerMove
		resp["creatorResult"] = room.CreatorResult
		resp["joinerResult"] = room.JoinerResult
	}

	c.JSON(http.StatusOK, resp)
}
