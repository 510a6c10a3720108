package http

import (
	"rps_arena/internal/config"
	"rps_arena/internal/http/handlers"
	"rps_arena/internal/http/middleware"
	"rps_arena/internal/repository"
	"rps_arena/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"
)

func RegisterRoutes(r *gin.Engine, db *pgxpool.Pool, rdb *redis.Client, cfg *config.Config, version string) {
	rooms := repository.NewRoomStore(rdb, cfg.RoomTTL)
	matches := repository.NewMatchRepository(db)

	bridge := service.LogBridge{}
	roomService := service.NewRoomService(rooms, bridge, cfg.RoomTTL)
	matchService := service.NewAIMatchService(matches, bridge, service.MatchConfig{
		ResumeWindow:  cfg.ResumeWindow,
		AbandonLimit:  cfg.AbandonLimit,
		AbandonWindow: cfg.AbandonWindow,
	})
	sweeper := service.NewSweeper(rooms, matchService, cfg.RoomTTL)

	h := handlers.NewHandler(roomService, matchService, sweeper)
	healthHandler := handlers.NewHealthHandler(db, rdb, version)

	// Health checks (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)

	moveRL := middleware.MoveRateLimit(cfg.MoveRateLimit, cfg.MoveRateWindow)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.RedisRateLimit(cfg.APIRateLimit, cfg.APIRateWindow))
	{
		room := v1.Group("/rooms")
		room.POST("/create", h.CreateRoom)
		room.POST("/join", h.JoinRoom)
		room.POST("/cancel", h.CancelRoom)
		room.POST("/move", moveRL, h.SubmitMove)
		room.POST("/rematch", h.Rematch)
		room.GET("/status", h.RoomStatus)

		ai := v1.Group("/ai")
		ai.POST("/start", h.StartMatch)
		ai.POST("/play", moveRL, h.PlayRound)
		ai.POST("/abandon", h.AbandonMatch)
		ai.GET("/resume", h.ResumeMatch)
		ai.GET("/status", h.MatchStatus)
		ai.GET("/stats", h.PlayerStats)
	}

	// Sweeper trigger: kept off the public API group, scheduled externally.
	r.POST("/internal/sweeper/reap", h.Reap)
}
