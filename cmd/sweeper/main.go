package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"rps_arena/internal/config"
	"rps_arena/internal/db"
	"rps_arena/internal/logger"
	"rps_arena/internal/repository"
	"rps_arena/internal/service"

	"github.com/go-co-op/gocron/v2"
)

// The engine exposes Reap but does not self-schedule; this binary is the
// external trigger, run beside the app (or replaced by any cron that hits
// POST /internal/sweeper/reap).
func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)

	dbPool := db.Connect(cfg.DatabaseURL)
	defer dbPool.Close()

	rdb := db.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer rdb.Close()

	rooms := repository.NewRoomStore(rdb, cfg.RoomTTL)
	matches := service.NewAIMatchService(repository.NewMatchRepository(dbPool), service.LogBridge{}, service.MatchConfig{
		ResumeWindow:  cfg.ResumeWindow,
		AbandonLimit:  cfg.AbandonLimit,
		AbandonWindow: cfg.AbandonWindow,
	})
	sweeper := service.NewSweeper(rooms, matches, cfg.RoomTTL)

	interval := time.Minute
	if v := os.Getenv("SWEEP_INTERVAL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			interval = time.Duration(n) * time.Second
		}
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		logger.Fatal("scheduler init failed", "error", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			res, err := sweeper.Reap(ctx)
			if err != nil {
				logger.Error("sweep failed", "error", err)
				return
			}
			logger.Debug("sweep finished", "rooms", res.RoomsReaped, "matches", res.MatchesReaped)
		}),
	)
	if err != nil {
		logger.Fatal("scheduler job failed", "error", err)
	}

	sched.Start()
	logger.Info("sweeper started", "interval", interval)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	_ = sched.Shutdown()
	logger.Info("sweeper exited")
}
