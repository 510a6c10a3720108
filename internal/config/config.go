package config

import (
	"os"
	"strconv"
	"time"

	"rps_arena/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort     string
	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Engine timing
	RoomTTL      time.Duration // комната живёт час, TTL обновляется при каждой записи
	ResumeWindow time.Duration

	// Abandonment throttle
	AbandonLimit  int
	AbandonWindow time.Duration

	// Rate limits
	APIRateLimit   int
	APIRateWindow  time.Duration
	MoveRateLimit  int
	MoveRateWindow time.Duration

	LogLevel string
	LogJSON  bool
}

// Загрузка конфига из env
func Load() *Config {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is not set")
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		logger.Fatal("REDIS_ADDR is not set")
	}

	redisDB := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			redisDB = n
		}
	}

	return &Config{
		AppPort:     port,
		DatabaseURL: dbURL,

		RedisAddr:     redisAddr,
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,

		RoomTTL:      envSeconds("ROOM_TTL_SECONDS", time.Hour),
		ResumeWindow: envSeconds("RESUME_WINDOW_SECONDS", 10*time.Minute),

		AbandonLimit:  envInt("ABANDON_LIMIT", 3),
		AbandonWindow: envSeconds("ABANDON_WINDOW_SECONDS", 30*time.Minute),

		APIRateLimit:   envInt("API_RATE_LIMIT", 60),
		APIRateWindow:  envSeconds("API_RATE_WINDOW_SECONDS", time.Minute),
		MoveRateLimit:  envInt("MOVE_RATE_LIMIT", 30),
		MoveRateWindow: envSeconds("MOVE_RATE_WINDOW_SECONDS", time.Minute),

		LogLevel: envString("LOG_LEVEL", "info"),
		LogJSON:  os.Getenv("LOG_JSON") == "true",
	}
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func envSeconds(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return def
}
