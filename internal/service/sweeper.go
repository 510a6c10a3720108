package service

import (
	"context"
	"time"

	"rps_arena/internal/logger"
	"rps_arena/internal/repository"
)

// ReapResult reports what one sweep reclaimed.
type ReapResult struct {
	RoomsReaped   int `json:"rooms_reaped"`
	MatchesReaped int `json:"matches_reaped"`
}

// Sweeper reclaims stale rooms and matches. It is not a daemon: Reap is
// an idempotent operation invoked on an external schedule (cmd/sweeper or
// any cron). Staleness is decided by the same predicates the lazy read
// paths use, so the sweeper and a live request can never disagree about
// whether a record is dead.
type Sweeper struct {
	rooms   *repository.RoomStore
	matches *AIMatchService
	roomTTL time.Duration

	now func() time.Time
}

func NewSweeper(rooms *repository.RoomStore, matches *AIMatchService, roomTTL time.Duration) *Sweeper {
	return &Sweeper{
		rooms:   rooms,
		matches: matches,
		roomTTL: roomTTL,
		now:     time.Now,
	}
}

// Reap scans for stale rooms and idle active matches and closes them.
func (s *Sweeper) Reap(ctx context.Context) (ReapResult, error) {
	var res ReapResult

	rooms, err := s.rooms.List(ctx)
	if err != nil {
		return res, err
	}
	now := s.now()
	for _, room := range rooms {
		if !room.Stale(now, s.roomTTL) {
			continue
		}
		if err := s.rooms.Delete(ctx, room.RoomID); err != nil {
			logger.Error("sweeper failed to delete room", "room_id", room.RoomID, "error", err)
			continue
		}
		res.RoomsReaped++
	}

	res.MatchesReaped, err = s.matches.ReapStale(ctx)
	if err != nil {
		return res, err
	}

	SweeperReaped.WithLabelValues("room").Add(float64(res.RoomsReaped))
	SweeperReaped.WithLabelValues("match").Add(float64(res.MatchesReaped))

	if res.RoomsReaped > 0 || res.MatchesReaped > 0 {
		logger.Info("sweep done", "rooms", res.RoomsReaped, "matches", res.MatchesReaped)
	}
	return res, nil
}
