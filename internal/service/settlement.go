package service

import (
	"context"

	"rps_arena/internal/domain"
	"rps_arena/internal/logger"
)

// SettlementBridge is the engine's view of the payout and archival
// collaborators. Calls are fire-and-forget relative to the state machine:
// a failed settlement never rolls back a terminal transition already
// written to the store - the record is the source of truth.
type SettlementBridge interface {
	// SettleRoom requests payout and archival for a finished room.
	SettleRoom(ctx context.Context, room *domain.Room) error
	// SettleMatch requests payout for a completed best-of-three match.
	SettleMatch(ctx context.Context, match *domain.AIMatch) error
	// Persist archives a terminal match in content-addressed storage and
	// returns the archival handle.
	Persist(ctx context.Context, match *domain.AIMatch) (string, error)
	// NotifyRankChange feeds the leaderboard collaborator.
	NotifyRankChange(ctx context.Context, playerID string, wins int) error
}

// LogBridge is the default bridge: it only logs. Real payout execution
// and archival are deployed as external collaborators.
type LogBridge struct{}

func (LogBridge) SettleRoom(ctx context.Context, room *domain.Room) error {
	logger.Info("settle room", "room_id", room.RoomID, "is_free", room.IsFree, "chain_id", room.ChainID)
	return nil
}

func (LogBridge) SettleMatch(ctx context.Context, match *domain.AIMatch) error {
	logger.Info("settle match", "match_id", match.ID, "status", match.Status)
	return nil
}

func (LogBridge) Persist(ctx context.Context, match *domain.AIMatch) (string, error) {
	logger.Info("persist match", "match_id", match.ID)
	return "log:" + match.ID, nil
}

func (LogBridge) NotifyRankChange(ctx context.Context, playerID string, wins int) error {
	logger.Info("rank change", "player_id", playerID, "wins", wins)
	return nil
}
