package domain

import (
	"strings"
	"time"
)

// RoomStatus - состояние PvP комнаты
type RoomStatus string

const (
	RoomWaiting  RoomStatus = "waiting"
	RoomReady    RoomStatus = "ready"
	RoomPlaying  RoomStatus = "playing"
	RoomFinished RoomStatus = "finished"
)

// RoomRole identifies which slot of the room a party occupies.
type RoomRole string

const (
	RoleCreator RoomRole = "creator"
	RoleJoiner  RoomRole = "joiner"
)

// Room is one ephemeral peer-vs-peer room. Stored as JSON in Redis under a
// per-room key with a TTL; the stored record is the single source of truth,
// no in-process copy survives a request.
type Room struct {
	RoomID    string `json:"room_id"`
	ChainID   int64  `json:"chain_id"`
	BetAmount string `json:"bet_amount"` // opaque settlement parameter
	IsFree    bool   `json:"is_free"`

	Creator string  `json:"creator"`
	Joiner  *string `json:"joiner,omitempty"`

	CreatorMove *Move `json:"creator_move,omitempty"`
	JoinerMove  *Move `json:"joiner_move,omitempty"`

	Status RoomStatus `json:"status"`

	CreatorResult *Outcome `json:"creator_result,omitempty"`
	JoinerResult  *Outcome `json:"joiner_result,omitempty"`

	RematchRequested *string `json:"rematch_requested,omitempty"`
	PlayerLeft       *string `json:"player_left,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// NormalizeAddress lowercases identity strings so the same wallet always
// matches the same slot.
func NormalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// RoleOf returns which slot addr occupies, or false if addr is not a party.
func (r *Room) RoleOf(addr string) (RoomRole, bool) {
	addr = NormalizeAddress(addr)
	if addr == r.Creator {
		return RoleCreator, true
	}
	if r.Joiner != nil && addr == *r.Joiner {
		return RoleJoiner, true
	}
	return "", false
}

// Stale is the single staleness predicate shared by the sweeper and the
// lazy read paths. Both must agree, otherwise a record could be live to one
// and dead to the other.
func (r *Room) Stale(now time.Time, ttl time.Duration) bool {
	return now.Sub(r.CreatedAt) > ttl
}
