package domain

import "time"

// MatchStatus - состояние матча против дома
type MatchStatus string

const (
	MatchActive    MatchStatus = "active"
	MatchCompleted MatchStatus = "completed"
	MatchAbandoned MatchStatus = "abandoned"
)

// TargetScore ends a best-of-three as soon as either side reaches it.
const TargetScore = 2

// Round is one decisive or tied exchange inside a best-of-three match.
// Result is from the player's perspective.
type Round struct {
	PlayerMove Move    `json:"player_move"`
	AIMove     Move    `json:"ai_move"`
	Result     Outcome `json:"result"`
}

// AIMatch is one best-of-three player-vs-house match, durable in Postgres.
type AIMatch struct {
	ID       string      `db:"id" json:"id"`
	PlayerID string      `db:"player_id" json:"player_id"`
	Status   MatchStatus `db:"status" json:"status"`

	PlayerScore  int `db:"player_score" json:"player_score"`
	AIScore      int `db:"ai_score" json:"ai_score"`
	CurrentRound int `db:"current_round" json:"current_round"`

	Rounds []Round `db:"rounds" json:"rounds"`

	StartedAt      time.Time    `db:"started_at" json:"started_at"`
	LastActivityAt time.Time    `db:"last_activity_at" json:"last_activity_at"`
	CompletedAt    *time.Time   `db:"completed_at" json:"completed_at,omitempty"`
	Winner         *MatchWinner `db:"winner" json:"winner,omitempty"`
}

// Resumable reports whether an active match is still within the resume
// window. Shared by the lazy read paths and the sweeper (same predicate).
func (m *AIMatch) Resumable(now time.Time, window time.Duration) bool {
	return m.Status == MatchActive && now.Sub(m.LastActivityAt) <= window
}

// Decided reports whether a best-of-three result already exists. A round
// played on a decided match is a bookkeeping bug, not a legal move.
func (m *AIMatch) Decided() bool {
	return m.PlayerScore >= TargetScore || m.AIScore >= TargetScore
}

// PlayerStats - агрегированная статистика игрока против дома
type PlayerStats struct {
	PlayerID  string    `db:"player_id" json:"player_id"`
	Wins      int       `db:"wins" json:"wins"`
	Losses    int       `db:"losses" json:"losses"`
	Ties      int       `db:"ties" json:"ties"`
	Abandons  int       `db:"abandons" json:"abandons"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
