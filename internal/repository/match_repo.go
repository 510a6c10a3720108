package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"rps_arena/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const matchColumns = `id, player_id, status, player_score, ai_score, current_round,
	rounds, started_at, last_activity_at, completed_at, winner`

// MatchRepository stores best-of-three matches in Postgres. Mutation goes
// through Update, which locks the row for the whole read-modify-write
// cycle, so concurrent writers on one match serialize on the row lock.
type MatchRepository struct {
	db *pgxpool.Pool
}

func NewMatchRepository(db *pgxpool.Pool) *MatchRepository {
	return &MatchRepository{db: db}
}

func (r *MatchRepository) Create(ctx context.Context, m *domain.AIMatch) error {
	roundsJSON, err := json.Marshal(m.Rounds)
	if err != nil {
		return domain.WrapError(domain.KindInternal, "encode rounds", err)
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO ai_matches (id, player_id, status, player_score, ai_score, current_round,
		                         rounds, started_at, last_activity_at, completed_at, winner)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		m.ID, m.PlayerID, m.Status, m.PlayerScore, m.AIScore, m.CurrentRound,
		roundsJSON, m.StartedAt, m.LastActivityAt, m.CompletedAt, m.Winner,
	)
	if err != nil {
		// Partial unique index on (player_id) WHERE status='active' backs the
		// one-active-match invariant against concurrent starts.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrActiveMatch
		}
		return domain.WrapError(domain.KindInternal, "insert match", err)
	}
	return nil
}

func (r *MatchRepository) Get(ctx context.Context, id string) (*domain.AIMatch, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+matchColumns+` FROM ai_matches WHERE id = $1`, id)

	m, err := scanMatch(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrMatchNotFound
	}
	if err != nil {
		return nil, domain.WrapError(domain.KindInternal, "load match", err)
	}
	return m, nil
}

// GetActiveByPlayer returns the player's active match, or (nil, nil) when
// there is none. Absence is a normal value here, not an error.
func (r *MatchRepository) GetActiveByPlayer(ctx context.Context, playerID string) (*domain.AIMatch, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+matchColumns+`
		 FROM ai_matches
		 WHERE player_id = $1 AND status = $2
		 ORDER BY last_activity_at DESC
		 LIMIT 1`,
		playerID, domain.MatchActive)

	m, err := scanMatch(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.WrapError(domain.KindInternal, "load active match", err)
	}
	return m, nil
}

// Update applies fn to the match under a row lock and writes the result
// back in the same transaction. Either the whole transition commits or
// the prior state is preserved. Errors from fn roll back and pass
// through unchanged.
func (r *MatchRepository) Update(ctx context.Context, id string, fn func(*domain.AIMatch) error) (*domain.AIMatch, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, domain.WrapError(domain.KindInternal, "begin tx", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx,
		`SELECT `+matchColumns+` FROM ai_matches WHERE id = $1 FOR UPDATE`, id)

	m, err := scanMatch(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrMatchNotFound
	}
	if err != nil {
		return nil, domain.WrapError(domain.KindInternal, "load match", err)
	}

	if err := fn(m); err != nil {
		return nil, err
	}

	roundsJSON, err := json.Marshal(m.Rounds)
	if err != nil {
		return nil, domain.WrapError(domain.KindInternal, "encode rounds", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE ai_matches
		 SET status = $2, player_score = $3, ai_score = $4, current_round = $5,
		     rounds = $6, last_activity_at = $7, completed_at = $8, winner = $9
		 WHERE id = $1`,
		m.ID, m.Status, m.PlayerScore, m.AIScore, m.CurrentRound,
		roundsJSON, m.LastActivityAt, m.CompletedAt, m.Winner,
	)
	if err != nil {
		return nil, domain.WrapError(domain.KindInternal, "update match", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.WrapError(domain.KindInternal, "commit match update", err)
	}
	return m, nil
}

// CountAbandonedSince counts the player's abandoned matches inside the
// rolling throttle window.
func (r *MatchRepository) CountAbandonedSince(ctx context.Context, playerID string, since time.Time) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM ai_matches
		 WHERE player_id = $1 AND status = $2 AND completed_at >= $3`,
		playerID, domain.MatchAbandoned, since,
	).Scan(&n)
	if err != nil {
		return 0, domain.WrapError(domain.KindInternal, "count abandoned", err)
	}
	return n, nil
}

// ListStaleActive returns active matches idle since before cutoff.
// Sweeper path; the read side uses the same cutoff via Resumable.
func (r *MatchRepository) ListStaleActive(ctx context.Context, cutoff time.Time) ([]*domain.AIMatch, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+matchColumns+`
		 FROM ai_matches
		 WHERE status = $1 AND last_activity_at < $2`,
		domain.MatchActive, cutoff)
	if err != nil {
		return nil, domain.WrapError(domain.KindInternal, "list stale matches", err)
	}
	defer rows.Close()

	var res []*domain.AIMatch
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, domain.WrapError(domain.KindInternal, "scan stale match", err)
		}
		res = append(res, m)
	}
	return res, rows.Err()
}

// RecordResult bumps the player's derived stats for one terminal match.
func (r *MatchRepository) RecordResult(ctx context.Context, playerID string, status domain.MatchStatus, winner domain.MatchWinner) error {
	var column string
	switch {
	case status == domain.MatchAbandoned:
		column = "abandons"
	case winner == domain.WinnerPlayer:
		column = "wins"
	case winner == domain.WinnerAI:
		column = "losses"
	default:
		column = "ties"
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO player_stats (player_id, `+column+`, updated_at)
		 VALUES ($1, 1, now())
		 ON CONFLICT (player_id)
		 DO UPDATE SET `+column+` = player_stats.`+column+` + 1, updated_at = now()`,
		playerID,
	)
	if err != nil {
		return domain.WrapError(domain.KindInternal, "record stats", err)
	}
	return nil
}

// GetStats returns the player's stats row, zero-valued when the player
// has never finished a match.
func (r *MatchRepository) GetStats(ctx context.Context, playerID string) (*domain.PlayerStats, error) {
	stats := &domain.PlayerStats{PlayerID: playerID}
	err := r.db.QueryRow(ctx,
		`SELECT wins, losses, ties, abandons, updated_at
		 FROM player_stats WHERE player_id = $1`,
		playerID,
	).Scan(&stats.Wins, &stats.Losses, &stats.Ties, &stats.Abandons, &stats.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return stats, nil
	}
	if err != nil {
		return nil, domain.WrapError(domain.KindInternal, "load stats", err)
	}
	return stats, nil
}

func scanMatch(row pgx.Row) (*domain.AIMatch, error) {
	var (
		m           domain.AIMatch
		roundsBytes []byte
	)

	err := row.Scan(
		&m.ID, &m.PlayerID, &m.Status, &m.PlayerScore, &m.AIScore, &m.CurrentRound,
		&roundsBytes, &m.StartedAt, &m.LastActivityAt, &m.CompletedAt, &m.Winner,
	)
	if err != nil {
		return nil, err
	}

	if len(roundsBytes) > 0 {
		if err := json.Unmarshal(roundsBytes, &m.Rounds); err != nil {
			return nil, err
		}
	}
	return &m, nil
}
