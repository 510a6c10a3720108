package service

import (
	"context"
	"errors"
	"time"

	"rps_arena/internal/domain"
	"rps_arena/internal/game"
	"rps_arena/internal/logger"

	"github.com/google/uuid"
)

// MatchStore is the durable store behind the best-of-three lifecycle.
// Update must apply the callback atomically with respect to other writers
// on the same match id (the Postgres implementation holds a row lock for
// the whole cycle).
type MatchStore interface {
	Create(ctx context.Context, m *domain.AIMatch) error
	Get(ctx context.Context, id string) (*domain.AIMatch, error)
	GetActiveByPlayer(ctx context.Context, playerID string) (*domain.AIMatch, error)
	Update(ctx context.Context, id string, fn func(*domain.AIMatch) error) (*domain.AIMatch, error)
	CountAbandonedSince(ctx context.Context, playerID string, since time.Time) (int, error)
	ListStaleActive(ctx context.Context, cutoff time.Time) ([]*domain.AIMatch, error)
	RecordResult(ctx context.Context, playerID string, status domain.MatchStatus, winner domain.MatchWinner) error
	GetStats(ctx context.Context, playerID string) (*domain.PlayerStats, error)
}

// MatchConfig carries the timing and throttle constants.
type MatchConfig struct {
	// ResumeWindow is how long an active match stays resumable after its
	// last activity. Past it the match is auto-abandoned on next touch.
	ResumeWindow time.Duration
	// AbandonLimit/AbandonWindow: a player who abandons more than
	// AbandonLimit matches inside AbandonWindow is temporarily blocked
	// from starting new ones. Rate limit, not a ban.
	AbandonLimit  int
	AbandonWindow time.Duration
}

// AIMatchService owns the player-vs-house best-of-three lifecycle:
// active -> completed | abandoned, both terminal.
type AIMatchService struct {
	store  MatchStore
	bridge SettlementBridge
	cfg    MatchConfig

	// test seams
	aiMove func() domain.Move
	now    func() time.Time
}

func NewAIMatchService(store MatchStore, bridge SettlementBridge, cfg MatchConfig) *AIMatchService {
	return &AIMatchService{
		store:  store,
		bridge: bridge,
		cfg:    cfg,
		aiMove: game.RandomMove,
		now:    time.Now,
	}
}

// StartMatch creates a fresh best-of-three for the player. A live active
// match is a conflict; a stale one is auto-abandoned first. Players with
// too many recent abandonments are throttled.
func (s *AIMatchService) StartMatch(ctx context.Context, playerID string) (*domain.AIMatch, error) {
	playerID = domain.NormalizeAddress(playerID)
	if playerID == "" {
		return nil, domain.NewError(domain.KindValidation, "player address is required")
	}

	existing, err := s.store.GetActiveByPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Resumable(s.now(), s.cfg.ResumeWindow) {
			return nil, domain.ErrActiveMatch
		}
		if _, err := s.abandonStale(ctx, existing.ID); err != nil {
			return nil, err
		}
	}

	abandoned, err := s.store.CountAbandonedSince(ctx, playerID, s.now().Add(-s.cfg.AbandonWindow))
	if err != nil {
		return nil, err
	}
	if abandoned > s.cfg.AbandonLimit {
		return nil, domain.ErrAbandonThrottle
	}

	now := s.now().UTC()
	m := &domain.AIMatch{
		ID:             uuid.New().String(),
		PlayerID:       playerID,
		Status:         domain.MatchActive,
		CurrentRound:   1,
		StartedAt:      now,
		LastActivityAt: now,
	}
	if err := s.store.Create(ctx, m); err != nil {
		return nil, err
	}

	MatchesStarted.Inc()
	logger.Info("match started", "match_id", m.ID, "player_id", playerID)
	return m, nil
}

// GetActiveMatch returns the player's resumable match, or nil when there
// is none. A stale active match is abandoned on the way out. Never errors
// on absence - clients poll this.
func (s *AIMatchService) GetActiveMatch(ctx context.Context, playerID string) (*domain.AIMatch, error) {
	playerID = domain.NormalizeAddress(playerID)

	m, err := s.store.GetActiveByPlayer(ctx, playerID)
	if err != nil || m == nil {
		return nil, err
	}

	if !m.Resumable(s.now(), s.cfg.ResumeWindow) {
		if _, err := s.abandonStale(ctx, m.ID); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return m, nil
}

// PlayRound plays one round against the house: draws the AI move,
// resolves, appends the round and advances the score. First side to
// reach two wins completes the match.
func (s *AIMatchService) PlayRound(ctx context.Context, matchID string, playerMove domain.Move) (*domain.AIMatch, domain.Outcome, error) {
	var (
		outcome   domain.Outcome
		completed bool
		expired   bool
	)

	m, err := s.store.Update(ctx, matchID, func(m *domain.AIMatch) error {
		switch m.Status {
		case domain.MatchCompleted:
			return domain.ErrMatchCompleted
		case domain.MatchAbandoned:
			return domain.ErrMatchAbandoned
		}

		now := s.now().UTC()

		// Lazy expiry: a stale record turns terminal the moment anything
		// touches it, using the same predicate the sweeper runs on.
		if !m.Resumable(now, s.cfg.ResumeWindow) {
			s.forfeit(m, now)
			expired = true
			return nil
		}

		if m.Decided() {
			return domain.ErrInvalidMatch
		}

		aiMove := s.aiMove()
		outcome = game.Resolve(playerMove, aiMove)

		m.Rounds = append(m.Rounds, domain.Round{
			PlayerMove: playerMove,
			AIMove:     aiMove,
			Result:     outcome,
		})

		switch outcome {
		case domain.OutcomeWin:
			m.PlayerScore++
		case domain.OutcomeLose:
			m.AIScore++
		}
		m.LastActivityAt = now

		if m.PlayerScore >= domain.TargetScore || m.AIScore >= domain.TargetScore {
			winner := domain.WinnerPlayer
			if m.AIScore >= domain.TargetScore {
				winner = domain.WinnerAI
			}
			m.Status = domain.MatchCompleted
			m.Winner = &winner
			m.CompletedAt = &now
			completed = true
		} else if outcome != domain.OutcomeTie {
			// A tied round is replayed; the round counter only advances
			// on a decisive outcome.
			m.CurrentRound++
		}
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	if expired {
		s.recordTerminal(ctx, m)
		return nil, "", domain.ErrMatchAbandoned
	}

	if completed {
		MatchesCompleted.Inc()
		logger.Info("match completed", "match_id", m.ID, "winner", *m.Winner,
			"player_score", m.PlayerScore, "ai_score", m.AIScore)
		s.recordTerminal(ctx, m)
	}

	return m, outcome, nil
}

// AbandonMatch forfeits an active match. The house takes the win.
func (s *AIMatchService) AbandonMatch(ctx context.Context, matchID string) (*domain.AIMatch, error) {
	m, err := s.store.Update(ctx, matchID, func(m *domain.AIMatch) error {
		if m.Status != domain.MatchActive {
			return domain.ErrInvalidMatch
		}
		s.forfeit(m, s.now().UTC())
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("match abandoned", "match_id", m.ID, "player_id", m.PlayerID)
	s.recordTerminal(ctx, m)
	return m, nil
}

// GetMatchStatus is a read-only projection. Absence is nil, not an error.
func (s *AIMatchService) GetMatchStatus(ctx context.Context, matchID string) (*domain.AIMatch, error) {
	m, err := s.store.Get(ctx, matchID)
	if errors.Is(err, domain.ErrMatchNotFound) {
		return nil, nil
	}
	return m, err
}

// Stats returns the player's derived statistics, zero-valued for unknown
// players.
func (s *AIMatchService) Stats(ctx context.Context, playerID string) (*domain.PlayerStats, error) {
	return s.store.GetStats(ctx, domain.NormalizeAddress(playerID))
}

// ReapStale abandons every active match idle past the resume window.
// Idempotent: records already reclaimed by a lazy touch are skipped.
func (s *AIMatchService) ReapStale(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.cfg.ResumeWindow)
	stale, err := s.store.ListStaleActive(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	reaped := 0
	for _, m := range stale {
		ok, err := s.abandonStale(ctx, m.ID)
		if err != nil {
			logger.Error("sweeper failed to abandon match", "match_id", m.ID, "error", err)
			continue
		}
		if ok {
			reaped++
		}
	}
	return reaped, nil
}

// abandonStale converts a stale active match into abandoned. Returns
// false when another path already reclaimed it or it turned out to be
// live again by the shared predicate.
func (s *AIMatchService) abandonStale(ctx context.Context, matchID string) (bool, error) {
	skipped := false
	m, err := s.store.Update(ctx, matchID, func(m *domain.AIMatch) error {
		if m.Status != domain.MatchActive || m.Resumable(s.now(), s.cfg.ResumeWindow) {
			skipped = true
			return nil
		}
		s.forfeit(m, s.now().UTC())
		return nil
	})
	if errors.Is(err, domain.ErrMatchNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if skipped {
		return false, nil
	}

	logger.Info("stale match abandoned", "match_id", m.ID, "player_id", m.PlayerID)
	s.recordTerminal(ctx, m)
	return true, nil
}

// forfeit mutates an active match into the abandoned terminal state.
// Abandonment is a forfeit: the house takes the win.
func (s *AIMatchService) forfeit(m *domain.AIMatch, now time.Time) {
	winner := domain.WinnerAI
	m.Status = domain.MatchAbandoned
	m.Winner = &winner
	m.CompletedAt = &now
	m.LastActivityAt = now
}

// recordTerminal handles the bookkeeping that follows a terminal
// transition: derived stats plus the fire-and-forget bridge calls. The
// match record is already durable; none of this can roll it back.
func (s *AIMatchService) recordTerminal(ctx context.Context, m *domain.AIMatch) {
	if m.Status == domain.MatchAbandoned {
		MatchesAbandoned.Inc()
	}

	if err := s.store.RecordResult(ctx, m.PlayerID, m.Status, winnerOf(m)); err != nil {
		logger.Error("stats bookkeeping failed", "match_id", m.ID, "error", err)
	}

	archived := *m
	go func() {
		ctx := context.Background()
		if err := s.bridge.SettleMatch(ctx, &archived); err != nil {
			logger.Error("match settlement failed", "match_id", archived.ID, "error", err)
		}
		if _, err := s.bridge.Persist(ctx, &archived); err != nil {
			logger.Error("match archival failed", "match_id", archived.ID, "error", err)
		}
		if archived.Status == domain.MatchCompleted {
			stats, err := s.store.GetStats(ctx, archived.PlayerID)
			if err != nil {
				return
			}
			if err := s.bridge.NotifyRankChange(ctx, archived.PlayerID, stats.Wins); err != nil {
				logger.Error("rank notification failed", "player_id", archived.PlayerID, "error", err)
			}
		}
	}()
}

func winnerOf(m *domain.AIMatch) domain.MatchWinner {
	if m.Winner != nil {
		return *m.Winner
	}
	return domain.WinnerTie
}
