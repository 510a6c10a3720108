package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"rps_arena/internal/domain"

	"github.com/stretchr/testify/require"
)

// memMatchStore is an in-memory MatchStore for manager tests. Update runs
// the callback against a clone and only publishes on success, matching
// the commit-or-prior-state contract of the Postgres store.
type memMatchStore struct {
	mu      sync.Mutex
	matches map[string]*domain.AIMatch
	stats   map[string]*domain.PlayerStats
}

func newMemMatchStore() *memMatchStore {
	return &memMatchStore{
		matches: make(map[string]*domain.AIMatch),
		stats:   make(map[string]*domain.PlayerStats),
	}
}

func cloneMatch(m *domain.AIMatch) *domain.AIMatch {
	c := *m
	c.Rounds = append([]domain.Round(nil), m.Rounds...)
	if m.CompletedAt != nil {
		t := *m.CompletedAt
		c.CompletedAt = &t
	}
	if m.Winner != nil {
		w := *m.Winner
		c.Winner = &w
	}
	return &c
}

func (s *memMatchStore) Create(ctx context.Context, m *domain.AIMatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.matches {
		if existing.PlayerID == m.PlayerID && existing.Status == domain.MatchActive {
			return domain.ErrActiveMatch
		}
	}
	s.matches[m.ID] = cloneMatch(m)
	return nil
}

func (s *memMatchStore) Get(ctx context.Context, id string) (*domain.AIMatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return nil, domain.ErrMatchNotFound
	}
	return cloneMatch(m), nil
}

func (s *memMatchStore) GetActiveByPlayer(ctx context.Context, playerID string) (*domain.AIMatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.matches {
		if m.PlayerID == playerID && m.Status == domain.MatchActive {
			return cloneMatch(m), nil
		}
	}
	return nil, nil
}

func (s *memMatchStore) Update(ctx context.Context, id string, fn func(*domain.AIMatch) error) (*domain.AIMatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return nil, domain.ErrMatchNotFound
	}
	c := cloneMatch(m)
	if err := fn(c); err != nil {
		return nil, err
	}
	s.matches[id] = cloneMatch(c)
	return c, nil
}

func (s *memMatchStore) CountAbandonedSince(ctx context.Context, playerID string, since time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.matches {
		if m.PlayerID == playerID && m.Status == domain.MatchAbandoned &&
			m.CompletedAt != nil && !m.CompletedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (s *memMatchStore) ListStaleActive(ctx context.Context, cutoff time.Time) ([]*domain.AIMatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []*domain.AIMatch
	for _, m := range s.matches {
		if m.Status == domain.MatchActive && m.LastActivityAt.Before(cutoff) {
			res = append(res, cloneMatch(m))
		}
	}
	return res, nil
}

func (s *memMatchStore) RecordResult(ctx context.Context, playerID string, status domain.MatchStatus, winner domain.MatchWinner) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stats[playerID]
	if !ok {
		st = &domain.PlayerStats{PlayerID: playerID}
		s.stats[playerID] = st
	}
	switch {
	case status == domain.MatchAbandoned:
		st.Abandons++
	case winner == domain.WinnerPlayer:
		st.Wins++
	case winner == domain.WinnerAI:
		st.Losses++
	default:
		st.Ties++
	}
	return nil
}

func (s *memMatchStore) GetStats(ctx context.Context, playerID string) (*domain.PlayerStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.stats[playerID]; ok {
		c := *st
		return &c, nil
	}
	return &domain.PlayerStats{PlayerID: playerID}, nil
}

func newTestMatchService(store MatchStore) *AIMatchService {
	return NewAIMatchService(store, &fakeBridge{}, MatchConfig{
		ResumeWindow:  10 * time.Minute,
		AbandonLimit:  3,
		AbandonWindow: 30 * time.Minute,
	})
}

// scriptAI makes the house play a fixed sequence of moves.
func scriptAI(svc *AIMatchService, moves ...domain.Move) {
	i := 0
	svc.aiMove = func() domain.Move {
		m := moves[i%len(moves)]
		i++
		return m
	}
}

func TestStartMatchConflictsOnActive(t *testing.T) {
	svc := newTestMatchService(newMemMatchStore())
	ctx := context.Background()

	_, err := svc.StartMatch(ctx, "0xccc")
	require.NoError(t, err)

	_, err = svc.StartMatch(ctx, "0xccc")
	require.ErrorIs(t, err, domain.ErrActiveMatch)
}

func TestStartMatchAutoAbandonsStale(t *testing.T) {
	store := newMemMatchStore()
	svc := newTestMatchService(store)
	ctx := context.Background()

	old, err := svc.StartMatch(ctx, "0xccc")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(11 * time.Minute) }

	fresh, err := svc.StartMatch(ctx, "0xccc")
	require.NoError(t, err)
	require.NotEqual(t, old.ID, fresh.ID)

	stale, err := store.Get(ctx, old.ID)
	require.NoError(t, err)
	require.Equal(t, domain.MatchAbandoned, stale.Status)
	require.Equal(t, domain.WinnerAI, *stale.Winner)
}

func TestPlayRoundBestOfThree(t *testing.T) {
	svc := newTestMatchService(newMemMatchStore())
	ctx := context.Background()

	m, err := svc.StartMatch(ctx, "0xccc")
	require.NoError(t, err)

	scriptAI(svc, domain.MovePaper, domain.MoveRock, domain.MoveRock)

	// rock vs paper: house takes round 1
	m, outcome, err := svc.PlayRound(ctx, m.ID, domain.MoveRock)
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeLose, outcome)
	require.Equal(t, 0, m.PlayerScore)
	require.Equal(t, 1, m.AIScore)
	require.Equal(t, 2, m.CurrentRound)

	// paper vs rock: player evens it
	m, outcome, err = svc.PlayRound(ctx, m.ID, domain.MovePaper)
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeWin, outcome)
	require.Equal(t, 1, m.PlayerScore)
	require.Equal(t, 1, m.AIScore)
	require.Equal(t, 3, m.CurrentRound)

	// paper vs rock again: player reaches two and the match ends
	m, outcome, err = svc.PlayRound(ctx, m.ID, domain.MovePaper)
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeWin, outcome)
	require.Equal(t, 2, m.PlayerScore)
	require.Equal(t, domain.MatchCompleted, m.Status)
	require.Equal(t, domain.WinnerPlayer, *m.Winner)
	require.NotNil(t, m.CompletedAt)
	require.Len(t, m.Rounds, 3)

	// no extra rounds after completion
	_, _, err = svc.PlayRound(ctx, m.ID, domain.MoveRock)
	require.ErrorIs(t, err, domain.ErrMatchCompleted)
}

func TestPlayRoundTieReplaysRound(t *testing.T) {
	svc := newTestMatchService(newMemMatchStore())
	ctx := context.Background()

	m, err := svc.StartMatch(ctx, "0xccc")
	require.NoError(t, err)

	scriptAI(svc, domain.MoveRock)

	m, outcome, err := svc.PlayRound(ctx, m.ID, domain.MoveRock)
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeTie, outcome)
	require.Equal(t, 0, m.PlayerScore)
	require.Equal(t, 0, m.AIScore)
	require.Equal(t, 1, m.CurrentRound, "tied round must not advance the counter")
	require.Len(t, m.Rounds, 1)
}

func TestPlayRoundOnStaleMatchAbandons(t *testing.T) {
	store := newMemMatchStore()
	svc := newTestMatchService(store)
	ctx := context.Background()

	m, err := svc.StartMatch(ctx, "0xccc")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(11 * time.Minute) }

	_, _, err = svc.PlayRound(ctx, m.ID, domain.MoveRock)
	require.ErrorIs(t, err, domain.ErrMatchAbandoned)

	got, err := store.Get(ctx, m.ID)
	require.NoError(t, err)
	require.Equal(t, domain.MatchAbandoned, got.Status)
}

func TestAbandonMatch(t *testing.T) {
	svc := newTestMatchService(newMemMatchStore())
	ctx := context.Background()

	m, err := svc.StartMatch(ctx, "0xccc")
	require.NoError(t, err)

	m, err = svc.AbandonMatch(ctx, m.ID)
	require.NoError(t, err)
	require.Equal(t, domain.MatchAbandoned, m.Status)
	require.Equal(t, domain.WinnerAI, *m.Winner, "abandonment is a forfeit")
	require.NotNil(t, m.CompletedAt)

	_, err = svc.AbandonMatch(ctx, m.ID)
	require.ErrorIs(t, err, domain.ErrInvalidMatch)

	_, err = svc.AbandonMatch(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrMatchNotFound)
}

func TestAbandonmentThrottle(t *testing.T) {
	store := newMemMatchStore()
	svc := NewAIMatchService(store, &fakeBridge{}, MatchConfig{
		ResumeWindow:  10 * time.Minute,
		AbandonLimit:  1,
		AbandonWindow: 30 * time.Minute,
	})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		m, err := svc.StartMatch(ctx, "0xddd")
		require.NoError(t, err)
		_, err = svc.AbandonMatch(ctx, m.ID)
		require.NoError(t, err)
	}

	_, err := svc.StartMatch(ctx, "0xddd")
	require.ErrorIs(t, err, domain.ErrAbandonThrottle)
	require.Equal(t, domain.KindRateLimited, domain.KindOf(err))

	// the window rolls off and the player is unblocked
	svc.now = func() time.Time { return time.Now().Add(31 * time.Minute) }
	_, err = svc.StartMatch(ctx, "0xddd")
	require.NoError(t, err)
}

func TestGetActiveMatchExpiresStale(t *testing.T) {
	store := newMemMatchStore()
	svc := newTestMatchService(store)
	ctx := context.Background()

	m, err := svc.StartMatch(ctx, "0xccc")
	require.NoError(t, err)

	got, err := svc.GetActiveMatch(ctx, "0xccc")
	require.NoError(t, err)
	require.NotNil(t, got)

	svc.now = func() time.Time { return time.Now().Add(11 * time.Minute) }

	got, err = svc.GetActiveMatch(ctx, "0xccc")
	require.NoError(t, err)
	require.Nil(t, got, "stale match must not be resumable")

	record, err := store.Get(ctx, m.ID)
	require.NoError(t, err)
	require.Equal(t, domain.MatchAbandoned, record.Status)
}

func TestGetMatchStatusAbsenceIsNil(t *testing.T) {
	svc := newTestMatchService(newMemMatchStore())

	m, err := svc.GetMatchStatus(context.Background(), "missing")
	require.NoError(t, err)
	require.Nil(t, m)
}

func TestStatsTrackTerminalMatches(t *testing.T) {
	store := newMemMatchStore()
	svc := newTestMatchService(store)
	ctx := context.Background()

	m, err := svc.StartMatch(ctx, "0xccc")
	require.NoError(t, err)

	scriptAI(svc, domain.MoveScissors)
	_, _, err = svc.PlayRound(ctx, m.ID, domain.MoveRock)
	require.NoError(t, err)
	_, _, err = svc.PlayRound(ctx, m.ID, domain.MoveRock)
	require.NoError(t, err)

	stats, err := svc.Stats(ctx, "0xccc")
	require.NoError(t, err)
	require.Equal(t, 1, stats.Wins)
}
