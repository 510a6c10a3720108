package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"rps_arena/internal/domain"
	"rps_arena/internal/repository"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// fakeBridge records collaborator calls; shared by room and match tests.
type fakeBridge struct {
	mu           sync.Mutex
	settledRooms []string
	settledMatch []string
	persisted    []string
	rankNotified []string
}

func (b *fakeBridge) SettleRoom(ctx context.Context, room *domain.Room) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.settledRooms = append(b.settledRooms, room.RoomID)
	return nil
}

func (b *fakeBridge) SettleMatch(ctx context.Context, match *domain.AIMatch) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.settledMatch = append(b.settledMatch, match.ID)
	return nil
}

func (b *fakeBridge) Persist(ctx context.Context, match *domain.AIMatch) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.persisted = append(b.persisted, match.ID)
	return "fake:" + match.ID, nil
}

func (b *fakeBridge) NotifyRankChange(ctx context.Context, playerID string, wins int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rankNotified = append(b.rankNotified, playerID)
	return nil
}

func (b *fakeBridge) settledRoomCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.settledRooms)
}

func newTestRoomService(t *testing.T) (*RoomService, *fakeBridge) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	bridge := &fakeBridge{}
	store := repository.NewRoomStore(client, time.Hour)
	return NewRoomService(store, bridge, time.Hour), bridge
}

func TestRoomLifecycleEndToEnd(t *testing.T) {
	svc, bridge := newTestRoomService(t)
	ctx := context.Background()

	room, err := svc.Create(ctx, "0xAAA", "0", true, 1)
	require.NoError(t, err)
	require.Equal(t, domain.RoomWaiting, room.Status)
	require.Equal(t, "0xaaa", room.Creator)

	room, err = svc.Join(ctx, room.RoomID, "0xBBB")
	require.NoError(t, err)
	require.Equal(t, domain.RoomReady, room.Status)

	room, err = svc.SubmitMove(ctx, room.RoomID, "0xAAA", domain.MoveRock)
	require.NoError(t, err)
	require.Equal(t, domain.RoomPlaying, room.Status)
	require.Nil(t, room.CreatorResult)

	room, err = svc.SubmitMove(ctx, room.RoomID, "0xBBB", domain.MoveScissors)
	require.NoError(t, err)
	require.Equal(t, domain.RoomFinished, room.Status)
	require.Equal(t, domain.OutcomeWin, *room.CreatorResult)
	require.Equal(t, domain.OutcomeLose, *room.JoinerResult)

	// settlement fires exactly once, asynchronously
	require.Eventually(t, func() bool { return bridge.settledRoomCount() == 1 },
		time.Second, 10*time.Millisecond)
}

func TestRoomJoinTwiceConflicts(t *testing.T) {
	svc, _ := newTestRoomService(t)
	ctx := context.Background()

	room, err := svc.Create(ctx, "0xaaa", "0", true, 1)
	require.NoError(t, err)

	_, err = svc.Join(ctx, room.RoomID, "0xbbb")
	require.NoError(t, err)

	_, err = svc.Join(ctx, room.RoomID, "0xccc")
	require.ErrorIs(t, err, domain.ErrAlreadyJoined)
}

func TestRoomSubmitMoveNonParty(t *testing.T) {
	svc, _ := newTestRoomService(t)
	ctx := context.Background()

	room, err := svc.Create(ctx, "0xaaa", "0", true, 1)
	require.NoError(t, err)
	_, err = svc.Join(ctx, room.RoomID, "0xbbb")
	require.NoError(t, err)

	_, err = svc.SubmitMove(ctx, room.RoomID, "0xeee", domain.MoveRock)
	require.ErrorIs(t, err, domain.ErrNotParty)
	require.Equal(t, domain.KindForbidden, domain.KindOf(err))
}

func TestRoomSubmitMoveTwiceConflicts(t *testing.T) {
	svc, _ := newTestRoomService(t)
	ctx := context.Background()

	room, err := svc.Create(ctx, "0xaaa", "0", true, 1)
	require.NoError(t, err)
	_, err = svc.Join(ctx, room.RoomID, "0xbbb")
	require.NoError(t, err)

	_, err = svc.SubmitMove(ctx, room.RoomID, "0xaaa", domain.MoveRock)
	require.NoError(t, err)

	_, err = svc.SubmitMove(ctx, room.RoomID, "0xaaa", domain.MovePaper)
	require.Equal(t, domain.KindConflict, domain.KindOf(err))
}

func TestRoomConcurrentSubmissionsBothLand(t *testing.T) {
	svc, _ := newTestRoomService(t)
	ctx := context.Background()

	room, err := svc.Create(ctx, "0xaaa", "0", true, 1)
	require.NoError(t, err)
	_, err = svc.Join(ctx, room.RoomID, "0xbbb")
	require.NoError(t, err)

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := svc.SubmitMove(ctx, room.RoomID, "0xaaa", domain.MoveRock)
		errs <- err
	}()
	go func() {
		defer wg.Done()
		_, err := svc.SubmitMove(ctx, room.RoomID, "0xbbb", domain.MoveScissors)
		errs <- err
	}()
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := svc.Status(ctx, room.RoomID)
	require.NoError(t, err)
	require.Equal(t, domain.RoomFinished, got.Status)
	require.Equal(t, domain.MoveRock, *got.CreatorMove)
	require.Equal(t, domain.MoveScissors, *got.JoinerMove)
	require.Equal(t, domain.OutcomeWin, *got.CreatorResult)
	require.Equal(t, domain.OutcomeLose, *got.JoinerResult)
}

func TestRoomCancel(t *testing.T) {
	svc, _ := newTestRoomService(t)
	ctx := context.Background()

	room, err := svc.Create(ctx, "0xaaa", "0", true, 1)
	require.NoError(t, err)

	// only the creator may cancel
	err = svc.Cancel(ctx, room.RoomID, "0xbbb")
	require.ErrorIs(t, err, domain.ErrNotParty)

	require.NoError(t, svc.Cancel(ctx, room.RoomID, "0xaaa"))

	_, err = svc.Status(ctx, room.RoomID)
	require.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestRoomCancelAfterJoinConflicts(t *testing.T) {
	svc, _ := newTestRoomService(t)
	ctx := context.Background()

	room, err := svc.Create(ctx, "0xaaa", "0", true, 1)
	require.NoError(t, err)
	_, err = svc.Join(ctx, room.RoomID, "0xbbb")
	require.NoError(t, err)

	err = svc.Cancel(ctx, room.RoomID, "0xaaa")
	require.Equal(t, domain.KindConflict, domain.KindOf(err))
}

func TestRoomRematchFlow(t *testing.T) {
	svc, _ := newTestRoomService(t)
	ctx := context.Background()

	room, err := svc.Create(ctx, "0xaaa", "0", true, 1)
	require.NoError(t, err)
	_, err = svc.Join(ctx, room.RoomID, "0xbbb")
	require.NoError(t, err)
	_, err = svc.SubmitMove(ctx, room.RoomID, "0xaaa", domain.MoveRock)
	require.NoError(t, err)
	_, err = svc.SubmitMove(ctx, room.RoomID, "0xbbb", domain.MovePaper)
	require.NoError(t, err)

	room, err = svc.Rematch(ctx, room.RoomID, "0xaaa", RematchRequest)
	require.NoError(t, err)
	require.Equal(t, "0xaaa", *room.RematchRequested)

	// accepting your own request is a conflict
	_, err = svc.Rematch(ctx, room.RoomID, "0xaaa", RematchAccept)
	require.Equal(t, domain.KindConflict, domain.KindOf(err))

	room, err = svc.Rematch(ctx, room.RoomID, "0xbbb", RematchAccept)
	require.NoError(t, err)
	require.Equal(t, domain.RoomReady, room.Status)
	require.Nil(t, room.CreatorMove)
	require.Nil(t, room.JoinerMove)
	require.Nil(t, room.CreatorResult)
	require.Nil(t, room.RematchRequested)

	room, err = svc.Rematch(ctx, room.RoomID, "0xbbb", RematchLeave)
	require.NoError(t, err)
	require.Equal(t, "0xbbb", *room.PlayerLeft)
}

func TestRoomStaleIsNotFound(t *testing.T) {
	svc, _ := newTestRoomService(t)
	ctx := context.Background()

	room, err := svc.Create(ctx, "0xaaa", "0", true, 1)
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err = svc.Status(ctx, room.RoomID)
	require.ErrorIs(t, err, domain.ErrRoomNotFound)

	// the lazy path removed the record, so a mutation agrees
	_, err = svc.Join(ctx, room.RoomID, "0xbbb")
	require.ErrorIs(t, err, domain.ErrRoomNotFound)
}
