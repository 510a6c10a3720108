package service

import (
	"context"
	"errors"
	"time"

	"rps_arena/internal/domain"
	"rps_arena/internal/game"
	"rps_arena/internal/logger"
	"rps_arena/internal/repository"

	"github.com/google/uuid"
)

// RematchAction is the verb of a rematch request.
type RematchAction string

const (
	RematchRequest RematchAction = "request"
	RematchAccept  RematchAction = "accept"
	RematchLeave   RematchAction = "leave"
)

const (
	roomIDLength    = 8
	createIDRetries = 3
)

// RoomService owns the peer-vs-peer room lifecycle:
// waiting -> ready -> playing -> finished, plus deletion via cancel.
// All mutation goes through the store's per-key transaction, so every
// operation here behaves as if executed under a lock scoped to the room id.
type RoomService struct {
	rooms  *repository.RoomStore
	bridge SettlementBridge
	ttl    time.Duration

	now func() time.Time
}

func NewRoomService(rooms *repository.RoomStore, bridge SettlementBridge, ttl time.Duration) *RoomService {
	return &RoomService{
		rooms:  rooms,
		bridge: bridge,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Create allocates a fresh room in the waiting state. Room ids are short
// codes; an id clash is retried with a new id.
func (s *RoomService) Create(ctx context.Context, creator, betAmount string, isFree bool, chainID int64) (*domain.Room, error) {
	creator = domain.NormalizeAddress(creator)
	if creator == "" {
		return nil, domain.NewError(domain.KindValidation, "creator is required")
	}

	for i := 0; i < createIDRetries; i++ {
		room := &domain.Room{
			RoomID:    uuid.New().String()[:roomIDLength],
			ChainID:   chainID,
			BetAmount: betAmount,
			IsFree:    isFree,
			Creator:   creator,
			Status:    domain.RoomWaiting,
			CreatedAt: s.now().UTC(),
		}

		err := s.rooms.Create(ctx, room)
		if errors.Is(err, repository.ErrRoomIDTaken) {
			continue
		}
		if err != nil {
			return nil, err
		}

		RoomsCreated.Inc()
		logger.Info("room created", "room_id", room.RoomID, "creator", creator, "is_free", isFree)
		return room, nil
	}

	return nil, domain.NewError(domain.KindInternal, "could not allocate a room id")
}

// Join sets the joiner slot and moves the room to ready.
func (s *RoomService) Join(ctx context.Context, roomID, joiner string) (*domain.Room, error) {
	joiner = domain.NormalizeAddress(joiner)
	if joiner == "" {
		return nil, domain.NewError(domain.KindValidation, "joiner is required")
	}

	return s.rooms.Update(ctx, roomID, func(room *domain.Room) error {
		if room.Stale(s.now(), s.ttl) {
			return domain.ErrRoomNotFound
		}
		if room.Joiner != nil {
			return domain.ErrAlreadyJoined
		}
		if joiner == room.Creator {
			return domain.NewError(domain.KindConflict, "cannot join your own room")
		}

		room.Joiner = &joiner
		room.Status = domain.RoomReady
		return nil
	})
}

// Cancel deletes a waiting room. Only the creator may cancel, and only
// before a joiner has committed to the room. The check and the delete run
// in one per-key transaction, so a concurrent join cannot slip in between.
func (s *RoomService) Cancel(ctx context.Context, roomID, caller string) error {
	caller = domain.NormalizeAddress(caller)

	return s.rooms.DeleteWhere(ctx, roomID, func(room *domain.Room) error {
		if room.Stale(s.now(), s.ttl) {
			return domain.ErrRoomNotFound
		}
		if caller != room.Creator {
			return domain.ErrNotParty
		}
		if room.Joiner != nil {
			return domain.NewError(domain.KindConflict, "room already has a joiner")
		}
		return nil
	})
}

// SubmitMove records the caller's move into the slot matching their role.
// When the second move lands, the same transaction resolves both results
// and moves the room to finished - the exactly-once settlement point.
func (s *RoomService) SubmitMove(ctx context.Context, roomID, player string, move domain.Move) (*domain.Room, error) {
	player = domain.NormalizeAddress(player)

	var settled bool
	room, err := s.rooms.Update(ctx, roomID, func(room *domain.Room) error {
		if room.Stale(s.now(), s.ttl) {
			return domain.ErrRoomNotFound
		}

		role, ok := room.RoleOf(player)
		if !ok {
			return domain.ErrNotParty
		}
		if room.Status == domain.RoomFinished {
			return domain.NewError(domain.KindConflict, "room already finished")
		}
		if room.Status == domain.RoomWaiting {
			return domain.NewError(domain.KindConflict, "room has no opponent yet")
		}

		switch role {
		case domain.RoleCreator:
			if room.CreatorMove != nil {
				return domain.NewError(domain.KindConflict, "move already submitted")
			}
			room.CreatorMove = &move
		case domain.RoleJoiner:
			if room.JoinerMove != nil {
				return domain.NewError(domain.KindConflict, "move already submitted")
			}
			room.JoinerMove = &move
		}

		if room.CreatorMove != nil && room.JoinerMove != nil {
			creatorResult := game.Resolve(*room.CreatorMove, *room.JoinerMove)
			joinerResult := creatorResult.Invert()
			room.CreatorResult = &creatorResult
			room.JoinerResult = &joinerResult
			room.Status = domain.RoomFinished
			settled = true
		} else {
			room.Status = domain.RoomPlaying
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if settled {
		RoomsSettled.Inc()
		logger.Info("room finished", "room_id", room.RoomID,
			"creator_result", *room.CreatorResult, "joiner_result", *room.JoinerResult)

		// Fire-and-forget: the finished record is already durable, a
		// settlement failure must not undo it. On-chain rooms settle via
		// their own contract; the bridge archives free-to-play rooms.
		if room.IsFree {
			settledRoom := *room
			go func() {
				if err := s.bridge.SettleRoom(context.Background(), &settledRoom); err != nil {
					logger.Error("room settlement failed", "room_id", settledRoom.RoomID, "error", err)
				}
			}()
		}
	}

	return room, nil
}

// Rematch handles post-game intent. request records who wants a rematch,
// accept resets the board back to ready, leave records who walked away so
// the polling opponent can react. None of these delete the room.
func (s *RoomService) Rematch(ctx context.Context, roomID, player string, action RematchAction) (*domain.Room, error) {
	player = domain.NormalizeAddress(player)

	return s.rooms.Update(ctx, roomID, func(room *domain.Room) error {
		if room.Stale(s.now(), s.ttl) {
			return domain.ErrRoomNotFound
		}
		if _, ok := room.RoleOf(player); !ok {
			return domain.ErrNotParty
		}

		switch action {
		case RematchRequest:
			room.RematchRequested = &player
		case RematchAccept:
			if room.RematchRequested == nil {
				return domain.NewError(domain.KindConflict, "no rematch requested")
			}
			if *room.RematchRequested == player {
				return domain.NewError(domain.KindConflict, "cannot accept your own rematch request")
			}
			room.CreatorMove = nil
			room.JoinerMove = nil
			room.CreatorResult = nil
			room.JoinerResult = nil
			room.RematchRequested = nil
			room.PlayerLeft = nil
			room.Status = domain.RoomReady
		case RematchLeave:
			room.PlayerLeft = &player
		default:
			return domain.NewError(domain.KindValidation, "invalid rematch action")
		}
		return nil
	})
}

// Status is a read-only projection. A stale room is removed on the spot
// and reported as not found, the same answer an expired key gives.
func (s *RoomService) Status(ctx context.Context, roomID string) (*domain.Room, error) {
	room, err := s.rooms.Get(ctx, roomID)
	if err != nil {
		return nil, err
	}

	if room.Stale(s.now(), s.ttl) {
		_ = s.rooms.Delete(ctx, roomID)
		return nil, domain.ErrRoomNotFound
	}
	return room, nil
}
