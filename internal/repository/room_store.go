package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"rps_arena/internal/domain"

	redis "github.com/redis/go-redis/v9"
)

const roomKeyPrefix = "room:"

// updateRetries bounds optimistic retries when two writers race on one key.
const updateRetries = 5

// RoomStore keeps one JSON record per room in Redis with a per-key TTL.
// The TTL is refreshed on every state-changing write, so a room expires
// an hour after its last activity, not after creation.
type RoomStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRoomStore(rdb *redis.Client, ttl time.Duration) *RoomStore {
	return &RoomStore{rdb: rdb, ttl: ttl}
}

func roomKey(roomID string) string {
	return roomKeyPrefix + roomID
}

// ErrRoomIDTaken signals an id clash on create; the coordinator retries
// with a fresh id.
var ErrRoomIDTaken = errors.New("room id already in use")

// Create stores a fresh room only if its key is unused.
func (s *RoomStore) Create(ctx context.Context, room *domain.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return domain.WrapError(domain.KindInternal, "encode room", err)
	}

	ok, err := s.rdb.SetNX(ctx, roomKey(room.RoomID), data, s.ttl).Result()
	if err != nil {
		return domain.WrapError(domain.KindInternal, "room store unavailable", err)
	}
	if !ok {
		return ErrRoomIDTaken
	}
	return nil
}

// Get loads a room. A missing or expired key is ErrRoomNotFound - an
// expired room is indistinguishable from one that never existed.
func (s *RoomStore) Get(ctx context.Context, roomID string) (*domain.Room, error) {
	data, err := s.rdb.Get(ctx, roomKey(roomID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrRoomNotFound
	}
	if err != nil {
		return nil, domain.WrapError(domain.KindInternal, "room store unavailable", err)
	}

	var room domain.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, domain.WrapError(domain.KindInternal, "decode room", err)
	}
	return &room, nil
}

// Update runs fn against the current record inside a WATCH/MULTI
// transaction. If another writer touches the key between read and write
// the whole cycle is retried, so two concurrent move submissions both
// land - neither can overwrite the other's slot.
//
// Errors returned by fn abort the transaction and pass through unchanged.
func (s *RoomStore) Update(ctx context.Context, roomID string, fn func(*domain.Room) error) (*domain.Room, error) {
	key := roomKey(roomID)

	for i := 0; i < updateRetries; i++ {
		var updated *domain.Room

		err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if errors.Is(err, redis.Nil) {
				return domain.ErrRoomNotFound
			}
			if err != nil {
				return domain.WrapError(domain.KindInternal, "room store unavailable", err)
			}

			var room domain.Room
			if err := json.Unmarshal(data, &room); err != nil {
				return domain.WrapError(domain.KindInternal, "decode room", err)
			}

			if err := fn(&room); err != nil {
				return err
			}

			buf, err := json.Marshal(&room)
			if err != nil {
				return domain.WrapError(domain.KindInternal, "encode room", err)
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, buf, s.ttl)
				return nil
			})
			if err != nil {
				return err
			}

			updated = &room
			return nil
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue // lost the race, reload and retry
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}

	return nil, domain.NewError(domain.KindInternal, "room update kept losing races")
}

// DeleteWhere removes a room only if fn approves the current record,
// under the same WATCH discipline as Update. Used by cancel, which must
// not race a concurrent join: if a joiner lands between the read and the
// delete, the transaction fails and the cycle re-validates.
func (s *RoomStore) DeleteWhere(ctx context.Context, roomID string, fn func(*domain.Room) error) error {
	key := roomKey(roomID)

	for i := 0; i < updateRetries; i++ {
		err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if errors.Is(err, redis.Nil) {
				return domain.ErrRoomNotFound
			}
			if err != nil {
				return domain.WrapError(domain.KindInternal, "room store unavailable", err)
			}

			var room domain.Room
			if err := json.Unmarshal(data, &room); err != nil {
				return domain.WrapError(domain.KindInternal, "decode room", err)
			}

			if err := fn(&room); err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, key)
				return nil
			})
			return err
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}

	return domain.NewError(domain.KindInternal, "room delete kept losing races")
}

// Delete removes a room. Deleting an absent room is not an error; the
// record can expire out from under the caller at any time.
func (s *RoomStore) Delete(ctx context.Context, roomID string) error {
	if err := s.rdb.Del(ctx, roomKey(roomID)).Err(); err != nil {
		return domain.WrapError(domain.KindInternal, "room store unavailable", err)
	}
	return nil
}

// List scans all live rooms. Used by the sweeper only, never on a request
// path.
func (s *RoomStore) List(ctx context.Context) ([]*domain.Room, error) {
	var rooms []*domain.Room

	iter := s.rdb.Scan(ctx, 0, roomKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		data, err := s.rdb.Get(ctx, iter.Val()).Bytes()
		if errors.Is(err, redis.Nil) {
			continue // expired between scan and get
		}
		if err != nil {
			return nil, domain.WrapError(domain.KindInternal, "room store unavailable", err)
		}

		var room domain.Room
		if err := json.Unmarshal(data, &room); err != nil {
			continue // skip undecodable records, reaped by TTL eventually
		}
		rooms = append(rooms, &room)
	}
	if err := iter.Err(); err != nil {
		return nil, domain.WrapError(domain.KindInternal, "room store unavailable", err)
	}

	return rooms, nil
}
