package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	mb "github.com/saeidalz13/seabattle-backend/models/battleship"
)

const matchesCacheName = "match-instances"

// ErrSeatTaken is returned when a conditional seat claim finds the
// match no longer joinable, locally or because another process claimed
// it between scan and write.
var ErrSeatTaken = errors.New("match seat was claimed concurrently")

// MatchStore persists MatchInstance records in the shared store.
type MatchStore struct {
	cache  *Cache
	logger *zap.Logger
}

func NewMatchStore(rdb *redis.Client, logger *zap.Logger) *MatchStore {
	return &MatchStore{
		cache:  NewCache(rdb, matchesCacheName, logger),
		logger: logger,
	}
}

// Get returns the match record, or nil when absent.
func (ms *MatchStore) Get(ctx context.Context, matchUuid string) (*mb.MatchInstance, error) {
	data, err := ms.cache.Get(ctx, matchUuid)
	if err != nil || data == nil {
		return nil, err
	}

	var match mb.MatchInstance
	if err := json.Unmarshal(data, &match); err != nil {
		return nil, fmt.Errorf("unmarshaling match %s: %w", matchUuid, err)
	}
	return &match, nil
}

func (ms *MatchStore) Upsert(ctx context.Context, match *mb.MatchInstance) error {
	data, err := json.Marshal(match)
	if err != nil {
		return fmt.Errorf("marshaling match %s: %w", match.UUID, err)
	}
	return ms.cache.Put(ctx, match.UUID, data)
}

func (ms *MatchStore) Subscribe(ctx context.Context, handler ChangeHandler) {
	ms.cache.Subscribe(ctx, handler)
}

// Matches opens a cursor over all persisted matches.
func (ms *MatchStore) Matches(ctx context.Context, batchSize int64) MatchIterator {
	return &matchIterator{it: ms.cache.Iterate(ctx, batchSize)}
}

// ClaimSeat fills the second seat of a match with an optimistic
// transaction: the record is re-read under WATCH and the write only
// lands if it is still joinable and untouched since the read. The
// in-process matchmaking mutex cannot exclude other server processes,
// so this check is what closes the cross-process time-of-check to
// time-of-use gap.
func (ms *MatchStore) ClaimSeat(ctx context.Context, matchUuid, playerUuid string) (*mb.MatchInstance, error) {
	key := ms.cache.prefixed(matchUuid)
	var claimed *mb.MatchInstance

	err := ms.cache.rdb.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrSeatTaken
		}
		if err != nil {
			return err
		}

		var match mb.MatchInstance
		if err := json.Unmarshal(data, &match); err != nil {
			return fmt.Errorf("unmarshaling match %s: %w", matchUuid, err)
		}

		if !match.IsJoinable() {
			return ErrSeatTaken
		}
		if err := match.AddPlayer(playerUuid); err != nil {
			return ErrSeatTaken
		}

		updated, err := json.Marshal(&match)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, 0)
			return nil
		})
		if err != nil {
			return err
		}

		claimed = &match
		return nil
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return nil, ErrSeatTaken
	}
	if err != nil {
		return nil, err
	}

	ms.cache.publish(ctx, EventModify, matchUuid)
	return claimed, nil
}

// MatchIterator yields persisted matches one at a time.
type MatchIterator interface {
	Next(ctx context.Context) (*mb.MatchInstance, bool, error)
}

type matchIterator struct {
	it *Iterator
}

func (mi *matchIterator) Next(ctx context.Context) (*mb.MatchInstance, bool, error) {
	key, data, ok, err := mi.it.Next(ctx)
	if err != nil || !ok {
		return nil, false, err
	}

	var match mb.MatchInstance
	if err := json.Unmarshal(data, &match); err != nil {
		return nil, false, fmt.Errorf("unmarshaling match %s: %w", key, err)
	}
	return &match, true, nil
}
