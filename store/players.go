package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	mb "github.com/saeidalz13/seabattle-backend/models/battleship"
)

const playersCacheName = "players"

// PlayerStore persists Player records in the shared store.
type PlayerStore struct {
	cache  *Cache
	logger *zap.Logger
}

func NewPlayerStore(rdb *redis.Client, logger *zap.Logger) *PlayerStore {
	return &PlayerStore{
		cache:  NewCache(rdb, playersCacheName, logger),
		logger: logger,
	}
}

// Get returns the player record, or nil when no player exists with
// this uuid.
func (ps *PlayerStore) Get(ctx context.Context, playerUuid string) (*mb.Player, error) {
	data, err := ps.cache.Get(ctx, playerUuid)
	if err != nil || data == nil {
		return nil, err
	}

	var player mb.Player
	if err := json.Unmarshal(data, &player); err != nil {
		// Unparsable records are treated as absent so a fresh player
		// can be created over them.
		ps.logger.Warn("found player data but failed to parse it",
			zap.String("player", playerUuid),
			zap.Error(err),
		)
		return nil, nil
	}
	return &player, nil
}

func (ps *PlayerStore) Upsert(ctx context.Context, player *mb.Player) error {
	data, err := json.Marshal(player)
	if err != nil {
		return fmt.Errorf("marshaling player %s: %w", player.UUID, err)
	}
	return ps.cache.Put(ctx, player.UUID, data)
}

func (ps *PlayerStore) Subscribe(ctx context.Context, handler ChangeHandler) {
	ps.cache.Subscribe(ctx, handler)
}
