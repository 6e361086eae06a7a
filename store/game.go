package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	mb "github.com/saeidalz13/seabattle-backend/models/battleship"
)

const (
	gameCacheName = "game"

	// GameDataKey is the singleton key holding the deployment's game
	// configuration.
	GameDataKey = "game"
)

// GameStore holds the singleton game configuration. Reads are served
// from an in-memory copy that the store-change bridge refreshes when
// an external mutation is observed.
type GameStore struct {
	cache  *Cache
	logger *zap.Logger

	mu      sync.RWMutex
	current *mb.GameConfiguration
}

func NewGameStore(rdb *redis.Client, logger *zap.Logger) *GameStore {
	return &GameStore{
		cache:  NewCache(rdb, gameCacheName, logger),
		logger: logger,
	}
}

// Load reads the configuration from the shared store, seeding a fresh
// active configuration if this is the first process of the epoch.
func (gs *GameStore) Load(ctx context.Context) error {
	data, err := gs.cache.Get(ctx, GameDataKey)
	if err != nil {
		return err
	}

	if data == nil {
		game := mb.NewGameConfiguration(mb.GameStateActive)
		gs.logger.Info("no game configuration found, seeding a new one", zap.String("game", game.UUID))

		payload, err := json.Marshal(game)
		if err != nil {
			return fmt.Errorf("marshaling game configuration: %w", err)
		}
		if err := gs.cache.Put(ctx, GameDataKey, payload); err != nil {
			return err
		}

		gs.mu.Lock()
		gs.current = game
		gs.mu.Unlock()
		return nil
	}

	return gs.refreshFrom(data)
}

// Refresh re-reads the authoritative record into the in-memory copy.
func (gs *GameStore) Refresh(ctx context.Context) error {
	data, err := gs.cache.Get(ctx, GameDataKey)
	if err != nil {
		return err
	}
	if data == nil {
		return nil
	}
	return gs.refreshFrom(data)
}

func (gs *GameStore) refreshFrom(data []byte) error {
	var game mb.GameConfiguration
	if err := json.Unmarshal(data, &game); err != nil {
		return fmt.Errorf("unmarshaling game configuration: %w", err)
	}

	gs.mu.Lock()
	gs.current = &game
	gs.mu.Unlock()

	gs.logger.Info("game configuration refreshed",
		zap.String("game", game.UUID),
		zap.String("state", string(game.State)),
	)
	return nil
}

// Current returns the in-memory configuration copy.
func (gs *GameStore) Current() *mb.GameConfiguration {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	return gs.current
}

func (gs *GameStore) Subscribe(ctx context.Context, handler ChangeHandler) {
	gs.cache.Subscribe(ctx, handler)
}
