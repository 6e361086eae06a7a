// Package store provides access to the shared replicated key-value
// store that owns all durable game state. Every cache is a key prefix
// in Redis; mutations publish change notifications on a per-cache
// pub/sub channel so that every server process can react to writes it
// did not make itself.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	EventCreate = "create"
	EventModify = "modify"
	EventRemove = "remove"
)

// ChangeEvent is the notification delivered when any process mutates a
// key in a cache. Key is the bare key without the cache prefix.
type ChangeEvent struct {
	Event string `json:"event"`
	Key   string `json:"key"`
}

type ChangeHandler func(event ChangeEvent)

// Cache is a named key namespace in the shared store.
type Cache struct {
	name   string
	rdb    *redis.Client
	logger *zap.Logger
}

func NewCache(rdb *redis.Client, name string, logger *zap.Logger) *Cache {
	return &Cache{name: name, rdb: rdb, logger: logger}
}

func (c *Cache) Name() string {
	return c.name
}

func (c *Cache) prefixed(key string) string {
	return c.name + ":" + key
}

func (c *Cache) channel() string {
	return c.name + ".events"
}

// Get returns the raw value, or nil when the key is absent.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.rdb.Get(ctx, c.prefixed(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache %s: get %s: %w", c.name, key, err)
	}
	return data, nil
}

// Put writes the value and notifies subscribers on every process. The
// event kind reflects whether the key existed before the write.
func (c *Cache) Put(ctx context.Context, key string, value []byte) error {
	existed, err := c.rdb.Exists(ctx, c.prefixed(key)).Result()
	if err != nil {
		return fmt.Errorf("cache %s: exists %s: %w", c.name, key, err)
	}

	if err := c.rdb.Set(ctx, c.prefixed(key), value, 0).Err(); err != nil {
		return fmt.Errorf("cache %s: put %s: %w", c.name, key, err)
	}

	event := EventCreate
	if existed > 0 {
		event = EventModify
	}
	c.publish(ctx, event, key)
	return nil
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.rdb.Del(ctx, c.prefixed(key)).Err(); err != nil {
		return fmt.Errorf("cache %s: delete %s: %w", c.name, key, err)
	}
	c.publish(ctx, EventRemove, key)
	return nil
}

func (c *Cache) publish(ctx context.Context, event, key string) {
	payload, err := json.Marshal(ChangeEvent{Event: event, Key: key})
	if err != nil {
		c.logger.Error("marshaling change event", zap.String("cache", c.name), zap.Error(err))
		return
	}

	// Notification loss is tolerable; the store remains the source of
	// truth and every handler re-reads it.
	if err := c.rdb.Publish(ctx, c.channel(), payload).Err(); err != nil {
		c.logger.Warn("publishing change event",
			zap.String("cache", c.name),
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

// Subscribe consumes this cache's change notifications until the
// context is cancelled. The handler runs on the subscription goroutine
// so it must not block for long.
func (c *Cache) Subscribe(ctx context.Context, handler ChangeHandler) {
	pubsub := c.rdb.Subscribe(ctx, c.channel())

	go func() {
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var event ChangeEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					c.logger.Warn("discarding malformed change event",
						zap.String("cache", c.name),
						zap.String("payload", msg.Payload),
					)
					continue
				}
				handler(event)
			}
		}
	}()
}

// Iterator walks all entries of a cache in batches using a server-side
// cursor. Entries written or removed mid-iteration may or may not be
// observed.
type Iterator struct {
	cache *Cache
	scan  *redis.ScanIterator
}

// Iterate opens a cursor over every entry in the cache.
func (c *Cache) Iterate(ctx context.Context, batchSize int64) *Iterator {
	return &Iterator{
		cache: c,
		scan:  c.rdb.Scan(ctx, 0, c.prefixed("*"), batchSize).Iterator(),
	}
}

// Next returns the next key/value pair. The bool result is false once
// the cursor is exhausted. Keys deleted between scan and read are
// skipped.
func (it *Iterator) Next(ctx context.Context) (string, []byte, bool, error) {
	for it.scan.Next(ctx) {
		prefixedKey := it.scan.Val()
		key := strings.TrimPrefix(prefixedKey, it.cache.name+":")

		value, err := it.cache.Get(ctx, key)
		if err != nil {
			return "", nil, false, err
		}
		if value == nil {
			continue
		}
		return key, value, true, nil
	}

	if err := it.scan.Err(); err != nil {
		return "", nil, false, fmt.Errorf("cache %s: scan: %w", it.cache.name, err)
	}
	return "", nil, false, nil
}
