package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/vkivaturi/traffis/config"
	"github.com/vkivaturi/traffis/internal/models"
)

// genKey tracks a generation counter bumped on every mutation; list keys
// embed the current generation so stale entries simply age out.
const genKey = "traffis:events:gen"

// EventCache caches list responses in Redis. A disabled cache is a
// functioning no-op so callers never branch on configuration.
type EventCache struct {
	client  *redis.Client
	ttl     time.Duration
	enabled bool
}

// NewEventCache creates an event list cache from configuration.
func NewEventCache(cfg config.RedisConfig) (*EventCache, error) {
	if !cfg.Enabled {
		return &EventCache{enabled: false}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, errors.Wrap(err, "failed to connect to Redis")
	}

	return &EventCache{client: client, ttl: cfg.TTL, enabled: true}, nil
}

// GetList returns a cached list response, or false on any miss.
func (c *EventCache) GetList(ctx context.Context, start, end string) ([]models.Event, bool) {
	if !c.enabled {
		return nil, false
	}

	data, err := c.client.Get(ctx, c.listKey(ctx, start, end)).Bytes()
	if err != nil {
		return nil, false
	}

	var events []models.Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, false
	}
	return events, true
}

// SetList stores a list response. Failures are swallowed; the cache is
// best effort.
func (c *EventCache) SetList(ctx context.Context, start, end string, events []models.Event) {
	if !c.enabled {
		return
	}

	data, err := json.Marshal(events)
	if err != nil {
		return
	}
	c.client.Set(ctx, c.listKey(ctx, start, end), data, c.ttl)
}

// Invalidate bumps the generation so every cached list goes stale.
func (c *EventCache) Invalidate(ctx context.Context) {
	if !c.enabled {
		return
	}
	c.client.Incr(ctx, genKey)
}

// Close releases the Redis connection.
func (c *EventCache) Close() error {
	if !c.enabled {
		return nil
	}
	return c.client.Close()
}

func (c *EventCache) listKey(ctx context.Context, start, end string) string {
	gen, err := c.client.Get(ctx, genKey).Int64()
	if err != nil {
		gen = 0
	}
	return fmt.Sprintf("traffis:events:list:%d:%s:%s", gen, start, end)
}
