// Package cache keeps the locations list in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/credauth/internal/server/models"
	"github.com/redis/go-redis/v9"
)

const locationsKey = "credauth:locations"

// NewRedisClient returns a go-redis client for redisURL
// (e.g. redis://localhost:6379/0) after a successful ping.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	if redisURL == "" {
		return nil, errors.New("empty redis url")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}

// Locations caches the locations list under a single key with a TTL.
type Locations struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewLocations(client redis.Cmdable, ttl time.Duration) *Locations {
	return &Locations{client: client, ttl: ttl}
}

// Get returns the cached list. ok is false on a miss.
func (c *Locations) Get(ctx context.Context) ([]models.Location, bool, error) {
	raw, err := c.client.Get(ctx, locationsKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var locs []models.Location
	if err := json.Unmarshal(raw, &locs); err != nil {
		return nil, false, fmt.Errorf("decode cached locations: %w", err)
	}
	return locs, true, nil
}

func (c *Locations) Set(ctx context.Context, locs []models.Location) error {
	raw, err := json.Marshal(locs)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, locationsKey, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
