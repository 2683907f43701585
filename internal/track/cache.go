package track

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const listCacheKey = "tracks:list:v1"

// DefaultListTTL bounds how stale the anonymous track list may get.
const DefaultListTTL = 5 * time.Minute

// ListCache keeps the anonymous track list in Redis. A nil client disables
// caching entirely.
type ListCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewListCache(client *redis.Client, ttl time.Duration) *ListCache {
	return &ListCache{client: client, ttl: ttl}
}

func (c *ListCache) Get(ctx context.Context, dest *[]Track) bool {
	if c == nil || c.client == nil {
		return false
	}
	val, err := c.client.Get(ctx, listCacheKey).Result()
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(val), dest) == nil
}

func (c *ListCache) Set(ctx context.Context, tracks []Track) {
	if c == nil || c.client == nil {
		return
	}
	data, err := json.Marshal(tracks)
	if err != nil {
		return
	}
	c.client.Set(ctx, listCacheKey, data, c.ttl)
}
