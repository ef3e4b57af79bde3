package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"tagblog/models"
)

const tagCacheKey = "tags"

// TagCache is a cache-aside for the tag list. Tags only change through
// post writes, so those handlers invalidate it; everything is best-effort
// and a cold or broken cache just means hitting the database.
type TagCache struct {
	cli *redis.Client
	ttl time.Duration
}

func NewTagCache(cli *redis.Client, ttl time.Duration) *TagCache {
	return &TagCache{cli: cli, ttl: ttl}
}

func (c *TagCache) Get(ctx context.Context) ([]models.Tag, bool) {
	if c == nil {
		return nil, false
	}
	val, err := c.cli.Get(ctx, tagCacheKey).Result()
	if err != nil {
		return nil, false
	}
	var tags []models.Tag
	if err := json.Unmarshal([]byte(val), &tags); err != nil {
		return nil, false
	}
	return tags, true
}

func (c *TagCache) Set(ctx context.Context, tags []models.Tag) {
	if c == nil {
		return
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return
	}
	c.cli.Set(ctx, tagCacheKey, string(b), c.ttl)
}

func (c *TagCache) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}
	c.cli.Del(ctx, tagCacheKey)
}
