package transcript

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache wraps a Fetcher with a Redis-backed segment cache so repeated
// ingestions of the same video skip the caption service. Cache failures fall
// through to the inner fetcher.
type Cache struct {
	inner  Fetcher
	rdb    *redis.Client
	ttl    time.Duration
	logger *log.Logger
}

// NewCache builds a caching fetcher around inner.
func NewCache(inner Fetcher, rdb *redis.Client, ttl time.Duration, logger *log.Logger) *Cache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[CACHE] ", log.LstdFlags)
	}
	return &Cache{inner: inner, rdb: rdb, ttl: ttl, logger: logger}
}

func cacheKey(videoID string) string { return "transcript:" + videoID }

// Fetch serves segments from Redis when possible. Negative results are not
// cached: a video without captions today may gain them later.
func (c *Cache) Fetch(ctx context.Context, videoID string) ([]Segment, error) {
	if raw, err := c.rdb.Get(ctx, cacheKey(videoID)).Bytes(); err == nil {
		var segments []Segment
		if err := json.Unmarshal(raw, &segments); err == nil {
			return segments, nil
		}
		c.logger.Printf("warn: corrupt cache entry for %s, refetching", videoID)
	} else if err != redis.Nil {
		c.logger.Printf("warn: redis get failed for %s: %v", videoID, err)
	}

	segments, err := c.inner.Fetch(ctx, videoID)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(segments); err == nil {
		if err := c.rdb.Set(ctx, cacheKey(videoID), raw, c.ttl).Err(); err != nil {
			c.logger.Printf("warn: redis set failed for %s: %v", videoID, err)
		}
	}
	return segments, nil
}
