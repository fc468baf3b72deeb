package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/claryon/claryon-site/services/site-service/internal/content"
	"github.com/claryon/claryon-site/services/site-service/internal/model"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "content:"

// Cache is a read-through Redis cache in front of a content.Reader. Any
// Redis failure falls back to the source.
type Cache struct {
	rdb    redis.Cmdable
	source content.Reader
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

func New(rdb redis.Cmdable, source content.Reader, ttl time.Duration, logger *slog.Logger) *Cache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Cache{rdb: rdb, source: source, ttl: ttl, logger: logger, now: time.Now}
}

// Keys carry the current date so a scheduled post shows up on its day
// without an explicit invalidation.
func (c *Cache) day() string {
	return content.DateOf(c.now().UTC()).Format(content.DateLayout)
}

func (c *Cache) Posts(ctx context.Context, tag string, limit int) ([]model.Post, error) {
	key := fmt.Sprintf("%sposts:%s:%s:%d", keyPrefix, c.day(), tag, limit)
	return readThrough(ctx, c, key, func() ([]model.Post, error) {
		return c.source.Posts(ctx, tag, limit)
	})
}

func (c *Cache) Post(ctx context.Context, slug string) (*model.Post, error) {
	key := keyPrefix + "post:" + c.day() + ":" + slug
	return readThrough(ctx, c, key, func() (*model.Post, error) {
		return c.source.Post(ctx, slug)
	})
}

func (c *Cache) Testimonials(ctx context.Context, limit int) ([]model.Testimonial, error) {
	key := keyPrefix + "testimonials:" + strconv.Itoa(limit)
	return readThrough(ctx, c, key, func() ([]model.Testimonial, error) {
		return c.source.Testimonials(ctx, limit)
	})
}

// Invalidate drops every cached content key. Called after admin writes.
func (c *Cache) Invalidate(ctx context.Context) error {
	iter := c.rdb.Scan(ctx, 0, keyPrefix+"*", 200).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan content keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

func readThrough[T any](ctx context.Context, c *Cache, key string, load func() (T, error)) (T, error) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			return v, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn("content cache read failed", "key", key, "err", err)
	}

	v, err := load()
	if err != nil {
		return v, err
	}
	if raw, err := json.Marshal(v); err == nil {
		if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			c.logger.Warn("content cache write failed", "key", key, "err", err)
		}
	}
	return v, nil
}
