// Package cache provides a Redis-backed cache for rendered article payloads.
// Writers signal it explicitly after every committed edit so readers never
// serve a stale record longer than one round trip.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func New(redisURL string, ttl time.Duration) (*Cache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewWithClient(client, ttl), nil
}

func NewWithClient(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{client: client, ttl: ttl}
}

func articleKey(articleType string, id int64, language string) string {
	return "article:" + articleType + ":" + strconv.FormatInt(id, 10) + ":" + language
}

// GetArticle returns the cached payload for an article, if present. Cache
// errors degrade to a miss.
func (c *Cache) GetArticle(ctx context.Context, articleType string, id int64, language string) ([]byte, bool) {
	payload, err := c.client.Get(ctx, articleKey(articleType, id, language)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		log.Printf("cache get %s %d: %v", articleType, id, err)
		return nil, false
	}
	return payload, true
}

// SetArticle stores a rendered payload. Best effort.
func (c *Cache) SetArticle(ctx context.Context, articleType string, id int64, language string, payload []byte) {
	if err := c.client.Set(ctx, articleKey(articleType, id, language), payload, c.ttl).Err(); err != nil {
		log.Printf("cache set %s %d: %v", articleType, id, err)
	}
}

// Invalidate drops every language variant of one article. Called after each
// committed edit.
func (c *Cache) Invalidate(ctx context.Context, articleType string, id int64) {
	pattern := "article:" + articleType + ":" + strconv.FormatInt(id, 10) + ":*"
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			log.Printf("cache invalidate %s: %v", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		log.Printf("cache invalidate %s %d: %v", articleType, id, err)
	}
}

func (c *Cache) Close() error {
	return c.client.Close()
}
