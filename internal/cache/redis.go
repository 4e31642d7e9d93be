package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/abdusco/shortly/internal"
	"github.com/abdusco/shortly/internal/links"
	"github.com/redis/go-redis/v9"
)

const DefaultTTL = time.Hour

// LinkCache keeps resolved links in Redis under "link:<code>".
type LinkCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ links.LinkCache = (*LinkCache)(nil)

func NewLinkCache(client *redis.Client, ttl time.Duration) *LinkCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &LinkCache{client: client, ttl: ttl}
}

type cachedLink struct {
	ID          string  `json:"id"`
	OriginalURL string  `json:"original_url"`
	ShortCode   string  `json:"short_code"`
	Alias       *string `json:"alias,omitempty"`
	OwnerID     *string `json:"owner_id,omitempty"`
}

func key(code string) string {
	return "link:" + code
}

func (c *LinkCache) Get(ctx context.Context, code string) (*internal.Link, error) {
	val, err := c.client.Get(ctx, key(code)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get %s: %w", code, err)
	}

	var cached cachedLink
	if err := json.Unmarshal(val, &cached); err != nil {
		return nil, fmt.Errorf("cache decode %s: %w", code, err)
	}

	return &internal.Link{
		ID:          cached.ID,
		OriginalURL: cached.OriginalURL,
		ShortCode:   cached.ShortCode,
		Alias:       cached.Alias,
		OwnerID:     cached.OwnerID,
	}, nil
}

// Set stores only what the redirect path needs; counters are never cached.
func (c *LinkCache) Set(ctx context.Context, code string, link *internal.Link) error {
	data, err := json.Marshal(cachedLink{
		ID:          link.ID,
		OriginalURL: link.OriginalURL,
		ShortCode:   link.ShortCode,
		Alias:       link.Alias,
		OwnerID:     link.OwnerID,
	})
	if err != nil {
		return err
	}

	return c.client.Set(ctx, key(code), data, c.ttl).Err()
}

func (c *LinkCache) Delete(ctx context.Context, codes ...string) error {
	if len(codes) == 0 {
		return nil
	}

	keys := make([]string, 0, len(codes))
	for _, code := range codes {
		keys = append(keys, key(code))
	}
	return c.client.Del(ctx, keys...).Err()
}
