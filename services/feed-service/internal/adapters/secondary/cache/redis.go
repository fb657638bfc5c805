package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jupiterclapton/gamefeed/services/feed-service/internal/core/domain"
)

// visibilityDTO est la forme stockée sous visibility:<viewer>.
type visibilityDTO struct {
	BlockedByMe []string `json:"blockedByMe"`
	BlockedMe   []string `json:"blockedMe"`
	MutedByMe   []string `json:"mutedByMe"`
}

// RedisVisibilityCache partage les VisibilitySet entre les réplicas du feed-service.
type RedisVisibilityCache struct {
	client redis.Cmdable
}

func NewRedisVisibilityCache(client redis.Cmdable) *RedisVisibilityCache {
	return &RedisVisibilityCache{client: client}
}

func visibilityKey(viewerID string) string {
	return fmt.Sprintf("visibility:%s", viewerID)
}

func (c *RedisVisibilityCache) Get(ctx context.Context, viewerID string) (domain.VisibilitySet, bool, error) {
	raw, err := c.client.Get(ctx, visibilityKey(viewerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.VisibilitySet{}, false, nil
	}
	if err != nil {
		return domain.VisibilitySet{}, false, fmt.Errorf("redis get: %w", err)
	}

	var dto visibilityDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		// Entrée corrompue : traitée comme un miss, elle sera réécrite
		return domain.VisibilitySet{}, false, nil
	}
	return domain.NewVisibilitySet(dto.BlockedByMe, dto.BlockedMe, dto.MutedByMe), true, nil
}

func (c *RedisVisibilityCache) Set(ctx context.Context, viewerID string, set domain.VisibilitySet, ttl time.Duration) error {
	var dto visibilityDTO
	dto.BlockedByMe, dto.BlockedMe, dto.MutedByMe = set.Lists()
	data, err := json.Marshal(dto)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, visibilityKey(viewerID), data, ttl).Err()
}

func (c *RedisVisibilityCache) Delete(ctx context.Context, viewerIDs ...string) error {
	if len(viewerIDs) == 0 {
		return nil
	}
	keys := make([]string, len(viewerIDs))
	for i, id := range viewerIDs {
		keys[i] = visibilityKey(id)
	}
	return c.client.Del(ctx, keys...).Err()
}
