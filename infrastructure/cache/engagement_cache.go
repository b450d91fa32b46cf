package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"vidwatch/domain/model"
)

const keyPrefix = "vidwatch"

// EngagementCache persists the viewer's own engagement per video so that
// like status and subscription handles survive a daemon restart.
type EngagementCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewEngagementCache(client *redis.Client, ttl time.Duration) *EngagementCache {
	return &EngagementCache{client: client, ttl: ttl}
}

func engagementKey(videoID int64) string {
	return fmt.Sprintf("%s:engagement:%d", keyPrefix, videoID)
}

func subscriptionKey(videoID int64) string {
	return fmt.Sprintf("%s:subscription:%d", keyPrefix, videoID)
}

func (c *EngagementCache) GetEngagement(ctx context.Context, videoID int64) (*model.EngagementState, error) {
	var state model.EngagementState
	found, err := c.get(ctx, engagementKey(videoID), &state)
	if err != nil || !found {
		return nil, err
	}
	return &state, nil
}

func (c *EngagementCache) SaveEngagement(ctx context.Context, videoID int64, state model.EngagementState) error {
	return c.set(ctx, engagementKey(videoID), state)
}

func (c *EngagementCache) GetSubscription(ctx context.Context, videoID int64) (*model.SubscriptionState, error) {
	var state model.SubscriptionState
	found, err := c.get(ctx, subscriptionKey(videoID), &state)
	if err != nil || !found {
		return nil, err
	}
	return &state, nil
}

func (c *EngagementCache) SaveSubscription(ctx context.Context, videoID int64, state model.SubscriptionState) error {
	return c.set(ctx, subscriptionKey(videoID), state)
}

func (c *EngagementCache) get(ctx context.Context, key string, out interface{}) (bool, error) {
	if c.client == nil {
		return false, nil
	}
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(val, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (c *EngagementCache) set(ctx context.Context, key string, value interface{}) error {
	if c.client == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}
