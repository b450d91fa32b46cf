package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"vidwatch/domain/model"
)

func setupMiniRedis(t *testing.T) (*miniredis.Miniredis, *EngagementCache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewEngagementCache(client, time.Hour)
}

func TestEngagementCache_Engagement(t *testing.T) {
	mr, cache := setupMiniRedis(t)
	ctx := context.Background()

	miss, err := cache.GetEngagement(ctx, 3)
	require.NoError(t, err)
	require.Nil(t, miss)

	state := model.EngagementState{LikeStatus: model.LikeLiked, LikesCount: 11, DislikesCount: 2}
	require.NoError(t, cache.SaveEngagement(ctx, 3, state))

	got, err := cache.GetEngagement(ctx, 3)
	require.NoError(t, err)
	require.Equal(t, &state, got)
	require.Equal(t, time.Hour, mr.TTL("vidwatch:engagement:3"))

	mr.FastForward(2 * time.Hour)
	expired, err := cache.GetEngagement(ctx, 3)
	require.NoError(t, err)
	require.Nil(t, expired)
}

func TestEngagementCache_Subscription(t *testing.T) {
	_, cache := setupMiniRedis(t)
	ctx := context.Background()
	id := int64(21)

	state := model.SubscriptionState{CreatorID: 4, Subscribed: true, SubscriptionID: &id}
	require.NoError(t, cache.SaveSubscription(ctx, 3, state))

	got, err := cache.GetSubscription(ctx, 3)
	require.NoError(t, err)
	require.True(t, got.CanUnsubscribe())
	require.Equal(t, int64(21), *got.SubscriptionID)
}

func TestEngagementCache_CorruptValue(t *testing.T) {
	mr, cache := setupMiniRedis(t)
	require.NoError(t, mr.Set("vidwatch:engagement:5", "{not json"))

	_, err := cache.GetEngagement(context.Background(), 5)
	require.Error(t, err)
}

func TestEngagementCache_NilClient(t *testing.T) {
	cache := NewEngagementCache(nil, time.Hour)
	got, err := cache.GetEngagement(context.Background(), 1)
	require.NoError(t, err)
	require.Nil(t, got)
	require.NoError(t, cache.SaveEngagement(context.Background(), 1, model.EngagementState{}))
}

func TestNewCache_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewCache(context.Background(), addr, "", "", 0)
	require.Error(t, err)
}
