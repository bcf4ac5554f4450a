package persistence

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-bridge/internal/events"
)

const testRedisAddrEnv = "TICKET_BRIDGE_TEST_REDIS_ADDR"

func redisClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv(testRedisAddrEnv)
	if addr == "" {
		t.Skipf("%s not set", testRedisAddrEnv)
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())
	return client
}

func TestRedis_UnconfiguredDisablesFeatures(t *testing.T) {
	r := &Redis{}
	assert.False(t, r.Configured())
	assert.Nil(t, r.RoleCache(time.Minute))
	assert.Nil(t, r.EventPublisher())
	assert.Error(t, r.Ping(context.Background()))
	r.Close()
}

func TestRedis_RoleCacheDisabledByZeroTTL(t *testing.T) {
	r := &Redis{Client: redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})}
	defer r.Close()
	assert.Nil(t, r.RoleCache(0))
	assert.NotNil(t, r.EventPublisher())
}

func TestRoleCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	client := redisClient(t)
	cache := NewRoleCache(client, time.Minute)
	userID := "user-" + uuid.NewString()
	t.Cleanup(func() { client.Del(context.Background(), staffRoleKeyPrefix+userID) })

	_, found, err := cache.Get(ctx, userID)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, cache.Set(ctx, userID, true))
	isStaff, found, err := cache.Get(ctx, userID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, isStaff)

	ttl, err := client.TTL(ctx, staffRoleKeyPrefix+userID).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, client.Set(ctx, staffRoleKeyPrefix+userID, "garbage", time.Minute).Err())
	_, found, err = cache.Get(ctx, userID)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestEventPublisher_PublishesJSON(t *testing.T) {
	ctx := context.Background()
	client := redisClient(t)
	channel := "ticketbridge:test:" + uuid.NewString()

	sub := client.Subscribe(ctx, channel)
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	publisher := NewEventPublisher(client, channel)
	require.NoError(t, publisher.PublishEvent(ctx, events.Event{
		ID:       "evt-1",
		Type:     events.EventTicketClosed,
		TicketID: 7,
	}))

	select {
	case msg := <-sub.Channel():
		var decoded map[string]any
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &decoded))
		assert.Equal(t, "evt-1", decoded["id"])
		assert.EqualValues(t, events.EventTicketClosed, decoded["type"])
		assert.EqualValues(t, 7, decoded["ticket_id"])
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}
