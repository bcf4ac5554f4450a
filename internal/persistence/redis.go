package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bridge/internal/config"
	"github.com/spec-kit/ticket-bridge/internal/events"
)

const (
	staffRoleKeyPrefix = "ticketbridge:staff-role:"
	// EventChannel carries JSON-encoded domain events for out-of-process consumers.
	EventChannel = "ticketbridge:events"
)

// Redis wraps the go-redis client. Client is nil when REDIS_ADDR is unset.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to Redis using the provided configuration.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	if cfg.Addr == "" {
		logger.Warn("REDIS_ADDR not provided; staff roles will not be cached")
		return &Redis{}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis")
	}

	return &Redis{Client: client}
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}

// Configured reports whether a client is available.
func (r *Redis) Configured() bool {
	return r != nil && r.Client != nil
}

// RoleCache stores resolved staff predicates keyed by chat user id.
type RoleCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRoleCache builds a cache over client.
func NewRoleCache(client redis.Cmdable, ttl time.Duration) *RoleCache {
	return &RoleCache{client: client, ttl: ttl}
}

// RoleCache returns a staff role cache on this connection, or nil when Redis
// is not configured or caching is disabled.
func (r *Redis) RoleCache(ttl time.Duration) *RoleCache {
	if !r.Configured() || ttl <= 0 {
		return nil
	}
	return NewRoleCache(r.Client, ttl)
}

// Get returns the cached staff flag and whether it was present.
func (c *RoleCache) Get(ctx context.Context, userID string) (bool, bool, error) {
	val, err := c.client.Get(ctx, staffRoleKeyPrefix+userID).Result()
	if errors.Is(err, redis.Nil) {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}
	isStaff, err := strconv.ParseBool(val)
	if err != nil {
		return false, false, nil
	}
	return isStaff, true, nil
}

// Set caches the staff flag for the configured TTL.
func (c *RoleCache) Set(ctx context.Context, userID string, isStaff bool) error {
	return c.client.Set(ctx, staffRoleKeyPrefix+userID, strconv.FormatBool(isStaff), c.ttl).Err()
}

// EventPublisher fans domain events out over Redis pub/sub.
type EventPublisher struct {
	client  redis.Cmdable
	channel string
}

// NewEventPublisher publishes to channel on client.
func NewEventPublisher(client redis.Cmdable, channel string) *EventPublisher {
	return &EventPublisher{client: client, channel: channel}
}

// EventPublisher returns a publisher on EventChannel, or nil when Redis is not configured.
func (r *Redis) EventPublisher() *EventPublisher {
	if !r.Configured() {
		return nil
	}
	return NewEventPublisher(r.Client, EventChannel)
}

// PublishEvent writes the JSON-encoded event to the channel.
func (p *EventPublisher) PublishEvent(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, p.channel, payload).Err()
}
