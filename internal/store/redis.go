package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/Priyan-git/rait-rooms/internal/models"
)

const (
	// messageTTL is the retention window for room messages. Expiry is an
	// external policy; the application never removes messages itself.
	messageTTL = 7 * 24 * time.Hour
)

// directoryChannel carries change notifications for the room directory.
const directoryChannel = "rooms:events"

// RedisStore holds the per-room ordered message logs and the change
// notification channels backing live subscriptions.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis store.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisStore{client: client}, nil
}

// NewRedisStoreFromClient wraps an existing client. Used by tests running
// against miniredis.
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Client exposes the underlying client.
func (s *RedisStore) Client() *redis.Client {
	return s.client
}

// roomMessagesKey returns the key for a room's message sorted set.
func roomMessagesKey(roomID string) string {
	return fmt.Sprintf("room:%s:messages", roomID)
}

// roomEventsChannel returns the pub/sub channel for a room's change events.
func roomEventsChannel(roomID string) string {
	return fmt.Sprintf("room:%s:events", roomID)
}

// AddMessage appends a message to the room's ordered log and publishes a
// change event for subscribers. The server assigns the ULID and timestamp
// here, at acceptance time.
func (s *RedisStore) AddMessage(ctx context.Context, msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = ulid.Make().String()
	}
	if msg.CreatedAt == 0 {
		msg.CreatedAt = time.Now().UnixMilli()
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	key := roomMessagesKey(msg.RoomID)

	err = s.client.ZAdd(ctx, key, redis.Z{
		Score:  float64(msg.CreatedAt),
		Member: string(data),
	}).Err()
	if err != nil {
		return err
	}

	// Refresh retention window on the whole log
	s.client.Expire(ctx, key, messageTTL)

	// Notify subscribers; delivery is at-least-once, subscribers re-read the
	// full log on every event
	s.client.Publish(ctx, roomEventsChannel(msg.RoomID), msg.ID)

	return nil
}

// RoomMessages retrieves the full current ordered sequence for a room,
// ascending by timestamp with ULID breaking ties.
func (s *RedisStore) RoomMessages(ctx context.Context, roomID string) ([]models.Message, error) {
	key := roomMessagesKey(roomID)

	results, err := s.client.ZRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, err
	}

	messages := make([]models.Message, 0, len(results))
	for _, data := range results {
		var msg models.Message
		if err := json.Unmarshal([]byte(data), &msg); err != nil {
			continue
		}
		messages = append(messages, msg)
	}

	// ZRANGE orders equal scores lexically by member, which is the JSON
	// payload. Re-sort so ties follow the ULID instead.
	sort.SliceStable(messages, func(i, j int) bool {
		if messages[i].CreatedAt != messages[j].CreatedAt {
			return messages[i].CreatedAt < messages[j].CreatedAt
		}
		return messages[i].ID < messages[j].ID
	})

	return messages, nil
}

// SubscribeRoomEvents opens a pub/sub subscription for a room's change
// events. The caller owns the returned subscription and must close it.
func (s *RedisStore) SubscribeRoomEvents(ctx context.Context, roomID string) *redis.PubSub {
	return s.client.Subscribe(ctx, roomEventsChannel(roomID))
}

// PublishDirectoryEvent notifies directory watchers that a room entry
// changed.
func (s *RedisStore) PublishDirectoryEvent(ctx context.Context, roomID string) error {
	return s.client.Publish(ctx, directoryChannel, roomID).Err()
}

// SubscribeDirectoryEvents opens a pub/sub subscription for directory
// change events.
func (s *RedisStore) SubscribeDirectoryEvents(ctx context.Context) *redis.PubSub {
	return s.client.Subscribe(ctx, directoryChannel)
}
