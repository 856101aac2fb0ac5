package presence

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisMirror keeps an online flag plus last_seen timestamp in redis so other
// instances (and the notification service) can read presence without asking
// this process.
type RedisMirror struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisMirror(client *redis.Client, prefix string, ttl time.Duration) *RedisMirror {
	return &RedisMirror{client: client, prefix: prefix, ttl: ttl}
}

func (m *RedisMirror) key(userID string) string {
	return m.prefix + ":presence:" + userID
}

func (m *RedisMirror) SetOnline(ctx context.Context, userID string, online bool) error {
	if online {
		return m.client.Set(ctx, m.key(userID), "1", m.ttl).Err()
	}
	pipe := m.client.Pipeline()
	pipe.Del(ctx, m.key(userID))
	pipe.Set(ctx, m.prefix+":last_seen:"+userID, time.Now().UTC().Format(time.RFC3339), 0)
	_, err := pipe.Exec(ctx)
	return err
}

func (m *RedisMirror) GetOnline(ctx context.Context, userID string) (bool, error) {
	v, err := m.client.Get(ctx, m.key(userID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return v == "1", nil
}
