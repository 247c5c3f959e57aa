package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/baharkarakas/point-service/internal/models"
	"github.com/redis/go-redis/v9"
)

const DefaultStream = "point-events"

type envelope struct {
	Type      string            `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Data      models.PointEvent `json:"data"`
}

// RedisPublisher appends events to a Redis stream.
type RedisPublisher struct {
	client *redis.Client
	stream string
	now    func() time.Time
}

func NewRedisPublisher(client *redis.Client, stream string) *RedisPublisher {
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisPublisher{client: client, stream: stream, now: func() time.Time { return time.Now().UTC() }}
}

func (p *RedisPublisher) Publish(ctx context.Context, ev models.PointEvent) error {
	payload, err := json.Marshal(envelope{Type: ev.Action(), Timestamp: p.now(), Data: ev})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{"event": string(payload)},
	}
	if _, err := p.client.XAdd(ctx, args).Result(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return rdb, nil
}
