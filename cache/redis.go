package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"neonx-web/errs"
	"neonx-web/models"

	"github.com/go-redis/redis/v8"
)

// Redis is a PriceCache backed by a Redis server.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedis(addr, password string, db int, ttl time.Duration) *Redis {
	return &Redis{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		prefix: "neonx:",
		ttl:    ttl,
	}
}

// Ping checks the connection.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) SetLatest(ctx context.Context, snap models.PriceSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return r.client.Set(ctx, r.key(snap.Symbol), data, r.ttl).Err()
}

func (r *Redis) GetLatest(ctx context.Context, symbol string) (models.PriceSnapshot, error) {
	var snap models.PriceSnapshot
	data, err := r.client.Get(ctx, r.key(symbol)).Bytes()
	if errors.Is(err, redis.Nil) {
		return snap, errs.ErrNotFound
	}
	if err != nil {
		return snap, fmt.Errorf("get snapshot: %w", err)
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) key(symbol string) string {
	return r.prefix + "price:latest:" + symbol
}
