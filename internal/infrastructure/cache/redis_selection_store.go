package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/medico/backend/internal/domain/checkout"
	"github.com/medico/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
)

const selectionKeyPrefix = "selection:"

// DefaultSelectionTTL keeps an idle selection for a week
const DefaultSelectionTTL = 7 * 24 * time.Hour

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// RedisSelectionStore keeps each owner's selection as a JSON array under
// selection:<owner>. Every save refreshes the TTL.
type RedisSelectionStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisSelectionStore uses an existing Redis client; ttl <= 0 means DefaultSelectionTTL
func NewRedisSelectionStore(client redis.Cmdable, ttl time.Duration) *RedisSelectionStore {
	if ttl <= 0 {
		ttl = DefaultSelectionTTL
	}
	return &RedisSelectionStore{client: client, ttl: ttl}
}

// Load implements checkout.SelectionStore
func (s *RedisSelectionStore) Load(ctx context.Context, owner string) (*checkout.Selection, error) {
	raw, err := s.client.Get(ctx, selectionKeyPrefix+owner).Bytes()
	if errors.Is(err, redis.Nil) {
		return checkout.NewSelection(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load selection: %w", err)
	}

	sel := checkout.NewSelection()
	if err := json.Unmarshal(raw, sel); err != nil {
		return nil, fmt.Errorf("failed to decode selection: %w", err)
	}
	return sel, nil
}

// Save implements checkout.SelectionStore. An empty selection deletes the key.
func (s *RedisSelectionStore) Save(ctx context.Context, owner string, sel *checkout.Selection) error {
	key := selectionKeyPrefix + owner
	if sel == nil || sel.IsEmpty() {
		if err := s.client.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("failed to clear selection: %w", err)
		}
		return nil
	}

	raw, err := json.Marshal(sel)
	if err != nil {
		return fmt.Errorf("failed to encode selection: %w", err)
	}
	if err := s.client.Set(ctx, key, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save selection: %w", err)
	}
	return nil
}

var _ checkout.SelectionStore = (*RedisSelectionStore)(nil)
