package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"storefront/internal/domain"
)

// CartTTL is how long an untouched cart survives in Redis.
const CartTTL = 30 * 24 * time.Hour

// RedisCarts stores each cart as a hash keyed by product id
type RedisCarts struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

func NewRedisCarts(rdb redis.UniversalClient) *RedisCarts {
	return &RedisCarts{rdb: rdb, ttl: CartTTL}
}

var _ CartRepository = (*RedisCarts)(nil)

type redisCartEntry struct {
	Quantity  int       `json:"quantity"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func cartKey(userID string) string { return "cart:" + userID }

func (r *RedisCarts) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	fields, err := r.rdb.HGetAll(ctx, cartKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis cart get: %w", err)
	}
	cart := &domain.Cart{UserID: userID, Items: make([]domain.CartItem, 0, len(fields))}
	for productID, raw := range fields {
		var e redisCartEntry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, fmt.Errorf("redis cart decode %s: %w", productID, err)
		}
		cart.Items = append(cart.Items, domain.CartItem{
			UserID:    userID,
			ProductID: productID,
			Quantity:  e.Quantity,
			UpdatedAt: e.UpdatedAt,
		})
	}
	sort.Slice(cart.Items, func(i, j int) bool {
		return cart.Items[i].ProductID < cart.Items[j].ProductID
	})
	return cart, nil
}

func (r *RedisCarts) SetItem(ctx context.Context, userID, productID string, quantity int) error {
	raw, err := json.Marshal(redisCartEntry{Quantity: quantity, UpdatedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	key := cartKey(userID)
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, productID, raw)
		pipe.Expire(ctx, key, r.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis cart set: %w", err)
	}
	return nil
}

func (r *RedisCarts) RemoveItem(ctx context.Context, userID, productID string) error {
	if err := r.rdb.HDel(ctx, cartKey(userID), productID).Err(); err != nil {
		return fmt.Errorf("redis cart remove: %w", err)
	}
	return nil
}

func (r *RedisCarts) Clear(ctx context.Context, userID string) error {
	if err := r.rdb.Del(ctx, cartKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis cart clear: %w", err)
	}
	return nil
}
