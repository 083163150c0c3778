package repository

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisCarts(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx := context.Background()
	carts := NewRedisCarts(rdb)

	require.NoError(t, carts.SetItem(ctx, "u1", "p2", 1))
	require.NoError(t, carts.SetItem(ctx, "u1", "p1", 2))
	require.NoError(t, carts.SetItem(ctx, "u1", "p1", 5))

	cart, err := carts.Get(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	assert.Equal(t, "p1", cart.Items[0].ProductID)
	assert.Equal(t, 5, cart.Items[0].Quantity)
	assert.False(t, cart.Items[0].UpdatedAt.IsZero())
	assert.Equal(t, CartTTL, mr.TTL("cart:u1"))

	require.NoError(t, carts.RemoveItem(ctx, "u1", "p2"))
	cart, err = carts.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)

	require.NoError(t, carts.Clear(ctx, "u1"))
	assert.False(t, mr.Exists("cart:u1"))

	empty, err := carts.Get(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty.Items)
}
