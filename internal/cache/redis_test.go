package cache

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client), mr
}

func TestRedisStore_GetMissing(t *testing.T) {
	store, _ := setupTestRedis(t)

	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisStore_SetGetExpire(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Minute))

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
	assert.Equal(t, time.Minute, mr.TTL("k"))

	mr.FastForward(2 * time.Minute)
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisStore_Incr(t *testing.T) {
	store, _ := setupTestRedis(t)
	ctx := context.Background()

	n, err := store.Incr(ctx, "ver")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = store.Incr(ctx, "ver")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestResponseCache_OverRedis(t *testing.T) {
	store, mr := setupTestRedis(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := New(store, "catalog:products", time.Minute, logger)

	calls := 0
	h := c.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true}`))
	}))

	get := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products?page=1", nil))
		return rec
	}

	assert.Equal(t, Miss, get().Header().Get(HeaderCache))
	assert.Equal(t, Hit, get().Header().Get(HeaderCache))
	assert.Equal(t, 1, calls)

	require.NoError(t, c.Invalidate(context.Background()))
	v, err := mr.Get("catalog:products:version")
	require.NoError(t, err)
	assert.Equal(t, "1", v)

	assert.Equal(t, Miss, get().Header().Get(HeaderCache))
	assert.Equal(t, 2, calls)
}
