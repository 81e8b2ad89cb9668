package middleware

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStorage(t *testing.T) (*RedisStorage, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStorage(client, "sess:"), mr
}

func TestRedisStorageGetSetDelete(t *testing.T) {
	storage, mr := newRedisStorage(t)

	val, err := storage.Get("missing")
	require.NoError(t, err)
	assert.Nil(t, val)

	require.NoError(t, storage.Set("abc", []byte("payload"), time.Minute))
	assert.True(t, mr.Exists("sess:abc"))

	val, err = storage.Get("abc")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), val)

	require.NoError(t, storage.Delete("abc"))
	val, err = storage.Get("abc")
	require.NoError(t, err)
	assert.Nil(t, val)
}

func TestRedisStorageExpiry(t *testing.T) {
	storage, mr := newRedisStorage(t)

	require.NoError(t, storage.Set("abc", []byte("payload"), time.Minute))
	mr.FastForward(2 * time.Minute)

	val, err := storage.Get("abc")
	require.NoError(t, err)
	assert.Nil(t, val)
}

func TestRedisStorageIgnoresEmptyWrites(t *testing.T) {
	storage, mr := newRedisStorage(t)

	require.NoError(t, storage.Set("", []byte("x"), time.Minute))
	require.NoError(t, storage.Set("k", nil, time.Minute))
	assert.Empty(t, mr.Keys())
}

func TestRedisStorageResetKeepsForeignKeys(t *testing.T) {
	storage, mr := newRedisStorage(t)

	require.NoError(t, storage.Set("a", []byte("1"), 0))
	require.NoError(t, storage.Set("b", []byte("2"), 0))
	require.NoError(t, mr.Set("ratelimit:1.2.3.4", "keep"))

	require.NoError(t, storage.Reset())
	assert.Equal(t, []string{"ratelimit:1.2.3.4"}, mr.Keys())
	require.NoError(t, storage.Close())
}
