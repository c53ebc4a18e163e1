package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitRedisConnects(t *testing.T) {
	mr := miniredis.RunT(t)

	InitRedis(mr.Addr())
	t.Cleanup(func() { _ = Close() })

	rdb := GetClient()
	require.NotNil(t, rdb)
	require.NoError(t, rdb.Set(context.Background(), "k", "v", 0).Err())
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestInitRedisAcceptsURL(t *testing.T) {
	mr := miniredis.RunT(t)

	InitRedis("redis://" + mr.Addr() + "/0")
	t.Cleanup(func() { _ = Close() })

	assert.NotNil(t, GetClient())
}

func TestInitRedisUnreachableLeavesClientNil(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	InitRedis(addr)
	assert.Nil(t, GetClient())
	assert.NoError(t, Close())
}

func TestInitRedisInvalidURL(t *testing.T) {
	InitRedis("redis://%zz")
	assert.Nil(t, GetClient())
}
