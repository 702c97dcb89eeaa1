package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisRoundTrip(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	ctx := context.Background()

	c, err := NewRedis(ctx, url)
	require.NoError(t, err)
	defer c.Close()

	key := "test:" + uuid.NewString()
	_, found, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, key, []byte(`{"ok":true}`), time.Minute))
	value, found, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `{"ok":true}`, string(value))
}

func TestNewRedisRejectsBadURL(t *testing.T) {
	_, err := NewRedis(context.Background(), "http://not-redis")
	assert.ErrorContains(t, err, "parse redis url")
}
