package rate

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systemrpg/backend/internal/cache"
)

func TestFixedWindowAllowsUpToMax(t *testing.T) {
	ctx := context.Background()
	lim := NewFixedWindow(cache.NewMemory(""), "rl", 3, time.Minute)

	for i := 1; i <= 3; i++ {
		res, err := lim.Allow(ctx, "1.2.3.4|/login")
		require.NoError(t, err)
		assert.True(t, res.Allowed, "hit %d should pass", i)
		assert.Equal(t, int64(3-i), res.Remaining)
	}

	res, err := lim.Allow(ctx, "1.2.3.4|/login")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, int64(0), res.Remaining)
	assert.Greater(t, res.RetryAfter, time.Duration(0))
}

func TestFixedWindowKeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	lim := NewFixedWindow(cache.NewMemory(""), "rl", 1, time.Minute)

	res, err := lim.Allow(ctx, "1.2.3.4|/login")
	require.NoError(t, err)
	require.True(t, res.Allowed)

	res, err = lim.Allow(ctx, "1.2.3.4|/login")
	require.NoError(t, err)
	require.False(t, res.Allowed)

	// Otra IP no comparte la ventana.
	res, err = lim.Allow(ctx, "5.6.7.8|/login")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("POST", "/login", nil)
	r.RemoteAddr = "10.0.0.1:54321"
	assert.Equal(t, "10.0.0.1", ClientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", ClientIP(r))

	assert.Equal(t, "203.0.113.9|/login", IPPathKey(r))
}
