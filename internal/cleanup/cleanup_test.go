package cleanup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systemrpg/backend/internal/i18n"
	"github.com/systemrpg/backend/internal/store/core"
	"github.com/systemrpg/backend/internal/store/memory"
)

func TestRunNowPrunesOnlyExpired(t *testing.T) {
	catalog, err := i18n.Load()
	require.NoError(t, err)

	bl := memory.New().Blacklist()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, bl.Add(ctx, &core.BlacklistEntry{
		Fingerprint: "old", ExpiresAt: now.Add(-time.Hour),
	}))
	require.NoError(t, bl.Add(ctx, &core.BlacklistEntry{
		Fingerprint: "live", ExpiresAt: now.Add(time.Hour),
	}))

	s := New(bl, catalog, Config{})
	removed, err := s.RunNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	revoked, err := bl.Contains(ctx, "live")
	require.NoError(t, err)
	assert.True(t, revoked, "live entry must survive the prune")
}

func TestStartRejectsBadSchedule(t *testing.T) {
	catalog, err := i18n.Load()
	require.NoError(t, err)

	s := New(memory.New().Blacklist(), catalog, Config{Schedule: "not a cron expr"})
	assert.Error(t, s.Start())
}
