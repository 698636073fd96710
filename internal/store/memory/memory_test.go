package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systemrpg/backend/internal/store/core"
)

func TestBlacklistAddAndContains(t *testing.T) {
	ctx := context.Background()
	s := New()
	bl := s.Blacklist()

	fp := "abc123fingerprint"
	err := bl.Add(ctx, &core.BlacklistEntry{
		Fingerprint: fp,
		ExpiresAt:   time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	revoked, err := bl.Contains(ctx, fp)
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = bl.Contains(ctx, "other")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestBlacklistAddDuplicateIsConflict(t *testing.T) {
	ctx := context.Background()
	bl := New().Blacklist()

	entry := &core.BlacklistEntry{
		Fingerprint: "dup",
		ExpiresAt:   time.Now().Add(time.Hour),
	}
	require.NoError(t, bl.Add(ctx, entry))

	err := bl.Add(ctx, &core.BlacklistEntry{
		Fingerprint: "dup",
		ExpiresAt:   time.Now().Add(2 * time.Hour),
	})
	assert.True(t, core.IsConflict(err))

	// Sigue revocado tras el conflicto.
	revoked, err := bl.Contains(ctx, "dup")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestBlacklistEmptyFingerprintRejected(t *testing.T) {
	bl := New().Blacklist()
	err := bl.Add(context.Background(), &core.BlacklistEntry{
		ExpiresAt: time.Now().Add(time.Hour),
	})
	assert.ErrorIs(t, err, core.ErrInvalid)
}

func TestBlacklistPruneExpired(t *testing.T) {
	ctx := context.Background()
	bl := New().Blacklist()
	now := time.Now()

	require.NoError(t, bl.Add(ctx, &core.BlacklistEntry{
		Fingerprint: "expired-1", ExpiresAt: now.Add(-time.Hour),
	}))
	require.NoError(t, bl.Add(ctx, &core.BlacklistEntry{
		Fingerprint: "expired-2", ExpiresAt: now.Add(-time.Minute),
	}))
	require.NoError(t, bl.Add(ctx, &core.BlacklistEntry{
		Fingerprint: "live", ExpiresAt: now.Add(time.Hour),
	}))

	removed, err := bl.PruneExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	active, err := bl.CountActive(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), active)

	revoked, err := bl.Contains(ctx, "live")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestBlacklistContainsHonorsContext(t *testing.T) {
	bl := New().Blacklist()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := bl.Contains(ctx, "whatever")
	assert.Error(t, err)
}

func TestUserCreateAndLookup(t *testing.T) {
	ctx := context.Background()
	users := New().Users()

	u := &core.User{
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "$2a$10$hash",
		FirstName:    "Alice",
		LastName:     "Moreira",
		Roles:        []string{"USER"},
		IsActive:     true,
	}
	require.NoError(t, users.Create(ctx, u))
	require.NotEqual(t, uuid.Nil, u.ID)

	got, err := users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "Alice Moreira", got.FullName())

	got, err = users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	_, err = users.GetByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestUserUniqueUsernameAndEmail(t *testing.T) {
	ctx := context.Background()
	users := New().Users()

	require.NoError(t, users.Create(ctx, &core.User{
		Username: "bob", Email: "bob@example.com", PasswordHash: "x", IsActive: true,
	}))

	err := users.Create(ctx, &core.User{
		Username: "bob", Email: "bob2@example.com", PasswordHash: "x",
	})
	assert.True(t, core.IsConflict(err))

	err = users.Create(ctx, &core.User{
		Username: "bob2", Email: "BOB@example.com", PasswordHash: "x",
	})
	assert.True(t, core.IsConflict(err), "email match is case-insensitive")

	taken, err := users.UsernameExists(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = users.EmailExists(ctx, "free@example.com")
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestUserUpdateLastLogin(t *testing.T) {
	ctx := context.Background()
	users := New().Users()

	u := &core.User{Username: "carol", Email: "carol@example.com", PasswordHash: "x"}
	require.NoError(t, users.Create(ctx, u))

	at := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, users.UpdateLastLogin(ctx, u.ID, at))

	got, err := users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastLoginAt)
	assert.Equal(t, at, *got.LastLoginAt)

	err = users.UpdateLastLogin(ctx, uuid.New(), at)
	assert.ErrorIs(t, err, core.ErrNotFound)
}
