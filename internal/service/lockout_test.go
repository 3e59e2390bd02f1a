package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"platform/internal/models"
)

func TestGuardCountsFailuresCaseInsensitively(t *testing.T) {
	attempts := &fakeAttemptRepo{}
	guard := NewLoginAttemptGuard(attempts, 5, time.Hour)

	require.NoError(t, guard.Record(context.Background(), "User@Example.com", "10.0.0.1", false, ReasonInvalidPassword, models.DeviceMetadata{}))
	require.NoError(t, guard.Record(context.Background(), "user@example.COM", "10.0.0.2", false, ReasonInvalidPassword, models.DeviceMetadata{}))

	count, err := guard.RecentFailureCount(context.Background(), "USER@example.com", time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestGuardIgnoresSuccessesAndOldFailures(t *testing.T) {
	attempts := &fakeAttemptRepo{}
	guard := NewLoginAttemptGuard(attempts, 5, time.Hour)

	base := time.Now()
	guard.now = func() time.Time { return base.Add(-2 * time.Hour) }
	require.NoError(t, guard.Record(context.Background(), "a@b.com", "10.0.0.1", false, ReasonInvalidPassword, models.DeviceMetadata{}))

	guard.now = func() time.Time { return base }
	require.NoError(t, guard.Record(context.Background(), "a@b.com", "10.0.0.1", true, "", models.DeviceMetadata{}))
	require.NoError(t, guard.Record(context.Background(), "a@b.com", "10.0.0.1", false, ReasonInvalidPassword, models.DeviceMetadata{}))

	count, err := guard.RecentFailureCount(context.Background(), "a@b.com", time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestGuardLocksAtThreshold(t *testing.T) {
	attempts := &fakeAttemptRepo{}
	guard := NewLoginAttemptGuard(attempts, 3, time.Hour)

	for i := 0; i < 2; i++ {
		require.NoError(t, guard.Record(context.Background(), "a@b.com", "10.0.0.1", false, ReasonInvalidPassword, models.DeviceMetadata{}))
	}
	locked, err := guard.IsLocked(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.False(t, locked)

	require.NoError(t, guard.Record(context.Background(), "a@b.com", "10.0.0.1", false, ReasonInvalidPassword, models.DeviceMetadata{}))
	locked, err = guard.IsLocked(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.True(t, locked)

	// Lockout is per-email; other accounts are unaffected.
	locked, err = guard.IsLocked(context.Background(), "c@d.com")
	require.NoError(t, err)
	assert.False(t, locked)
}
