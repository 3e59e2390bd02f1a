package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"platform/internal/models"
)

func TestSessionCreateAndValidate(t *testing.T) {
	repo := newFakeSessionRepo()
	manager := NewSessionManager(repo)
	accountID := primitive.NewObjectID()

	session, err := manager.Create(context.Background(), accountID, models.DeviceMetadata{
		IPAddress: "10.0.0.1",
		UserAgent: "test-agent",
	}, time.Hour)
	require.NoError(t, err)
	assert.Len(t, session.SessionKey, 40)
	assert.True(t, session.IsActive)

	got, err := manager.Validate(context.Background(), session.SessionKey)
	require.NoError(t, err)
	assert.Equal(t, accountID, got.AccountID)
}

func TestSessionZeroTTLIsImmediatelyInvalid(t *testing.T) {
	repo := newFakeSessionRepo()
	manager := NewSessionManager(repo)

	session, err := manager.Create(context.Background(), primitive.NewObjectID(), models.DeviceMetadata{}, 0)
	require.NoError(t, err)

	_, err = manager.Validate(context.Background(), session.SessionKey)
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestSessionValidateDistinguishesFailures(t *testing.T) {
	repo := newFakeSessionRepo()
	manager := NewSessionManager(repo)

	_, err := manager.Validate(context.Background(), "no-such-key")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	session, err := manager.Create(context.Background(), primitive.NewObjectID(), models.DeviceMetadata{}, time.Hour)
	require.NoError(t, err)
	require.NoError(t, manager.Logout(context.Background(), session.SessionKey))

	_, err = manager.Validate(context.Background(), session.SessionKey)
	assert.ErrorIs(t, err, ErrSessionRevoked)

	// Expiry wins over revocation: past-expiry sessions are expired even if
	// still flagged active.
	expired, err := manager.Create(context.Background(), primitive.NewObjectID(), models.DeviceMetadata{}, time.Hour)
	require.NoError(t, err)
	repo.sessions[expired.SessionKey].ExpiresAt = time.Now().Add(-time.Minute)

	_, err = manager.Validate(context.Background(), expired.SessionKey)
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestSessionLogoutIsIdempotent(t *testing.T) {
	repo := newFakeSessionRepo()
	manager := NewSessionManager(repo)

	session, err := manager.Create(context.Background(), primitive.NewObjectID(), models.DeviceMetadata{}, time.Hour)
	require.NoError(t, err)

	require.NoError(t, manager.Logout(context.Background(), session.SessionKey))
	stored := repo.sessions[session.SessionKey]
	require.NotNil(t, stored.LogoutAt)
	firstLogout := *stored.LogoutAt

	require.NoError(t, manager.Logout(context.Background(), session.SessionKey))
	assert.Equal(t, firstLogout, *stored.LogoutAt)

	// Logging out an unknown key is also a no-op.
	assert.NoError(t, manager.Logout(context.Background(), "no-such-key"))
}

func TestSessionKeyRedrawnOnCollision(t *testing.T) {
	repo := newFakeSessionRepo()
	repo.insertDuplicates = 2
	manager := NewSessionManager(repo)

	session, err := manager.Create(context.Background(), primitive.NewObjectID(), models.DeviceMetadata{}, time.Hour)
	require.NoError(t, err)
	assert.Len(t, session.SessionKey, 40)
	assert.Len(t, repo.sessions, 1)
}

func TestSessionTouchUpdatesLastActivity(t *testing.T) {
	repo := newFakeSessionRepo()
	manager := NewSessionManager(repo)

	session, err := manager.Create(context.Background(), primitive.NewObjectID(), models.DeviceMetadata{}, time.Hour)
	require.NoError(t, err)

	manager.now = func() time.Time { return session.CreatedAt.Add(5 * time.Minute) }
	require.NoError(t, manager.Touch(context.Background(), session.SessionKey))
	assert.Equal(t, session.CreatedAt.Add(5*time.Minute), repo.sessions[session.SessionKey].LastActivity)
}

func TestReaperPurgesExpiredSessions(t *testing.T) {
	repo := newFakeSessionRepo()
	manager := NewSessionManager(repo)

	live, err := manager.Create(context.Background(), primitive.NewObjectID(), models.DeviceMetadata{}, time.Hour)
	require.NoError(t, err)
	dead, err := manager.Create(context.Background(), primitive.NewObjectID(), models.DeviceMetadata{}, 0)
	require.NoError(t, err)

	deleted, err := repo.DeleteExpired(context.Background(), time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	_, ok := repo.sessions[live.SessionKey]
	assert.True(t, ok)
	_, ok = repo.sessions[dead.SessionKey]
	assert.False(t, ok)
}
