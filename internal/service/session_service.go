package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"platform/internal/auth"
	"platform/internal/models"
	"platform/internal/repository"
)

// maxKeyAttempts bounds session key redraws on a unique-index collision.
const maxKeyAttempts = 5

// SessionManager owns the session lifecycle: creation, activity tracking,
// validation and logout. Expiry is checked against the wall clock on every
// validation; the TTL index only prunes storage.
type SessionManager struct {
	sessions repository.SessionRepository
	now      func() time.Time
}

func NewSessionManager(sessions repository.SessionRepository) *SessionManager {
	return &SessionManager{
		sessions: sessions,
		now:      time.Now,
	}
}

// Create opens a session for accountID expiring after ttl. The session key
// is redrawn when the unique index rejects it.
func (m *SessionManager) Create(ctx context.Context, accountID primitive.ObjectID, meta models.DeviceMetadata, ttl time.Duration) (*models.Session, error) {
	now := m.now()

	for attempt := 0; attempt < maxKeyAttempts; attempt++ {
		key, err := auth.GenerateSessionKey()
		if err != nil {
			return nil, fmt.Errorf("generate session key: %w", err)
		}

		session := &models.Session{
			AccountID:    accountID,
			SessionKey:   key,
			DeviceType:   meta.DeviceType,
			DeviceID:     meta.DeviceID,
			IPAddress:    meta.IPAddress,
			UserAgent:    meta.UserAgent,
			CreatedAt:    now,
			LastActivity: now,
			ExpiresAt:    now.Add(ttl),
			IsActive:     true,
		}

		err = m.sessions.Insert(ctx, session)
		if err == nil {
			return session, nil
		}
		if !errors.Is(err, repository.ErrDuplicateKey) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("session key collision persisted after %d attempts", maxKeyAttempts)
}

// Touch updates the last-activity timestamp. An unknown key is ignored; the
// caller decides whether a stale session matters.
func (m *SessionManager) Touch(ctx context.Context, key string) error {
	return m.sessions.Touch(ctx, key, m.now())
}

// Validate returns the session only if it is active and not past expiry.
// The expiry recheck is a correctness requirement, not an optimization: the
// background reaper and TTL index may lag the wall clock.
func (m *SessionManager) Validate(ctx context.Context, key string) (*models.Session, error) {
	session, err := m.sessions.FindByKey(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if session.Expired(m.now()) {
		return nil, ErrSessionExpired
	}
	if !session.IsActive {
		return nil, ErrSessionRevoked
	}
	return session, nil
}

// Logout deactivates the session and stamps logoutAt. Logging out an
// already-closed or unknown session is a no-op, not an error.
func (m *SessionManager) Logout(ctx context.Context, key string) error {
	_, err := m.sessions.MarkLoggedOut(ctx, key, m.now())
	return err
}

// RevokeAll closes every active session for an account, used after a
// password reset.
func (m *SessionManager) RevokeAll(ctx context.Context, accountID primitive.ObjectID) error {
	return m.sessions.RevokeAllForAccount(ctx, accountID, m.now())
}
