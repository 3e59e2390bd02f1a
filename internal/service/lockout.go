package service

import (
	"context"
	"strings"
	"time"

	"platform/internal/models"
	"platform/internal/repository"
)

// Failure reasons stored on login attempt records. The reason is audit-only;
// clients always see the same invalid-credentials error.
const (
	ReasonUnknownEmail    = "unknown_email"
	ReasonInvalidPassword = "invalid_password"
	ReasonAccountInactive = "account_inactive"
	ReasonAccountLocked   = "account_locked"
)

// LoginAttemptGuard enforces a sliding-window lockout over the login attempt
// audit trail. Lockout is scoped by email only; IP is recorded but not used
// for blocking.
type LoginAttemptGuard struct {
	attempts    repository.LoginAttemptRepository
	maxAttempts int
	window      time.Duration
	now         func() time.Time
}

func NewLoginAttemptGuard(attempts repository.LoginAttemptRepository, maxAttempts int, window time.Duration) *LoginAttemptGuard {
	return &LoginAttemptGuard{
		attempts:    attempts,
		maxAttempts: maxAttempts,
		window:      window,
		now:         time.Now,
	}
}

// Record appends one attempt. The email is lowercased so throttling is
// case-insensitive regardless of how the caller spells it.
func (g *LoginAttemptGuard) Record(ctx context.Context, email, ip string, success bool, reason string, meta models.DeviceMetadata) error {
	attempt := &models.LoginAttempt{
		Email:         normalizeEmail(email),
		IPAddress:     ip,
		Success:       success,
		UserAgent:     meta.UserAgent,
		DeviceType:    meta.DeviceType,
		FailureReason: reason,
		AttemptedAt:   g.now(),
	}
	return g.attempts.Insert(ctx, attempt)
}

// RecentFailureCount counts failed attempts for email within the trailing
// window, evaluated at call time.
func (g *LoginAttemptGuard) RecentFailureCount(ctx context.Context, email string, window time.Duration) (int64, error) {
	cutoff := g.now().Add(-window)
	return g.attempts.CountFailuresSince(ctx, normalizeEmail(email), cutoff)
}

// IsLocked reports whether email has reached the configured failure
// threshold inside the lockout window.
func (g *LoginAttemptGuard) IsLocked(ctx context.Context, email string) (bool, error) {
	count, err := g.RecentFailureCount(ctx, email, g.window)
	if err != nil {
		return false, err
	}
	return count >= int64(g.maxAttempts), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
