package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"platform/internal/models"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateKey is returned when a unique index rejects a write. The
	// storage-level index is the source of truth for uniqueness; service
	// pre-checks only exist for better error messages.
	ErrDuplicateKey = errors.New("duplicate key")
)

// AccountRepository persists account aggregates. Profile and addresses are
// embedded and always written through the parent account.
type AccountRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Account, error)
	FindByReferralCode(ctx context.Context, code string) (*models.Account, error)
	FindByResetToken(ctx context.Context, token string) (*models.Account, error)
	EmailOrPhoneExists(ctx context.Context, email, phone string) (emailTaken, phoneTaken bool, err error)
	Insert(ctx context.Context, account *models.Account) (primitive.ObjectID, error)
	UpdateAddresses(ctx context.Context, id primitive.ObjectID, addresses []models.Address, updatedAt time.Time) error
	SetLastLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error
	SetPasswordReset(ctx context.Context, id primitive.ObjectID, token string, expires time.Time) error
	SetEmailVerificationToken(ctx context.Context, id primitive.ObjectID, token string) error
	MarkEmailVerified(ctx context.Context, id primitive.ObjectID, at time.Time) error
	UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string, at time.Time) error
}

// SessionRepository persists device sessions keyed by their opaque session key.
type SessionRepository interface {
	Insert(ctx context.Context, session *models.Session) error
	FindByKey(ctx context.Context, key string) (*models.Session, error)
	Touch(ctx context.Context, key string, at time.Time) error
	MarkLoggedOut(ctx context.Context, key string, at time.Time) (bool, error)
	RevokeAllForAccount(ctx context.Context, accountID primitive.ObjectID, at time.Time) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// LoginAttemptRepository appends and queries the login audit trail.
type LoginAttemptRepository interface {
	Insert(ctx context.Context, attempt *models.LoginAttempt) error
	CountFailuresSince(ctx context.Context, email string, since time.Time) (int64, error)
	List(ctx context.Context, email string, page, limit int64) ([]models.LoginAttempt, int64, error)
}
