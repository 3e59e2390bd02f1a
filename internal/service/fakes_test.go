package service

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"platform/internal/models"
	"platform/internal/repository"
)

// fakeAccountRepo is an in-memory AccountRepository. referralCollisions
// forces FindByReferralCode to report that many phantom collisions, which is
// how the redraw path gets exercised.
type fakeAccountRepo struct {
	accounts           map[primitive.ObjectID]*models.Account
	referralCollisions int
	insertDuplicates   int
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[primitive.ObjectID]*models.Account)}
}

func (r *fakeAccountRepo) FindByEmail(_ context.Context, email string) (*models.Account, error) {
	for _, account := range r.accounts {
		if account.Email == email {
			return account, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeAccountRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Account, error) {
	if account, ok := r.accounts[id]; ok {
		return account, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeAccountRepo) FindByReferralCode(_ context.Context, code string) (*models.Account, error) {
	if r.referralCollisions > 0 {
		r.referralCollisions--
		return &models.Account{}, nil
	}
	for _, account := range r.accounts {
		if account.Profile.ReferralCode == code {
			return account, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeAccountRepo) FindByResetToken(_ context.Context, token string) (*models.Account, error) {
	for _, account := range r.accounts {
		if account.PasswordResetToken != "" && account.PasswordResetToken == token {
			return account, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeAccountRepo) EmailOrPhoneExists(_ context.Context, email, phone string) (bool, bool, error) {
	emailTaken, phoneTaken := false, false
	for _, account := range r.accounts {
		if account.Email == email {
			emailTaken = true
		}
		if account.Phone == phone {
			phoneTaken = true
		}
	}
	return emailTaken, phoneTaken, nil
}

func (r *fakeAccountRepo) Insert(_ context.Context, account *models.Account) (primitive.ObjectID, error) {
	if r.insertDuplicates > 0 {
		r.insertDuplicates--
		return primitive.NilObjectID, repository.ErrDuplicateKey
	}
	for _, existing := range r.accounts {
		if existing.Email == account.Email || existing.Phone == account.Phone {
			return primitive.NilObjectID, repository.ErrDuplicateKey
		}
	}
	id := primitive.NewObjectID()
	account.ID = id
	r.accounts[id] = account
	return id, nil
}

func (r *fakeAccountRepo) UpdateAddresses(_ context.Context, id primitive.ObjectID, addresses []models.Address, updatedAt time.Time) error {
	account, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.Addresses = addresses
	account.UpdatedAt = updatedAt
	return nil
}

func (r *fakeAccountRepo) SetLastLogin(_ context.Context, id primitive.ObjectID, at time.Time) error {
	account, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.LastLoginAt = &at
	account.UpdatedAt = at
	return nil
}

func (r *fakeAccountRepo) SetPasswordReset(_ context.Context, id primitive.ObjectID, token string, expires time.Time) error {
	account, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.PasswordResetToken = token
	account.PasswordResetExpires = expires
	return nil
}

func (r *fakeAccountRepo) SetEmailVerificationToken(_ context.Context, id primitive.ObjectID, token string) error {
	account, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.EmailVerificationToken = token
	return nil
}

func (r *fakeAccountRepo) MarkEmailVerified(_ context.Context, id primitive.ObjectID, at time.Time) error {
	account, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.EmailVerified = true
	account.EmailVerificationToken = ""
	account.UpdatedAt = at
	return nil
}

func (r *fakeAccountRepo) UpdatePassword(_ context.Context, id primitive.ObjectID, passwordHash string, at time.Time) error {
	account, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.PasswordHash = passwordHash
	account.PasswordResetToken = ""
	account.PasswordResetExpires = time.Time{}
	account.UpdatedAt = at
	return nil
}

// fakeSessionRepo is an in-memory SessionRepository. insertDuplicates forces
// that many unique-key rejections to exercise the session key redraw.
type fakeSessionRepo struct {
	sessions         map[string]*models.Session
	insertDuplicates int
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*models.Session)}
}

func (r *fakeSessionRepo) Insert(_ context.Context, session *models.Session) error {
	if r.insertDuplicates > 0 {
		r.insertDuplicates--
		return repository.ErrDuplicateKey
	}
	if _, exists := r.sessions[session.SessionKey]; exists {
		return repository.ErrDuplicateKey
	}
	session.ID = primitive.NewObjectID()
	r.sessions[session.SessionKey] = session
	return nil
}

func (r *fakeSessionRepo) FindByKey(_ context.Context, key string) (*models.Session, error) {
	if session, ok := r.sessions[key]; ok {
		return session, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeSessionRepo) Touch(_ context.Context, key string, at time.Time) error {
	if session, ok := r.sessions[key]; ok {
		session.LastActivity = at
	}
	return nil
}

func (r *fakeSessionRepo) MarkLoggedOut(_ context.Context, key string, at time.Time) (bool, error) {
	session, ok := r.sessions[key]
	if !ok || !session.IsActive {
		return false, nil
	}
	session.IsActive = false
	session.LogoutAt = &at
	return true, nil
}

func (r *fakeSessionRepo) RevokeAllForAccount(_ context.Context, accountID primitive.ObjectID, at time.Time) error {
	for _, session := range r.sessions {
		if session.AccountID == accountID && session.IsActive {
			session.IsActive = false
			logoutAt := at
			session.LogoutAt = &logoutAt
		}
	}
	return nil
}

func (r *fakeSessionRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	var deleted int64
	for key, session := range r.sessions {
		if session.Expired(now) {
			delete(r.sessions, key)
			deleted++
		}
	}
	return deleted, nil
}

// fakeAttemptRepo is an in-memory LoginAttemptRepository.
type fakeAttemptRepo struct {
	attempts []models.LoginAttempt
}

func (r *fakeAttemptRepo) Insert(_ context.Context, attempt *models.LoginAttempt) error {
	r.attempts = append(r.attempts, *attempt)
	return nil
}

func (r *fakeAttemptRepo) CountFailuresSince(_ context.Context, email string, since time.Time) (int64, error) {
	var count int64
	for _, attempt := range r.attempts {
		if attempt.Email == email && !attempt.Success && !attempt.AttemptedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (r *fakeAttemptRepo) List(_ context.Context, email string, page, limit int64) ([]models.LoginAttempt, int64, error) {
	matched := make([]models.LoginAttempt, 0, len(r.attempts))
	for _, attempt := range r.attempts {
		if email == "" || attempt.Email == email {
			matched = append(matched, attempt)
		}
	}
	start := (page - 1) * limit
	if start >= int64(len(matched)) {
		return []models.LoginAttempt{}, int64(len(matched)), nil
	}
	end := start + limit
	if end > int64(len(matched)) {
		end = int64(len(matched))
	}
	return matched[start:end], int64(len(matched)), nil
}
