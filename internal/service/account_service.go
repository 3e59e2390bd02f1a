package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"platform/internal/auth"
	"platform/internal/models"
	"platform/internal/repository"
)

const (
	referralCodeLength  = 8
	referralCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	maxReferralAttempts = 10
)

// AccountService orchestrates signup, login, logout, password reset, email
// verification and the account-scoped address book. It is the only component
// the HTTP layer talks to.
type AccountService struct {
	accounts repository.AccountRepository
	sessions *SessionManager
	guard    *LoginAttemptGuard
	tokens   *auth.TokenIssuer

	accessTokenTTL time.Duration
	sessionTTL     time.Duration
	resetTokenTTL  time.Duration

	now func() time.Time
}

func NewAccountService(
	accounts repository.AccountRepository,
	sessions *SessionManager,
	guard *LoginAttemptGuard,
	tokens *auth.TokenIssuer,
	accessTokenTTL, sessionTTL, resetTokenTTL time.Duration,
) *AccountService {
	return &AccountService{
		accounts:       accounts,
		sessions:       sessions,
		guard:          guard,
		tokens:         tokens,
		accessTokenTTL: accessTokenTTL,
		sessionTTL:     sessionTTL,
		resetTokenTTL:  resetTokenTTL,
		now:            time.Now,
	}
}

type SignupInput struct {
	Email               string
	Phone               string
	Password            string
	FirstName           string
	LastName            string
	Role                models.Role
	FavoriteCuisines    []string
	DietaryRestrictions []string
	Device              models.DeviceMetadata
}

// Signup registers a new account and opens its first session. The joint
// (email, phone) unique index is the source of truth for uniqueness; the
// pre-check only produces a friendlier error before the write races.
func (s *AccountService) Signup(ctx context.Context, in SignupInput) (*models.Account, string, error) {
	email := normalizeEmail(in.Email)
	phone := strings.TrimSpace(in.Phone)

	if err := auth.ValidatePasswordStrength(in.Password); err != nil {
		return nil, "", err
	}

	role := in.Role
	if role == "" {
		role = models.RoleCustomer
	}
	if !role.Valid() {
		return nil, "", fmt.Errorf("invalid role %q", in.Role)
	}

	emailTaken, phoneTaken, err := s.accounts.EmailOrPhoneExists(ctx, email, phone)
	if err != nil {
		return nil, "", err
	}
	if emailTaken {
		return nil, "", ErrDuplicateEmail
	}
	if phoneTaken {
		return nil, "", ErrDuplicatePhone
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	account := &models.Account{
		Email:        email,
		Phone:        phone,
		PasswordHash: hash,
		Role:         role,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		IsActive:     true,
		Profile: models.Profile{
			FavoriteCuisines:    in.FavoriteCuisines,
			DietaryRestrictions: in.DietaryRestrictions,
			PushNotifications:   true,
			EmailNotifications:  true,
			SMSNotifications:    true,
			CreatedAt:           now,
			UpdatedAt:           now,
		},
		Addresses: []models.Address{},
		JoinedAt:  now,
	}

	if err := s.applyPreSave(ctx, account); err != nil {
		return nil, "", err
	}

	id, err := s.accounts.Insert(ctx, account)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			// Lost a race to the unique index; re-check to name the field.
			emailTaken, _, checkErr := s.accounts.EmailOrPhoneExists(ctx, email, phone)
			if checkErr == nil && !emailTaken {
				return nil, "", ErrDuplicatePhone
			}
			return nil, "", ErrDuplicateEmail
		}
		return nil, "", err
	}
	account.ID = id

	token, err := s.openSession(ctx, account, in.Device)
	if err != nil {
		return nil, "", err
	}

	log.Println("[ACCOUNT] [INFO] account registered:", email)
	return account, token, nil
}

// Login authenticates by email. The lockout guard is consulted before the
// password is touched so a locked account cannot be probed, and the blocked
// attempt is still recorded for the audit trail.
func (s *AccountService) Login(ctx context.Context, identifier, password, ip string, meta models.DeviceMetadata) (*models.Account, string, error) {
	email := normalizeEmail(identifier)

	locked, err := s.guard.IsLocked(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if locked {
		if err := s.guard.Record(ctx, email, ip, false, ReasonAccountLocked, meta); err != nil {
			log.Println("[AUTH] [ERROR] recording blocked attempt failed:", err)
		}
		return nil, "", ErrAccountLocked
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.recordFailure(ctx, email, ip, ReasonUnknownEmail, meta)
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if !account.IsActive {
		s.recordFailure(ctx, email, ip, ReasonAccountInactive, meta)
		return nil, "", ErrInvalidCredentials
	}

	if !auth.CheckPassword(password, account.PasswordHash) {
		s.recordFailure(ctx, email, ip, ReasonInvalidPassword, meta)
		return nil, "", ErrInvalidCredentials
	}

	if err := s.guard.Record(ctx, email, ip, true, "", meta); err != nil {
		log.Println("[AUTH] [ERROR] recording successful attempt failed:", err)
	}

	now := s.now()
	if err := s.accounts.SetLastLogin(ctx, account.ID, now); err != nil {
		return nil, "", err
	}
	account.LastLoginAt = &now

	if meta.IPAddress == "" {
		meta.IPAddress = ip
	}
	token, err := s.openSession(ctx, account, meta)
	if err != nil {
		return nil, "", err
	}

	log.Println("[AUTH] [INFO] login succeeded:", email)
	return account, token, nil
}

// Logout closes the session behind a bearer token. Idempotent.
func (s *AccountService) Logout(ctx context.Context, sessionKey string) error {
	return s.sessions.Logout(ctx, sessionKey)
}

func (s *AccountService) GetAccount(ctx context.Context, id primitive.ObjectID) (*models.Account, error) {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return account, nil
}

// RequestPasswordReset stores a one-shot reset token on the account and
// returns it for the mail collaborator to deliver. An unknown email returns
// ("", nil): the caller cannot tell registered and unregistered addresses
// apart, and simply has nothing to send.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	account, err := s.accounts.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil
		}
		return "", err
	}

	token, err := auth.GenerateOpaqueToken()
	if err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}

	if err := s.accounts.SetPasswordReset(ctx, account.ID, token, s.now().Add(s.resetTokenTTL)); err != nil {
		return "", err
	}

	log.Println("[ACCOUNT] [INFO] password reset requested:", account.Email)
	return token, nil
}

// ConfirmPasswordReset consumes a reset token: the new hash is stored, the
// token cleared and every open session revoked in the same pass.
func (s *AccountService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if err := auth.ValidatePasswordStrength(newPassword); err != nil {
		return err
	}

	account, err := s.accounts.FindByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return auth.ErrTokenInvalid
		}
		return err
	}
	if s.now().After(account.PasswordResetExpires) {
		return auth.ErrTokenExpired
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.accounts.UpdatePassword(ctx, account.ID, hash, s.now()); err != nil {
		return err
	}
	if err := s.sessions.RevokeAll(ctx, account.ID); err != nil {
		log.Println("[ACCOUNT] [ERROR] revoking sessions after reset failed:", err)
	}

	log.Println("[ACCOUNT] [INFO] password reset completed:", account.Email)
	return nil
}

// RequestEmailVerification issues and stores a one-shot verification token.
func (s *AccountService) RequestEmailVerification(ctx context.Context, accountID primitive.ObjectID) (string, error) {
	account, err := s.GetAccount(ctx, accountID)
	if err != nil {
		return "", err
	}

	token, err := auth.GenerateOpaqueToken()
	if err != nil {
		return "", fmt.Errorf("generate verification token: %w", err)
	}
	if err := s.accounts.SetEmailVerificationToken(ctx, account.ID, token); err != nil {
		return "", err
	}
	return token, nil
}

// VerifyEmail marks the address verified iff token matches the stored one.
// A mismatch mutates nothing and reports false without error.
func (s *AccountService) VerifyEmail(ctx context.Context, accountID primitive.ObjectID, token string) (bool, error) {
	account, err := s.GetAccount(ctx, accountID)
	if err != nil {
		return false, err
	}

	stored := account.EmailVerificationToken
	if stored == "" || token == "" {
		return false, nil
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(token)) != 1 {
		return false, nil
	}

	if err := s.accounts.MarkEmailVerified(ctx, account.ID, s.now()); err != nil {
		return false, err
	}
	log.Println("[ACCOUNT] [INFO] email verified:", account.Email)
	return true, nil
}

type AddressInput struct {
	Type            models.AddressType
	Label           string
	StreetAddress   string
	ApartmentNumber string
	Landmark        string
	City            string
	State           string
	PostalCode      string
	Country         string
	Location        *models.GeoPoint
	IsDefault       bool
}

// AddAddress appends an address and rewrites the whole list in one update so
// only one default is ever visible. The first address is always default.
func (s *AccountService) AddAddress(ctx context.Context, accountID primitive.ObjectID, in AddressInput) (*models.Address, error) {
	account, err := s.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if !in.Type.Valid() {
		return nil, fmt.Errorf("invalid address type %q", in.Type)
	}

	now := s.now()
	address := models.Address{
		ID:              uuid.NewString(),
		Type:            in.Type,
		Label:           strings.TrimSpace(in.Label),
		StreetAddress:   strings.TrimSpace(in.StreetAddress),
		ApartmentNumber: strings.TrimSpace(in.ApartmentNumber),
		Landmark:        strings.TrimSpace(in.Landmark),
		City:            strings.TrimSpace(in.City),
		State:           strings.TrimSpace(in.State),
		PostalCode:      strings.TrimSpace(in.PostalCode),
		Country:         strings.TrimSpace(in.Country),
		Location:        in.Location,
		IsDefault:       in.IsDefault,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if address.Country == "" {
		address.Country = "India"
	}

	if len(account.Addresses) == 0 {
		address.IsDefault = true
	} else if address.IsDefault {
		for i := range account.Addresses {
			account.Addresses[i].IsDefault = false
		}
	}

	account.Addresses = append(account.Addresses, address)
	if err := s.accounts.UpdateAddresses(ctx, account.ID, account.Addresses, now); err != nil {
		return nil, err
	}

	log.Println("[ADDRESS] [INFO] address added:", address.ID)
	return &address, nil
}

// UpdateAddress mutates one embedded address through the same atomic
// whole-list rewrite as AddAddress.
func (s *AccountService) UpdateAddress(ctx context.Context, accountID primitive.ObjectID, addressID string, in AddressInput) (*models.Address, error) {
	account, err := s.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	index := -1
	for i := range account.Addresses {
		if account.Addresses[i].ID == addressID {
			index = i
			break
		}
	}
	if index == -1 {
		return nil, ErrAddressNotFound
	}

	if !in.Type.Valid() {
		return nil, fmt.Errorf("invalid address type %q", in.Type)
	}

	if in.IsDefault {
		for i := range account.Addresses {
			account.Addresses[i].IsDefault = false
		}
	}

	now := s.now()
	addr := &account.Addresses[index]
	addr.Type = in.Type
	addr.Label = strings.TrimSpace(in.Label)
	addr.StreetAddress = strings.TrimSpace(in.StreetAddress)
	addr.ApartmentNumber = strings.TrimSpace(in.ApartmentNumber)
	addr.Landmark = strings.TrimSpace(in.Landmark)
	addr.City = strings.TrimSpace(in.City)
	addr.State = strings.TrimSpace(in.State)
	addr.PostalCode = strings.TrimSpace(in.PostalCode)
	addr.Country = strings.TrimSpace(in.Country)
	addr.Location = in.Location
	addr.IsDefault = in.IsDefault
	addr.UpdatedAt = now

	ensureSingleDefault(account.Addresses)

	if err := s.accounts.UpdateAddresses(ctx, account.ID, account.Addresses, now); err != nil {
		return nil, err
	}
	return &account.Addresses[index], nil
}

// RemoveAddress deletes an embedded address. When the default is removed the
// first remaining address is promoted so the invariant stays closed.
func (s *AccountService) RemoveAddress(ctx context.Context, accountID primitive.ObjectID, addressID string) error {
	account, err := s.GetAccount(ctx, accountID)
	if err != nil {
		return err
	}

	remaining := make([]models.Address, 0, len(account.Addresses))
	found := false
	for _, addr := range account.Addresses {
		if addr.ID == addressID {
			found = true
			continue
		}
		remaining = append(remaining, addr)
	}
	if !found {
		return ErrAddressNotFound
	}

	ensureSingleDefault(remaining)
	return s.accounts.UpdateAddresses(ctx, account.ID, remaining, s.now())
}

// DefaultAddress resolves the default per the fallback chain: flagged
// default, else the first address, else nil.
func (s *AccountService) DefaultAddress(ctx context.Context, accountID primitive.ObjectID) (*models.Address, error) {
	account, err := s.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return account.DefaultAddress(), nil
}

// ensureSingleDefault repairs the address list so that exactly one entry is
// default whenever the list is non-empty, preferring the first flagged one.
func ensureSingleDefault(addresses []models.Address) {
	seen := false
	for i := range addresses {
		if addresses[i].IsDefault {
			if seen {
				addresses[i].IsDefault = false
			}
			seen = true
		}
	}
	if !seen && len(addresses) > 0 {
		addresses[0].IsDefault = true
	}
}

// applyPreSave runs the hooks the persistence layer expects before every
// insert: normalized email, fresh updatedAt and a referral code for
// customers. Referral codes are assigned exactly once.
func (s *AccountService) applyPreSave(ctx context.Context, account *models.Account) error {
	account.Email = normalizeEmail(account.Email)
	account.UpdatedAt = s.now()

	if account.IsCustomer() && account.Profile.ReferralCode == "" {
		code, err := s.generateReferralCode(ctx)
		if err != nil {
			return err
		}
		account.Profile.ReferralCode = code
	}
	return nil
}

// generateReferralCode draws 8-character uppercase alphanumeric codes until
// one is free of collisions, bounded to keep a broken RNG from spinning.
func (s *AccountService) generateReferralCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxReferralAttempts; attempt++ {
		code, err := randomReferralCode()
		if err != nil {
			return "", err
		}

		_, err = s.accounts.FindByReferralCode(ctx, code)
		if errors.Is(err, repository.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("referral code collision persisted after %d attempts", maxReferralAttempts)
}

func randomReferralCode() (string, error) {
	buf := make([]byte, referralCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = referralCodeCharset[int(b)%len(referralCodeCharset)]
	}
	return string(buf), nil
}

func (s *AccountService) openSession(ctx context.Context, account *models.Account, meta models.DeviceMetadata) (string, error) {
	session, err := s.sessions.Create(ctx, account.ID, meta, s.sessionTTL)
	if err != nil {
		return "", err
	}
	return s.tokens.IssueSession(account.ID.Hex(), session.SessionKey, string(account.Role), s.accessTokenTTL)
}

func (s *AccountService) recordFailure(ctx context.Context, email, ip, reason string, meta models.DeviceMetadata) {
	if err := s.guard.Record(ctx, email, ip, false, reason, meta); err != nil {
		log.Println("[AUTH] [ERROR] recording failed attempt failed:", err)
	}
}
