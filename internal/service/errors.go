package service

import "errors"

// Sentinel errors returned to the HTTP layer. Persistence failures are
// wrapped before they cross this boundary; raw driver errors never escape.
var (
	// ErrInvalidCredentials deliberately covers unknown email, wrong
	// password and inactive accounts so callers cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("too many failed login attempts")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrDuplicatePhone     = errors.New("phone number already registered")
	ErrAccountNotFound    = errors.New("account not found")
	ErrAddressNotFound    = errors.New("address not found")

	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	ErrSessionRevoked  = errors.New("session revoked")
)
