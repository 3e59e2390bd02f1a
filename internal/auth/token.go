package auth

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type TokenPurpose string

const (
	PurposeSession       TokenPurpose = "session"
	PurposePasswordReset TokenPurpose = "password_reset"
	PurposeEmailVerify   TokenPurpose = "email_verify"
)

var (
	ErrMissingSecret = errors.New("signing secret is not configured")
	ErrTokenInvalid  = errors.New("invalid token")
	ErrTokenExpired  = errors.New("token expired")
)

// Claims are the signed claims carried by every issued token. SessionKey is
// set only for session-purpose tokens.
type Claims struct {
	Purpose    TokenPurpose `json:"purpose"`
	SessionKey string       `json:"sid,omitempty"`
	Role       string       `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies bearer tokens with a process-wide HS256
// secret. It is stateless; one-shot consumption of reset and verification
// tokens is tracked by the account service against the account record.
type TokenIssuer struct {
	secret []byte
}

func NewTokenIssuer(secret string) (*TokenIssuer, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	return &TokenIssuer{secret: []byte(secret)}, nil
}

// Issue creates a signed token for subjectID expiring after ttl.
func (ti *TokenIssuer) Issue(subjectID string, purpose TokenPurpose, ttl time.Duration) (string, error) {
	return ti.sign(&Claims{Purpose: purpose}, subjectID, ttl)
}

// IssueSession creates a session-purpose token bound to a session key, with
// the account role as a claim for role-gated routes.
func (ti *TokenIssuer) IssueSession(subjectID, sessionKey, role string, ttl time.Duration) (string, error) {
	return ti.sign(&Claims{
		Purpose:    PurposeSession,
		SessionKey: sessionKey,
		Role:       role,
	}, subjectID, ttl)
}

func (ti *TokenIssuer) sign(claims *Claims, subjectID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   subjectID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ti.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature before trusting any claim, then expiry.
// Expired and tampered tokens are distinct failures so callers can message
// them differently.
func (ti *TokenIssuer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ti.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid || claims.Subject == "" || claims.Purpose == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// GenerateOpaqueToken returns a URL-safe random token for one-shot flows
// (password reset, email verification). The value is stored on the account
// and cleared on successful use.
func GenerateOpaqueToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// GenerateSessionKey returns a 40-character hex session key.
func GenerateSessionKey() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
