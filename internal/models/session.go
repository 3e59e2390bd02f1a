package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DeviceMetadata is the client context captured when a session is opened.
type DeviceMetadata struct {
	DeviceType string `bson:"deviceType,omitempty" json:"deviceType,omitempty"`
	DeviceID   string `bson:"deviceId,omitempty" json:"deviceId,omitempty"`
	IPAddress  string `bson:"ipAddress,omitempty" json:"ipAddress,omitempty"`
	UserAgent  string `bson:"userAgent,omitempty" json:"userAgent,omitempty"`
}

// Session tracks one authenticated device for an account. A session past
// ExpiresAt is invalid regardless of IsActive.
type Session struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AccountID  primitive.ObjectID `bson:"accountId" json:"accountId"`
	SessionKey string             `bson:"sessionKey" json:"-"`

	DeviceType string `bson:"deviceType,omitempty" json:"deviceType,omitempty"`
	DeviceID   string `bson:"deviceId,omitempty" json:"deviceId,omitempty"`
	IPAddress  string `bson:"ipAddress,omitempty" json:"ipAddress,omitempty"`
	UserAgent  string `bson:"userAgent,omitempty" json:"userAgent,omitempty"`

	CreatedAt    time.Time  `bson:"createdAt" json:"createdAt"`
	LastActivity time.Time  `bson:"lastActivity" json:"lastActivity"`
	ExpiresAt    time.Time  `bson:"expiresAt" json:"expiresAt"`
	IsActive     bool       `bson:"isActive" json:"isActive"`
	LogoutAt     *time.Time `bson:"logoutAt,omitempty" json:"logoutAt,omitempty"`
}

// Expired reports whether the session has passed its absolute expiry.
// A zero TTL session is expired at the instant it is created.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
