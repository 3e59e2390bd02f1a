package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LoginAttempt is an append-only audit record of one authentication attempt.
// Records are never mutated; a 30-day TTL index prunes old ones.
type LoginAttempt struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email         string             `bson:"email" json:"email"`
	IPAddress     string             `bson:"ipAddress" json:"ipAddress"`
	Success       bool               `bson:"success" json:"success"`
	UserAgent     string             `bson:"userAgent,omitempty" json:"userAgent,omitempty"`
	DeviceType    string             `bson:"deviceType,omitempty" json:"deviceType,omitempty"`
	FailureReason string             `bson:"failureReason,omitempty" json:"failureReason,omitempty"`
	AttemptedAt   time.Time          `bson:"attemptedAt" json:"attemptedAt"`
}
