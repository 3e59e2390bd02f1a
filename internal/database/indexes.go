package database

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func EnsureAccountIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("accounts").Indexes()

	accountIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "email", Value: 1}},
			Options: options.Index().
				SetName("email_unique").
				SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "phone", Value: 1}},
			Options: options.Index().
				SetName("phone_unique").
				SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "email", Value: 1}, {Key: "phone", Value: 1}},
			Options: options.Index().
				SetName("email_phone_unique").
				SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "profile.referralCode", Value: 1}},
			Options: options.Index().
				SetName("referral_code_unique").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{
					"profile.referralCode": bson.M{
						"$exists": true,
					},
				}),
		},
		{
			Keys:    bson.D{{Key: "role", Value: 1}},
			Options: options.Index().SetName("role_index"),
		},
	}

	log.Println("EnsureAccountIndexes: creating account indexes")
	_, err := indexes.CreateMany(ctx, accountIndexes)
	if err != nil {
		log.Println("EnsureAccountIndexes: account index error:", err)
		return err
	}
	log.Println("EnsureAccountIndexes: account indexes created")
	return nil
}

func EnsureSessionIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("user_sessions").Indexes()

	sessionIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "sessionKey", Value: 1}},
			Options: options.Index().
				SetName("session_key_unique").
				SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "accountId", Value: 1}},
			Options: options.Index().SetName("accountId_index"),
		},
		{
			// TTL backstop; validation still rechecks wall-clock expiry.
			Keys: bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().
				SetName("expiresAt_ttl").
				SetExpireAfterSeconds(0),
		},
	}

	log.Println("EnsureSessionIndexes: creating session indexes")
	_, err := indexes.CreateMany(ctx, sessionIndexes)
	if err != nil {
		log.Println("EnsureSessionIndexes: session index error:", err)
		return err
	}
	log.Println("EnsureSessionIndexes: session indexes created")
	return nil
}

func EnsureLoginAttemptIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("login_attempts").Indexes()

	attemptIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}, {Key: "attemptedAt", Value: -1}},
			Options: options.Index().SetName("email_attemptedAt_index"),
		},
		{
			// Retain attempts for 30 days.
			Keys: bson.D{{Key: "attemptedAt", Value: 1}},
			Options: options.Index().
				SetName("attemptedAt_ttl").
				SetExpireAfterSeconds(86400 * 30),
		},
	}

	log.Println("EnsureLoginAttemptIndexes: creating login attempt indexes")
	_, err := indexes.CreateMany(ctx, attemptIndexes)
	if err != nil {
		log.Println("EnsureLoginAttemptIndexes: login attempt index error:", err)
		return err
	}
	log.Println("EnsureLoginAttemptIndexes: login attempt indexes created")
	return nil
}
