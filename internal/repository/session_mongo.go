package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"platform/internal/models"
)

const sessionCollection = "user_sessions"

type MongoSessionRepository struct {
	db *mongo.Database
}

func NewMongoSessionRepository(db *mongo.Database) *MongoSessionRepository {
	return &MongoSessionRepository{db: db}
}

func (r *MongoSessionRepository) collection() *mongo.Collection {
	return r.db.Collection(sessionCollection)
}

func (r *MongoSessionRepository) Insert(ctx context.Context, session *models.Session) error {
	res, err := r.collection().InsertOne(ctx, session)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("insert session: %w", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		session.ID = id
	}
	return nil
}

func (r *MongoSessionRepository) FindByKey(ctx context.Context, key string) (*models.Session, error) {
	var session models.Session
	if err := r.collection().FindOne(ctx, bson.M{"sessionKey": key}).Decode(&session); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	return &session, nil
}

func (r *MongoSessionRepository) Touch(ctx context.Context, key string, at time.Time) error {
	_, err := r.collection().UpdateOne(ctx, bson.M{"sessionKey": key}, bson.M{
		"$set": bson.M{"lastActivity": at},
	})
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}

// MarkLoggedOut deactivates an active session and reports whether a session
// was actually transitioned. Filtering on isActive keeps logout idempotent:
// a second call matches nothing and leaves logoutAt untouched.
func (r *MongoSessionRepository) MarkLoggedOut(ctx context.Context, key string, at time.Time) (bool, error) {
	res, err := r.collection().UpdateOne(ctx, bson.M{
		"sessionKey": key,
		"isActive":   true,
	}, bson.M{
		"$set": bson.M{"isActive": false, "logoutAt": at},
	})
	if err != nil {
		return false, fmt.Errorf("logout session: %w", err)
	}
	return res.ModifiedCount > 0, nil
}

func (r *MongoSessionRepository) RevokeAllForAccount(ctx context.Context, accountID primitive.ObjectID, at time.Time) error {
	_, err := r.collection().UpdateMany(ctx, bson.M{
		"accountId": accountID,
		"isActive":  true,
	}, bson.M{
		"$set": bson.M{"isActive": false, "logoutAt": at},
	})
	if err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	return nil
}

func (r *MongoSessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.collection().DeleteMany(ctx, bson.M{"expiresAt": bson.M{"$lte": now}})
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return res.DeletedCount, nil
}
