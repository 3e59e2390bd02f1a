package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"platform/internal/models"
)

const attemptCollection = "login_attempts"

type MongoLoginAttemptRepository struct {
	db *mongo.Database
}

func NewMongoLoginAttemptRepository(db *mongo.Database) *MongoLoginAttemptRepository {
	return &MongoLoginAttemptRepository{db: db}
}

func (r *MongoLoginAttemptRepository) collection() *mongo.Collection {
	return r.db.Collection(attemptCollection)
}

func (r *MongoLoginAttemptRepository) Insert(ctx context.Context, attempt *models.LoginAttempt) error {
	if _, err := r.collection().InsertOne(ctx, attempt); err != nil {
		return fmt.Errorf("insert login attempt: %w", err)
	}
	return nil
}

func (r *MongoLoginAttemptRepository) CountFailuresSince(ctx context.Context, email string, since time.Time) (int64, error) {
	count, err := r.collection().CountDocuments(ctx, bson.M{
		"email":       email,
		"success":     false,
		"attemptedAt": bson.M{"$gte": since},
	})
	if err != nil {
		return 0, fmt.Errorf("count login failures: %w", err)
	}
	return count, nil
}

// List returns a page of attempts newest first, optionally filtered by email,
// along with the total match count.
func (r *MongoLoginAttemptRepository) List(ctx context.Context, email string, page, limit int64) ([]models.LoginAttempt, int64, error) {
	filter := bson.M{}
	if email != "" {
		filter["email"] = email
	}

	total, err := r.collection().CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count login attempts: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "attemptedAt", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cursor, err := r.collection().Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list login attempts: %w", err)
	}
	defer cursor.Close(ctx)

	attempts := make([]models.LoginAttempt, 0, limit)
	if err := cursor.All(ctx, &attempts); err != nil {
		return nil, 0, fmt.Errorf("decode login attempts: %w", err)
	}
	return attempts, total, nil
}
