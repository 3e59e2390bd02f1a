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

const accountCollection = "accounts"

type MongoAccountRepository struct {
	db *mongo.Database
}

func NewMongoAccountRepository(db *mongo.Database) *MongoAccountRepository {
	return &MongoAccountRepository{db: db}
}

func (r *MongoAccountRepository) collection() *mongo.Collection {
	return r.db.Collection(accountCollection)
}

func (r *MongoAccountRepository) findOne(ctx context.Context, filter bson.M) (*models.Account, error) {
	var account models.Account
	if err := r.collection().FindOne(ctx, filter).Decode(&account); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return &account, nil
}

func (r *MongoAccountRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoAccountRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Account, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoAccountRepository) FindByReferralCode(ctx context.Context, code string) (*models.Account, error) {
	return r.findOne(ctx, bson.M{"profile.referralCode": code})
}

func (r *MongoAccountRepository) FindByResetToken(ctx context.Context, token string) (*models.Account, error) {
	return r.findOne(ctx, bson.M{"passwordResetToken": token})
}

func (r *MongoAccountRepository) EmailOrPhoneExists(ctx context.Context, email, phone string) (bool, bool, error) {
	emailCount, err := r.collection().CountDocuments(ctx, bson.M{"email": email})
	if err != nil {
		return false, false, fmt.Errorf("count by email: %w", err)
	}
	phoneCount, err := r.collection().CountDocuments(ctx, bson.M{"phone": phone})
	if err != nil {
		return false, false, fmt.Errorf("count by phone: %w", err)
	}
	return emailCount > 0, phoneCount > 0, nil
}

func (r *MongoAccountRepository) Insert(ctx context.Context, account *models.Account) (primitive.ObjectID, error) {
	res, err := r.collection().InsertOne(ctx, account)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, ErrDuplicateKey
		}
		return primitive.NilObjectID, fmt.Errorf("insert account: %w", err)
	}
	id, _ := res.InsertedID.(primitive.ObjectID)
	return id, nil
}

func (r *MongoAccountRepository) updateByID(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	res, err := r.collection().UpdateByID(ctx, id, update)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateAddresses replaces the whole embedded address list in one write so
// the single-default invariant is never partially visible.
func (r *MongoAccountRepository) UpdateAddresses(ctx context.Context, id primitive.ObjectID, addresses []models.Address, updatedAt time.Time) error {
	return r.updateByID(ctx, id, bson.M{
		"$set": bson.M{
			"addresses": addresses,
			"updatedAt": updatedAt,
		},
	})
}

func (r *MongoAccountRepository) SetLastLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	return r.updateByID(ctx, id, bson.M{
		"$set": bson.M{
			"lastLoginAt": at,
			"updatedAt":   at,
		},
	})
}

func (r *MongoAccountRepository) SetPasswordReset(ctx context.Context, id primitive.ObjectID, token string, expires time.Time) error {
	return r.updateByID(ctx, id, bson.M{
		"$set": bson.M{
			"passwordResetToken":   token,
			"passwordResetExpires": expires,
			"updatedAt":            time.Now(),
		},
	})
}

func (r *MongoAccountRepository) SetEmailVerificationToken(ctx context.Context, id primitive.ObjectID, token string) error {
	return r.updateByID(ctx, id, bson.M{
		"$set": bson.M{
			"emailVerificationToken": token,
			"updatedAt":              time.Now(),
		},
	})
}

func (r *MongoAccountRepository) MarkEmailVerified(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	return r.updateByID(ctx, id, bson.M{
		"$set":   bson.M{"emailVerified": true, "updatedAt": at},
		"$unset": bson.M{"emailVerificationToken": ""},
	})
}

func (r *MongoAccountRepository) UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string, at time.Time) error {
	return r.updateByID(ctx, id, bson.M{
		"$set":   bson.M{"passwordHash": passwordHash, "updatedAt": at},
		"$unset": bson.M{"passwordResetToken": "", "passwordResetExpires": ""},
	})
}
