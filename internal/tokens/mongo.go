package tokens

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore implements Store using a Mongo collection
type MongoStore struct {
	col *mongo.Collection
}

func NewMongoStore(col *mongo.Collection) *MongoStore {
	return &MongoStore{col: col}
}

// EnsureIndexes creates the unique index on the token string. Call once
// at startup.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "token", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create token index: %w", err)
	}
	return nil
}

func (s *MongoStore) FindByToken(ctx context.Context, token string) (*Record, error) {
	var rec Record
	if err := s.col.FindOne(ctx, bson.M{"token": token}).Decode(&rec); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (s *MongoStore) FindAllValid(ctx context.Context, subject string) ([]*Record, error) {
	cur, err := s.col.Find(ctx, bson.M{"subject": subject, "expired": false, "revoked": false})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var recs []*Record
	if err := cur.All(ctx, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

func (s *MongoStore) Save(ctx context.Context, rec *Record) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.ID == "" {
		rec.ID = primitive.NewObjectID().Hex()
	}
	if _, err := s.col.InsertOne(ctx, rec); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateToken
		}
		return err
	}
	return nil
}

func (s *MongoStore) Invalidate(ctx context.Context, token string) error {
	// matched-zero is fine: invalidation is idempotent
	_, err := s.col.UpdateOne(ctx,
		bson.M{"token": token},
		bson.M{"$set": bson.M{"expired": true, "revoked": true}},
	)
	return err
}

func (s *MongoStore) RevokeAllValid(ctx context.Context, subject string) error {
	// the filter pins the affected rows to those valid when the update
	// executes; records saved afterwards are never caught
	_, err := s.col.UpdateMany(ctx,
		bson.M{"subject": subject, "expired": false, "revoked": false},
		bson.M{"$set": bson.M{"expired": true, "revoked": true}},
	)
	return err
}
