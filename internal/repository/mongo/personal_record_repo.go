package mongo

import (
	"alcyxob/workout-engine/internal/domain"
	"alcyxob/workout-engine/internal/repository"
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const personalRecordCollectionName = "personal_records"

// mongoPersonalRecordRepository implements repository.PersonalRecordRepository
type mongoPersonalRecordRepository struct {
	collection *mongo.Collection
}

func NewMongoPersonalRecordRepository(db *mongo.Database) repository.PersonalRecordRepository {
	return &mongoPersonalRecordRepository{
		collection: db.Collection(personalRecordCollectionName),
	}
}

// GetByUserID retrieves every personal record of a user.
func (r *mongoPersonalRecordRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.PersonalRecord, error) {
	records := []domain.PersonalRecord{}
	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Create inserts a new personal record. The (userId, exerciseId) unique
// index turns a second record for the same exercise into ErrConflict.
func (r *mongoPersonalRecordRepository) Create(ctx context.Context, pr *domain.PersonalRecord) (primitive.ObjectID, error) {
	if pr.UserID == primitive.NilObjectID || pr.ExerciseID == primitive.NilObjectID || !pr.Field.IsValid() {
		return primitive.NilObjectID, errors.New("personal record requires userId, exerciseId, and a valid prField")
	}
	pr.ID = primitive.NewObjectID()
	if pr.CreatedAt.IsZero() {
		pr.CreatedAt = time.Now().UTC()
	}
	pr.UpdatedAt = pr.CreatedAt

	result, err := r.collection.InsertOne(ctx, pr)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrConflict
		}
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted personal record ID")
	}
	return insertedID, nil
}

// UpdateValue raises prValue. The filter only matches while the stored
// value is lower, so a record can never go down through this call.
func (r *mongoPersonalRecordRepository) UpdateValue(ctx context.Context, id primitive.ObjectID, value float64, at time.Time) error {
	filter := bson.M{
		"_id":     id,
		"prValue": bson.M{"$lt": value},
	}
	update := bson.M{
		"$set": bson.M{
			"prValue":   value,
			"updatedAt": at,
		},
	}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrUpdateFailed
	}
	return nil
}

// EnsurePersonalRecordIndexes creates necessary indexes. Call during startup.
func EnsurePersonalRecordIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "exerciseId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Warnf("failed to create indexes for collection %s: %s", collection.Name(), err)
	}
}
