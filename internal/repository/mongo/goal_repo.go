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

const goalCollectionName = "goals"

// mongoGoalRepository implements repository.GoalRepository
type mongoGoalRepository struct {
	collection *mongo.Collection
}

func NewMongoGoalRepository(db *mongo.Database) repository.GoalRepository {
	return &mongoGoalRepository{
		collection: db.Collection(goalCollectionName),
	}
}

// Create inserts a new goal. Status defaults to IN_PROGRESS.
func (r *mongoGoalRepository) Create(ctx context.Context, goal *domain.Goal) (primitive.ObjectID, error) {
	if goal.UserID == primitive.NilObjectID || goal.TargetExerciseID == primitive.NilObjectID || !goal.TargetField.IsValid() {
		return primitive.NilObjectID, errors.New("goal requires userId, targetExerciseId, and a valid targetField")
	}
	goal.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	goal.CreatedAt = now
	goal.UpdatedAt = now
	if goal.Status == "" {
		goal.Status = domain.GoalInProgress
	}

	result, err := r.collection.InsertOne(ctx, goal)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted goal ID")
	}
	return insertedID, nil
}

// GetByID retrieves a goal by its ID.
func (r *mongoGoalRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Goal, error) {
	var goal domain.Goal
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&goal)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &goal, nil
}

// GetByUserID retrieves all goals of a user, nearest target date first.
func (r *mongoGoalRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.Goal, error) {
	return r.find(ctx, bson.M{"userId": userID})
}

// GetInProgressByUserID retrieves the goals of a user that are still IN_PROGRESS.
func (r *mongoGoalRepository) GetInProgressByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.Goal, error) {
	return r.find(ctx, bson.M{"userId": userID, "status": domain.GoalInProgress})
}

// UpdateProgress sets current value and status. Only IN_PROGRESS goals
// whose current value is not higher are matched.
func (r *mongoGoalRepository) UpdateProgress(ctx context.Context, id primitive.ObjectID, currentValue float64, status domain.GoalStatus, at time.Time) error {
	filter := bson.M{
		"_id":          id,
		"status":       domain.GoalInProgress,
		"currentValue": bson.M{"$lte": currentValue},
	}
	update := bson.M{
		"$set": bson.M{
			"currentValue": currentValue,
			"status":       status,
			"updatedAt":    at,
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

// UpdateStatus moves a goal from one status to another.
func (r *mongoGoalRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to domain.GoalStatus, at time.Time) error {
	filter := bson.M{"_id": id, "status": from}
	update := bson.M{"$set": bson.M{"status": to, "updatedAt": at}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrUpdateFailed
	}
	return nil
}

// MarkMissed flags overdue IN_PROGRESS goals as MISSED.
func (r *mongoGoalRepository) MarkMissed(ctx context.Context, cutoff time.Time, at time.Time) (int64, error) {
	filter := bson.M{
		"status":     domain.GoalInProgress,
		"targetDate": bson.M{"$lt": cutoff},
	}
	update := bson.M{"$set": bson.M{"status": domain.GoalMissed, "updatedAt": at}}

	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

func (r *mongoGoalRepository) find(ctx context.Context, filter bson.M) ([]domain.Goal, error) {
	goals := []domain.Goal{}
	findOptions := options.Find().SetSort(bson.D{{Key: "targetDate", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &goals); err != nil {
		return nil, err
	}
	return goals, nil
}

// EnsureGoalIndexes creates necessary indexes. Call during startup.
func EnsureGoalIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "targetDate", Value: 1}},
			Options: options.Index(),
		},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Warnf("failed to create indexes for collection %s: %s", collection.Name(), err)
	}
}
