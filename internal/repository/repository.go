package repository

import (
	"alcyxob/workout-engine/internal/domain"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

//go:generate mockgen -destination=mocks/repository_mock.go -package=mocks . UserRepository,ExerciseRepository,PlanRepository,WorkoutLogRepository,PersonalRecordRepository,GoalRepository

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrConflict     = RepositoryError("conflict")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	UpdateStreak(ctx context.Context, userID primitive.ObjectID, streak domain.Streak) error
}

// ExerciseRepository defines the interface for the exercise catalog.
type ExerciseRepository interface {
	Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error)
	// GetByIDs returns the exercises found among ids, in no particular order.
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Exercise, error)
}

// PlanRepository defines the interface for interacting with plan data.
type PlanRepository interface {
	Create(ctx context.Context, plan *domain.Plan) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Plan, error)
	GetByOwnerID(ctx context.Context, ownerID primitive.ObjectID) ([]domain.Plan, error)
}

// WorkoutLogRepository stores completed sessions. Logs are insert-only.
type WorkoutLogRepository interface {
	Create(ctx context.Context, log *domain.WorkoutLog) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutLog, error)
}

// PersonalRecordRepository stores one record per (user, exercise).
type PersonalRecordRepository interface {
	GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.PersonalRecord, error)
	// Create returns ErrConflict when a record for the same user and exercise exists.
	Create(ctx context.Context, pr *domain.PersonalRecord) (primitive.ObjectID, error)
	// UpdateValue raises the value of a record. It returns ErrUpdateFailed
	// when the stored value is not below value.
	UpdateValue(ctx context.Context, id primitive.ObjectID, value float64, at time.Time) error
}

// GoalRepository defines the interface for interacting with goal data.
type GoalRepository interface {
	Create(ctx context.Context, goal *domain.Goal) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Goal, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.Goal, error)
	GetInProgressByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.Goal, error)
	// UpdateProgress writes current value and status of an IN_PROGRESS goal.
	// It returns ErrUpdateFailed when the goal left IN_PROGRESS or the value
	// would go down.
	UpdateProgress(ctx context.Context, id primitive.ObjectID, currentValue float64, status domain.GoalStatus, at time.Time) error
	// UpdateStatus moves a goal from one status to another, ErrUpdateFailed
	// when the goal is not in from.
	UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to domain.GoalStatus, at time.Time) error
	// MarkMissed sets every IN_PROGRESS goal with a target date before cutoff to MISSED.
	MarkMissed(ctx context.Context, cutoff time.Time, at time.Time) (int64, error)
}

// Store gives access to every repository of one backend. Inside
// TxManager.WithTransaction the store is bound to the transaction.
type Store interface {
	Users() UserRepository
	Exercises() ExerciseRepository
	Plans() PlanRepository
	WorkoutLogs() WorkoutLogRepository
	PersonalRecords() PersonalRecordRepository
	Goals() GoalRepository
}

// TxManager runs fn as one atomic unit: either every write made through the
// store handed to fn is committed, or none is. A non-nil error from fn
// rolls back.
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}
