package mongo

import (
	"alcyxob/workout-engine/internal/repository"
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

const defaultTxTimeout = 10 * time.Second

// Store bundles the MongoDB repositories and runs transactions on a client
// session. Repositories pick the session up from the context, so the same
// repository values serve both plain and transactional calls.
type Store struct {
	client    *mongo.Client
	txTimeout time.Duration

	users           repository.UserRepository
	exercises       repository.ExerciseRepository
	plans           repository.PlanRepository
	workoutLogs     repository.WorkoutLogRepository
	personalRecords repository.PersonalRecordRepository
	goals           repository.GoalRepository
}

var (
	_ repository.Store     = (*Store)(nil)
	_ repository.TxManager = (*Store)(nil)
)

func NewStore(client *mongo.Client, db *mongo.Database, txTimeout time.Duration) *Store {
	if txTimeout <= 0 {
		txTimeout = defaultTxTimeout
	}
	return &Store{
		client:          client,
		txTimeout:       txTimeout,
		users:           NewMongoUserRepository(db),
		exercises:       NewMongoExerciseRepository(db),
		plans:           NewMongoPlanRepository(db),
		workoutLogs:     NewMongoWorkoutLogRepository(db),
		personalRecords: NewMongoPersonalRecordRepository(db),
		goals:           NewMongoGoalRepository(db),
	}
}

func (s *Store) Users() repository.UserRepository                     { return s.users }
func (s *Store) Exercises() repository.ExerciseRepository             { return s.exercises }
func (s *Store) Plans() repository.PlanRepository                     { return s.plans }
func (s *Store) WorkoutLogs() repository.WorkoutLogRepository         { return s.workoutLogs }
func (s *Store) PersonalRecords() repository.PersonalRecordRepository { return s.personalRecords }
func (s *Store) Goals() repository.GoalRepository                     { return s.goals }

// WithTransaction runs fn in a multi-document transaction with snapshot
// reads and majority writes. The commit is attempted once; a failed commit
// is returned to the caller rather than retried.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(context.Background())

	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	return mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sess.StartTransaction(txnOpts); err != nil {
			return fmt.Errorf("start transaction: %w", err)
		}

		if err := fn(sc, s); err != nil {
			abortCtx, abortCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer abortCancel()
			if abortErr := sess.AbortTransaction(abortCtx); abortErr != nil {
				log.Errorf("abort transaction: %s", abortErr)
			}
			return err
		}

		if err := sess.CommitTransaction(sc); err != nil {
			return fmt.Errorf("commit transaction: %w", err)
		}
		return nil
	})
}
