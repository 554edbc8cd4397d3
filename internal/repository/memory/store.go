// Package memory is an in-process implementation of the repository
// interfaces. It backs local development and the service tests, and gives
// the same all-or-nothing guarantee as the MongoDB store.
package memory

import (
	"alcyxob/workout-engine/internal/domain"
	"alcyxob/workout-engine/internal/repository"
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type data struct {
	users           map[primitive.ObjectID]domain.User
	exercises       map[primitive.ObjectID]domain.Exercise
	plans           map[primitive.ObjectID]domain.Plan
	workoutLogs     map[primitive.ObjectID]domain.WorkoutLog
	personalRecords map[primitive.ObjectID]domain.PersonalRecord
	goals           map[primitive.ObjectID]domain.Goal
}

func newData() *data {
	return &data{
		users:           map[primitive.ObjectID]domain.User{},
		exercises:       map[primitive.ObjectID]domain.Exercise{},
		plans:           map[primitive.ObjectID]domain.Plan{},
		workoutLogs:     map[primitive.ObjectID]domain.WorkoutLog{},
		personalRecords: map[primitive.ObjectID]domain.PersonalRecord{},
		goals:           map[primitive.ObjectID]domain.Goal{},
	}
}

// clone copies every map. Stored values are never mutated in place, so
// copying the map entries is enough to isolate a transaction.
func (d *data) clone() *data {
	return &data{
		users:           cloneMap(d.users),
		exercises:       cloneMap(d.exercises),
		plans:           cloneMap(d.plans),
		workoutLogs:     cloneMap(d.workoutLogs),
		personalRecords: cloneMap(d.personalRecords),
		goals:           cloneMap(d.goals),
	}
}

func cloneMap[V any](m map[primitive.ObjectID]V) map[primitive.ObjectID]V {
	out := make(map[primitive.ObjectID]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

type noopLocker struct{}

func (noopLocker) Lock()   {}
func (noopLocker) Unlock() {}

// view exposes the repositories over one data set.
type view struct {
	users           *userRepository
	exercises       *exerciseRepository
	plans           *planRepository
	workoutLogs     *workoutLogRepository
	personalRecords *personalRecordRepository
	goals           *goalRepository
}

func newView(d *data, mu sync.Locker) *view {
	b := backend{data: d, mu: mu}
	return &view{
		users:           &userRepository{b},
		exercises:       &exerciseRepository{b},
		plans:           &planRepository{b},
		workoutLogs:     &workoutLogRepository{b},
		personalRecords: &personalRecordRepository{b},
		goals:           &goalRepository{b},
	}
}

func (v *view) Users() repository.UserRepository                     { return v.users }
func (v *view) Exercises() repository.ExerciseRepository             { return v.exercises }
func (v *view) Plans() repository.PlanRepository                     { return v.plans }
func (v *view) WorkoutLogs() repository.WorkoutLogRepository         { return v.workoutLogs }
func (v *view) PersonalRecords() repository.PersonalRecordRepository { return v.personalRecords }
func (v *view) Goals() repository.GoalRepository                     { return v.goals }

// Store is a mutex guarded in-memory store. Transactions run serially: the
// store lock is held for the whole of fn, writes go to a private copy and
// the copy replaces the live data on success.
type Store struct {
	mu   sync.Mutex
	data *data
	*view
}

var (
	_ repository.Store     = (*Store)(nil)
	_ repository.TxManager = (*Store)(nil)
)

func NewStore() *Store {
	s := &Store{data: newData()}
	s.view = newView(s.data, &s.mu)
	return s
}

// WithTransaction runs fn against a staged copy of the data. The tx store
// must not be used after fn returns, and fn must not call back into the
// non-transactional accessors of s.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	staged := s.data.clone()
	if err := fn(ctx, newView(staged, noopLocker{})); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	*s.data = *staged
	return nil
}
