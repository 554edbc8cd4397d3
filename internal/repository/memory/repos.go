package memory

import (
	"alcyxob/workout-engine/internal/domain"
	"alcyxob/workout-engine/internal/repository"
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type backend struct {
	data *data
	mu   sync.Locker
}

func (b backend) lock() func() {
	b.mu.Lock()
	return b.mu.Unlock
}

type userRepository struct{ backend }

func (r *userRepository) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	if user.Email == "" || user.PasswordHash == "" || user.Role == "" {
		return primitive.NilObjectID, errors.New("user email, password hash, and role are required")
	}
	defer r.lock()()

	for _, u := range r.data.users {
		if strings.EqualFold(u.Email, user.Email) {
			return primitive.NilObjectID, repository.ErrConflict
		}
	}
	user.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.data.users[user.ID] = *user
	return user.ID, nil
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	defer r.lock()()
	for _, u := range r.data.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	defer r.lock()()
	u, ok := r.data.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *userRepository) UpdateStreak(_ context.Context, userID primitive.ObjectID, streak domain.Streak) error {
	defer r.lock()()
	u, ok := r.data.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.Streak = streak
	u.UpdatedAt = time.Now().UTC()
	r.data.users[userID] = u
	return nil
}

type exerciseRepository struct{ backend }

func (r *exerciseRepository) Create(_ context.Context, exercise *domain.Exercise) (primitive.ObjectID, error) {
	if exercise.Name == "" || !exercise.Category.IsValid() {
		return primitive.NilObjectID, errors.New("exercise name and a valid category are required")
	}
	defer r.lock()()

	exercise.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	exercise.CreatedAt = now
	exercise.UpdatedAt = now
	r.data.exercises[exercise.ID] = *exercise
	return exercise.ID, nil
}

func (r *exerciseRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	defer r.lock()()
	e, ok := r.data.exercises[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (r *exerciseRepository) GetByIDs(_ context.Context, ids []primitive.ObjectID) ([]domain.Exercise, error) {
	defer r.lock()()
	exercises := []domain.Exercise{}
	seen := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if e, ok := r.data.exercises[id]; ok {
			exercises = append(exercises, e)
		}
	}
	return exercises, nil
}

type planRepository struct{ backend }

func (r *planRepository) Create(_ context.Context, plan *domain.Plan) (primitive.ObjectID, error) {
	if plan.OwnerID == primitive.NilObjectID || plan.Name == "" {
		return primitive.NilObjectID, errors.New("plan requires ownerId and name")
	}
	defer r.lock()()

	plan.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now
	stored := *plan
	stored.Exercises = copyPlanExercises(plan.Exercises)
	r.data.plans[plan.ID] = stored
	return plan.ID, nil
}

func (r *planRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Plan, error) {
	defer r.lock()()
	p, ok := r.data.plans[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	p.Exercises = copyPlanExercises(p.Exercises)
	return &p, nil
}

func (r *planRepository) GetByOwnerID(_ context.Context, ownerID primitive.ObjectID) ([]domain.Plan, error) {
	defer r.lock()()
	plans := []domain.Plan{}
	for _, p := range r.data.plans {
		if p.OwnerID == ownerID {
			p.Exercises = copyPlanExercises(p.Exercises)
			plans = append(plans, p)
		}
	}
	slices.SortFunc(plans, func(a, b domain.Plan) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return plans, nil
}

// copyPlanExercises drops the hydrated catalog pointer, which is not stored.
func copyPlanExercises(in []domain.PlanExercise) []domain.PlanExercise {
	out := make([]domain.PlanExercise, len(in))
	copy(out, in)
	for i := range out {
		out[i].Exercise = nil
	}
	return out
}

type workoutLogRepository struct{ backend }

func (r *workoutLogRepository) Create(_ context.Context, workoutLog *domain.WorkoutLog) (primitive.ObjectID, error) {
	if workoutLog.UserID == primitive.NilObjectID || workoutLog.PlanID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("workout log requires userId and planId")
	}
	defer r.lock()()

	workoutLog.ID = primitive.NewObjectID()
	if workoutLog.CreatedAt.IsZero() {
		workoutLog.CreatedAt = time.Now().UTC()
	}
	stored := *workoutLog
	stored.Exercises = slices.Clone(workoutLog.Exercises)
	if stored.Exercises == nil {
		stored.Exercises = []domain.ExerciseLog{}
	}
	r.data.workoutLogs[workoutLog.ID] = stored
	return workoutLog.ID, nil
}

func (r *workoutLogRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.WorkoutLog, error) {
	defer r.lock()()
	l, ok := r.data.workoutLogs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	l.Exercises = slices.Clone(l.Exercises)
	return &l, nil
}

type personalRecordRepository struct{ backend }

func (r *personalRecordRepository) GetByUserID(_ context.Context, userID primitive.ObjectID) ([]domain.PersonalRecord, error) {
	defer r.lock()()
	records := []domain.PersonalRecord{}
	for _, pr := range r.data.personalRecords {
		if pr.UserID == userID {
			records = append(records, pr)
		}
	}
	slices.SortFunc(records, func(a, b domain.PersonalRecord) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return records, nil
}

func (r *personalRecordRepository) Create(_ context.Context, pr *domain.PersonalRecord) (primitive.ObjectID, error) {
	if pr.UserID == primitive.NilObjectID || pr.ExerciseID == primitive.NilObjectID || !pr.Field.IsValid() {
		return primitive.NilObjectID, errors.New("personal record requires userId, exerciseId, and a valid prField")
	}
	defer r.lock()()

	for _, existing := range r.data.personalRecords {
		if existing.UserID == pr.UserID && existing.ExerciseID == pr.ExerciseID {
			return primitive.NilObjectID, repository.ErrConflict
		}
	}
	pr.ID = primitive.NewObjectID()
	if pr.CreatedAt.IsZero() {
		pr.CreatedAt = time.Now().UTC()
	}
	pr.UpdatedAt = pr.CreatedAt
	r.data.personalRecords[pr.ID] = *pr
	return pr.ID, nil
}

func (r *personalRecordRepository) UpdateValue(_ context.Context, id primitive.ObjectID, value float64, at time.Time) error {
	defer r.lock()()
	pr, ok := r.data.personalRecords[id]
	if !ok || pr.Value >= value {
		return repository.ErrUpdateFailed
	}
	pr.Value = value
	pr.UpdatedAt = at
	r.data.personalRecords[id] = pr
	return nil
}

type goalRepository struct{ backend }

func (r *goalRepository) Create(_ context.Context, goal *domain.Goal) (primitive.ObjectID, error) {
	if goal.UserID == primitive.NilObjectID || goal.TargetExerciseID == primitive.NilObjectID || !goal.TargetField.IsValid() {
		return primitive.NilObjectID, errors.New("goal requires userId, targetExerciseId, and a valid targetField")
	}
	defer r.lock()()

	goal.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	goal.CreatedAt = now
	goal.UpdatedAt = now
	if goal.Status == "" {
		goal.Status = domain.GoalInProgress
	}
	r.data.goals[goal.ID] = *goal
	return goal.ID, nil
}

func (r *goalRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Goal, error) {
	defer r.lock()()
	g, ok := r.data.goals[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &g, nil
}

func (r *goalRepository) GetByUserID(_ context.Context, userID primitive.ObjectID) ([]domain.Goal, error) {
	return r.find(func(g domain.Goal) bool { return g.UserID == userID }), nil
}

func (r *goalRepository) GetInProgressByUserID(_ context.Context, userID primitive.ObjectID) ([]domain.Goal, error) {
	return r.find(func(g domain.Goal) bool {
		return g.UserID == userID && g.Status == domain.GoalInProgress
	}), nil
}

func (r *goalRepository) UpdateProgress(_ context.Context, id primitive.ObjectID, currentValue float64, status domain.GoalStatus, at time.Time) error {
	defer r.lock()()
	g, ok := r.data.goals[id]
	if !ok || g.Status != domain.GoalInProgress || g.CurrentValue > currentValue {
		return repository.ErrUpdateFailed
	}
	g.CurrentValue = currentValue
	g.Status = status
	g.UpdatedAt = at
	r.data.goals[id] = g
	return nil
}

func (r *goalRepository) UpdateStatus(_ context.Context, id primitive.ObjectID, from, to domain.GoalStatus, at time.Time) error {
	defer r.lock()()
	g, ok := r.data.goals[id]
	if !ok || g.Status != from {
		return repository.ErrUpdateFailed
	}
	g.Status = to
	g.UpdatedAt = at
	r.data.goals[id] = g
	return nil
}

func (r *goalRepository) MarkMissed(_ context.Context, cutoff time.Time, at time.Time) (int64, error) {
	defer r.lock()()
	var n int64
	for id, g := range r.data.goals {
		if g.Status == domain.GoalInProgress && g.TargetDate.Before(cutoff) {
			g.Status = domain.GoalMissed
			g.UpdatedAt = at
			r.data.goals[id] = g
			n++
		}
	}
	return n, nil
}

func (r *goalRepository) find(match func(domain.Goal) bool) []domain.Goal {
	defer r.lock()()
	goals := []domain.Goal{}
	for _, g := range r.data.goals {
		if match(g) {
			goals = append(goals, g)
		}
	}
	slices.SortFunc(goals, func(a, b domain.Goal) int { return a.TargetDate.Compare(b.TargetDate) })
	return goals
}
