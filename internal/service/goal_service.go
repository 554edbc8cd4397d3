package service

import (
	"alcyxob/workout-engine/internal/domain"
	"alcyxob/workout-engine/internal/metrics"
	"alcyxob/workout-engine/internal/repository"
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrGoalNotFound   = errors.New("goal not found")
	ErrGoalValidation = errors.New("goal validation failed")
	ErrGoalNotActive  = errors.New("goal is no longer in progress")
)

// CreateGoalInput describes a new goal. CurrentValue starts at InitialValue.
type CreateGoalInput struct {
	TargetExerciseID primitive.ObjectID
	TargetField      domain.MetricField
	InitialValue     float64
	TargetValue      float64
	TargetDate       time.Time
}

type GoalService interface {
	CreateGoal(ctx context.Context, userID primitive.ObjectID, input CreateGoalInput) (*domain.Goal, error)
	GetGoals(ctx context.Context, userID primitive.ObjectID) ([]domain.Goal, error)
	AbandonGoal(ctx context.Context, userID, goalID primitive.ObjectID) (*domain.Goal, error)
	// MarkOverdueGoals moves IN_PROGRESS goals whose target date lies
	// before the start of today to MISSED.
	MarkOverdueGoals(ctx context.Context) (int64, error)
	// RunSweeper calls MarkOverdueGoals every interval until ctx is done.
	RunSweeper(ctx context.Context, interval time.Duration)
}

// goalService implements the GoalService interface.
type goalService struct {
	goalRepo     repository.GoalRepository
	exerciseRepo repository.ExerciseRepository
	metrics      *metrics.Manager
	location     *time.Location
	now          func() time.Time
}

// NewGoalService creates a new instance of goalService. A nil loc means UTC.
func NewGoalService(goalRepo repository.GoalRepository, exerciseRepo repository.ExerciseRepository, m *metrics.Manager, loc *time.Location, now func() time.Time) GoalService {
	if m == nil {
		m = metrics.NewTestManager()
	}
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &goalService{
		goalRepo:     goalRepo,
		exerciseRepo: exerciseRepo,
		metrics:      m,
		location:     loc,
		now:          now,
	}
}

func (s *goalService) CreateGoal(ctx context.Context, userID primitive.ObjectID, input CreateGoalInput) (*domain.Goal, error) {
	if userID == primitive.NilObjectID || input.TargetExerciseID == primitive.NilObjectID {
		return nil, fmt.Errorf("%w: user and target exercise are required", ErrGoalValidation)
	}
	if !input.TargetField.IsValid() {
		return nil, fmt.Errorf("%w: unknown target field %q", ErrGoalValidation, input.TargetField)
	}
	if input.TargetValue <= input.InitialValue {
		return nil, fmt.Errorf("%w: target value must be greater than initial value", ErrGoalValidation)
	}
	if input.TargetDate.IsZero() {
		return nil, fmt.Errorf("%w: target date is required", ErrGoalValidation)
	}
	if input.TargetDate.Before(domain.StartOfDay(s.now(), s.location)) {
		return nil, fmt.Errorf("%w: target date is in the past", ErrGoalValidation)
	}

	if _, err := s.exerciseRepo.GetByID(ctx, input.TargetExerciseID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}

	goal := &domain.Goal{
		UserID:           userID,
		TargetExerciseID: input.TargetExerciseID,
		TargetField:      input.TargetField,
		InitialValue:     input.InitialValue,
		CurrentValue:     input.InitialValue,
		TargetValue:      input.TargetValue,
		TargetDate:       input.TargetDate.UTC(),
		Status:           domain.GoalInProgress,
	}
	if _, err := s.goalRepo.Create(ctx, goal); err != nil {
		return nil, err
	}
	return goal, nil
}

func (s *goalService) GetGoals(ctx context.Context, userID primitive.ObjectID) ([]domain.Goal, error) {
	if userID == primitive.NilObjectID {
		return nil, errors.New("user ID cannot be nil")
	}
	return s.goalRepo.GetByUserID(ctx, userID)
}

// AbandonGoal sets an IN_PROGRESS goal of userID to ABANDONED.
func (s *goalService) AbandonGoal(ctx context.Context, userID, goalID primitive.ObjectID) (*domain.Goal, error) {
	goal, err := s.goalRepo.GetByID(ctx, goalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrGoalNotFound
		}
		return nil, err
	}
	if goal.UserID != userID {
		return nil, ErrGoalNotFound
	}
	if goal.Status != domain.GoalInProgress {
		return nil, ErrGoalNotActive
	}

	now := s.now().UTC()
	if err := s.goalRepo.UpdateStatus(ctx, goalID, domain.GoalInProgress, domain.GoalAbandoned, now); err != nil {
		if errors.Is(err, repository.ErrUpdateFailed) {
			return nil, ErrGoalNotActive
		}
		return nil, err
	}
	goal.Status = domain.GoalAbandoned
	goal.UpdatedAt = now
	return goal, nil
}

func (s *goalService) MarkOverdueGoals(ctx context.Context) (int64, error) {
	now := s.now()
	cutoff := domain.StartOfDay(now, s.location)

	n, err := s.goalRepo.MarkMissed(ctx, cutoff, now.UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.metrics.CounterGoalsMissed.Add(float64(n))
		log.WithField("count", n).Info("overdue goals marked missed")
	}
	return n, nil
}

func (s *goalService) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		log.Info("goal sweeper disabled")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := s.MarkOverdueGoals(ctx); err != nil {
			log.Errorf("mark overdue goals: %s", err)
		}
		select {
		case <-ctx.Done():
			log.Debug("goal sweeper stopped")
			return
		case <-ticker.C:
		}
	}
}
