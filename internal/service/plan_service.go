package service

import (
	"alcyxob/workout-engine/internal/domain"
	"alcyxob/workout-engine/internal/repository"
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrPlanNotFound   = errors.New("plan not found")
	ErrPlanValidation   = errors.New("plan validation failed")
)

// PlanService manages workout plans.
type PlanService interface {
	CreatePlan(ctx context.Context, ownerID primitive.ObjectID, name, description string, exercises []domain.PlanExercise) (*domain.Plan, error)
	// GetPlan returns the plan with every PlanExercise resolved against the catalog.
	GetPlan(ctx context.Context, planID primitive.ObjectID) (*domain.Plan, error)
	GetPlansByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]domain.Plan, error)
}

// planService implements the PlanService interface.
type planService struct {
	planRepo     repository.PlanRepository
	exerciseRepo repository.ExerciseRepository
}

// NewPlanService creates a new instance of planService.
func NewPlanService(planRepo repository.PlanRepository, exerciseRepo repository.ExerciseRepository) PlanService {
	return &planService{
		planRepo:     planRepo,
		exerciseRepo: exerciseRepo,
	}
}

// CreatePlan validates the exercise list and stores it with positions 1..n
// in the given order.
func (s *planService) CreatePlan(ctx context.Context, ownerID primitive.ObjectID, name, description string, exercises []domain.PlanExercise) (*domain.Plan, error) {
	name = strings.TrimSpace(name)
	if ownerID == primitive.NilObjectID {
		return nil, errors.New("owner ID is required to create a plan")
	}
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrPlanValidation)
	}
	if len(exercises) == 0 {
		return nil, fmt.Errorf("%w: a plan needs at least one exercise", ErrPlanValidation)
	}

	ids := make([]primitive.ObjectID, 0, len(exercises))
	normalized := make([]domain.PlanExercise, len(exercises))
	for i, pe := range exercises {
		switch {
		case pe.ExerciseID == primitive.NilObjectID:
			return nil, fmt.Errorf("%w: exercise %d has no exercise id", ErrPlanValidation, i+1)
		case pe.Sets < 1:
			return nil, fmt.Errorf("%w: exercise %d needs at least one set", ErrPlanValidation, i+1)
		case pe.Reps < 0 || pe.Rest < 0:
			return nil, fmt.Errorf("%w: exercise %d has negative reps or rest", ErrPlanValidation, i+1)
		case pe.Time != nil && *pe.Time < 0:
			return nil, fmt.Errorf("%w: exercise %d has a negative time", ErrPlanValidation, i+1)
		}
		pe.Position = i + 1
		pe.Exercise = nil
		normalized[i] = pe
		ids = append(ids, pe.ExerciseID)
	}

	catalog, err := s.catalog(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, pe := range normalized {
		if _, ok := catalog[pe.ExerciseID]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrExerciseNotFound, pe.ExerciseID.Hex())
		}
	}

	plan := &domain.Plan{
		OwnerID:     ownerID,
		Name:        name,
		Description: description,
		Exercises:   normalized,
	}
	if _, err := s.planRepo.Create(ctx, plan); err != nil {
		return nil, err
	}
	hydrate(plan, catalog)
	return plan, nil
}

func (s *planService) GetPlan(ctx context.Context, planID primitive.ObjectID) (*domain.Plan, error) {
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(plan.Exercises))
	for _, pe := range plan.Exercises {
		ids = append(ids, pe.ExerciseID)
	}
	catalog, err := s.catalog(ctx, ids)
	if err != nil {
		return nil, err
	}
	hydrate(plan, catalog)
	return plan, nil
}

func (s *planService) GetPlansByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]domain.Plan, error) {
	if ownerID == primitive.NilObjectID {
		return nil, errors.New("owner ID cannot be nil")
	}
	return s.planRepo.GetByOwnerID(ctx, ownerID)
}

func (s *planService) catalog(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]domain.Exercise, error) {
	exercises, err := s.exerciseRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	catalog := make(map[primitive.ObjectID]domain.Exercise, len(exercises))
	for _, e := range exercises {
		catalog[e.ID] = e
	}
	return catalog, nil
}

// hydrate attaches catalog entries; exercises removed from the catalog stay nil.
func hydrate(plan *domain.Plan, catalog map[primitive.ObjectID]domain.Exercise) {
	for i := range plan.Exercises {
		if e, ok := catalog[plan.Exercises[i].ExerciseID]; ok {
			plan.Exercises[i].Exercise = &e
		}
	}
}
