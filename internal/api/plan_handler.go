package api

import (
	"alcyxob/workout-engine/internal/domain"
	"alcyxob/workout-engine/internal/service"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanHandler serves plan creation and lookup.
type PlanHandler struct {
	planService service.PlanService
}

func NewPlanHandler(planService service.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

// PlanExerciseRequest is one exercise of a new plan. Order in the request
// defines the plan order.
type PlanExerciseRequest struct {
	ExerciseID string   `json:"exerciseId" binding:"required"`
	Sets       int      `json:"sets" binding:"required,min=1"`
	Reps       int      `json:"reps" binding:"min=0"`
	Rest       int      `json:"rest" binding:"min=0"`
	Time       *int     `json:"time,omitempty" binding:"omitempty,min=0"`
	Distance   *float64 `json:"distance,omitempty" binding:"omitempty,min=0"`
}

type CreatePlanRequest struct {
	Name        string                `json:"name" binding:"required"`
	Description string                `json:"description"`
	Exercises   []PlanExerciseRequest `json:"exercises" binding:"required,min=1,dive"`
}

// CreatePlan godoc
// @Summary Create a workout plan
// @Tags Plans
// @Accept json
// @Produce json
// @Param plan body CreatePlanRequest true "Plan"
// @Success 201 {object} domain.Plan
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 404 {object} gin.H "Referenced exercise not found"
// @Router /plans [post]
func (h *PlanHandler) CreatePlan(c *gin.Context) {
	ownerID, ok := userObjectID(c)
	if !ok {
		return
	}

	var req CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	exercises := make([]domain.PlanExercise, len(req.Exercises))
	for i, pe := range req.Exercises {
		exerciseID, err := primitive.ObjectIDFromHex(pe.ExerciseID)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Invalid exerciseId at position %d", i+1))
			return
		}
		exercises[i] = domain.PlanExercise{
			ExerciseID: exerciseID,
			Sets:       pe.Sets,
			Reps:       pe.Reps,
			Rest:       pe.Rest,
			Time:       pe.Time,
			Distance:   pe.Distance,
		}
	}

	plan, err := h.planService.CreatePlan(c.Request.Context(), ownerID, req.Name, req.Description, exercises)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPlanValidation):
			abortWithError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrExerciseNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		default:
			log.Errorf("create plan: %s", err)
			abortWithError(c, http.StatusInternalServerError, "Failed to create plan")
		}
		return
	}

	c.JSON(http.StatusCreated, plan)
}

// GetPlan returns a plan with its ordered exercises resolved from the catalog.
func (h *PlanHandler) GetPlan(c *gin.Context) {
	planID, ok := pathObjectID(c, "planId")
	if !ok {
		return
	}

	plan, err := h.planService.GetPlan(c.Request.Context(), planID)
	if err != nil {
		if errors.Is(err, service.ErrPlanNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
			return
		}
		log.Errorf("get plan %s: %s", planID.Hex(), err)
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve plan")
		return
	}

	c.JSON(http.StatusOK, plan)
}

// GetMyPlans lists the plans created by the caller, newest first.
func (h *PlanHandler) GetMyPlans(c *gin.Context) {
	ownerID, ok := userObjectID(c)
	if !ok {
		return
	}

	plans, err := h.planService.GetPlansByOwner(c.Request.Context(), ownerID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve plans")
		return
	}

	c.JSON(http.StatusOK, plans)
}
