package api

import (
	"alcyxob/workout-engine/internal/domain"
	"alcyxob/workout-engine/internal/service"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GoalHandler serves goal management.
type GoalHandler struct {
	goalService service.GoalService
}

func NewGoalHandler(goalService service.GoalService) *GoalHandler {
	return &GoalHandler{goalService: goalService}
}

type CreateGoalRequest struct {
	TargetExerciseID string             `json:"targetExerciseId" binding:"required"`
	TargetField      domain.MetricField `json:"targetField" binding:"required"`
	InitialValue     float64            `json:"initialValue"`
	TargetValue      float64            `json:"targetValue" binding:"required"`
	TargetDate       time.Time          `json:"targetDate" binding:"required"`
}

// CreateGoal godoc
// @Summary Create a goal for one exercise field
// @Tags Goals
// @Accept json
// @Produce json
// @Param goal body CreateGoalRequest true "Goal"
// @Success 201 {object} domain.Goal
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 404 {object} gin.H "Exercise not found"
// @Router /goals [post]
func (h *GoalHandler) CreateGoal(c *gin.Context) {
	userID, ok := userObjectID(c)
	if !ok {
		return
	}

	var req CreateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	exerciseID, err := primitive.ObjectIDFromHex(req.TargetExerciseID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid targetExerciseId format")
		return
	}

	goal, err := h.goalService.CreateGoal(c.Request.Context(), userID, service.CreateGoalInput{
		TargetExerciseID: exerciseID,
		TargetField:      req.TargetField,
		InitialValue:     req.InitialValue,
		TargetValue:      req.TargetValue,
		TargetDate:       req.TargetDate,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrGoalValidation):
			abortWithError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrExerciseNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to create goal")
		}
		return
	}

	c.JSON(http.StatusCreated, goal)
}

func (h *GoalHandler) GetGoals(c *gin.Context) {
	userID, ok := userObjectID(c)
	if !ok {
		return
	}

	goals, err := h.goalService.GetGoals(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve goals")
		return
	}

	c.JSON(http.StatusOK, goals)
}

func (h *GoalHandler) AbandonGoal(c *gin.Context) {
	userID, ok := userObjectID(c)
	if !ok {
		return
	}
	goalID, ok := pathObjectID(c, "goalId")
	if !ok {
		return
	}

	goal, err := h.goalService.AbandonGoal(c.Request.Context(), userID, goalID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrGoalNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrGoalNotActive):
			abortWithError(c, http.StatusConflict, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to abandon goal")
		}
		return
	}

	c.JSON(http.StatusOK, goal)
}
