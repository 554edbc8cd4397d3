package api

import (
	"alcyxob/workout-engine/internal/domain"
	"alcyxob/workout-engine/internal/service"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutLogHandler exposes log submission and the progress read model.
type WorkoutLogHandler struct {
	progressionService service.ProgressionService
}

func NewWorkoutLogHandler(progressionService service.ProgressionService) *WorkoutLogHandler {
	return &WorkoutLogHandler{progressionService: progressionService}
}

// SubmitLogRequest is the body of a finished session.
type SubmitLogRequest struct {
	PlanID   string                    `json:"planId" binding:"required"`
	Duration int                       `json:"duration" binding:"min=0"`
	Notes    string                    `json:"notes"`
	Entries  domain.CategorizedEntries `json:"entries"`
}

type SubmitLogResponse struct {
	ID string `json:"id"`
}

// SubmitLog godoc
// @Summary Submit a finished workout session
// @Description Saves the log and updates streak, personal records and goals atomically.
// @Tags WorkoutLogs
// @Accept json
// @Produce json
// @Param log body SubmitLogRequest true "Session log"
// @Success 201 {object} SubmitLogResponse
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 404 {object} gin.H "Plan or exercise not found"
// @Failure 500 {object} gin.H "failed to save workout"
// @Router /workout-logs [post]
func (h *WorkoutLogHandler) SubmitLog(c *gin.Context) {
	userID, ok := userObjectID(c)
	if !ok {
		return
	}

	var req SubmitLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	planID, err := primitive.ObjectIDFromHex(req.PlanID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid planId format")
		return
	}

	logID, err := h.progressionService.SubmitLog(c.Request.Context(), userID, service.SubmitLogInput{
		PlanID:   planID,
		Duration: req.Duration,
		Notes:    req.Notes,
		Entries:  req.Entries,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidLogEntry):
			abortWithError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrPlanNotFound), errors.Is(err, service.ErrExerciseNotFound),
			errors.Is(err, service.ErrUserNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, service.ErrSaveWorkoutFailed.Error())
		}
		return
	}

	c.JSON(http.StatusCreated, SubmitLogResponse{ID: logID.Hex()})
}

// GetWorkoutLog returns one of the caller's logs.
func (h *WorkoutLogHandler) GetWorkoutLog(c *gin.Context) {
	userID, ok := userObjectID(c)
	if !ok {
		return
	}
	logID, ok := pathObjectID(c, "logId")
	if !ok {
		return
	}

	workoutLog, err := h.progressionService.GetWorkoutLog(c.Request.Context(), userID, logID)
	if err != nil {
		if errors.Is(err, service.ErrWorkoutLogNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve workout log")
		return
	}

	c.JSON(http.StatusOK, workoutLog)
}

// GetArchiveURL returns a presigned download link to the archived log.
func (h *WorkoutLogHandler) GetArchiveURL(c *gin.Context) {
	userID, ok := userObjectID(c)
	if !ok {
		return
	}
	logID, ok := pathObjectID(c, "logId")
	if !ok {
		return
	}

	url, err := h.progressionService.GetArchiveURL(c.Request.Context(), userID, logID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWorkoutLogNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrArchiveDisabled):
			abortWithError(c, http.StatusServiceUnavailable, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to generate download URL")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

// GetProgress returns the caller's streak and personal records.
func (h *WorkoutLogHandler) GetProgress(c *gin.Context) {
	userID, ok := userObjectID(c)
	if !ok {
		return
	}

	progress, err := h.progressionService.GetProgress(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve progress")
		return
	}

	c.JSON(http.StatusOK, progress)
}
