package api

import (
	"alcyxob/workout-engine/internal/domain"
	"alcyxob/workout-engine/internal/metrics"
	"alcyxob/workout-engine/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Services bundles what the handlers depend on.
type Services struct {
	Auth        service.AuthService
	Exercises   service.ExerciseService
	Plans       service.PlanService
	Progression service.ProgressionService
	Goals       service.GoalService
}

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	m *metrics.Manager,
	gatherer prometheus.Gatherer,
	services Services,
) {
	authHandler := NewAuthHandler(services.Auth)
	exerciseHandler := NewExerciseHandler(services.Exercises)
	planHandler := NewPlanHandler(services.Plans)
	workoutLogHandler := NewWorkoutLogHandler(services.Progression)
	goalHandler := NewGoalHandler(services.Goals)

	router.Use(RequestIDMiddleware(), LoggingMiddleware(), MetricsMiddleware(m))

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(AuthMiddleware(jwtSecret))
	{
		protected.GET("/me", func(c *gin.Context) {
			userIDStr, err := getUserIDFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
				return
			}
			role, _ := getUserRoleFromContext(c)
			c.JSON(http.StatusOK, gin.H{"userId": userIDStr, "role": role})
		})
		protected.GET("/me/progress", workoutLogHandler.GetProgress)

		exerciseGroup := protected.Group("/exercises")
		{
			exerciseGroup.POST("", RoleMiddleware(domain.RoleAdmin), exerciseHandler.CreateExercise)
			exerciseGroup.GET("/:exerciseId", exerciseHandler.GetExercise)
		}

		planGroup := protected.Group("/plans")
		{
			planGroup.POST("", planHandler.CreatePlan)
			planGroup.GET("", planHandler.GetMyPlans)
			planGroup.GET("/:planId", planHandler.GetPlan)
		}

		logGroup := protected.Group("/workout-logs")
		{
			logGroup.POST("", workoutLogHandler.SubmitLog)
			logGroup.GET("/:logId", workoutLogHandler.GetWorkoutLog)
			logGroup.GET("/:logId/archive", workoutLogHandler.GetArchiveURL)
		}

		goalGroup := protected.Group("/goals")
		{
			goalGroup.POST("", goalHandler.CreateGoal)
			goalGroup.GET("", goalHandler.GetGoals)
			goalGroup.POST("/:goalId/abandon", goalHandler.AbandonGoal)
		}
	}
}
