package main

import (
	"alcyxob/workout-engine/internal/api"
	"alcyxob/workout-engine/internal/config"
	"alcyxob/workout-engine/internal/logging"
	"alcyxob/workout-engine/internal/metrics"
	"alcyxob/workout-engine/internal/repository"
	"alcyxob/workout-engine/internal/repository/memory"
	"alcyxob/workout-engine/internal/repository/mongo"
	"alcyxob/workout-engine/internal/service"
	"alcyxob/workout-engine/internal/storage"
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
)

// @title Workout Engine API
// @version 1.0
// @description Plans, workout logs and progression (streaks, personal records, goals).
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}

	logging.Setup(logging.LoggerSetupParams{
		LogFileName:   cfg.Log.File,
		LogToStdout:   true,
		LogLevel:      cfg.Log.Level,
		LogFormatJSON: cfg.Log.JSON,
	})
	log.WithFields(log.Fields{
		"address":  cfg.Server.Address,
		"driver":   cfg.Database.Driver,
		"timezone": cfg.Progression.Timezone,
		"archive":  cfg.S3.BucketName != "",
	}).Info("starting workout engine server")

	if cfg.JWT.Secret == "" {
		log.Fatal("jwt.secret must be set")
	}
	loc, _ := cfg.Progression.Location()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Store ---
	var (
		store repository.Store
		txm   repository.TxManager
	)
	switch cfg.Database.Driver {
	case config.DriverMemory:
		log.Warn("using the in-memory store, data is lost on restart")
		memStore := memory.NewStore()
		store, txm = memStore, memStore
	default:
		dbClient, err := mongo.ConnectDB(cfg.Database.URI)
		if err != nil {
			log.Fatalf("could not connect to MongoDB: %v", err)
		}
		defer func() {
			log.Info("disconnecting MongoDB...")
			if err := mongo.DisconnectDB(dbClient); err != nil {
				log.Errorf("failed to disconnect MongoDB: %v", err)
			}
		}()
		appDB := dbClient.Database(cfg.Database.Name)

		indexCtx, cancel := context.WithTimeout(ctx, time.Minute)
		mongo.EnsureIndexes(indexCtx, appDB)
		cancel()

		mongoStore := mongo.NewStore(dbClient, appDB, cfg.Database.TxTimeout)
		store, txm = mongoStore, mongoStore
	}

	// --- Metrics ---
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metricsManager := metrics.NewManager("workout_engine", "server", reg)

	// --- Services ---
	progressionOpts := []service.ProgressionOption{
		service.WithLocation(loc),
		service.WithMetrics(metricsManager),
	}
	if cfg.S3.BucketName != "" {
		fileStorage, err := storage.NewS3Storage(ctx, cfg.S3)
		if err != nil {
			log.Fatalf("failed to initialize S3 storage: %v", err)
		}
		progressionOpts = append(progressionOpts, service.WithArchive(fileStorage))
	}

	authService := service.NewAuthService(store.Users(), cfg.JWT.Secret, cfg.JWT.Expiration)
	goalService := service.NewGoalService(store.Goals(), store.Exercises(), metricsManager, loc, nil)
	services := api.Services{
		Auth:        authService,
		Exercises:   service.NewExerciseService(store.Exercises()),
		Plans:       service.NewPlanService(store.Plans(), store.Exercises()),
		Progression: service.NewProgressionService(store, txm, progressionOpts...),
		Goals:       goalService,
	}

	if cfg.Auth.AdminEmail != "" && cfg.Auth.AdminPassword != "" {
		if err := authService.EnsureAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
			log.Fatalf("could not create admin account: %v", err)
		}
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		goalService.RunSweeper(ctx, cfg.Goals.SweepInterval)
	}()

	// --- HTTP ---
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	api.SetupRoutes(router, cfg.JWT.Secret, metricsManager, reg, services)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Infof("server listening on %s", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server...")

	// The server has 5 seconds to finish the requests it is handling.
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Errorf("server forced to shutdown: %v", err)
	}

	wg.Wait()
	log.Info("server exiting")
}
