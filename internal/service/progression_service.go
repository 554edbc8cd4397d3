package service

import (
	"alcyxob/workout-engine/internal/domain"
	"alcyxob/workout-engine/internal/metrics"
	"alcyxob/workout-engine/internal/repository"
	"alcyxob/workout-engine/internal/storage"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrInvalidLogEntry    = errors.New("invalid workout log entry")
	ErrSaveWorkoutFailed  = errors.New("failed to save workout")
	ErrWorkoutLogNotFound = errors.New("workout log not found")
	ErrArchiveDisabled    = errors.New("workout log archive is disabled")
)

const archiveTimeout = 10 * time.Second

// SubmitLogInput is one finished session as reported by the client.
type SubmitLogInput struct {
	PlanID   primitive.ObjectID
	Duration int // seconds
	Notes    string
	Entries  domain.CategorizedEntries
}

// Progress is the read model of a user's aggregates.
type Progress struct {
	Streak          domain.Streak           `json:"streak"`
	PersonalRecords []domain.PersonalRecord `json:"personalRecords"`
}

type ProgressionService interface {
	// SubmitLog writes the workout log and updates streak, personal records
	// and goals in one transaction. Every failure wraps ErrSaveWorkoutFailed.
	SubmitLog(ctx context.Context, userID primitive.ObjectID, input SubmitLogInput) (primitive.ObjectID, error)
	GetWorkoutLog(ctx context.Context, userID, logID primitive.ObjectID) (*domain.WorkoutLog, error)
	GetProgress(ctx context.Context, userID primitive.ObjectID) (*Progress, error)
	GetArchiveURL(ctx context.Context, userID, logID primitive.ObjectID) (string, error)
}

// progressionService implements the ProgressionService interface.
type progressionService struct {
	store    repository.Store
	txm      repository.TxManager
	archive  storage.FileStorage
	metrics  *metrics.Manager
	location *time.Location
	now      func() time.Time
}

type ProgressionOption func(*progressionService)

// WithLocation sets the calendar used for streak day boundaries.
func WithLocation(loc *time.Location) ProgressionOption {
	return func(s *progressionService) {
		if loc != nil {
			s.location = loc
		}
	}
}

func WithProgressionClock(now func() time.Time) ProgressionOption {
	return func(s *progressionService) { s.now = now }
}

func WithMetrics(m *metrics.Manager) ProgressionOption {
	return func(s *progressionService) { s.metrics = m }
}

// WithArchive enables the post-commit copy of every log to object storage.
func WithArchive(fs storage.FileStorage) ProgressionOption {
	return func(s *progressionService) { s.archive = fs }
}

// NewProgressionService creates a new instance of progressionService.
func NewProgressionService(store repository.Store, txm repository.TxManager, opts ...ProgressionOption) ProgressionService {
	s := &progressionService{
		store:    store,
		txm:      txm,
		location: time.UTC,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.NewTestManager()
	}
	return s
}

// submitResult collects what one transaction changed, for logging after commit.
type submitResult struct {
	log             *domain.WorkoutLog
	streak          domain.Streak
	recordsBroken   int
	goalsAchieved   int
	goalsProgressed int
}

func (s *progressionService) SubmitLog(ctx context.Context, userID primitive.ObjectID, input SubmitLogInput) (primitive.ObjectID, error) {
	if err := validateSubmitInput(userID, input); err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %w", ErrSaveWorkoutFailed, err)
	}

	now := s.now().UTC()
	start := time.Now()

	var result *submitResult
	err := s.txm.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		var err error
		result, err = s.applyLog(ctx, tx, userID, input, now)
		return err
	})
	s.metrics.HistProgressionTxDuration.Observe(time.Since(start).Seconds())

	logger := log.WithFields(log.Fields{
		"userId": userID.Hex(),
		"planId": input.PlanID.Hex(),
	})
	if err != nil {
		s.metrics.CounterWorkoutLogsFailed.Inc()
		logger.Errorf("workout log transaction rolled back: %s", err)
		return primitive.NilObjectID, fmt.Errorf("%w: %w", ErrSaveWorkoutFailed, err)
	}

	s.metrics.CounterWorkoutLogsSaved.Inc()
	s.metrics.CounterPersonalRecordsBroken.Add(float64(result.recordsBroken))
	s.metrics.CounterGoalsAchieved.Add(float64(result.goalsAchieved))
	logger.WithFields(log.Fields{
		"logId":           result.log.ID.Hex(),
		"entries":         len(result.log.Exercises),
		"streakDays":      result.streak.CurrentDays,
		"recordsBroken":   result.recordsBroken,
		"goalsProgressed": result.goalsProgressed,
		"goalsAchieved":   result.goalsAchieved,
	}).Info("workout log saved")

	s.archiveLog(ctx, result.log)
	return result.log.ID, nil
}

func validateSubmitInput(userID primitive.ObjectID, input SubmitLogInput) error {
	if userID == primitive.NilObjectID {
		return fmt.Errorf("%w: user id is required", ErrInvalidLogEntry)
	}
	if input.PlanID == primitive.NilObjectID {
		return fmt.Errorf("%w: plan id is required", ErrInvalidLogEntry)
	}
	if input.Duration < 0 {
		return fmt.Errorf("%w: duration cannot be negative", ErrInvalidLogEntry)
	}
	for i, row := range input.Entries.Flatten() {
		if row.ExerciseID == primitive.NilObjectID {
			return fmt.Errorf("%w: %s entry %d has no exercise id", ErrInvalidLogEntry, row.Category, i)
		}
	}
	return nil
}

// applyLog runs inside the transaction. Streak, records and goals are
// updated in that order; none of them reads what another one writes.
func (s *progressionService) applyLog(ctx context.Context, tx repository.Store, userID primitive.ObjectID, input SubmitLogInput, now time.Time) (*submitResult, error) {
	if _, err := tx.Plans().GetByID(ctx, input.PlanID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrPlanNotFound, input.PlanID.Hex())
		}
		return nil, fmt.Errorf("load plan: %w", err)
	}

	rows, err := resolveCategories(ctx, tx, input.Entries.Flatten())
	if err != nil {
		return nil, err
	}

	workoutLog := &domain.WorkoutLog{
		UserID:    userID,
		PlanID:    input.PlanID,
		Duration:  input.Duration,
		Notes:     input.Notes,
		Exercises: rows,
		CreatedAt: now,
	}
	if _, err := tx.WorkoutLogs().Create(ctx, workoutLog); err != nil {
		return nil, fmt.Errorf("create workout log: %w", err)
	}

	result := &submitResult{log: workoutLog}

	if result.streak, err = s.updateStreak(ctx, tx, userID, now); err != nil {
		return nil, err
	}
	if result.recordsBroken, err = updatePersonalRecords(ctx, tx, userID, rows, now); err != nil {
		return nil, err
	}
	if result.goalsProgressed, result.goalsAchieved, err = updateGoals(ctx, tx, userID, rows, now); err != nil {
		return nil, err
	}
	return result, nil
}

// resolveCategories checks that every referenced exercise exists and takes
// the category of each row from the catalog.
func resolveCategories(ctx context.Context, tx repository.Store, rows []domain.ExerciseLog) ([]domain.ExerciseLog, error) {
	if len(rows) == 0 {
		return rows, nil
	}

	ids := make([]primitive.ObjectID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ExerciseID)
	}
	exercises, err := tx.Exercises().GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load exercises: %w", err)
	}

	catalog := make(map[primitive.ObjectID]domain.Category, len(exercises))
	for _, e := range exercises {
		catalog[e.ID] = e.Category
	}
	for i := range rows {
		category, ok := catalog[rows[i].ExerciseID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrExerciseNotFound, rows[i].ExerciseID.Hex())
		}
		if category != rows[i].Category {
			log.WithFields(log.Fields{
				"exerciseId": rows[i].ExerciseID.Hex(),
				"logged":     rows[i].Category,
				"catalog":    category,
			}).Warn("entry logged under a different category than its exercise")
		}
		rows[i].Category = category
	}
	return rows, nil
}

func (s *progressionService) updateStreak(ctx context.Context, tx repository.Store, userID primitive.ObjectID, now time.Time) (domain.Streak, error) {
	user, err := tx.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Streak{}, ErrUserNotFound
		}
		return domain.Streak{}, fmt.Errorf("load user: %w", err)
	}

	streak := user.Streak.Advance(now, s.location)
	if err := tx.Users().UpdateStreak(ctx, userID, streak); err != nil {
		return domain.Streak{}, fmt.Errorf("update streak: %w", err)
	}
	return streak, nil
}

// updatePersonalRecords creates a record for every exercise without one,
// tracking the canonical field of its category, and raises existing records
// on the field they already track. Rows of the same exercise in one log are
// compared against each other, so a record is created at most once.
func updatePersonalRecords(ctx context.Context, tx repository.Store, userID primitive.ObjectID, rows []domain.ExerciseLog, now time.Time) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	existing, err := tx.PersonalRecords().GetByUserID(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("load personal records: %w", err)
	}
	records := make(map[primitive.ObjectID]*domain.PersonalRecord, len(existing))
	for i := range existing {
		records[existing[i].ExerciseID] = &existing[i]
	}

	broken := 0
	for _, row := range rows {
		pr, ok := records[row.ExerciseID]
		if !ok {
			field, ok := domain.CanonicalField(row.Category)
			if !ok {
				log.Warnf("no canonical field for category %q, skipping personal record", row.Category)
				continue
			}
			value, _ := row.Value(field)
			pr = &domain.PersonalRecord{
				UserID:     userID,
				ExerciseID: row.ExerciseID,
				Field:      field,
				Value:      value,
				CreatedAt:  now,
			}
			if _, err := tx.PersonalRecords().Create(ctx, pr); err != nil {
				return 0, fmt.Errorf("create personal record: %w", err)
			}
			records[row.ExerciseID] = pr
			broken++
			continue
		}

		value, ok := row.Value(pr.Field)
		if !ok {
			log.Warnf("personal record %s tracks unknown field %q", pr.ID.Hex(), pr.Field)
			continue
		}
		if value <= pr.Value {
			continue
		}
		if err := tx.PersonalRecords().UpdateValue(ctx, pr.ID, value, now); err != nil {
			return 0, fmt.Errorf("update personal record: %w", err)
		}
		pr.Value = value
		pr.UpdatedAt = now
		broken++
	}
	return broken, nil
}

// updateGoals raises the current value of matching IN_PROGRESS goals and
// marks them ACHIEVED once the target is reached. An achieved goal is not
// touched again, even by a later row of the same log.
func updateGoals(ctx context.Context, tx repository.Store, userID primitive.ObjectID, rows []domain.ExerciseLog, now time.Time) (progressed int, achieved int, err error) {
	if len(rows) == 0 {
		return 0, 0, nil
	}

	goals, err := tx.Goals().GetInProgressByUserID(ctx, userID)
	if err != nil {
		return 0, 0, fmt.Errorf("load goals: %w", err)
	}

	for _, row := range rows {
		for i := range goals {
			goal := &goals[i]
			if goal.TargetExerciseID != row.ExerciseID || goal.Status != domain.GoalInProgress {
				continue
			}
			value, ok := row.Value(goal.TargetField)
			if !ok {
				log.Warnf("goal %s targets unknown field %q", goal.ID.Hex(), goal.TargetField)
				continue
			}
			if value <= goal.CurrentValue {
				continue
			}

			status := domain.GoalInProgress
			if value >= goal.TargetValue {
				status = domain.GoalAchieved
			}
			if err := tx.Goals().UpdateProgress(ctx, goal.ID, value, status, now); err != nil {
				// The goal left IN_PROGRESS after it was read.
				if errors.Is(err, repository.ErrUpdateFailed) {
					log.Infof("goal %s no longer in progress, skipping", goal.ID.Hex())
					continue
				}
				return 0, 0, fmt.Errorf("update goal progress: %w", err)
			}
			goal.CurrentValue = value
			goal.Status = status
			goal.UpdatedAt = now
			progressed++
			if status == domain.GoalAchieved {
				achieved++
			}
		}
	}
	return progressed, achieved, nil
}

// archiveLog copies a committed log to object storage. Failures are logged
// and counted only; the log is already saved.
func (s *progressionService) archiveLog(ctx context.Context, workoutLog *domain.WorkoutLog) {
	if s.archive == nil {
		return
	}

	body, err := json.Marshal(workoutLog)
	if err != nil {
		s.metrics.CounterArchiveFailures.Inc()
		log.Errorf("marshal workout log %s for archive: %s", workoutLog.ID.Hex(), err)
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancel()

	key := storage.WorkoutLogKey(workoutLog.UserID, workoutLog.ID)
	if err := s.archive.PutObject(ctx, key, "application/json", body); err != nil {
		s.metrics.CounterArchiveFailures.Inc()
		log.Errorf("archive workout log %s: %s", workoutLog.ID.Hex(), err)
	}
}

// GetWorkoutLog returns a log owned by userID. Logs of other users are
// reported as not found.
func (s *progressionService) GetWorkoutLog(ctx context.Context, userID, logID primitive.ObjectID) (*domain.WorkoutLog, error) {
	workoutLog, err := s.store.WorkoutLogs().GetByID(ctx, logID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWorkoutLogNotFound
		}
		return nil, err
	}
	if workoutLog.UserID != userID {
		return nil, ErrWorkoutLogNotFound
	}
	return workoutLog, nil
}

func (s *progressionService) GetProgress(ctx context.Context, userID primitive.ObjectID) (*Progress, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	records, err := s.store.PersonalRecords().GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Progress{Streak: user.Streak, PersonalRecords: records}, nil
}

// GetArchiveURL returns a short-lived download link to the archived copy of a log.
func (s *progressionService) GetArchiveURL(ctx context.Context, userID, logID primitive.ObjectID) (string, error) {
	if s.archive == nil {
		return "", ErrArchiveDisabled
	}
	workoutLog, err := s.GetWorkoutLog(ctx, userID, logID)
	if err != nil {
		return "", err
	}
	return s.archive.GeneratePresignedDownloadURL(ctx, storage.WorkoutLogKey(workoutLog.UserID, workoutLog.ID), storage.DefaultPresignedURLExpiry)
}
