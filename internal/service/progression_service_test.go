package service_test

import (
	"alcyxob/workout-engine/internal/domain"
	"alcyxob/workout-engine/internal/metrics"
	"alcyxob/workout-engine/internal/repository"
	"alcyxob/workout-engine/internal/repository/memory"
	"alcyxob/workout-engine/internal/service"
	"alcyxob/workout-engine/internal/session"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var testNow = time.Date(2024, 3, 15, 18, 0, 0, 0, time.UTC)

type fixture struct {
	store   *memory.Store
	metrics *metrics.Manager
	svc     service.ProgressionService

	userID  primitive.ObjectID
	planID  primitive.ObjectID
	bench   primitive.ObjectID
	running primitive.ObjectID
}

func newFixture(t *testing.T, opts ...service.ProgressionOption) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{store: memory.NewStore(), metrics: metrics.NewTestManager()}

	var err error
	f.userID, err = f.store.Users().Create(ctx, &domain.User{
		Name: "Ann", Email: "ann@example.com", PasswordHash: "hash", Role: domain.RoleAthlete,
	})
	require.NoError(t, err)

	f.bench, err = f.store.Exercises().Create(ctx, &domain.Exercise{Name: "Bench press", Category: domain.CategoryStrength})
	require.NoError(t, err)
	f.running, err = f.store.Exercises().Create(ctx, &domain.Exercise{Name: "Treadmill", Category: domain.CategoryCardio})
	require.NoError(t, err)

	f.planID, err = f.store.Plans().Create(ctx, &domain.Plan{
		OwnerID: f.userID,
		Name:    "Full body",
		Exercises: []domain.PlanExercise{
			{Position: 1, ExerciseID: f.bench, Sets: 2, Reps: 10, Rest: 60},
			{Position: 2, ExerciseID: f.running, Sets: 1, Rest: 0},
		},
	})
	require.NoError(t, err)

	opts = append([]service.ProgressionOption{
		service.WithProgressionClock(func() time.Time { return testNow }),
		service.WithMetrics(f.metrics),
	}, opts...)
	f.svc = service.NewProgressionService(f.store, f.store, opts...)
	return f
}

func (f *fixture) submit(t *testing.T, entries domain.CategorizedEntries) primitive.ObjectID {
	t.Helper()
	id, err := f.svc.SubmitLog(context.Background(), f.userID, service.SubmitLogInput{
		PlanID:   f.planID,
		Duration: 1800,
		Entries:  entries,
	})
	require.NoError(t, err)
	return id
}

func (f *fixture) setStreak(t *testing.T, streak domain.Streak) {
	t.Helper()
	require.NoError(t, f.store.Users().UpdateStreak(context.Background(), f.userID, streak))
}

func (f *fixture) streak(t *testing.T) domain.Streak {
	t.Helper()
	user, err := f.store.Users().GetByID(context.Background(), f.userID)
	require.NoError(t, err)
	return user.Streak
}

func (f *fixture) records(t *testing.T) map[primitive.ObjectID]domain.PersonalRecord {
	t.Helper()
	prs, err := f.store.PersonalRecords().GetByUserID(context.Background(), f.userID)
	require.NoError(t, err)
	out := make(map[primitive.ObjectID]domain.PersonalRecord, len(prs))
	for _, pr := range prs {
		out[pr.ExerciseID] = pr
	}
	return out
}

func strength(id primitive.ObjectID, sets, reps int, weight float64) domain.CategorizedEntries {
	return domain.CategorizedEntries{
		Strength: []domain.StrengthEntry{{ExerciseID: id, Sets: sets, Reps: reps, WeightUsed: weight}},
	}
}

func daysAgo(n int) *time.Time {
	t := testNow.AddDate(0, 0, -n)
	return &t
}

func TestSubmitLog_WritesLogStreakAndRecords(t *testing.T) {
	f := newFixture(t)

	logID := f.submit(t, domain.CategorizedEntries{
		Strength: []domain.StrengthEntry{{ExerciseID: f.bench, Sets: 3, Reps: 10, WeightUsed: 50}},
		Cardio:   []domain.CardioEntry{{ExerciseID: f.running, Distance: 5, Duration: 1500, CaloriesBurned: 300}},
	})

	workoutLog, err := f.svc.GetWorkoutLog(context.Background(), f.userID, logID)
	require.NoError(t, err)
	require.Len(t, workoutLog.Exercises, 2)
	assert.Equal(t, f.planID, workoutLog.PlanID)
	assert.Equal(t, 1800, workoutLog.Duration)
	assert.Equal(t, testNow, workoutLog.CreatedAt)
	assert.Equal(t, 1500.0, workoutLog.Exercises[0].Volume)

	streak := f.streak(t)
	assert.Equal(t, 1, streak.CurrentDays)
	assert.Equal(t, 1, streak.LongestDays)
	require.NotNil(t, streak.LastActiveOn)
	assert.True(t, testNow.Equal(*streak.LastActiveOn))

	prs := f.records(t)
	require.Len(t, prs, 2)
	assert.Equal(t, domain.FieldVolume, prs[f.bench].Field)
	assert.Equal(t, 1500.0, prs[f.bench].Value)
	assert.Equal(t, domain.FieldCaloriesBurned, prs[f.running].Field)
	assert.Equal(t, 300.0, prs[f.running].Value)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CounterWorkoutLogsSaved))
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.CounterPersonalRecordsBroken))
}

func TestSubmitLog_Streak(t *testing.T) {
	tests := []struct {
		name        string
		before      domain.Streak
		wantCurrent int
		wantLongest int
	}{
		{
			name:        "yesterday extends the streak",
			before:      domain.Streak{CurrentDays: 4, LongestDays: 4, LastActiveOn: daysAgo(1)},
			wantCurrent: 5,
			wantLongest: 5,
		},
		{
			name:        "three days ago resets the streak",
			before:      domain.Streak{CurrentDays: 6, LongestDays: 9, LastActiveOn: daysAgo(3)},
			wantCurrent: 1,
			wantLongest: 9,
		},
		{
			name:        "same day leaves the counters alone",
			before:      domain.Streak{CurrentDays: 2, LongestDays: 7, LastActiveOn: daysAgo(0)},
			wantCurrent: 2,
			wantLongest: 7,
		},
		{
			name:        "longest is kept when current stays below it",
			before:      domain.Streak{CurrentDays: 2, LongestDays: 7, LastActiveOn: daysAgo(1)},
			wantCurrent: 3,
			wantLongest: 7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.setStreak(t, tt.before)

			f.submit(t, strength(f.bench, 3, 10, 50))

			got := f.streak(t)
			assert.Equal(t, tt.wantCurrent, got.CurrentDays)
			assert.Equal(t, tt.wantLongest, got.LongestDays)
			assert.GreaterOrEqual(t, got.LongestDays, got.CurrentDays)
			assert.True(t, testNow.Equal(*got.LastActiveOn))
		})
	}
}

func TestSubmitLog_StreakUsesConfiguredTimezone(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	f := newFixture(t, service.WithLocation(tokyo))
	// In Tokyo the last activity falls on the 14th and testNow on the 16th,
	// although both are a calendar day apart in UTC.
	last := time.Date(2024, 3, 14, 14, 0, 0, 0, time.UTC)
	f.setStreak(t, domain.Streak{CurrentDays: 3, LongestDays: 3, LastActiveOn: &last})

	f.submit(t, strength(f.bench, 1, 1, 1))

	assert.Equal(t, 1, f.streak(t).CurrentDays)
}

func TestSubmitLog_PersonalRecordNeverDecreases(t *testing.T) {
	f := newFixture(t)

	f.submit(t, strength(f.bench, 3, 10, 50))
	f.submit(t, strength(f.bench, 3, 10, 30))
	assert.Equal(t, 1500.0, f.records(t)[f.bench].Value)

	f.submit(t, strength(f.bench, 3, 10, 60))
	assert.Equal(t, 1800.0, f.records(t)[f.bench].Value)
}

func TestSubmitLog_PersonalRecordKeepsItsField(t *testing.T) {
	f := newFixture(t)
	_, err := f.store.PersonalRecords().Create(context.Background(), &domain.PersonalRecord{
		UserID: f.userID, ExerciseID: f.bench, Field: domain.FieldWeightUsed, Value: 40,
	})
	require.NoError(t, err)

	f.submit(t, strength(f.bench, 3, 10, 45))

	pr := f.records(t)[f.bench]
	assert.Equal(t, domain.FieldWeightUsed, pr.Field)
	assert.Equal(t, 45.0, pr.Value)
}

func TestSubmitLog_SameExerciseTwiceInOneLog(t *testing.T) {
	f := newFixture(t)

	f.submit(t, domain.CategorizedEntries{
		Strength: []domain.StrengthEntry{
			{ExerciseID: f.bench, Sets: 1, Reps: 10, WeightUsed: 50},
			{ExerciseID: f.bench, Sets: 1, Reps: 10, WeightUsed: 70},
			{ExerciseID: f.bench, Sets: 1, Reps: 10, WeightUsed: 60},
		},
	})

	prs := f.records(t)
	require.Len(t, prs, 1)
	assert.Equal(t, 700.0, prs[f.bench].Value)
}

func TestSubmitLog_GoalAchieved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	goal := &domain.Goal{
		UserID: f.userID, TargetExerciseID: f.bench, TargetField: domain.FieldVolume,
		InitialValue: 50, CurrentValue: 80, TargetValue: 100, TargetDate: testNow.AddDate(0, 1, 0),
	}
	_, err := f.store.Goals().Create(ctx, goal)
	require.NoError(t, err)

	other := &domain.Goal{
		UserID: f.userID, TargetExerciseID: f.running, TargetField: domain.FieldDistance,
		CurrentValue: 3, TargetValue: 10, TargetDate: testNow.AddDate(0, 1, 0),
	}
	_, err = f.store.Goals().Create(ctx, other)
	require.NoError(t, err)

	f.submit(t, domain.CategorizedEntries{
		Strength: []domain.StrengthEntry{{ExerciseID: f.bench, Sets: 1, Reps: 1, WeightUsed: 1, Volume: 120}},
	})

	got, err := f.store.Goals().GetByID(ctx, goal.ID)
	require.NoError(t, err)
	assert.Equal(t, 120.0, got.CurrentValue)
	assert.Equal(t, domain.GoalAchieved, got.Status)

	untouched, err := f.store.Goals().GetByID(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, 3.0, untouched.CurrentValue)
	assert.Equal(t, domain.GoalInProgress, untouched.Status)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CounterGoalsAchieved))

	// an achieved goal is frozen
	f.submit(t, domain.CategorizedEntries{
		Strength: []domain.StrengthEntry{{ExerciseID: f.bench, Volume: 500}},
	})
	got, err = f.store.Goals().GetByID(ctx, goal.ID)
	require.NoError(t, err)
	assert.Equal(t, 120.0, got.CurrentValue)
}

func TestSubmitLog_GoalProgressIsMonotonic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	goal := &domain.Goal{
		UserID: f.userID, TargetExerciseID: f.bench, TargetField: domain.FieldWeightUsed,
		CurrentValue: 40, TargetValue: 100, TargetDate: testNow.AddDate(0, 1, 0),
	}
	_, err := f.store.Goals().Create(ctx, goal)
	require.NoError(t, err)

	f.submit(t, strength(f.bench, 3, 10, 60))
	f.submit(t, strength(f.bench, 3, 10, 45))

	got, err := f.store.Goals().GetByID(ctx, goal.ID)
	require.NoError(t, err)
	assert.Equal(t, 60.0, got.CurrentValue)
	assert.Equal(t, domain.GoalInProgress, got.Status)
}

func TestSubmitLog_UnknownExerciseFailsWholeLog(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.SubmitLog(context.Background(), f.userID, service.SubmitLogInput{
		PlanID: f.planID,
		Entries: domain.CategorizedEntries{
			Strength: []domain.StrengthEntry{{ExerciseID: f.bench, Sets: 3, Reps: 10, WeightUsed: 50}},
			Cardio:   []domain.CardioEntry{{ExerciseID: primitive.NewObjectID(), CaloriesBurned: 200}},
		},
	})
	require.ErrorIs(t, err, service.ErrSaveWorkoutFailed)
	require.ErrorIs(t, err, service.ErrExerciseNotFound)

	assert.Zero(t, f.streak(t).CurrentDays)
	assert.Empty(t, f.records(t))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CounterWorkoutLogsFailed))
}

func TestSubmitLog_UnknownPlan(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.SubmitLog(context.Background(), f.userID, service.SubmitLogInput{
		PlanID:  primitive.NewObjectID(),
		Entries: strength(f.bench, 3, 10, 50),
	})
	require.ErrorIs(t, err, service.ErrSaveWorkoutFailed)
	require.ErrorIs(t, err, service.ErrPlanNotFound)
	assert.Empty(t, f.records(t))
}

func TestSubmitLog_InvalidInput(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.SubmitLog(context.Background(), f.userID, service.SubmitLogInput{
		PlanID:  f.planID,
		Entries: strength(primitive.NilObjectID, 1, 1, 1),
	})
	require.ErrorIs(t, err, service.ErrInvalidLogEntry)
	require.ErrorIs(t, err, service.ErrSaveWorkoutFailed)

	_, err = f.svc.SubmitLog(context.Background(), f.userID, service.SubmitLogInput{PlanID: f.planID, Duration: -1})
	require.ErrorIs(t, err, service.ErrInvalidLogEntry)
}

type failingGoals struct {
	repository.GoalRepository
}

func (failingGoals) UpdateProgress(context.Context, primitive.ObjectID, float64, domain.GoalStatus, time.Time) error {
	return errors.New("connection reset by peer")
}

type failingStore struct {
	repository.Store
}

func (s failingStore) Goals() repository.GoalRepository {
	return failingGoals{s.Store.Goals()}
}

// failingTx injects a goal write failure after the log, streak and record writes.
type failingTx struct {
	*memory.Store
}

func (f failingTx) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	return f.Store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		return fn(ctx, failingStore{tx})
	})
}

func TestSubmitLog_LateFailureRollsBackEverything(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.setStreak(t, domain.Streak{CurrentDays: 4, LongestDays: 4, LastActiveOn: daysAgo(1)})

	goal := &domain.Goal{
		UserID: f.userID, TargetExerciseID: f.bench, TargetField: domain.FieldVolume,
		CurrentValue: 80, TargetValue: 100, TargetDate: testNow.AddDate(0, 1, 0),
	}
	_, err := f.store.Goals().Create(ctx, goal)
	require.NoError(t, err)

	svc := service.NewProgressionService(f.store, failingTx{f.store},
		service.WithProgressionClock(func() time.Time { return testNow }))

	_, err = svc.SubmitLog(ctx, f.userID, service.SubmitLogInput{
		PlanID:  f.planID,
		Entries: strength(f.bench, 3, 10, 50),
	})
	require.ErrorIs(t, err, service.ErrSaveWorkoutFailed)
	assert.Contains(t, err.Error(), "failed to save workout")

	assert.Equal(t, 4, f.streak(t).CurrentDays)
	assert.Empty(t, f.records(t))

	got, err := f.store.Goals().GetByID(ctx, goal.ID)
	require.NoError(t, err)
	assert.Equal(t, 80.0, got.CurrentValue)
}

// missedGoals flips goals to MISSED right after they are read, the way the
// overdue sweeper can between the read and the progress write.
type missedGoals struct {
	repository.GoalRepository
}

func (g missedGoals) GetInProgressByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.Goal, error) {
	goals, err := g.GoalRepository.GetInProgressByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, goal := range goals {
		if err := g.UpdateStatus(ctx, goal.ID, domain.GoalInProgress, domain.GoalMissed, testNow); err != nil {
			return nil, err
		}
	}
	return goals, nil
}

type missedGoalsStore struct {
	repository.Store
}

func (s missedGoalsStore) Goals() repository.GoalRepository {
	return missedGoals{s.Store.Goals()}
}

type missedGoalsTx struct {
	*memory.Store
}

func (m missedGoalsTx) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	return m.Store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		return fn(ctx, missedGoalsStore{tx})
	})
}

func TestSubmitLog_GoalClosedConcurrentlyIsSkipped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	goal := &domain.Goal{
		UserID: f.userID, TargetExerciseID: f.bench, TargetField: domain.FieldVolume,
		CurrentValue: 80, TargetValue: 1000, TargetDate: testNow.AddDate(0, 1, 0),
	}
	_, err := f.store.Goals().Create(ctx, goal)
	require.NoError(t, err)

	svc := service.NewProgressionService(f.store, missedGoalsTx{f.store},
		service.WithProgressionClock(func() time.Time { return testNow }))

	logID, err := svc.SubmitLog(ctx, f.userID, service.SubmitLogInput{
		PlanID:  f.planID,
		Entries: strength(f.bench, 3, 10, 50),
	})
	require.NoError(t, err)

	_, err = f.store.WorkoutLogs().GetByID(ctx, logID)
	require.NoError(t, err)
	assert.Equal(t, 1, f.streak(t).CurrentDays)
	assert.Len(t, f.records(t), 1)

	got, err := f.store.Goals().GetByID(ctx, goal.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.GoalMissed, got.Status)
	assert.Equal(t, 80.0, got.CurrentValue)
}

type fakeArchive struct {
	mu   sync.Mutex
	keys []string
	fail bool
}

func (a *fakeArchive) PutObject(_ context.Context, key string, contentType string, body []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.fail {
		return errors.New("bucket unavailable")
	}
	a.keys = append(a.keys, key)
	return nil
}

func (a *fakeArchive) GeneratePresignedDownloadURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://archive.example.com/" + key, nil
}

func (a *fakeArchive) DeleteObject(context.Context, string) error { return nil }

func TestSubmitLog_ArchivesCommittedLog(t *testing.T) {
	archive := &fakeArchive{}
	f := newFixture(t, service.WithArchive(archive))

	logID := f.submit(t, strength(f.bench, 3, 10, 50))

	wantKey := "workout-logs/" + f.userID.Hex() + "/" + logID.Hex() + ".json"
	assert.Equal(t, []string{wantKey}, archive.keys)

	url, err := f.svc.GetArchiveURL(context.Background(), f.userID, logID)
	require.NoError(t, err)
	assert.Equal(t, "https://archive.example.com/"+wantKey, url)
}

func TestSubmitLog_ArchiveFailureKeepsLog(t *testing.T) {
	archive := &fakeArchive{fail: true}
	f := newFixture(t, service.WithArchive(archive))

	logID := f.submit(t, strength(f.bench, 3, 10, 50))

	_, err := f.svc.GetWorkoutLog(context.Background(), f.userID, logID)
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CounterArchiveFailures))
}

func TestGetArchiveURL_Disabled(t *testing.T) {
	f := newFixture(t)
	logID := f.submit(t, strength(f.bench, 3, 10, 50))

	_, err := f.svc.GetArchiveURL(context.Background(), f.userID, logID)
	assert.ErrorIs(t, err, service.ErrArchiveDisabled)
}

func TestGetWorkoutLog_OtherUser(t *testing.T) {
	f := newFixture(t)
	logID := f.submit(t, strength(f.bench, 3, 10, 50))

	_, err := f.svc.GetWorkoutLog(context.Background(), primitive.NewObjectID(), logID)
	assert.ErrorIs(t, err, service.ErrWorkoutLogNotFound)
}

func TestGetProgress(t *testing.T) {
	f := newFixture(t)
	f.submit(t, strength(f.bench, 3, 10, 50))

	progress, err := f.svc.GetProgress(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Equal(t, 1, progress.Streak.CurrentDays)
	require.Len(t, progress.PersonalRecords, 1)
	assert.Equal(t, 1500.0, progress.PersonalRecords[0].Value)
}

// A two exercise plan with sets 2 and 1 driven to the end yields three
// completed sets, logged as three entries of one workout log.
func TestSessionToSubmittedLog(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	plan, err := service.NewPlanService(f.store.Plans(), f.store.Exercises()).GetPlan(ctx, f.planID)
	require.NoError(t, err)

	clock := testNow.Add(-30 * time.Minute)
	c := session.NewController(session.WithClock(func() time.Time { return clock }))
	require.NoError(t, c.PushInitial(plan.Exercises))

	for steps := 0; !c.HasEnded(); steps++ {
		require.Less(t, steps, 10)
		clock = clock.Add(time.Minute)
		c.Next()
	}

	completed := c.Completed()
	require.Len(t, completed, 3)

	var entries domain.CategorizedEntries
	for _, item := range completed {
		switch item.Exercise.Category() {
		case domain.CategoryStrength:
			entries.Strength = append(entries.Strength, domain.StrengthEntry{
				ExerciseID: item.Exercise.ExerciseID, Sets: 1, Reps: item.Exercise.Reps, WeightUsed: 40,
			})
		case domain.CategoryCardio:
			entries.Cardio = append(entries.Cardio, domain.CardioEntry{
				ExerciseID: item.Exercise.ExerciseID, Duration: 600, CaloriesBurned: 120,
			})
		}
	}

	logID, err := f.svc.SubmitLog(ctx, f.userID, service.SubmitLogInput{
		PlanID:   f.planID,
		Duration: int(c.Elapsed().Seconds()),
		Entries:  entries,
	})
	require.NoError(t, err)

	workoutLog, err := f.svc.GetWorkoutLog(ctx, f.userID, logID)
	require.NoError(t, err)
	assert.Len(t, workoutLog.Exercises, 3)
	assert.Equal(t, 300, workoutLog.Duration)
}
