package api_test

import (
	"alcyxob/workout-engine/internal/api"
	"alcyxob/workout-engine/internal/domain"
	"alcyxob/workout-engine/internal/metrics"
	"alcyxob/workout-engine/internal/repository/memory"
	"alcyxob/workout-engine/internal/service"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret        = "test-secret"
	testAdminEmail    = "admin@example.com"
	testAdminPassword = "admin-password"
)

type testServer struct {
	router *gin.Engine
	store  *memory.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	m, reg := metrics.NewTestManagerAndRegistry()

	authService := service.NewAuthService(store.Users(), testSecret, time.Hour)
	require.NoError(t, authService.EnsureAdmin(context.Background(), testAdminEmail, testAdminPassword))

	router := gin.New()
	api.SetupRoutes(router, testSecret, m, reg, api.Services{
		Auth:        authService,
		Exercises:   service.NewExerciseService(store.Exercises()),
		Plans:       service.NewPlanService(store.Plans(), store.Exercises()),
		Progression: service.NewProgressionService(store, store, service.WithMetrics(m)),
		Goals:       service.NewGoalService(store.Goals(), store.Exercises(), m, time.UTC, nil),
	})
	return &testServer{router: router, store: store}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/auth/login", "", api.LoginRequest{Email: email, Password: password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp api.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func (s *testServer) registerAthlete(t *testing.T, email string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/auth/register", "", api.RegisterRequest{
		Name: "Athlete", Email: email, Password: "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return s.login(t, email, "password123")
}

func (s *testServer) createExercise(t *testing.T, adminToken, name string, category domain.Category) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/exercises", adminToken, api.CreateExerciseRequest{Name: name, Category: category})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp api.ExerciseResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.ID
}

func (s *testServer) createPlan(t *testing.T, token string, exerciseIDs ...string) string {
	t.Helper()
	req := api.CreatePlanRequest{Name: "Push day"}
	for _, id := range exerciseIDs {
		req.Exercises = append(req.Exercises, api.PlanExerciseRequest{ExerciseID: id, Sets: 3, Reps: 8, Rest: 90})
	}
	w := s.do(t, http.MethodPost, "/api/v1/plans", token, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var plan domain.Plan
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &plan))
	return plan.ID.Hex()
}

func TestPing(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/ping", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(api.HeaderRequestID))
}

func TestRequestIDIsPropagated(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(api.HeaderRequestID, "req-42")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Header().Get(api.HeaderRequestID))
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodGet, "/ping", "", nil)

	w := s.do(t, http.MethodGet, "/metrics", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "requests")
}

func TestAuthMiddleware(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			s.router.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	s := newTestServer(t)
	s.registerAthlete(t, "ann@example.com")

	w := s.do(t, http.MethodPost, "/api/v1/auth/register", "", api.RegisterRequest{
		Name: "Ann again", Email: "ANN@example.com", Password: "password123",
	})

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLogin_WrongPassword(t *testing.T) {
	s := newTestServer(t)
	s.registerAthlete(t, "ann@example.com")

	w := s.do(t, http.MethodPost, "/api/v1/auth/login", "", api.LoginRequest{Email: "ann@example.com", Password: "nope-nope"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateExercise_RequiresAdmin(t *testing.T) {
	s := newTestServer(t)
	athlete := s.registerAthlete(t, "ann@example.com")

	w := s.do(t, http.MethodPost, "/api/v1/exercises", athlete, api.CreateExerciseRequest{Name: "Squat", Category: domain.CategoryStrength})
	assert.Equal(t, http.StatusForbidden, w.Code)

	admin := s.login(t, testAdminEmail, testAdminPassword)
	w = s.do(t, http.MethodPost, "/api/v1/exercises", admin, api.CreateExerciseRequest{Name: "Squat", Category: "yoga"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetExercise(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, testAdminEmail, testAdminPassword)
	id := s.createExercise(t, admin, "Rowing", domain.CategoryCardio)

	w := s.do(t, http.MethodGet, "/api/v1/exercises/"+id, admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp api.ExerciseResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, domain.FieldCaloriesBurned, resp.CanonicalField)

	w = s.do(t, http.MethodGet, "/api/v1/exercises/000000000000000000000001", admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/exercises/bad", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreatePlan_Errors(t *testing.T) {
	s := newTestServer(t)
	athlete := s.registerAthlete(t, "ann@example.com")

	w := s.do(t, http.MethodPost, "/api/v1/plans", athlete, api.CreatePlanRequest{Name: "Empty"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/plans", athlete, api.CreatePlanRequest{
		Name:      "Ghost",
		Exercises: []api.PlanExerciseRequest{{ExerciseID: "000000000000000000000001", Sets: 1}},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/plans/000000000000000000000001", athlete, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWorkoutFlow(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, testAdminEmail, testAdminPassword)
	bench := s.createExercise(t, admin, "Bench press", domain.CategoryStrength)
	athlete := s.registerAthlete(t, "ann@example.com")
	planID := s.createPlan(t, athlete, bench)

	w := s.do(t, http.MethodGet, "/api/v1/plans/"+planID, athlete, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var plan domain.Plan
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &plan))
	require.Len(t, plan.Exercises, 1)
	require.NotNil(t, plan.Exercises[0].Exercise)
	assert.Equal(t, "Bench press", plan.Exercises[0].Exercise.Name)

	body := map[string]any{
		"planId":   planID,
		"duration": 1200,
		"entries": map[string]any{
			"strength": []map[string]any{
				{"exerciseId": bench, "sets": 1, "reps": 8, "weightUsed": 80},
				{"exerciseId": bench, "sets": 1, "reps": 6, "weightUsed": 85},
			},
		},
	}
	w = s.do(t, http.MethodPost, "/api/v1/workout-logs", athlete, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created api.SubmitLogResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)

	w = s.do(t, http.MethodGet, "/api/v1/me/progress", athlete, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var progress service.Progress
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &progress))
	assert.Equal(t, 1, progress.Streak.CurrentDays)
	require.Len(t, progress.PersonalRecords, 1)
	// 1x8x80 beats 1x6x85 on volume.
	assert.Equal(t, domain.FieldVolume, progress.PersonalRecords[0].Field)
	assert.Equal(t, 640.0, progress.PersonalRecords[0].Value)

	w = s.do(t, http.MethodGet, "/api/v1/workout-logs/"+created.ID, athlete, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var saved domain.WorkoutLog
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &saved))
	assert.Len(t, saved.Exercises, 2)

	w = s.do(t, http.MethodGet, "/api/v1/workout-logs/"+created.ID+"/archive", athlete, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	other := s.registerAthlete(t, "bob@example.com")
	w = s.do(t, http.MethodGet, "/api/v1/workout-logs/"+created.ID, other, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmitLog_Errors(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, testAdminEmail, testAdminPassword)
	bench := s.createExercise(t, admin, "Bench press", domain.CategoryStrength)
	athlete := s.registerAthlete(t, "ann@example.com")
	planID := s.createPlan(t, athlete, bench)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", `{"planId":`, http.StatusBadRequest},
		{"bad plan id", `{"planId":"nope"}`, http.StatusBadRequest},
		{"unknown plan", `{"planId":"000000000000000000000001"}`, http.StatusNotFound},
		{"negative duration", `{"planId":"` + planID + `","duration":-5}`, http.StatusBadRequest},
		{"entry without exercise", `{"planId":"` + planID + `","entries":{"strength":[{"sets":1,"reps":5}]}}`, http.StatusBadRequest},
		{"unknown exercise", `{"planId":"` + planID + `","entries":{"core":[{"exerciseId":"000000000000000000000002","plankHoldTime":60}]}}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/workout-logs", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+athlete)
			w := httptest.NewRecorder()
			s.router.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestSubmitLog_UnknownUser(t *testing.T) {
	// The token is valid for both servers, but its user only exists on the first.
	stale := newTestServer(t).registerAthlete(t, "gone@example.com")

	s := newTestServer(t)
	admin := s.login(t, testAdminEmail, testAdminPassword)
	bench := s.createExercise(t, admin, "Bench press", domain.CategoryStrength)
	planID := s.createPlan(t, admin, bench)

	w := s.do(t, http.MethodPost, "/api/v1/workout-logs", stale, api.SubmitLogRequest{
		PlanID:   planID,
		Duration: 600,
	})
	assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "user not found")
}

func TestGoals(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, testAdminEmail, testAdminPassword)
	bench := s.createExercise(t, admin, "Bench press", domain.CategoryStrength)
	athlete := s.registerAthlete(t, "ann@example.com")
	planID := s.createPlan(t, athlete, bench)

	w := s.do(t, http.MethodPost, "/api/v1/goals", athlete, api.CreateGoalRequest{
		TargetExerciseID: bench,
		TargetField:      domain.FieldWeightUsed,
		InitialValue:     60,
		TargetValue:      100,
		TargetDate:       time.Now().AddDate(0, 1, 0),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var goal domain.Goal
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &goal))
	assert.Equal(t, domain.GoalInProgress, goal.Status)

	w = s.do(t, http.MethodPost, "/api/v1/workout-logs", athlete, map[string]any{
		"planId": planID,
		"entries": map[string]any{
			"strength": []map[string]any{{"exerciseId": bench, "sets": 1, "reps": 3, "weightUsed": 100}},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/v1/goals", athlete, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var goals []domain.Goal
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &goals))
	require.Len(t, goals, 1)
	assert.Equal(t, domain.GoalAchieved, goals[0].Status)
	assert.Equal(t, 100.0, goals[0].CurrentValue)

	w = s.do(t, http.MethodPost, "/api/v1/goals/"+goal.ID.Hex()+"/abandon", athlete, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/goals", athlete, api.CreateGoalRequest{
		TargetExerciseID: bench,
		TargetField:      domain.FieldWeightUsed,
		InitialValue:     100,
		TargetValue:      90,
		TargetDate:       time.Now().AddDate(0, 1, 0),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
