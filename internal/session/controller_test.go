package session_test

import (
	"testing"
	"time"

	"alcyxob/workout-engine/internal/domain"
	"alcyxob/workout-engine/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func intPtr(v int) *int { return &v }

func planOf(sets ...int) []domain.PlanExercise {
	plan := make([]domain.PlanExercise, len(sets))
	for i, s := range sets {
		plan[i] = domain.PlanExercise{
			Position:   i + 1,
			ExerciseID: primitive.NewObjectID(),
			Sets:       s,
			Reps:       10,
			Rest:       30,
		}
	}
	return plan
}

func started(t *testing.T, plan []domain.PlanExercise) *session.Controller {
	t.Helper()
	c := session.NewController()
	require.NoError(t, c.PushInitial(plan))
	return c
}

func sum(plan []domain.PlanExercise) int {
	n := 0
	for _, pe := range plan {
		n += pe.Sets
	}
	return n
}

func TestController_PushInitial(t *testing.T) {
	c := session.NewController()
	assert.ErrorIs(t, c.PushInitial(nil), session.ErrEmptyPlan)
	assert.ErrorIs(t, c.PushInitial(planOf(2, 0)), session.ErrEmptyPlan)

	plan := planOf(2)
	require.NoError(t, c.PushInitial(plan))

	item, ok := c.CurrentItem()
	require.True(t, ok)
	assert.Equal(t, session.PhaseWork, item.Phase)
	assert.Equal(t, 1, item.Values.Set)
	assert.Equal(t, 10, item.Values.Reps)
	assert.Equal(t, plan[0].ExerciseID, item.Exercise.ExerciseID)
	assert.Equal(t, session.TimerIdle, c.TimerState(), "rep-based work is not timed")
	assert.Equal(t, 1, c.Depth())
	assert.False(t, c.HasEnded())
}

func TestController_NavigationBeforeStartIsIgnored(t *testing.T) {
	c := session.NewController()
	c.Next()
	c.Prev()
	c.Pause()
	c.End()
	assert.False(t, c.Tick(c.TimerID()))

	_, ok := c.CurrentItem()
	assert.False(t, ok)
	assert.False(t, c.HasEnded())
}

func TestController_NextReachesEnd(t *testing.T) {
	for _, sets := range [][]int{{1}, {2, 1}, {3}, {3, 2, 4}, {1, 1, 1, 1}} {
		plan := planOf(sets...)
		c := started(t, plan)

		want := 2*sum(plan) - 1
		for i := 0; i < want-1; i++ {
			c.Next()
			require.False(t, c.HasEnded(), "sets %v ended early after %d calls", sets, i+1)
		}
		c.Next()
		assert.True(t, c.HasEnded(), "sets %v", sets)
		assert.Len(t, c.Completed(), sum(plan))
	}
}

func TestController_TransitionTable(t *testing.T) {
	plan := planOf(2, 1)
	c := started(t, plan)

	type step struct {
		phase    session.Phase
		set      int
		exercise int
		timer    session.TimerState
	}
	want := []step{
		{session.PhaseRest, 1, 0, session.TimerRunning},
		{session.PhaseWork, 2, 0, session.TimerIdle},
		{session.PhaseRest, 2, 0, session.TimerRunning},
		{session.PhaseWork, 1, 1, session.TimerIdle},
	}
	for i, w := range want {
		c.Next()
		item, ok := c.CurrentItem()
		require.True(t, ok, i)
		assert.Equal(t, w.phase, item.Phase, i)
		assert.Equal(t, w.phase, c.Phase(), i)
		assert.Equal(t, w.set, item.Values.Set, i)
		assert.Equal(t, w.exercise, c.ExerciseIndex(), i)
		assert.Equal(t, plan[w.exercise].ExerciseID, item.Exercise.ExerciseID, i)
		assert.Equal(t, w.timer, c.TimerState(), i)
		if w.phase == session.PhaseRest {
			assert.Equal(t, 30, c.TimeRemaining(), i)
		}
	}

	c.Next()
	assert.True(t, c.HasEnded())
	assert.Equal(t, session.PhaseWork, c.Phase())
	assert.Equal(t, 0, c.TimeRemaining())
	assert.Equal(t, session.TimerIdle, c.TimerState())
	assert.Equal(t, 0, c.Depth())

	completed := c.Completed()
	require.Len(t, completed, 3)
	assert.Equal(t, 1, completed[0].Values.Set)
	assert.Equal(t, 2, completed[1].Values.Set)
	assert.Equal(t, plan[1].ExerciseID, completed[2].Exercise.ExerciseID)
}

func TestController_PrevThenNextRestoresState(t *testing.T) {
	plan := planOf(2, 2, 1)
	plan[1].Time = intPtr(45)
	c := started(t, plan)

	for !c.HasEnded() {
		before := c.State()
		if c.Depth() > 1 {
			c.Prev()
			c.Next()
			assert.Equal(t, before, c.State(), "prev+next at depth %d", before.Depth)
		}
		c.Next()
	}
}

func TestController_NextThenPrevRestoresState(t *testing.T) {
	plan := planOf(2, 2, 1)
	plan[1].Time = intPtr(45)
	c := started(t, plan)

	total := 2*sum(plan) - 1
	for i := 0; i < total-1; i++ {
		before := c.State()
		c.Next()
		c.Prev()
		assert.Equal(t, before, c.State(), "next+prev at step %d", i)
		c.Next()
	}
}

func TestController_PrevCrossesExerciseBoundary(t *testing.T) {
	c := started(t, planOf(1, 1))

	c.Next() // rest of exercise 0
	c.Next() // work of exercise 1
	require.Equal(t, 1, c.ExerciseIndex())

	c.Prev()
	assert.Equal(t, 0, c.ExerciseIndex())
	assert.Equal(t, session.PhaseRest, c.Phase())
	assert.Equal(t, session.TimerRunning, c.TimerState())
	assert.Equal(t, 30, c.TimeRemaining())

	c.Prev()
	assert.Equal(t, 0, c.ExerciseIndex())
	assert.Equal(t, session.PhaseWork, c.Phase())
	assert.Equal(t, 1, c.Depth())

	// first item stays
	c.Prev()
	assert.Equal(t, 1, c.Depth())
}

func TestController_TimerFiresExactlyOnce(t *testing.T) {
	plan := planOf(2)
	plan[0].Rest = 5
	c := started(t, plan)

	c.Next()
	require.Equal(t, session.PhaseRest, c.Phase())
	id := c.TimerID()

	fired := 0
	for i := 0; i < 5; i++ {
		if c.Tick(id) {
			fired++
		}
	}
	assert.Equal(t, 1, fired)
	assert.Equal(t, session.PhaseWork, c.Phase())
	item, _ := c.CurrentItem()
	assert.Equal(t, 2, item.Values.Set)

	// late ticks from the finished countdown are dropped
	for i := 0; i < 3; i++ {
		assert.False(t, c.Tick(id))
	}
	assert.Equal(t, 3, c.Depth())
}

func TestController_TickBeforeZeroDoesNotAdvance(t *testing.T) {
	plan := planOf(2)
	plan[0].Rest = 3
	c := started(t, plan)
	c.Next()

	id := c.TimerID()
	assert.False(t, c.Tick(id))
	assert.False(t, c.Tick(id))
	assert.Equal(t, 1, c.TimeRemaining())
	assert.Equal(t, session.PhaseRest, c.Phase())
}

func TestController_StaleTickAfterPhaseChange(t *testing.T) {
	plan := planOf(3)
	plan[0].Rest = 2
	c := started(t, plan)

	c.Next()
	stale := c.TimerID()
	c.Next() // manual skip of the rest
	require.Equal(t, session.PhaseWork, c.Phase())

	assert.False(t, c.Tick(stale))
	assert.False(t, c.Tick(stale))
	assert.Equal(t, session.PhaseWork, c.Phase())
	assert.Equal(t, 3, c.Depth())
}

func TestController_TimedWorkInterval(t *testing.T) {
	plan := planOf(1, 1)
	plan[0].Time = intPtr(2)
	c := started(t, plan)

	item, _ := c.CurrentItem()
	assert.Equal(t, 2, item.Values.Time)
	assert.Equal(t, session.TimerRunning, c.TimerState())
	assert.Equal(t, 2, c.TimeRemaining())

	id := c.TimerID()
	assert.False(t, c.Tick(id))
	assert.True(t, c.Tick(id))
	assert.Equal(t, session.PhaseRest, c.Phase())
	assert.Equal(t, 30, c.TimeRemaining())
}

func TestController_Pause(t *testing.T) {
	plan := planOf(2)
	plan[0].Rest = 10
	c := started(t, plan)

	// idle work item: pause is a no-op
	c.Pause()
	assert.Equal(t, session.TimerIdle, c.TimerState())
	assert.False(t, c.IsPaused())

	c.Next()
	c.Tick(c.TimerID())
	c.Tick(c.TimerID())
	require.Equal(t, 8, c.TimeRemaining())

	running := c.TimerID()
	c.Pause()
	assert.True(t, c.IsPaused())
	assert.False(t, c.Tick(running), "paused timer ignores ticks")
	assert.False(t, c.Tick(c.TimerID()))
	assert.Equal(t, 8, c.TimeRemaining())

	c.Pause()
	assert.True(t, c.IsTimerRunning())
	assert.False(t, c.Tick(running), "ticks scheduled before the pause stay stale")
	assert.False(t, c.Tick(c.TimerID()))
	assert.Equal(t, 7, c.TimeRemaining(), "resume continues from the frozen value")
}

func TestController_EndIsTerminal(t *testing.T) {
	now := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	c := session.NewController(session.WithClock(clock))
	require.NoError(t, c.PushInitial(planOf(3)))

	c.Next()
	c.Next()
	now = now.Add(25 * time.Minute)
	c.End()

	require.True(t, c.HasEnded())
	assert.Equal(t, 25*time.Minute, c.Elapsed())
	assert.Len(t, c.Completed(), 2)

	state := c.State()
	id := c.TimerID()
	c.Next()
	c.Prev()
	c.Pause()
	assert.False(t, c.Tick(id))
	c.End()
	assert.Equal(t, state, c.State())
	assert.Equal(t, 25*time.Minute, c.Elapsed())
}

func TestController_PushInitialResets(t *testing.T) {
	c := started(t, planOf(1))
	c.Next()
	require.True(t, c.HasEnded())

	require.NoError(t, c.PushInitial(planOf(2)))
	assert.False(t, c.HasEnded())
	assert.Equal(t, 1, c.Depth())
	assert.Empty(t, c.Completed())
}
