// Package session runs a workout plan as a navigable, timed state machine.
//
// A Controller is cooperative and single-threaded: the caller serialises
// button presses (Next, Prev, Pause, End) and one-second timer ticks
// through the same event loop. Nothing in this package starts goroutines.
package session

import (
	"errors"
	"time"

	"alcyxob/workout-engine/internal/domain"

	log "github.com/sirupsen/logrus"
)

var ErrEmptyPlan = errors.New("plan has no runnable exercises")

// TimerState describes the countdown of the current item.
type TimerState int

const (
	// TimerIdle means the item advances manually (untimed work sets).
	TimerIdle TimerState = iota
	TimerRunning
	TimerPaused
)

func (s TimerState) String() string {
	switch s {
	case TimerRunning:
		return "running"
	case TimerPaused:
		return "paused"
	default:
		return "idle"
	}
}

// State is an observable snapshot of a controller.
type State struct {
	Item          WorkoutItem
	HasItem       bool
	ExerciseIndex int
	Phase         Phase
	TimeRemaining int
	Timer         TimerState
	HasEnded      bool
	Depth         int
}

type Option func(*Controller)

// WithClock replaces time.Now, used for the session start and end instants.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

func WithLogger(logger log.FieldLogger) Option {
	return func(c *Controller) {
		c.log = logger
	}
}

// Controller owns the session stack, the countdown and the transition
// rules between work and rest, between sets and between exercises.
type Controller struct {
	plan  []domain.PlanExercise
	stack Stack

	// exerciseIndex is kept apart from stack depth: several stack entries
	// map to the same exercise across its sets.
	exerciseIndex int
	phase         Phase
	timeRemaining int
	timer         TimerState
	// timerID changes on every start, stop, pause and resume so a tick
	// scheduled for a superseded countdown is recognised and dropped.
	timerID   int
	timerDone bool

	started  bool
	hasEnded bool

	startedAt time.Time
	endedAt   time.Time
	completed []WorkoutItem

	now func() time.Time
	log log.FieldLogger
}

func NewController(opts ...Option) *Controller {
	c := &Controller{
		phase: PhaseWork,
		now:   time.Now,
		log:   log.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PushInitial starts a session on plan: the first set of the first
// exercise is pushed as a work item. Any previous session state is dropped.
func (c *Controller) PushInitial(plan []domain.PlanExercise) error {
	if len(plan) == 0 {
		return ErrEmptyPlan
	}
	for _, pe := range plan {
		if pe.Sets < 1 {
			return ErrEmptyPlan
		}
	}

	c.plan = make([]domain.PlanExercise, len(plan))
	copy(c.plan, plan)
	c.stack.Clear()
	c.exerciseIndex = 0
	c.completed = nil
	c.hasEnded = false
	c.started = true
	c.startedAt = c.now()
	c.endedAt = time.Time{}
	c.stopTimer()
	c.timeRemaining = 0

	c.pushWork(c.plan[0], 1)
	return nil
}

// Next advances the session by one transition. It is ignored before
// PushInitial and after the session ended.
func (c *Controller) Next() {
	top, ok := c.current()
	if !ok {
		return
	}

	ex := c.plan[c.exerciseIndex]
	lastExercise := c.exerciseIndex == len(c.plan)-1
	lastSet := top.Values.Set >= ex.Sets

	switch top.Phase {
	case PhaseWork:
		if lastSet && lastExercise {
			c.End()
			return
		}
		c.push(WorkoutItem{Exercise: ex, Phase: PhaseRest, Values: top.Values})
		c.startTimer(ex.Rest)
	case PhaseRest:
		switch {
		case !lastSet:
			c.pushWork(ex, top.Values.Set+1)
		case !lastExercise:
			c.exerciseIndex++
			c.pushWork(c.plan[c.exerciseIndex], 1)
		default:
			c.End()
			return
		}
	}

	c.log.WithFields(log.Fields{
		"exercise": c.exerciseIndex,
		"phase":    c.phase,
		"depth":    c.stack.Len(),
	}).Debug("session: next")
}

// Prev steps back to the previous item. It does nothing on the first item
// and after the session ended.
func (c *Controller) Prev() {
	if _, ok := c.current(); !ok || c.stack.Len() <= 1 {
		return
	}

	c.stack.Pop()
	top, _ := c.stack.Top()

	// Landing on the final rest of an exercise means the popped item was
	// the first set of the following exercise.
	if top.Phase == PhaseRest && top.Values.Set == top.Exercise.Sets && c.exerciseIndex > 0 {
		c.exerciseIndex--
	}

	ex := c.plan[c.exerciseIndex]
	c.phase = top.Phase
	if top.Phase == PhaseRest {
		c.startTimer(ex.Rest)
	} else {
		c.startWorkTimer(ex)
	}

	c.log.WithFields(log.Fields{
		"exercise": c.exerciseIndex,
		"phase":    c.phase,
		"depth":    c.stack.Len(),
	}).Debug("session: prev")
}

// Pause toggles a running countdown to paused and back. Resuming continues
// from the frozen remaining time. No-op while the timer is idle.
func (c *Controller) Pause() {
	if c.hasEnded {
		return
	}
	switch c.timer {
	case TimerRunning:
		c.timer = TimerPaused
		c.timerID++
	case TimerPaused:
		c.timer = TimerRunning
		c.timerID++
	}
}

// Tick advances the countdown by one second. id must be the TimerID that was
// current when the tick was scheduled; ticks for any other id are dropped.
// Reaching zero triggers exactly one automatic Next. It reports whether
// that transition happened.
func (c *Controller) Tick(id int) bool {
	if c.hasEnded || c.timer != TimerRunning || id != c.timerID {
		return false
	}

	if c.timeRemaining > 0 {
		c.timeRemaining--
	}
	if c.timeRemaining == 0 {
		c.timerDone = true
	}
	if !c.timerDone {
		return false
	}

	c.timerDone = false
	c.stopTimer()
	c.Next()
	return true
}

// End terminates the session. The work items on the stack are kept as the
// completed sets and the stack is discarded. Terminal: navigation is
// ignored afterwards.
func (c *Controller) End() {
	if !c.started || c.hasEnded {
		return
	}

	c.stopTimer()
	c.timeRemaining = 0
	c.phase = PhaseWork
	c.hasEnded = true
	c.endedAt = c.now()

	c.completed = c.completed[:0]
	for _, item := range c.stack.Items() {
		if item.Phase == PhaseWork {
			c.completed = append(c.completed, item)
		}
	}
	c.stack.Clear()

	c.log.WithFields(log.Fields{
		"sets":    len(c.completed),
		"elapsed": c.Elapsed().String(),
	}).Debug("session: ended")
}

// CurrentItem returns the top of the stack.
func (c *Controller) CurrentItem() (WorkoutItem, bool) {
	return c.stack.Top()
}

func (c *Controller) Phase() Phase { return c.phase }
func (c *Controller) TimeRemaining() int { return c.timeRemaining }
func (c *Controller) TimerState() TimerState { return c.timer }
func (c *Controller) TimerID() int { return c.timerID }
func (c *Controller) IsTimerRunning() bool { return c.timer == TimerRunning }
func (c *Controller) IsPaused() bool { return c.timer == TimerPaused }
func (c *Controller) HasEnded() bool { return c.hasEnded }
func (c *Controller) ExerciseIndex() int { return c.exerciseIndex }
func (c *Controller) Depth() int { return c.stack.Len() }
func (c *Controller) Plan() []domain.PlanExercise { return c.plan }

// Completed returns the work items that were on the stack when the session
// ended, one per set, in order.
func (c *Controller) Completed() []WorkoutItem {
	out := make([]WorkoutItem, len(c.completed))
	copy(out, c.completed)
	return out
}

// Elapsed is the wall time between PushInitial and End, or until now while
// the session runs.
func (c *Controller) Elapsed() time.Duration {
	if !c.started {
		return 0
	}
	if c.hasEnded {
		return c.endedAt.Sub(c.startedAt)
	}
	return c.now().Sub(c.startedAt)
}

func (c *Controller) State() State {
	item, ok := c.stack.Top()
	return State{
		Item:          item,
		HasItem:       ok,
		ExerciseIndex: c.exerciseIndex,
		Phase:         c.phase,
		TimeRemaining: c.timeRemaining,
		Timer:         c.timer,
		HasEnded:      c.hasEnded,
		Depth:         c.stack.Len(),
	}
}

func (c *Controller) current() (WorkoutItem, bool) {
	if !c.started || c.hasEnded {
		return WorkoutItem{}, false
	}
	return c.stack.Top()
}

func (c *Controller) push(item WorkoutItem) {
	c.stack.Push(item)
	c.phase = item.Phase
}

func (c *Controller) pushWork(ex domain.PlanExercise, set int) {
	values := Values{Set: set, Reps: ex.Reps}
	if ex.Distance != nil {
		values.Distance = *ex.Distance
	}
	if ex.IsTimed() {
		values.Time = *ex.Time
	}
	c.push(WorkoutItem{Exercise: ex, Phase: PhaseWork, Values: values})
	c.startWorkTimer(ex)
}

// startWorkTimer runs the interval countdown for timed exercises and leaves
// the timer idle for rep-based ones.
func (c *Controller) startWorkTimer(ex domain.PlanExercise) {
	if ex.IsTimed() {
		c.startTimer(*ex.Time)
		return
	}
	c.stopTimer()
	c.timeRemaining = 0
}

func (c *Controller) startTimer(seconds int) {
	c.timerDone = false
	c.timerID++
	if seconds <= 0 {
		c.timer = TimerIdle
		c.timeRemaining = 0
		return
	}
	c.timer = TimerRunning
	c.timeRemaining = seconds
}

func (c *Controller) stopTimer() {
	c.timerDone = false
	c.timer = TimerIdle
	c.timerID++
}
