package session

import "alcyxob/workout-engine/internal/domain"

// Phase tells whether a stack item is active work or a rest interval.
type Phase string

const (
	PhaseWork Phase = "work"
	PhaseRest Phase = "rest"
)

// Values are the set-level values a workout item carries.
type Values struct {
	Set      int     `json:"set"`
	Reps     int     `json:"reps"`
	Distance float64 `json:"distance"`
	Time     int     `json:"time"` // seconds, 0 when the exercise is not timed
}

// WorkoutItem is one position in a running session. Items are never
// changed once pushed; every transition pushes a new one.
type WorkoutItem struct {
	Exercise domain.PlanExercise
	Phase    Phase
	Values   Values
}

// Stack is the navigable history of a session. The top is the current item.
type Stack struct {
	items []WorkoutItem
}

// Push appends item as the new top.
func (s *Stack) Push(item WorkoutItem) {
	s.items = append(s.items, item)
}

// Pop discards the top item. It does nothing when one item or fewer is
// left: the first item only goes away with Clear.
func (s *Stack) Pop() (WorkoutItem, bool) {
	if len(s.items) <= 1 {
		return WorkoutItem{}, false
	}
	top := s.items[len(s.items)-1]
	s.items[len(s.items)-1] = WorkoutItem{}
	s.items = s.items[:len(s.items)-1]
	return top, true
}

// Clear empties the stack.
func (s *Stack) Clear() {
	s.items = nil
}

// Top returns the current item.
func (s *Stack) Top() (WorkoutItem, bool) {
	if len(s.items) == 0 {
		return WorkoutItem{}, false
	}
	return s.items[len(s.items)-1], true
}

func (s *Stack) Len() int {
	return len(s.items)
}

// Items returns a copy of the stack, bottom first.
func (s *Stack) Items() []WorkoutItem {
	out := make([]WorkoutItem, len(s.items))
	copy(out, s.items)
	return out
}
