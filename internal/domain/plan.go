package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Plan is an ordered list of exercises a user works through in one session.
// A running session treats it as a read-only snapshot.
type Plan struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID     primitive.ObjectID `bson:"ownerId" json:"ownerId"`
	Name        string             `bson:"name" json:"name"` // e.g., "Phase 1: Hypertrophy"
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Exercises   []PlanExercise     `bson:"exercises" json:"exercises"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// PlanExercise is one entry of a plan. Rest and Time are in seconds.
// Time, when set, makes every work set of the exercise a timed interval.
type PlanExercise struct {
	Position   int                `bson:"position" json:"position"`
	ExerciseID primitive.ObjectID `bson:"exerciseId" json:"exerciseId"`
	// Exercise is resolved from the catalog when the plan is read; it is not stored.
	Exercise *Exercise `bson:"-" json:"exercise,omitempty"`
	Sets     int       `bson:"sets" json:"sets"`
	Reps     int       `bson:"reps" json:"reps"`
	Rest     int       `bson:"rest" json:"rest"`
	Time     *int      `bson:"time,omitempty" json:"time,omitempty"`
	Distance *float64  `bson:"distance,omitempty" json:"distance,omitempty"`
}

// IsTimed reports whether work sets of this exercise run on a countdown.
func (pe PlanExercise) IsTimed() bool {
	return pe.Time != nil && *pe.Time > 0
}

// Category returns the catalog category, or "" when the exercise is not resolved.
func (pe PlanExercise) Category() Category {
	if pe.Exercise == nil {
		return ""
	}
	return pe.Exercise.Category
}
