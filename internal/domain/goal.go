package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GoalStatus type for goal lifecycle
type GoalStatus string

const (
	GoalInProgress GoalStatus = "IN_PROGRESS"
	GoalAchieved   GoalStatus = "ACHIEVED"
	GoalMissed     GoalStatus = "MISSED"
	GoalAbandoned  GoalStatus = "ABANDONED"
)

func (s GoalStatus) IsValid() bool {
	switch s {
	case GoalInProgress, GoalAchieved, GoalMissed, GoalAbandoned:
		return true
	default:
		return false
	}
}

// Goal is a user-defined target value for one exercise field. CurrentValue
// only moves up, and only while the goal is IN_PROGRESS.
type Goal struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID           primitive.ObjectID `bson:"userId" json:"userId"`
	TargetExerciseID primitive.ObjectID `bson:"targetExerciseId" json:"targetExerciseId"`
	TargetField      MetricField        `bson:"targetField" json:"targetField"`
	InitialValue     float64            `bson:"initialValue" json:"initialValue"`
	CurrentValue     float64            `bson:"currentValue" json:"currentValue"`
	TargetValue      float64            `bson:"targetValue" json:"targetValue"`
	TargetDate       time.Time          `bson:"targetDate" json:"targetDate"`
	Status           GoalStatus         `bson:"status" json:"status"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}
