package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutLog is the persisted record of one completed session. It is
// written once together with its exercise rows and never changed after.
type WorkoutLog struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	PlanID    primitive.ObjectID `bson:"planId" json:"planId"`
	Duration  int                `bson:"duration" json:"duration"` // seconds
	Notes     string             `bson:"notes,omitempty" json:"notes,omitempty"`
	Exercises []ExerciseLog      `bson:"exercises" json:"exercises"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// ExerciseLog is one logged plan-exercise instance. The numeric fields are
// a superset across categories; only those relevant to Category are
// meaningfully populated.
type ExerciseLog struct {
	ExerciseID           primitive.ObjectID `bson:"exerciseId" json:"exerciseId"`
	Category             Category           `bson:"category" json:"category"`
	Sets                 int                `bson:"sets,omitempty" json:"sets,omitempty"`
	Reps                 int                `bson:"reps,omitempty" json:"reps,omitempty"`
	WeightUsed           float64            `bson:"weightUsed,omitempty" json:"weightUsed,omitempty"`
	Volume               float64            `bson:"vol,omitempty" json:"vol,omitempty"`
	Distance             float64            `bson:"distance,omitempty" json:"distance,omitempty"`
	Duration             float64            `bson:"duration,omitempty" json:"duration,omitempty"`
	CaloriesBurned       float64            `bson:"caloriesBurned,omitempty" json:"caloriesBurned,omitempty"`
	HeartRate            float64            `bson:"heartRate,omitempty" json:"heartRate,omitempty"`
	PlankHoldTime        float64            `bson:"plankHoldTime,omitempty" json:"plankHoldTime,omitempty"`
	RangeOfMotion        float64            `bson:"rangeOfMotion,omitempty" json:"rangeOfMotion,omitempty"`
	WorkToRestRatio      float64            `bson:"workToRestRatio,omitempty" json:"workToRestRatio,omitempty"`
	TUG                  float64            `bson:"tug,omitempty" json:"tug,omitempty"`
	TimeToExhaustion     float64            `bson:"timeToExhaustion,omitempty" json:"timeToExhaustion,omitempty"`
	HeartRateVariability float64            `bson:"heartRateVariability,omitempty" json:"heartRateVariability,omitempty"`
}

// Value reads the logged value of field. ok is false for an unknown field.
func (l ExerciseLog) Value(field MetricField) (v float64, ok bool) {
	switch field {
	case FieldSets:
		return float64(l.Sets), true
	case FieldReps:
		return float64(l.Reps), true
	case FieldWeightUsed:
		return l.WeightUsed, true
	case FieldVolume:
		return l.Volume, true
	case FieldDistance:
		return l.Distance, true
	case FieldDuration:
		return l.Duration, true
	case FieldCaloriesBurned:
		return l.CaloriesBurned, true
	case FieldHeartRate:
		return l.HeartRate, true
	case FieldPlankHoldTime:
		return l.PlankHoldTime, true
	case FieldRangeOfMotion:
		return l.RangeOfMotion, true
	case FieldWorkToRestRatio:
		return l.WorkToRestRatio, true
	case FieldTUG:
		return l.TUG, true
	case FieldTimeToExhaustion:
		return l.TimeToExhaustion, true
	case FieldHeartRateVariability:
		return l.HeartRateVariability, true
	default:
		return 0, false
	}
}
