package domain

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CategorizedEntries carries the logged values of one session grouped by
// exercise category. Each category has its own entry shape.
type CategorizedEntries struct {
	Strength    []StrengthEntry    `json:"strength,omitempty"`
	Cardio      []CardioEntry      `json:"cardio,omitempty"`
	HIIT        []HIITEntry        `json:"hiit,omitempty"`
	Flexibility []FlexibilityEntry `json:"flexibility,omitempty"`
	Core        []CoreEntry        `json:"core,omitempty"`
	Balance     []BalanceEntry     `json:"balance,omitempty"`
	Endurance   []EnduranceEntry   `json:"endurance,omitempty"`
	Recovery    []RecoveryEntry    `json:"recovery,omitempty"`
}

type StrengthEntry struct {
	ExerciseID primitive.ObjectID `json:"exerciseId"`
	Sets       int                `json:"sets"`
	Reps       int                `json:"reps"`
	WeightUsed float64            `json:"weightUsed"`
	Volume     float64            `json:"vol,omitempty"`
}

type CardioEntry struct {
	ExerciseID     primitive.ObjectID `json:"exerciseId"`
	Distance       float64            `json:"distance"`
	Duration       float64            `json:"duration"`
	CaloriesBurned float64            `json:"caloriesBurned"`
	HeartRate      float64            `json:"heartRate,omitempty"`
}

type HIITEntry struct {
	ExerciseID      primitive.ObjectID `json:"exerciseId"`
	Sets            int                `json:"sets"`
	Duration        float64            `json:"duration"`
	CaloriesBurned  float64            `json:"caloriesBurned"`
	HeartRate       float64            `json:"heartRate,omitempty"`
	WorkToRestRatio float64            `json:"workToRestRatio,omitempty"`
}

type FlexibilityEntry struct {
	ExerciseID    primitive.ObjectID `json:"exerciseId"`
	Reps          int                `json:"reps,omitempty"`
	Duration      float64            `json:"duration"`
	RangeOfMotion float64            `json:"rangeOfMotion"`
}

type CoreEntry struct {
	ExerciseID    primitive.ObjectID `json:"exerciseId"`
	Sets          int                `json:"sets"`
	Reps          int                `json:"reps,omitempty"`
	PlankHoldTime float64            `json:"plankHoldTime"`
}

type BalanceEntry struct {
	ExerciseID primitive.ObjectID `json:"exerciseId"`
	Duration   float64            `json:"duration"`
	TUG        float64            `json:"tug"`
}

type EnduranceEntry struct {
	ExerciseID       primitive.ObjectID `json:"exerciseId"`
	Distance         float64            `json:"distance,omitempty"`
	Duration         float64            `json:"duration"`
	HeartRate        float64            `json:"heartRate,omitempty"`
	TimeToExhaustion float64            `json:"timeToExhaustion"`
}

type RecoveryEntry struct {
	ExerciseID           primitive.ObjectID `json:"exerciseId"`
	Duration             float64            `json:"duration"`
	HeartRate            float64            `json:"heartRate,omitempty"`
	HeartRateVariability float64            `json:"heartRateVariability"`
}

// Len returns the number of entries across all categories.
func (e CategorizedEntries) Len() int {
	return len(e.Strength) + len(e.Cardio) + len(e.HIIT) + len(e.Flexibility) +
		len(e.Core) + len(e.Balance) + len(e.Endurance) + len(e.Recovery)
}

// Flatten converts the grouped entries into ExerciseLog rows, category by
// category in the order of Categories, preserving entry order within each.
func (e CategorizedEntries) Flatten() []ExerciseLog {
	logs := make([]ExerciseLog, 0, e.Len())
	for _, s := range e.Strength {
		vol := s.Volume
		if vol == 0 {
			vol = float64(s.Sets*s.Reps) * s.WeightUsed
		}
		logs = append(logs, ExerciseLog{
			ExerciseID: s.ExerciseID,
			Category:   CategoryStrength,
			Sets:       s.Sets,
			Reps:       s.Reps,
			WeightUsed: s.WeightUsed,
			Volume:     vol,
		})
	}
	for _, c := range e.Cardio {
		logs = append(logs, ExerciseLog{
			ExerciseID:     c.ExerciseID,
			Category:       CategoryCardio,
			Distance:       c.Distance,
			Duration:       c.Duration,
			CaloriesBurned: c.CaloriesBurned,
			HeartRate:      c.HeartRate,
		})
	}
	for _, h := range e.HIIT {
		logs = append(logs, ExerciseLog{
			ExerciseID:      h.ExerciseID,
			Category:        CategoryHIIT,
			Sets:            h.Sets,
			Duration:        h.Duration,
			CaloriesBurned:  h.CaloriesBurned,
			HeartRate:       h.HeartRate,
			WorkToRestRatio: h.WorkToRestRatio,
		})
	}
	for _, f := range e.Flexibility {
		logs = append(logs, ExerciseLog{
			ExerciseID:    f.ExerciseID,
			Category:      CategoryFlexibility,
			Reps:          f.Reps,
			Duration:      f.Duration,
			RangeOfMotion: f.RangeOfMotion,
		})
	}
	for _, c := range e.Core {
		logs = append(logs, ExerciseLog{
			ExerciseID:    c.ExerciseID,
			Category:      CategoryCore,
			Sets:          c.Sets,
			Reps:          c.Reps,
			PlankHoldTime: c.PlankHoldTime,
		})
	}
	for _, b := range e.Balance {
		logs = append(logs, ExerciseLog{
			ExerciseID: b.ExerciseID,
			Category:   CategoryBalance,
			Duration:   b.Duration,
			TUG:        b.TUG,
		})
	}
	for _, en := range e.Endurance {
		logs = append(logs, ExerciseLog{
			ExerciseID:       en.ExerciseID,
			Category:         CategoryEndurance,
			Distance:         en.Distance,
			Duration:         en.Duration,
			HeartRate:        en.HeartRate,
			TimeToExhaustion: en.TimeToExhaustion,
		})
	}
	for _, r := range e.Recovery {
		logs = append(logs, ExerciseLog{
			ExerciseID:           r.ExerciseID,
			Category:             CategoryRecovery,
			Duration:             r.Duration,
			HeartRate:            r.HeartRate,
			HeartRateVariability: r.HeartRateVariability,
		})
	}
	return logs
}
