package domain

import "fmt"

// Category groups exercises by the kind of effort they measure. It decides
// which entry shape a logged exercise uses and which metric its personal
// record tracks by default.
type Category string

const (
	CategoryStrength    Category = "strength"
	CategoryCardio      Category = "cardio"
	CategoryHIIT        Category = "hiit"
	CategoryFlexibility Category = "flexibility"
	CategoryCore        Category = "core"
	CategoryBalance     Category = "balance"
	CategoryEndurance   Category = "endurance"
	CategoryRecovery    Category = "recovery"
)

// Categories lists every known category in a stable order.
var Categories = []Category{
	CategoryStrength,
	CategoryCardio,
	CategoryHIIT,
	CategoryFlexibility,
	CategoryCore,
	CategoryBalance,
	CategoryEndurance,
	CategoryRecovery,
}

func (c Category) String() string {
	return string(c)
}

func (c Category) IsValid() bool {
	_, ok := canonicalFields[c]
	return ok
}

// MetricField names a numeric field of an ExerciseLog that personal records
// and goals can track.
type MetricField string

const (
	FieldSets                 MetricField = "sets"
	FieldReps                 MetricField = "reps"
	FieldWeightUsed           MetricField = "weightUsed"
	FieldVolume               MetricField = "vol"
	FieldDistance             MetricField = "distance"
	FieldDuration             MetricField = "duration"
	FieldCaloriesBurned       MetricField = "caloriesBurned"
	FieldHeartRate            MetricField = "heartRate"
	FieldPlankHoldTime        MetricField = "plankHoldTime"
	FieldRangeOfMotion        MetricField = "rangeOfMotion"
	FieldWorkToRestRatio      MetricField = "workToRestRatio"
	FieldTUG                  MetricField = "tug"
	FieldTimeToExhaustion     MetricField = "timeToExhaustion"
	FieldHeartRateVariability MetricField = "heartRateVariability"
)

var metricFields = map[MetricField]struct{}{
	FieldSets:                 {},
	FieldReps:                 {},
	FieldWeightUsed:           {},
	FieldVolume:               {},
	FieldDistance:             {},
	FieldDuration:             {},
	FieldCaloriesBurned:       {},
	FieldHeartRate:            {},
	FieldPlankHoldTime:        {},
	FieldRangeOfMotion:        {},
	FieldWorkToRestRatio:      {},
	FieldTUG:                  {},
	FieldTimeToExhaustion:     {},
	FieldHeartRateVariability: {},
}

func (f MetricField) String() string {
	return string(f)
}

func (f MetricField) IsValid() bool {
	_, ok := metricFields[f]
	return ok
}

// ParseMetricField validates a field name coming from outside (API, stored rows).
func ParseMetricField(s string) (MetricField, error) {
	f := MetricField(s)
	if !f.IsValid() {
		return "", fmt.Errorf("unknown metric field %q", s)
	}
	return f, nil
}

// canonicalFields is the metric mapping table: the default trackable field
// for each exercise category.
var canonicalFields = map[Category]MetricField{
	CategoryStrength:    FieldVolume,
	CategoryCardio:      FieldCaloriesBurned,
	CategoryHIIT:        FieldCaloriesBurned,
	CategoryFlexibility: FieldRangeOfMotion,
	CategoryCore:        FieldPlankHoldTime,
	CategoryBalance:     FieldTUG,
	CategoryEndurance:   FieldTimeToExhaustion,
	CategoryRecovery:    FieldHeartRateVariability,
}

// CanonicalField returns the default metric field for a category.
func CanonicalField(c Category) (MetricField, bool) {
	f, ok := canonicalFields[c]
	return f, ok
}
