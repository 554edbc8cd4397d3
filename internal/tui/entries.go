package tui

import (
	"alcyxob/workout-engine/internal/domain"
	"alcyxob/workout-engine/internal/session"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// categoryInputs lists the values asked for after a set, per category.
var categoryInputs = map[domain.Category][]domain.MetricField{
	domain.CategoryStrength:    {domain.FieldReps, domain.FieldWeightUsed},
	domain.CategoryCardio:      {domain.FieldDistance, domain.FieldDuration, domain.FieldCaloriesBurned, domain.FieldHeartRate},
	domain.CategoryHIIT:        {domain.FieldDuration, domain.FieldCaloriesBurned, domain.FieldHeartRate, domain.FieldWorkToRestRatio},
	domain.CategoryFlexibility: {domain.FieldReps, domain.FieldDuration, domain.FieldRangeOfMotion},
	domain.CategoryCore:        {domain.FieldReps, domain.FieldPlankHoldTime},
	domain.CategoryBalance:     {domain.FieldDuration, domain.FieldTUG},
	domain.CategoryEndurance:   {domain.FieldDistance, domain.FieldDuration, domain.FieldHeartRate, domain.FieldTimeToExhaustion},
	domain.CategoryRecovery:    {domain.FieldDuration, domain.FieldHeartRate, domain.FieldHeartRateVariability},
}

type draftInput struct {
	field domain.MetricField
	value string
}

// draft holds the editable values of one completed set.
type draft struct {
	item     session.WorkoutItem
	category domain.Category
	inputs   []*draftInput
}

func (d *draft) title() string {
	name := "exercise"
	if d.item.Exercise.Exercise != nil {
		name = d.item.Exercise.Exercise.Name
	}
	return fmt.Sprintf("%s, set %d", name, d.item.Values.Set)
}

// newDrafts creates one draft per completed set. Sets of exercises without
// a resolved category cannot be logged and are skipped.
func newDrafts(items []session.WorkoutItem) []*draft {
	drafts := make([]*draft, 0, len(items))
	for _, item := range items {
		category := item.Exercise.Category()
		fields, ok := categoryInputs[category]
		if !ok {
			continue
		}
		d := &draft{item: item, category: category}
		for _, f := range fields {
			d.inputs = append(d.inputs, &draftInput{field: f, value: prefill(item.Values, f)})
		}
		drafts = append(drafts, d)
	}
	return drafts
}

// prefill seeds an input from the planned values of the set.
func prefill(v session.Values, f domain.MetricField) string {
	switch f {
	case domain.FieldReps:
		if v.Reps > 0 {
			return strconv.Itoa(v.Reps)
		}
	case domain.FieldDistance:
		if v.Distance > 0 {
			return strconv.FormatFloat(v.Distance, 'f', -1, 64)
		}
	case domain.FieldDuration, domain.FieldPlankHoldTime:
		if v.Time > 0 {
			return strconv.Itoa(v.Time)
		}
	}
	return ""
}

func validateNumber(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("%q is not a number", s)
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return fmt.Errorf("%q is not a finite number", s)
	}
	if n < 0 {
		return fmt.Errorf("value cannot be negative")
	}
	return nil
}

// collectEntries converts the drafts into the grouped log entries, one
// entry per set. Empty inputs count as zero.
func collectEntries(drafts []*draft) (domain.CategorizedEntries, error) {
	var entries domain.CategorizedEntries
	for _, d := range drafts {
		values := make(map[domain.MetricField]float64, len(d.inputs))
		for _, in := range d.inputs {
			if err := validateNumber(in.value); err != nil {
				return domain.CategorizedEntries{}, fmt.Errorf("%s %s: %w", d.title(), in.field, err)
			}
			s := strings.TrimSpace(in.value)
			if s == "" {
				continue
			}
			values[in.field], _ = strconv.ParseFloat(s, 64)
		}

		id := d.item.Exercise.ExerciseID
		switch d.category {
		case domain.CategoryStrength:
			entries.Strength = append(entries.Strength, domain.StrengthEntry{
				ExerciseID: id,
				Sets:       1,
				Reps:       int(values[domain.FieldReps]),
				WeightUsed: values[domain.FieldWeightUsed],
			})
		case domain.CategoryCardio:
			entries.Cardio = append(entries.Cardio, domain.CardioEntry{
				ExerciseID:     id,
				Distance:       values[domain.FieldDistance],
				Duration:       values[domain.FieldDuration],
				CaloriesBurned: values[domain.FieldCaloriesBurned],
				HeartRate:      values[domain.FieldHeartRate],
			})
		case domain.CategoryHIIT:
			entries.HIIT = append(entries.HIIT, domain.HIITEntry{
				ExerciseID:      id,
				Sets:            1,
				Duration:        values[domain.FieldDuration],
				CaloriesBurned:  values[domain.FieldCaloriesBurned],
				HeartRate:       values[domain.FieldHeartRate],
				WorkToRestRatio: values[domain.FieldWorkToRestRatio],
			})
		case domain.CategoryFlexibility:
			entries.Flexibility = append(entries.Flexibility, domain.FlexibilityEntry{
				ExerciseID:    id,
				Reps:          int(values[domain.FieldReps]),
				Duration:      values[domain.FieldDuration],
				RangeOfMotion: values[domain.FieldRangeOfMotion],
			})
		case domain.CategoryCore:
			entries.Core = append(entries.Core, domain.CoreEntry{
				ExerciseID:    id,
				Sets:          1,
				Reps:          int(values[domain.FieldReps]),
				PlankHoldTime: values[domain.FieldPlankHoldTime],
			})
		case domain.CategoryBalance:
			entries.Balance = append(entries.Balance, domain.BalanceEntry{
				ExerciseID: id,
				Duration:   values[domain.FieldDuration],
				TUG:        values[domain.FieldTUG],
			})
		case domain.CategoryEndurance:
			entries.Endurance = append(entries.Endurance, domain.EnduranceEntry{
				ExerciseID:       id,
				Distance:         values[domain.FieldDistance],
				Duration:         values[domain.FieldDuration],
				HeartRate:        values[domain.FieldHeartRate],
				TimeToExhaustion: values[domain.FieldTimeToExhaustion],
			})
		case domain.CategoryRecovery:
			entries.Recovery = append(entries.Recovery, domain.RecoveryEntry{
				ExerciseID:           id,
				Duration:             values[domain.FieldDuration],
				HeartRate:            values[domain.FieldHeartRate],
				HeartRateVariability: values[domain.FieldHeartRateVariability],
			})
		}
	}
	return entries, nil
}
