package domain_test

import (
	"testing"

	"alcyxob/workout-engine/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalField(t *testing.T) {
	want := map[domain.Category]domain.MetricField{
		domain.CategoryStrength:    domain.FieldVolume,
		domain.CategoryCardio:      domain.FieldCaloriesBurned,
		domain.CategoryHIIT:        domain.FieldCaloriesBurned,
		domain.CategoryFlexibility: domain.FieldRangeOfMotion,
		domain.CategoryCore:        domain.FieldPlankHoldTime,
		domain.CategoryBalance:     domain.FieldTUG,
		domain.CategoryEndurance:   domain.FieldTimeToExhaustion,
		domain.CategoryRecovery:    domain.FieldHeartRateVariability,
	}
	require.Len(t, domain.Categories, len(want))

	for _, c := range domain.Categories {
		f, ok := domain.CanonicalField(c)
		require.True(t, ok, c)
		assert.Equal(t, want[c], f, c)
		assert.True(t, f.IsValid())
		assert.True(t, c.IsValid())
	}

	_, ok := domain.CanonicalField("yoga")
	assert.False(t, ok)
	assert.False(t, domain.Category("yoga").IsValid())
}

func TestParseMetricField(t *testing.T) {
	f, err := domain.ParseMetricField("vol")
	require.NoError(t, err)
	assert.Equal(t, domain.FieldVolume, f)

	_, err = domain.ParseMetricField("volume")
	assert.Error(t, err)
	_, err = domain.ParseMetricField("")
	assert.Error(t, err)
}

func TestExerciseLog_Value(t *testing.T) {
	l := domain.ExerciseLog{
		Sets:                 3,
		Reps:                 10,
		WeightUsed:           50,
		Volume:               1500,
		CaloriesBurned:       210,
		TUG:                  9.5,
		HeartRateVariability: 62,
	}

	for field, want := range map[domain.MetricField]float64{
		domain.FieldSets:                 3,
		domain.FieldReps:                 10,
		domain.FieldWeightUsed:           50,
		domain.FieldVolume:               1500,
		domain.FieldCaloriesBurned:       210,
		domain.FieldTUG:                  9.5,
		domain.FieldHeartRateVariability: 62,
		domain.FieldDistance:             0,
	} {
		v, ok := l.Value(field)
		require.True(t, ok, field)
		assert.Equal(t, want, v, field)
	}

	_, ok := l.Value("bogus")
	assert.False(t, ok)
}
