package planner_test

import (
	"strings"
	"testing"

	"github.com/2beens/shapepro/internal/planner"
	"github.com/2beens/shapepro/internal/shape"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePlan(t *testing.T) {
	plan, err := planner.ParsePlan(validPlanJSON)
	require.NoError(t, err)

	assert.Equal(t, 2150.0, plan.TotalDailyCalories)
	require.Len(t, plan.Workouts, 2)
	assert.Equal(t, "Workout A - Upper body", plan.Workouts[0].Title)
	assert.Equal(t, shape.Exercise{
		Name: "Dumbbell row", Sets: 4, Reps: "10", Rest: "90s", Description: "One arm at a time",
	}, plan.Workouts[0].Exercises[1])
	// a numeric reps value is taken as text
	assert.Equal(t, "15", plan.Workouts[1].Exercises[0].Reps)

	require.Len(t, plan.Meals, 2)
	assert.Equal(t, shape.Meal{
		Time: "12:30", Title: "Lunch", Items: []string{"rice", "beans", "chicken"}, Calories: 750,
	}, plan.Meals[1])
}

func TestParsePlan_FencedAnswer(t *testing.T) {
	plan, err := planner.ParsePlan("```json\n" + validPlanJSON + "\n```")
	require.NoError(t, err)
	assert.Len(t, plan.Workouts, 2)
}

func TestParsePlan_EmptyCollections(t *testing.T) {
	plan, err := planner.ParsePlan(`{"totalDailyCalories": 1800, "workouts": [], "meals": []}`)
	require.NoError(t, err)
	assert.Empty(t, plan.Workouts)
	assert.NotNil(t, plan.Workouts)
	assert.Empty(t, plan.Meals)
}

func TestParsePlan_Rejected(t *testing.T) {
	testCases := map[string]string{
		"not json":          `the model is overloaded`,
		"malformed":         `{"totalDailyCalories": 2000, "workouts": [}`,
		"missing calories":  `{"workouts": [], "meals": []}`,
		"calories as text":  `{"totalDailyCalories": "2000", "workouts": [], "meals": []}`,
		"zero calories":     `{"totalDailyCalories": 0, "workouts": [], "meals": []}`,
		"missing workouts":  `{"totalDailyCalories": 2000, "meals": []}`,
		"workouts object":   `{"totalDailyCalories": 2000, "workouts": {}, "meals": []}`,
		"missing meals":     `{"totalDailyCalories": 2000, "workouts": []}`,
		"workout no title":  `{"totalDailyCalories": 2000, "workouts": [{"exercises": []}], "meals": []}`,
		"no exercises":      `{"totalDailyCalories": 2000, "workouts": [{"title": "A"}], "meals": []}`,
		"exercise no sets":  `{"totalDailyCalories": 2000, "workouts": [{"title": "A", "exercises": [{"name": "Squat", "reps": "10", "rest": "60s", "description": ""}]}], "meals": []}`,
		"exercise no desc":  `{"totalDailyCalories": 2000, "workouts": [{"title": "A", "exercises": [{"name": "Squat", "sets": 3, "reps": "10", "rest": "60s"}]}], "meals": []}`,
		"meal no time":      `{"totalDailyCalories": 2000, "workouts": [], "meals": [{"title": "Lunch", "items": [], "calories": 500}]}`,
		"meal item numeric": `{"totalDailyCalories": 2000, "workouts": [], "meals": [{"time": "12:00", "title": "Lunch", "items": [1], "calories": 500}]}`,
		"meal no calories":  `{"totalDailyCalories": 2000, "workouts": [], "meals": [{"time": "12:00", "title": "Lunch", "items": []}]}`,
	}

	for name, content := range testCases {
		t.Run(name, func(t *testing.T) {
			plan, err := planner.ParsePlan(content)
			require.Error(t, err)
			assert.Nil(t, plan)
			assert.ErrorIs(t, err, planner.ErrInvalidPlan)
			assert.ErrorIs(t, err, shape.ErrInvalidPlan)
		})
	}
}

func TestParsePlan_ReportsPath(t *testing.T) {
	_, err := planner.ParsePlan(`{"totalDailyCalories": 2000, "workouts": [{"title": "A", "exercises": []}, {"title": 7, "exercises": []}], "meals": []}`)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "workouts.1.title"), err.Error())
}
