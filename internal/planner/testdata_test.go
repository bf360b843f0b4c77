package planner_test

import (
	"time"

	"github.com/2beens/shapepro/internal/shape"
)

const validPlanJSON = `{
  "totalDailyCalories": 2150,
  "workouts": [
    {
      "title": "Workout A - Upper body",
      "exercises": [
        {"name": "Push-up", "sets": 3, "reps": "12", "rest": "60s", "description": "Keep the core tight"},
        {"name": "Dumbbell row", "sets": 4.0, "reps": "10", "rest": "90s", "description": "One arm at a time"}
      ]
    },
    {
      "title": "Workout B - Lower body",
      "exercises": [
        {"name": "Squat", "sets": 4, "reps": 15, "rest": "60s", "description": "Bodyweight"}
      ]
    }
  ],
  "meals": [
    {"time": "07:30", "title": "Breakfast", "items": ["oats", "banana"], "calories": 450},
    {"time": "12:30", "title": "Lunch", "items": ["rice", "beans", "chicken"], "calories": 750}
  ]
}`

func testProfile() shape.Profile {
	return shape.Profile{
		Name:        "Bruno",
		Age:         34,
		Sex:         shape.SexMale,
		Weight:      92.5,
		Height:      181,
		Goal:        shape.GoalLoseWeight,
		Level:       shape.LevelBeginner,
		Location:    shape.LocationHome,
		DaysPerWeek: 3,
		CreatedAt:   time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC),
	}
}
