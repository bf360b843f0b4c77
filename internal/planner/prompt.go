package planner

import (
	"fmt"
	"strings"

	"github.com/2beens/shapepro/internal/shape"

	"google.golang.org/genai"
)

// BuildPrompt describes the user to the model. The structure of the
// answer is enforced by the response schema, not by the prompt.
func BuildPrompt(profile shape.Profile) string {
	var b strings.Builder
	b.WriteString("Create a fitness and nutrition plan for a user with the following profile:\n")
	fmt.Fprintf(&b, "  - Name: %s\n", profile.Name)
	fmt.Fprintf(&b, "  - Age: %d\n", profile.Age)
	fmt.Fprintf(&b, "  - Sex: %s\n", profile.Sex)
	fmt.Fprintf(&b, "  - Weight: %gkg\n", profile.Weight)
	fmt.Fprintf(&b, "  - Height: %gcm\n", profile.Height)
	fmt.Fprintf(&b, "  - Goal: %s\n", profile.Goal.Label())
	fmt.Fprintf(&b, "  - Level: %s\n", profile.Level)
	fmt.Fprintf(&b, "  - Training location: %s\n", profile.Location)
	fmt.Fprintf(&b, "  - Available days per week: %d\n", profile.DaysPerWeek)
	b.WriteString("\nThe meal plan should use common, easy to find foods. ")
	b.WriteString("Split the training plan into Workout A, B and C. ")
	if profile.Goal == shape.GoalLoseWeight {
		b.WriteString("Use a moderate caloric deficit.")
	}
	return strings.TrimSpace(b.String())
}

func planSchema() *genai.Schema {
	str := func() *genai.Schema { return &genai.Schema{Type: genai.TypeString} }
	num := func() *genai.Schema { return &genai.Schema{Type: genai.TypeNumber} }

	exercise := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"name":        str(),
			"sets":        num(),
			"reps":        str(),
			"rest":        str(),
			"description": str(),
		},
		Required: []string{"name", "sets", "reps", "rest", "description"},
	}
	workout := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":     str(),
			"exercises": {Type: genai.TypeArray, Items: exercise},
		},
		Required: []string{"title", "exercises"},
	}
	meal := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"time":     str(),
			"title":    str(),
			"items":    {Type: genai.TypeArray, Items: str()},
			"calories": num(),
		},
		Required: []string{"time", "title", "items", "calories"},
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"totalDailyCalories": num(),
			"workouts":           {Type: genai.TypeArray, Items: workout},
			"meals":              {Type: genai.TypeArray, Items: meal},
		},
		Required: []string{"totalDailyCalories", "workouts", "meals"},
	}
}
