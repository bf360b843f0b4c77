package planner

import (
	"fmt"
	"math"

	"github.com/2beens/shapepro/internal/shape"

	"github.com/tidwall/gjson"
)

// ParsePlan turns the model answer into a Plan. Every field of the
// response schema must be present with the right type, otherwise the
// answer is rejected as a whole.
func ParsePlan(text string) (*shape.Plan, error) {
	raw := ExtractJSON(text)
	if raw == "" {
		return nil, fmt.Errorf("%w: no json object in response", ErrInvalidPlan)
	}
	if !gjson.Valid(raw) {
		return nil, fmt.Errorf("%w: malformed json", ErrInvalidPlan)
	}

	root := gjson.Parse(raw)
	p := &parser{}

	plan := &shape.Plan{
		TotalDailyCalories: p.number(root, "", "totalDailyCalories"),
		Workouts:           []shape.WorkoutDay{},
		Meals:              []shape.Meal{},
	}

	for i, w := range p.array(root, "", "workouts") {
		path := fmt.Sprintf("workouts.%d", i)
		day := shape.WorkoutDay{
			Title:     p.str(w, path, "title"),
			Exercises: []shape.Exercise{},
		}
		for j, ex := range p.array(w, path, "exercises") {
			exPath := fmt.Sprintf("%s.exercises.%d", path, j)
			day.Exercises = append(day.Exercises, shape.Exercise{
				Name:        p.str(ex, exPath, "name"),
				Sets:        int(math.Round(p.number(ex, exPath, "sets"))),
				Reps:        p.text(ex, exPath, "reps"),
				Rest:        p.text(ex, exPath, "rest"),
				Description: p.str(ex, exPath, "description"),
			})
		}
		plan.Workouts = append(plan.Workouts, day)
	}

	for i, m := range p.array(root, "", "meals") {
		path := fmt.Sprintf("meals.%d", i)
		meal := shape.Meal{
			Time:     p.str(m, path, "time"),
			Title:    p.str(m, path, "title"),
			Items:    []string{},
			Calories: p.number(m, path, "calories"),
		}
		for j, item := range p.array(m, path, "items") {
			if item.Type != gjson.String {
				p.fail("%s.items.%d must be a string", path, j)
				continue
			}
			meal.Items = append(meal.Items, item.String())
		}
		plan.Meals = append(plan.Meals, meal)
	}

	if p.err != nil {
		return nil, p.err
	}
	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPlan, err)
	}
	return plan, nil
}

// parser keeps the first structural problem found.
type parser struct {
	err error
}

func (p *parser) fail(format string, args ...any) {
	if p.err == nil {
		p.err = fmt.Errorf("%w: %s", ErrInvalidPlan, fmt.Sprintf(format, args...))
	}
}

func (p *parser) number(obj gjson.Result, path, field string) float64 {
	v := obj.Get(field)
	if v.Type != gjson.Number {
		p.fail("%s must be a number", join(path, field))
		return 0
	}
	return v.Float()
}

func (p *parser) str(obj gjson.Result, path, field string) string {
	v := obj.Get(field)
	if v.Type != gjson.String {
		p.fail("%s must be a string", join(path, field))
		return ""
	}
	return v.String()
}

// text accepts a string or a bare number: "12" and 12 reps mean the same.
func (p *parser) text(obj gjson.Result, path, field string) string {
	v := obj.Get(field)
	if v.Type != gjson.String && v.Type != gjson.Number {
		p.fail("%s must be a string", join(path, field))
		return ""
	}
	return v.String()
}

func (p *parser) array(obj gjson.Result, path, field string) []gjson.Result {
	v := obj.Get(field)
	if !v.IsArray() {
		p.fail("%s must be an array", join(path, field))
		return nil
	}
	return v.Array()
}

func join(path, field string) string {
	if path == "" {
		return field
	}
	return path + "." + field
}
