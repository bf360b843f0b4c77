package shape

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// TrialDays is the length of the free trial window.
	TrialDays = 3
	// WeightReportReward is awarded on every weight report, same-day updates included.
	WeightReportReward = 10
	// WorkoutReward is awarded for a completed workout day and taken back when it is un-marked.
	WorkoutReward = 50

	minDaysPerWeek = 2
	maxDaysPerWeek = 7
)

var (
	ErrInvalidProfile = errors.New("invalid profile")
	ErrInvalidPlan    = errors.New("invalid plan")
	ErrInvalidDate    = errors.New("invalid date")
)

type Profile struct {
	Name        string    `json:"name"`
	Age         int       `json:"age"`
	Sex         Sex       `json:"sex"`
	Weight      float64   `json:"weight"`
	Height      float64   `json:"height"`
	Goal        Goal      `json:"goal"`
	Level       Level     `json:"level"`
	Location    Location  `json:"trainingLocation"`
	DaysPerWeek int       `json:"daysPerWeek"`
	IsPremium   bool      `json:"isPremium"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Validate checks the profile as submitted during onboarding.
func (p Profile) Validate() error {
	var problems []string
	if strings.TrimSpace(p.Name) == "" {
		problems = append(problems, "name empty")
	}
	if p.Age <= 0 {
		problems = append(problems, "age must be positive")
	}
	if !p.Sex.IsValid() {
		problems = append(problems, fmt.Sprintf("unknown sex [%s]", p.Sex))
	}
	if p.Weight <= 0 {
		problems = append(problems, "weight must be positive")
	}
	if p.Height <= 0 {
		problems = append(problems, "height must be positive")
	}
	if !p.Goal.IsValid() {
		problems = append(problems, fmt.Sprintf("unknown goal [%s]", p.Goal))
	}
	if !p.Level.IsValid() {
		problems = append(problems, fmt.Sprintf("unknown level [%s]", p.Level))
	}
	if !p.Location.IsValid() {
		problems = append(problems, fmt.Sprintf("unknown training location [%s]", p.Location))
	}
	if p.DaysPerWeek < minDaysPerWeek || p.DaysPerWeek > maxDaysPerWeek {
		problems = append(problems, fmt.Sprintf("days per week must be in [%d, %d]", minDaysPerWeek, maxDaysPerWeek))
	}
	if p.CreatedAt.IsZero() {
		problems = append(problems, "created at not set")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidProfile, strings.Join(problems, ", "))
	}
	return nil
}

// SameOwner reports whether both profiles come from the same onboarding.
// Weight and premium status may differ, they change after creation.
func (p Profile) SameOwner(other Profile) bool {
	return p.Name == other.Name && p.CreatedAt.Equal(other.CreatedAt)
}

type Exercise struct {
	Name        string `json:"name"`
	Sets        int    `json:"sets"`
	Reps        string `json:"reps"`
	Rest        string `json:"rest"`
	Description string `json:"description"`
}

type WorkoutDay struct {
	Title     string     `json:"title"`
	Exercises []Exercise `json:"exercises"`
}

type Meal struct {
	Time     string   `json:"time"`
	Title    string   `json:"title"`
	Items    []string `json:"items"`
	Calories float64  `json:"calories"`
}

// Plan is the generated program. It is never edited, a new generation
// replaces it as a whole.
type Plan struct {
	TotalDailyCalories float64      `json:"totalDailyCalories"`
	Workouts           []WorkoutDay `json:"workouts"`
	Meals              []Meal       `json:"meals"`
}

func (p Plan) Validate() error {
	if p.TotalDailyCalories <= 0 {
		return fmt.Errorf("%w: total daily calories must be positive", ErrInvalidPlan)
	}
	for i, w := range p.Workouts {
		if w.Title == "" {
			return fmt.Errorf("%w: workout %d has no title", ErrInvalidPlan, i)
		}
		for j, ex := range w.Exercises {
			if ex.Name == "" || ex.Sets < 0 {
				return fmt.Errorf("%w: workout %d exercise %d malformed", ErrInvalidPlan, i, j)
			}
		}
	}
	for i, m := range p.Meals {
		if m.Title == "" || m.Calories < 0 {
			return fmt.Errorf("%w: meal %d malformed", ErrInvalidPlan, i)
		}
	}
	return nil
}

type ProgressEntry struct {
	Date              Date    `json:"date"`
	Weight            float64 `json:"weight"`
	WorkoutsCompleted int     `json:"workoutsCompleted"`
}

// State is the whole client state, and the unit that gets persisted.
type State struct {
	Profile    *Profile        `json:"profile"`
	Plan       *Plan           `json:"plan"`
	Progress   []ProgressEntry `json:"progress"`
	WorkoutLog WorkoutLog      `json:"workoutLog"`
	Streak     int             `json:"streak"`
	Points     int             `json:"points"`
}

// Empty returns the default state, used at first start and after logout.
func Empty() State {
	return State{
		Progress:   []ProgressEntry{},
		WorkoutLog: WorkoutLog{},
	}
}

// Normalize replaces nil collections with empty ones, so a loaded state
// serializes the same way as a fresh one.
func (s State) Normalize() State {
	if s.Progress == nil {
		s.Progress = []ProgressEntry{}
	}
	if s.WorkoutLog == nil {
		s.WorkoutLog = WorkoutLog{}
	}
	return s
}

// clone copies everything a transition may touch. The plan is shared,
// it is immutable once generated.
func (s State) clone() State {
	next := s
	if s.Profile != nil {
		profile := *s.Profile
		next.Profile = &profile
	}
	next.Progress = make([]ProgressEntry, len(s.Progress))
	copy(next.Progress, s.Progress)
	next.WorkoutLog = make(WorkoutLog, len(s.WorkoutLog))
	copy(next.WorkoutLog, s.WorkoutLog)
	return next
}
