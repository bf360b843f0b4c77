package shape

import "fmt"

// Sex can be one of:
//   - male
//   - female
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

func (s Sex) String() string {
	return string(s)
}

func (s Sex) IsValid() bool {
	switch s {
	case SexMale, SexFemale:
		return true
	default:
		return false
	}
}

func (s *Sex) UnmarshalText(text []byte) error {
	v := Sex(text)
	if !v.IsValid() {
		return fmt.Errorf("invalid sex: %q", text)
	}
	*s = v
	return nil
}

// Goal can be one of:
//   - lose_weight
//   - gain_muscle
//   - maintain
type Goal string

const (
	GoalLoseWeight Goal = "lose_weight"
	GoalGainMuscle Goal = "gain_muscle"
	GoalMaintain   Goal = "maintain"
)

func (g Goal) String() string {
	return string(g)
}

func (g Goal) IsValid() bool {
	switch g {
	case GoalLoseWeight, GoalGainMuscle, GoalMaintain:
		return true
	default:
		return false
	}
}

// Label is the human readable form used in prompts.
func (g Goal) Label() string {
	switch g {
	case GoalLoseWeight:
		return "lose weight"
	case GoalGainMuscle:
		return "gain muscle"
	case GoalMaintain:
		return "maintain weight"
	default:
		return "unknown"
	}
}

func (g *Goal) UnmarshalText(text []byte) error {
	v := Goal(text)
	if !v.IsValid() {
		return fmt.Errorf("invalid goal: %q", text)
	}
	*g = v
	return nil
}

// Level can be one of:
//   - beginner
//   - intermediate
//   - advanced
type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

func (l Level) String() string {
	return string(l)
}

func (l Level) IsValid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	default:
		return false
	}
}

func (l *Level) UnmarshalText(text []byte) error {
	v := Level(text)
	if !v.IsValid() {
		return fmt.Errorf("invalid level: %q", text)
	}
	*l = v
	return nil
}

// Location is where the user trains:
//   - home
//   - gym
type Location string

const (
	LocationHome Location = "home"
	LocationGym  Location = "gym"
)

func (l Location) String() string {
	return string(l)
}

func (l Location) IsValid() bool {
	switch l {
	case LocationHome, LocationGym:
		return true
	default:
		return false
	}
}

func (l *Location) UnmarshalText(text []byte) error {
	v := Location(text)
	if !v.IsValid() {
		return fmt.Errorf("invalid training location: %q", text)
	}
	*l = v
	return nil
}
