package tracker

import (
	"time"

	"github.com/2beens/shapepro/internal/shape"
)

// Dashboard is everything the main screen shows, derived from the state.
type Dashboard struct {
	Phase              shape.Phase           `json:"phase"`
	Name               string                `json:"name,omitempty"`
	IsPremium          bool                  `json:"isPremium"`
	RemainingTrialDays int                   `json:"remainingTrialDays"`
	TrialExpired       bool                  `json:"trialExpired"`
	AccessAllowed      bool                  `json:"accessAllowed"`
	Streak             int                   `json:"streak"`
	Points             int                   `json:"points"`
	TotalDailyCalories float64               `json:"totalDailyCalories"`
	Week               []shape.CalendarDay   `json:"week"`
	WeightSeries       []shape.WeightPoint   `json:"weightSeries"`
	History            []shape.ProgressEntry `json:"history"`
}

func NewDashboard(state shape.State, now time.Time) Dashboard {
	d := Dashboard{
		Phase:              state.Phase(),
		RemainingTrialDays: shape.RemainingTrialDays(state, now),
		AccessAllowed:      shape.IsAccessAllowed(state, now),
		Streak:             state.Streak,
		Points:             state.Points,
		Week:               shape.WeeklyCalendar(state, now),
		WeightSeries:       shape.WeightSeries(state),
		History:            make([]shape.ProgressEntry, 0, len(state.Progress)),
	}

	if state.Profile != nil {
		d.Name = state.Profile.Name
		d.IsPremium = state.Profile.IsPremium
		d.TrialExpired = !d.IsPremium && d.RemainingTrialDays == 0
	}
	if state.Plan != nil {
		d.TotalDailyCalories = state.Plan.TotalDailyCalories
	}

	// newest first
	for i := len(state.Progress) - 1; i >= 0; i-- {
		d.History = append(d.History, state.Progress[i])
	}

	return d
}
