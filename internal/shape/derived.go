package shape

import (
	"math"
	"time"
)

const dayMillis = float64(24 * time.Hour / time.Millisecond)

type CalendarDay struct {
	Date      Date   `json:"date"`
	DayName   string `json:"dayName"`
	DayNumber int    `json:"dayNumber"`
	IsToday   bool   `json:"isToday"`
	IsDone    bool   `json:"isDone"`
}

type WeightPoint struct {
	Label  string  `json:"label"`
	Weight float64 `json:"weight"`
}

// RemainingTrialDays counts the whole trial days left. Without a profile,
// and for premium users, the full trial length is reported: the value is
// not a countdown for them.
func RemainingTrialDays(s State, now time.Time) int {
	if s.Profile == nil || s.Profile.IsPremium {
		return TrialDays
	}

	elapsed := now.Sub(s.Profile.CreatedAt)
	daysPassed := int(math.Floor(float64(elapsed.Milliseconds()) / dayMillis))

	// a creation time in the future (clock moved back) must not extend the trial
	return min(TrialDays, max(0, TrialDays-daysPassed))
}

func IsAccessAllowed(s State, now time.Time) bool {
	if s.Profile == nil {
		return false
	}
	if s.Profile.IsPremium {
		return true
	}
	return RemainingTrialDays(s, now) > 0
}

// WeeklyCalendar returns the 7 days of the week containing now, Sunday first.
func WeeklyCalendar(s State, now time.Time) []CalendarDay {
	// anchor at noon so DST shifts never move a day across midnight
	anchor := time.Date(now.Year(), now.Month(), now.Day(), 12, 0, 0, 0, now.Location())
	sunday := anchor.AddDate(0, 0, -int(anchor.Weekday()))
	today := DateOf(now)

	days := make([]CalendarDay, 0, 7)
	for i := 0; i < 7; i++ {
		day := sunday.AddDate(0, 0, i)
		date := DateOf(day)
		days = append(days, CalendarDay{
			Date:      date,
			DayName:   day.Weekday().String()[:3],
			DayNumber: day.Day(),
			IsToday:   date == today,
			IsDone:    s.WorkoutLog.Contains(date),
		})
	}
	return days
}

// WeightSeries returns the weight history for charting. It always has at
// least one point.
func WeightSeries(s State) []WeightPoint {
	if len(s.Progress) == 0 {
		weight := 0.0
		if s.Profile != nil {
			weight = s.Profile.Weight
		}
		return []WeightPoint{{Label: "Start", Weight: weight}}
	}

	points := make([]WeightPoint, 0, len(s.Progress))
	for _, entry := range s.Progress {
		points = append(points, WeightPoint{
			Label:  entry.Date.String(),
			Weight: entry.Weight,
		})
	}
	return points
}
