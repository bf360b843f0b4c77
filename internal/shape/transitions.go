package shape

import (
	"math"
	"time"
)

// The functions below are the only way the state changes. Each one takes
// the current state and returns the next one; the input is never modified.

func SetProfile(s State, profile Profile) State {
	next := s.clone()
	next.Profile = &profile
	return next
}

func SetPlan(s State, plan Plan) State {
	next := s.clone()
	next.Plan = &plan
	return next
}

// SetPremium marks the profile as subscribed. Without a profile there is
// nothing to upgrade and the state is returned as is.
func SetPremium(s State) State {
	if s.Profile == nil {
		return s
	}
	next := s.clone()
	next.Profile.IsPremium = true
	return next
}

// RecordWeight stores today's weight, replacing an entry already made today.
// The reward is given per call, a same-day correction is rewarded again.
func RecordWeight(s State, weight float64, now time.Time) State {
	if math.IsNaN(weight) || math.IsInf(weight, 0) {
		return s
	}

	next := s.clone()
	today := DateOf(now)

	entry := ProgressEntry{
		Date:   today,
		Weight: weight,
	}
	last := len(next.Progress) - 1
	if last >= 0 {
		entry.WorkoutsCompleted = next.Progress[last].WorkoutsCompleted
	}

	if last >= 0 && next.Progress[last].Date == today {
		next.Progress[last] = entry
	} else {
		next.Progress = append(next.Progress, entry)
	}

	if next.Profile != nil {
		next.Profile.Weight = weight
	}
	next.Points += WeightReportReward

	return next
}

// CompleteWorkout marks the day as done. An empty date means today.
// It only ever adds: a day already logged is left as is.
func CompleteWorkout(s State, date Date, now time.Time) State {
	if date == "" {
		date = DateOf(now)
	}
	if s.WorkoutLog.Contains(date) {
		return s
	}

	next := s.clone()
	next.WorkoutLog = next.WorkoutLog.with(date)
	next.Streak++
	next.Points += WorkoutReward
	return next
}

// ToggleWorkoutDate flips the day in the workout log, moving streak and
// points with it. Neither goes below zero.
func ToggleWorkoutDate(s State, date Date) State {
	next := s.clone()
	if s.WorkoutLog.Contains(date) {
		next.WorkoutLog = next.WorkoutLog.without(date)
		next.Streak = max(0, next.Streak-1)
		next.Points = max(0, next.Points-WorkoutReward)
		return next
	}

	next.WorkoutLog = next.WorkoutLog.with(date)
	next.Streak++
	next.Points += WorkoutReward
	return next
}

// Logout drops everything.
func Logout(State) State {
	return Empty()
}
