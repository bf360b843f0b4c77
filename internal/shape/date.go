package shape

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar day in ISO form (YYYY-MM-DD). It carries no time zone,
// the day is taken from the wall clock of the time it was built from.
type Date string

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	return Date(t.Format(dateLayout))
}

func ParseDate(s string) (Date, error) {
	if _, err := time.Parse(dateLayout, s); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date(s), nil
}

func (d Date) String() string {
	return string(d)
}

// WorkoutLog holds the days a workout was marked as done. It is kept
// free of duplicates by the transition functions.
type WorkoutLog []Date

func (l WorkoutLog) Contains(d Date) bool {
	for _, logged := range l {
		if logged == d {
			return true
		}
	}
	return false
}

func (l WorkoutLog) with(d Date) WorkoutLog {
	next := make(WorkoutLog, 0, len(l)+1)
	next = append(next, l...)
	return append(next, d)
}

func (l WorkoutLog) without(d Date) WorkoutLog {
	next := make(WorkoutLog, 0, len(l))
	for _, logged := range l {
		if logged != d {
			next = append(next, logged)
		}
	}
	return next
}
