package gate

import (
	"fmt"
	"time"

	"github.com/2beens/shapepro/internal/shape"
)

// View is a screen of the tracker UI.
type View string

const (
	ViewDashboard View = "dashboard"
	ViewWorkouts  View = "workouts"
	ViewMeals     View = "meals"
	ViewProfile   View = "profile"
	ViewPremium   View = "premium"
	ViewCheckout  View = "checkout"
)

func (v View) String() string {
	return string(v)
}

func (v View) IsValid() bool {
	switch v {
	case ViewDashboard, ViewWorkouts, ViewMeals, ViewProfile, ViewPremium, ViewCheckout:
		return true
	default:
		return false
	}
}

// Restricted views need an active trial or a subscription.
func (v View) Restricted() bool {
	switch v {
	case ViewWorkouts, ViewMeals:
		return true
	default:
		return false
	}
}

func ParseView(s string) (View, error) {
	v := View(s)
	if !v.IsValid() {
		return "", fmt.Errorf("unknown view: %q", s)
	}
	return v, nil
}

// Resolve returns the view to actually show. Restricted views turn into
// the premium offer once access is gone; it is evaluated on every
// navigation, so an expiring trial takes effect on the next one.
func Resolve(view View, state shape.State, now time.Time) View {
	if view.Restricted() && !shape.IsAccessAllowed(state, now) {
		return ViewPremium
	}
	return view
}
