package shape

// Phase is the macro state of the client:
//
//	unauthenticated -> onboarding (profile set) -> active (profile and plan set)
//
// Logout goes back to unauthenticated from any phase.
type Phase int

const (
	PhaseUnauthenticated Phase = iota
	PhaseOnboarding
	PhaseActive
)

func (p Phase) String() string {
	switch p {
	case PhaseUnauthenticated:
		return "unauthenticated"
	case PhaseOnboarding:
		return "onboarding"
	case PhaseActive:
		return "active"
	default:
		return "unknown"
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (s State) Phase() Phase {
	switch {
	case s.Profile == nil:
		return PhaseUnauthenticated
	case s.Plan == nil:
		return PhaseOnboarding
	default:
		return PhaseActive
	}
}

// Active returns profile and plan only when both are present.
func (s State) Active() (Profile, Plan, bool) {
	if s.Phase() != PhaseActive {
		return Profile{}, Plan{}, false
	}
	return *s.Profile, *s.Plan, true
}
