package tracker

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/2beens/shapepro/internal/gate"
	"github.com/2beens/shapepro/internal/shape"
	"github.com/2beens/shapepro/internal/telemetry/metrics"
	"github.com/2beens/shapepro/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=tracker_mocks_test.go -package=tracker_test

var (
	ErrNoProfile        = errors.New("no profile")
	ErrStalePlan        = errors.New("plan response no longer matches the profile")
	ErrInvalidWeight    = errors.New("invalid weight")
	// ErrAlreadyOnboarded is returned when onboarding over an active state;
	// logout comes first.
	ErrAlreadyOnboarded = errors.New("already onboarded")
)

type planGenerator interface {
	GeneratePlan(ctx context.Context, profile shape.Profile) (*shape.Plan, error)
}

type stateStore interface {
	Load(ctx context.Context) (shape.State, error)
	Save(ctx context.Context, state shape.State) error
	Clear(ctx context.Context) error
}

// Tracker owns the single application state. Every change goes through
// it: the transition is applied and persisted under one lock, so readers
// never see a half applied change.
type Tracker struct {
	mu    sync.Mutex
	state shape.State

	store          stateStore
	planner        planGenerator
	now            func() time.Time
	metricsManager *metrics.Manager
}

// New loads the persisted state. A failing store does not stop the
// tracker, it starts from the default state.
func New(
	ctx context.Context,
	store stateStore,
	planner planGenerator,
	now func() time.Time,
	metricsManager *metrics.Manager,
) *Tracker {
	if now == nil {
		now = time.Now
	}

	state, err := store.Load(ctx)
	if err != nil {
		log.Errorf("load state, starting with the default one: %s", err)
		state = shape.Empty()
	}
	log.Debugf("tracker state loaded, phase: %s", state.Phase())

	return &Tracker{
		state:          state,
		store:          store,
		planner:        planner,
		now:            now,
		metricsManager: metricsManager,
	}
}

// State returns the current state. Its slices are shared and must not be
// modified.
func (t *Tracker) State() shape.State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Tracker) Now() time.Time {
	return t.now()
}

func (t *Tracker) Navigate(view gate.View) gate.View {
	return gate.Resolve(view, t.State(), t.now())
}

func (t *Tracker) Dashboard() Dashboard {
	return NewDashboard(t.State(), t.now())
}

// Onboard stores the profile and asks for its first plan. When the plan
// arrives the starting weight is recorded as the first progress entry.
// If generation fails the profile stays, the plan can be requested again
// with RegeneratePlan, or the onboarding submitted again.
func (t *Tracker) Onboard(ctx context.Context, profile shape.Profile) (_ shape.State, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "tracker.onboard")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	// trial and subscription start fresh with a new profile, whatever
	// the client sent
	profile.CreatedAt = t.now()
	profile.IsPremium = false
	if err := profile.Validate(); err != nil {
		return t.State(), err
	}

	t.mu.Lock()
	if t.state.Phase() == shape.PhaseActive {
		state := t.state
		t.mu.Unlock()
		return state, ErrAlreadyOnboarded
	}
	t.commit(ctx, shape.SetProfile(t.state, profile))
	t.mu.Unlock()

	plan, err := t.generate(ctx, profile)
	if err != nil {
		return t.State(), err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkOwner(profile); err != nil {
		t.observeGeneration("stale")
		return t.state, err
	}
	next := shape.SetPlan(t.state, *plan)
	next = shape.RecordWeight(next, profile.Weight, t.now())
	t.commit(ctx, next)

	return t.state, nil
}

// RegeneratePlan replaces the plan with a newly generated one.
func (t *Tracker) RegeneratePlan(ctx context.Context) (_ shape.State, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "tracker.plan.regenerate")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	t.mu.Lock()
	if t.state.Profile == nil {
		state := t.state
		t.mu.Unlock()
		return state, ErrNoProfile
	}
	profile := *t.state.Profile
	t.mu.Unlock()

	plan, err := t.generate(ctx, profile)
	if err != nil {
		return t.State(), err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkOwner(profile); err != nil {
		t.observeGeneration("stale")
		return t.state, err
	}
	t.commit(ctx, shape.SetPlan(t.state, *plan))

	return t.state, nil
}

// generate runs without the lock held: it is the only slow operation.
func (t *Tracker) generate(ctx context.Context, profile shape.Profile) (*shape.Plan, error) {
	begin := time.Now()
	plan, err := t.planner.GeneratePlan(ctx, profile)
	if t.metricsManager != nil {
		t.metricsManager.HistogramPlanGenerationDuration.Observe(time.Since(begin).Seconds())
	}
	if err != nil {
		t.observeGeneration("error")
		log.Errorf("generate plan for [%s]: %s", profile.Name, err)
		return nil, fmt.Errorf("generate plan: %w", err)
	}
	if plan == nil {
		t.observeGeneration("error")
		return nil, fmt.Errorf("generate plan: %w", shape.ErrInvalidPlan)
	}
	if err := plan.Validate(); err != nil {
		t.observeGeneration("error")
		return nil, fmt.Errorf("generate plan: %w", err)
	}
	t.observeGeneration("ok")
	return plan, nil
}

// checkOwner tells whether a plan generated for profile may still be
// committed: a logout or a new onboarding in the meantime makes it stale.
// Must be called with the lock held.
func (t *Tracker) checkOwner(profile shape.Profile) error {
	if t.state.Profile == nil || !t.state.Profile.SameOwner(profile) {
		log.Warnf("discarding plan generated for [%s], profile changed meanwhile", profile.Name)
		return ErrStalePlan
	}
	return nil
}

func (t *Tracker) RecordWeight(ctx context.Context, weight float64) (shape.State, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "tracker.weight.record")
	defer span.End()
	span.SetAttributes(attribute.Float64("weight", weight))

	if math.IsNaN(weight) || math.IsInf(weight, 0) || weight <= 0 {
		return t.State(), fmt.Errorf("%w: %v", ErrInvalidWeight, weight)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.commit(ctx, shape.RecordWeight(t.state, weight, t.now()))
	if t.metricsManager != nil {
		t.metricsManager.CounterWeightReports.Inc()
	}
	return t.state, nil
}

// CompleteWorkout marks date (today when empty) as done.
func (t *Tracker) CompleteWorkout(ctx context.Context, date shape.Date) (shape.State, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "tracker.workout.complete")
	defer span.End()

	if date != "" {
		if _, err := shape.ParseDate(date.String()); err != nil {
			return t.State(), err
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.commit(ctx, shape.CompleteWorkout(t.state, date, t.now()))
	return t.state, nil
}

func (t *Tracker) ToggleWorkoutDate(ctx context.Context, date shape.Date) (shape.State, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "tracker.workout.toggle")
	defer span.End()
	span.SetAttributes(attribute.String("date", date.String()))

	if _, err := shape.ParseDate(date.String()); err != nil {
		return t.State(), err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.commit(ctx, shape.ToggleWorkoutDate(t.state, date))
	return t.state, nil
}

// Checkout confirms the (simulated) payment and upgrades the profile.
func (t *Tracker) Checkout(ctx context.Context) (shape.State, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "tracker.checkout")
	defer span.End()

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state.Profile == nil {
		return t.state, ErrNoProfile
	}
	t.commit(ctx, shape.SetPremium(t.state))
	log.Infof("[%s] upgraded to premium", t.state.Profile.Name)
	return t.state, nil
}

// Logout resets everything and removes the persisted blob.
func (t *Tracker) Logout(ctx context.Context) shape.State {
	ctx, span := tracing.GlobalTracer.Start(ctx, "tracker.logout")
	defer span.End()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = shape.Logout(t.state)
	if err := t.store.Clear(ctx); err != nil {
		log.Errorf("clear persisted state: %s", err)
	}
	return t.state
}

// commit swaps in the next state and persists it. Persisting is best
// effort: a failed save is logged and counted, the change stays applied.
// Must be called with the lock held.
func (t *Tracker) commit(ctx context.Context, next shape.State) {
	prev := t.state
	t.state = next

	if t.metricsManager != nil {
		if gained := next.Points - prev.Points; gained > 0 {
			t.metricsManager.CounterPointsAwarded.Add(float64(gained))
		}
		if added := len(next.WorkoutLog) - len(prev.WorkoutLog); added > 0 {
			t.metricsManager.CounterWorkoutsCompleted.Add(float64(added))
		}
	}

	if err := t.store.Save(ctx, next); err != nil {
		log.Errorf("save state: %s", err)
		t.observeSave("error")
		return
	}
	t.observeSave("ok")
}

func (t *Tracker) observeSave(status string) {
	if t.metricsManager != nil {
		t.metricsManager.CounterStateSaves.WithLabelValues(status).Inc()
	}
}

func (t *Tracker) observeGeneration(status string) {
	if t.metricsManager != nil {
		t.metricsManager.CounterPlanGenerations.WithLabelValues(status).Inc()
	}
}
