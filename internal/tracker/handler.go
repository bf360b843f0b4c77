package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/2beens/shapepro/internal/gate"
	"github.com/2beens/shapepro/internal/planner"
	"github.com/2beens/shapepro/internal/shape"
	"github.com/2beens/shapepro/internal/telemetry/tracing"
	"github.com/2beens/shapepro/pkg"

	"github.com/cespare/xxhash/v2"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

type StateResponse struct {
	Phase shape.Phase `json:"phase"`
	State shape.State `json:"state"`
}

type NavigateResponse struct {
	Requested gate.View `json:"requested"`
	View      gate.View `json:"view"`
}

type WeightRequest struct {
	Weight WeightValue `json:"weight"`
}

type CompleteWorkoutRequest struct {
	Date shape.Date `json:"date"`
}

// WeightValue accepts a JSON number or a string; in a string the decimal
// separator may be a comma ("70,5"), the way many UIs hand it over.
type WeightValue float64

func (w *WeightValue) UnmarshalJSON(data []byte) error {
	var number float64
	if err := json.Unmarshal(data, &number); err == nil {
		*w = WeightValue(number)
		return nil
	}

	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return fmt.Errorf("weight must be a number or a string: %w", err)
	}
	parsed, err := strconv.ParseFloat(strings.Replace(strings.TrimSpace(text), ",", ".", 1), 64)
	if err != nil {
		return fmt.Errorf("parse weight %q: %w", text, err)
	}
	*w = WeightValue(parsed)
	return nil
}

type Handler struct {
	tracker *Tracker
	// collapses double submits of the slow generation requests
	generation singleflight.Group
}

func NewHandler(tracker *Tracker) *Handler {
	return &Handler{
		tracker: tracker,
	}
}

// SetupRoutes registers the tracker routes. Plan generation routes are
// wrapped with limitGeneration, when given.
func (handler *Handler) SetupRoutes(r *mux.Router, limitGeneration mux.MiddlewareFunc) {
	r.HandleFunc("/state", handler.HandleState).Methods("GET", "OPTIONS").Name("state")
	r.HandleFunc("/dashboard", handler.HandleDashboard).Methods("GET", "OPTIONS").Name("dashboard")
	r.HandleFunc("/navigate/{view}", handler.HandleNavigate).Methods("GET", "OPTIONS").Name("navigate")
	r.HandleFunc("/progress/weight", handler.HandleRecordWeight).Methods("POST", "OPTIONS").Name("record-weight")
	r.HandleFunc("/workouts/complete", handler.HandleCompleteWorkout).Methods("POST", "OPTIONS").Name("complete-workout")
	r.HandleFunc("/workouts/toggle/{date}", handler.HandleToggleWorkout).Methods("POST", "OPTIONS").Name("toggle-workout")
	r.HandleFunc("/checkout", handler.HandleCheckout).Methods("POST", "OPTIONS").Name("checkout")
	r.HandleFunc("/logout", handler.HandleLogout).Methods("POST", "OPTIONS").Name("logout")

	now := handler.tracker.Now
	r.Handle("/workouts",
		gate.RequireAccess(gate.ViewWorkouts, handler.tracker.State, now)(http.HandlerFunc(handler.HandleWorkouts)),
	).Methods("GET", "OPTIONS").Name("workouts")
	r.Handle("/meals",
		gate.RequireAccess(gate.ViewMeals, handler.tracker.State, now)(http.HandlerFunc(handler.HandleMeals)),
	).Methods("GET", "OPTIONS").Name("meals")

	generationRouter := r.NewRoute().Subrouter()
	generationRouter.HandleFunc("/onboarding", handler.HandleOnboarding).Methods("POST", "OPTIONS").Name("onboarding")
	generationRouter.HandleFunc("/plan/regenerate", handler.HandleRegeneratePlan).Methods("POST", "OPTIONS").Name("regenerate-plan")
	if limitGeneration != nil {
		generationRouter.Use(limitGeneration)
	}
}

func (handler *Handler) HandleState(w http.ResponseWriter, _ *http.Request) {
	writeState(w, handler.tracker.State(), http.StatusOK)
}

func (handler *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.dashboard")
	defer span.End()

	pkg.WriteJSON(w, handler.tracker.Dashboard(), http.StatusOK)
}

func (handler *Handler) HandleNavigate(w http.ResponseWriter, r *http.Request) {
	view, err := gate.ParseView(mux.Vars(r)["view"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	pkg.WriteJSON(w, NavigateResponse{
		Requested: view,
		View:      handler.tracker.Navigate(view),
	}, http.StatusOK)
}

func (handler *Handler) HandleWorkouts(w http.ResponseWriter, _ *http.Request) {
	state := handler.tracker.State()
	if state.Plan == nil {
		http.Error(w, "no plan yet", http.StatusNotFound)
		return
	}
	pkg.WriteJSON(w, state.Plan.Workouts, http.StatusOK)
}

func (handler *Handler) HandleMeals(w http.ResponseWriter, _ *http.Request) {
	state := handler.tracker.State()
	if state.Plan == nil {
		http.Error(w, "no plan yet", http.StatusNotFound)
		return
	}
	pkg.WriteJSON(w, struct {
		TotalDailyCalories float64      `json:"totalDailyCalories"`
		Meals              []shape.Meal `json:"meals"`
	}{
		TotalDailyCalories: state.Plan.TotalDailyCalories,
		Meals:              state.Plan.Meals,
	}, http.StatusOK)
}

func (handler *Handler) HandleOnboarding(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.onboarding")
	defer span.End()

	var profile shape.Profile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		log.Tracef("onboarding, unmarshal profile: %s", err)
		http.Error(w, fmt.Sprintf("invalid profile: %s", err), http.StatusBadRequest)
		return
	}

	state, err := handler.generateOnce(ctx, onboardingKey(profile), func(ctx context.Context) (shape.State, error) {
		return handler.tracker.Onboard(ctx, profile)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeState(w, state, http.StatusCreated)
}

func (handler *Handler) HandleRegeneratePlan(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plan.regenerate")
	defer span.End()

	state, err := handler.generateOnce(ctx, "regenerate", handler.tracker.RegeneratePlan)
	if err != nil {
		writeError(w, err)
		return
	}
	writeState(w, state, http.StatusOK)
}

// onboardingKey groups only identical submissions. A different profile
// sent meanwhile onboards on its own and turns the earlier plan stale.
func onboardingKey(profile shape.Profile) string {
	// both are set by the tracker
	profile.CreatedAt = time.Time{}
	profile.IsPremium = false
	blob, err := json.Marshal(profile)
	if err != nil {
		return "onboarding:" + profile.Name
	}
	return fmt.Sprintf("onboarding:%x", xxhash.Sum64(blob))
}

// generateOnce runs fn once for concurrent identical requests. The work is
// detached from the request: a client going away does not cancel a
// generation other callers may be waiting on.
func (handler *Handler) generateOnce(
	ctx context.Context,
	key string,
	fn func(ctx context.Context) (shape.State, error),
) (shape.State, error) {
	detached := context.WithoutCancel(ctx)
	result, err, shared := handler.generation.Do(key, func() (any, error) {
		return fn(detached)
	})
	if shared {
		log.Debugf("plan generation [%s] shared between requests", key)
	}

	state, _ := result.(shape.State)
	return state, err
}

func (handler *Handler) HandleRecordWeight(w http.ResponseWriter, r *http.Request) {
	var req WeightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid weight: %s", err), http.StatusBadRequest)
		return
	}

	state, err := handler.tracker.RecordWeight(r.Context(), float64(req.Weight))
	if err != nil {
		writeError(w, err)
		return
	}
	writeState(w, state, http.StatusOK)
}

func (handler *Handler) HandleCompleteWorkout(w http.ResponseWriter, r *http.Request) {
	var req CompleteWorkoutRequest
	// the body is optional, no body means today
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, fmt.Sprintf("invalid request: %s", err), http.StatusBadRequest)
		return
	}

	state, err := handler.tracker.CompleteWorkout(r.Context(), req.Date)
	if err != nil {
		writeError(w, err)
		return
	}
	writeState(w, state, http.StatusOK)
}

func (handler *Handler) HandleToggleWorkout(w http.ResponseWriter, r *http.Request) {
	date := shape.Date(mux.Vars(r)["date"])
	state, err := handler.tracker.ToggleWorkoutDate(r.Context(), date)
	if err != nil {
		writeError(w, err)
		return
	}
	writeState(w, state, http.StatusOK)
}

func (handler *Handler) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	state, err := handler.tracker.Checkout(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeState(w, state, http.StatusOK)
}

func (handler *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	writeState(w, handler.tracker.Logout(r.Context()), http.StatusOK)
}

func writeState(w http.ResponseWriter, state shape.State, statusCode int) {
	pkg.WriteJSON(w, StateResponse{
		Phase: state.Phase(),
		State: state,
	}, statusCode)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shape.ErrInvalidProfile),
		errors.Is(err, shape.ErrInvalidDate),
		errors.Is(err, ErrInvalidWeight):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNoProfile),
		errors.Is(err, ErrAlreadyOnboarded),
		errors.Is(err, ErrStalePlan):
		http.Error(w, err.Error(), http.StatusConflict)
	case planner.IsTransient(err):
		http.Error(w, "failed to generate your plan, try again in a moment", http.StatusServiceUnavailable)
	default:
		log.Errorf("tracker request failed: %s", err)
		http.Error(w, "failed to generate your plan", http.StatusBadGateway)
	}
}
