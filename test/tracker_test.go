package test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/2beens/shapepro/internal/config"
	"github.com/2beens/shapepro/internal/shape"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const onboardingBody = `{
  "name": "Marko",
  "age": 38,
  "sex": "male",
  "weight": 88.4,
  "height": 186,
  "goal": "lose_weight",
  "level": "intermediate",
  "trainingLocation": "home",
  "daysPerWeek": 3
}`

type stateResponse struct {
	Phase string      `json:"phase"`
	State shape.State `json:"state"`
}

func (s *IntegrationTestSuite) do(ctx context.Context, endpoint, method, path, body string) (int, []byte) {
	t := s.T()

	var reqBody io.Reader
	if body != "" {
		reqBody = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint+path, reqBody)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, respBytes
}

// runFlow drives one user through onboarding, a workout, a weigh-in and
// the upgrade, checking the state after each step.
func (s *IntegrationTestSuite) runFlow(ctx context.Context, endpoint string) stateResponse {
	t := s.T()

	status, body := s.do(ctx, endpoint, http.MethodPost, "/onboarding", onboardingBody)
	require.Equal(t, http.StatusCreated, status, string(body))

	var resp stateResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, "active", resp.Phase)
	require.NotNil(t, resp.State.Plan)
	assert.Equal(t, 2050.0, resp.State.Plan.TotalDailyCalories)
	assert.Len(t, resp.State.Plan.Workouts, 2)

	status, _ = s.do(ctx, endpoint, http.MethodPost, "/workouts/complete", "")
	require.Equal(t, http.StatusOK, status)

	status, _ = s.do(ctx, endpoint, http.MethodPost, "/progress/weight", `{"weight": "87,9"}`)
	require.Equal(t, http.StatusOK, status)

	status, body = s.do(ctx, endpoint, http.MethodPost, "/checkout", "")
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.True(t, resp.State.Profile.IsPremium)
	assert.Equal(t, 87.9, resp.State.Profile.Weight)
	assert.Equal(t, 1, resp.State.Streak)
	assert.Equal(t, shape.WorkoutReward+2*shape.WeightReportReward, resp.State.Points)

	status, body = s.do(ctx, endpoint, http.MethodGet, "/workouts", "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "Goblet squat")

	return resp
}

func (s *IntegrationTestSuite) TestRedisBackedTracker() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	t := s.T()

	s.do(ctx, redisServerEndpoint, http.MethodPost, "/logout", "")
	expected := s.runFlow(ctx, redisServerEndpoint)

	blob, err := s.redisClient.Get(ctx, testStateKey).Bytes()
	require.NoError(t, err)
	var stored shape.State
	require.NoError(t, json.Unmarshal(blob, &stored))
	assert.Equal(t, expected.State, stored)

	status, _ := s.do(ctx, redisServerEndpoint, http.MethodPost, "/logout", "")
	require.Equal(t, http.StatusOK, status)
	_, err = s.redisClient.Get(ctx, testStateKey).Bytes()
	assert.ErrorIs(t, err, redis.Nil)
}

func (s *IntegrationTestSuite) TestPostgresBackedTracker() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	t := s.T()

	s.do(ctx, postgresServerEndpoint, http.MethodPost, "/logout", "")
	expected := s.runFlow(ctx, postgresServerEndpoint)

	var blob []byte
	err := s.dbPool.QueryRow(ctx, `SELECT blob FROM app_state WHERE key = $1;`, testStateKey).Scan(&blob)
	require.NoError(t, err)
	var stored shape.State
	require.NoError(t, json.Unmarshal(blob, &stored))
	assert.Equal(t, expected.State, stored)

	status, _ := s.do(ctx, postgresServerEndpoint, http.MethodPost, "/logout", "")
	require.Equal(t, http.StatusOK, status)
	err = s.dbPool.QueryRow(ctx, `SELECT blob FROM app_state WHERE key = $1;`, testStateKey).Scan(&blob)
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}

func (s *IntegrationTestSuite) TestCorruptBlobFallsBackToDefault() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	t := s.T()

	// the server only reads the blob at start, the corrupt one is seen by a new server
	require.NoError(t, s.redisClient.Set(ctx, testStateKey, `{"profile": {"sex": "robot"`, 0).Err())
	defer s.redisClient.Del(ctx, testStateKey)

	port := redisServerPort + 10
	server, err := s.startServer(ctx, s.testConfig(config.StateBackendRedis, port))
	require.NoError(t, err)
	defer server.GracefulShutdown()

	status, body := s.do(ctx, fmt.Sprintf("http://%s:%d", serverHost, port), http.MethodGet, "/state", "")
	require.Equal(t, http.StatusOK, status)
	var resp stateResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, "unauthenticated", resp.Phase)
}
