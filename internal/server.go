package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"github.com/2beens/shapepro/internal/config"
	"github.com/2beens/shapepro/internal/db"
	"github.com/2beens/shapepro/internal/middleware"
	"github.com/2beens/shapepro/internal/planner"
	"github.com/2beens/shapepro/internal/shape"
	"github.com/2beens/shapepro/internal/statestore"
	"github.com/2beens/shapepro/internal/telemetry/metrics"
	"github.com/2beens/shapepro/internal/telemetry/tracing"
	"github.com/2beens/shapepro/internal/tracker"
	"github.com/2beens/shapepro/pkg"
)

// PlanGenerator produces a plan for a profile; the Gemini client in
// production.
type PlanGenerator interface {
	GeneratePlan(ctx context.Context, profile shape.Profile) (*shape.Plan, error)
}

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config      *config.Config
	dbPool      *pgxpool.Pool
	redisClient *redis.Client
	tracker     *tracker.Tracker
	rateLimiter middleware.RequestRateLimiter

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	GeminiAPIKey            string
	RedisPassword           string
	PostgresPassword        string
	VersionInfo             string
	HoneycombTracingEnabled bool
	// Planner replaces the Gemini client when set.
	Planner PlanGenerator
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	cfg := params.Config
	location, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:      cfg,
		versionInfo: params.VersionInfo,
	}

	var collectors []prometheus.Collector
	var backend statestore.Backend
	switch cfg.StateBackend {
	case config.StateBackendRedis:
		s.redisClient = redis.NewClient(&redis.Options{
			Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
			Password: params.RedisPassword,
			DB:       0, // use default DB
		})
		rdbStatus := s.redisClient.Ping(ctx)
		if err := rdbStatus.Err(); err != nil {
			log.Errorf("--> failed to ping redis: %s", err)
		} else {
			log.Debugf("redis ping: %s", rdbStatus.Val())
		}
		backend = statestore.NewRedisBackend(s.redisClient)
	case config.StateBackendPostgres:
		s.dbPool, err = db.NewDBPool(ctx, db.NewDBPoolParams{
			DBHost:         cfg.PostgresHost,
			DBPort:         cfg.PostgresPort,
			DBName:         cfg.PostgresDBName,
			DBUser:         cfg.PostgresUser,
			DBPassword:     params.PostgresPassword,
			TracingEnabled: params.HoneycombTracingEnabled,
		})
		if err != nil {
			return nil, fmt.Errorf("new db pool: %w", err)
		}
		if err := s.dbPool.Ping(ctx); err != nil {
			log.Warnf("failed to ping db: %s", err)
		}
		psqlBackend := statestore.NewPsqlBackend(s.dbPool)
		if err := psqlBackend.EnsureSchema(ctx); err != nil {
			log.Errorf("ensure state table: %s", err)
		}
		backend = psqlBackend
		collectors = append(collectors, pgxpoolprometheus.NewCollector(
			s.dbPool,
			map[string]string{"db_name": cfg.PostgresDBName},
		))
	case config.StateBackendMemory:
		log.Warnln("state kept in memory only, it will not survive a restart")
		backend = statestore.NewMemoryBackend()
	default:
		backend, err = statestore.NewDiskBackend(cfg.StateDir)
		if err != nil {
			return nil, fmt.Errorf("new disk backend: %w", err)
		}
	}
	log.Debugf("state backend: %s", backend.Name())

	s.promRegistry = metrics.SetupPrometheus(collectors...)
	s.metricsManager = metrics.NewManager("shapepro", "main", s.promRegistry)
	s.metricsManager.GaugeLifeSignal.Set(0)

	// use honeycomb distro to setup OpenTelemetry SDK
	s.otelShutdown, err = tracing.HoneycombSetup(params.HoneycombTracingEnabled, "shapepro-tracker", s.redisClient)
	if err != nil {
		return nil, err
	}

	if s.redisClient != nil {
		s.rateLimiter = redis_rate.NewLimiter(s.redisClient)
	} else {
		s.rateLimiter = middleware.NewLocalRateLimiter()
	}

	planGenerator := params.Planner
	if planGenerator == nil {
		if params.GeminiAPIKey == "" {
			log.Errorln("gemini API key missing, plan generation will fail")
		}
		planGenerator, err = planner.NewGeminiClient(ctx, planner.GeminiParams{
			BaseURL: cfg.GeminiBaseURL,
			APIKey:  params.GeminiAPIKey,
			Model:   cfg.GeminiModel,
			Timeout: cfg.PlanTimeout.Duration,
		})
		if err != nil {
			return nil, fmt.Errorf("new gemini client: %w", err)
		}
	}

	s.tracker = tracker.New(
		ctx,
		statestore.NewStore(backend, cfg.StateKey),
		planGenerator,
		func() time.Time {
			return time.Now().In(location)
		},
		s.metricsManager,
	)

	return s, nil
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("shapepro-router"))

	trackerHandler := tracker.NewHandler(s.tracker)
	trackerHandler.SetupRoutes(r, middleware.RateLimit(
		s.rateLimiter,
		"plan-generation",
		s.config.PlanRateLimitPerMin,
		s.metricsManager,
	))

	r.HandleFunc("/version", func(w http.ResponseWriter, _ *http.Request) {
		pkg.WriteTextResponseOK(w, s.versionInfo)
	}).Methods("GET", "OPTIONS").Name("version")

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "OPTIONS").Name("unknown")

	allowedOrigins := s.config.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = middleware.DefaultAllowedOrigins
	}

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(allowedOrigins))
	r.Use(middleware.LimitRequestBody(middleware.DefaultMaxRequestBody))

	return r
}

func (s *Server) Serve(host string, port int) {
	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler: s.routerSetup(),
		Addr:    ipAndPort,
		// plan generation can take up to the planner timeout
		WriteTimeout: s.config.PlanTimeout.Duration + 30*time.Second,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.HandlerFor(
		s.promRegistry,
		promhttp.HandlerOpts{},
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	// stop taking requests before the stores go away
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown http server")
		}
		log.Warnln("server shut down")
	}

	if s.metricsHttpServer != nil {
		if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown metrics http server")
		}
		log.Warnln("metrics server shut down")
	}

	if s.otelShutdown != nil {
		s.otelShutdown()
		log.Trace("otel shut down ...")
	}

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}
