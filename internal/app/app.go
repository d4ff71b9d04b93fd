package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/blueworldgit/epc-parts-store/internal/config"
	"github.com/blueworldgit/epc-parts-store/internal/event"
	"github.com/blueworldgit/epc-parts-store/internal/gateway"
	handler "github.com/blueworldgit/epc-parts-store/internal/handler/http"
	"github.com/blueworldgit/epc-parts-store/internal/repository/postgres"
	"github.com/blueworldgit/epc-parts-store/internal/service"
	"github.com/blueworldgit/epc-parts-store/internal/session"
	"github.com/blueworldgit/epc-parts-store/migrations"
	"github.com/blueworldgit/epc-parts-store/pkg/database"
	"github.com/blueworldgit/epc-parts-store/pkg/health"
	"github.com/blueworldgit/epc-parts-store/pkg/httpclient"
	pkgkafka "github.com/blueworldgit/epc-parts-store/pkg/kafka"
	"github.com/blueworldgit/epc-parts-store/pkg/middleware"
	"github.com/blueworldgit/epc-parts-store/pkg/tracing"
)

// App wires together all dependencies and runs the checkout service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *redis.Client
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "checkout",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Initialize PostgreSQL connection pool.
	pgCfg := database.PostgresConfig{
		Host:            cfg.PostgresHost,
		Port:            cfg.PostgresPort,
		User:            cfg.PostgresUser,
		Password:        cfg.PostgresPass,
		DBName:          cfg.PostgresDB,
		SSLMode:         cfg.PostgresSSL,
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: time.Duration(cfg.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(cfg.DBMaxConnIdleTimeMins) * time.Minute,
	}

	pool, err := database.NewPostgresPool(ctx, &pgCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	database.RegisterPoolMetrics(pool, "checkout")

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Configure slow query logging.
	if cfg.SlowQueryThresholdMs > 0 {
		database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, logger)
	}

	// Initialize Redis for the submission store and order number sequence.
	redisClient, err := database.NewRedisClient(ctx, database.RedisConfig{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis",
		slog.String("host", cfg.RedisHost),
		slog.Int("port", cfg.RedisPort),
	)

	// Initialize Kafka producer.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Build the dependency graph.
	store := session.NewRedisStore(redisClient, time.Duration(cfg.SubmissionTTLMinutes)*time.Minute)
	sequence := session.NewRedisSequence(redisClient, cfg.OrderNumberSeed)
	orderRepo := postgres.NewOrderRepository(pool)
	ledgerRepo := postgres.NewLedgerRepository(pool)
	eventProducer := event.NewProducer(producer, logger)

	// The gateway HTTP client never retries: a timed-out authorization may
	// still have charged the card. The circuit breaker only sheds load when
	// the gateway is already failing; it does not re-issue requests.
	gatewayTimeout := time.Duration(cfg.GatewayTimeoutSeconds) * time.Second
	baseClient := httpclient.New(httpclient.Config{
		Timeout:         gatewayTimeout,
		MaxRetries:      0,
		MaxConnsPerHost: 100,
	})
	cbClient := httpclient.NewCircuitBreakerClient(baseClient, httpclient.CircuitBreakerConfig{
		Name:         "payment-gateway",
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}, logger)

	gatewayClient := gateway.NewClient(cbClient, gateway.Config{
		Mode:     cfg.GatewayMode,
		TestURL:  cfg.GatewayTestURL,
		LiveURL:  cfg.GatewayLiveURL,
		Username: cfg.GatewayUsername,
		Password: cfg.GatewayPassword,
		Entity:   cfg.GatewayEntity,
		Timeout:  gatewayTimeout,
	}, logger)
	logger.Info("payment gateway client initialized",
		slog.String("mode", cfg.GatewayMode),
	)

	checkoutService := service.NewCheckoutService(
		store,
		sequence,
		gatewayClient,
		service.NewOrderMaterializer(orderRepo, logger),
		service.NewPaymentRecorder(ledgerRepo, logger),
		orderRepo,
		ledgerRepo,
		eventProducer,
		logger,
	)

	// Health checks.
	// Kafka is non-critical: events are fire-and-forget, so a broker outage
	// degrades the service instead of taking checkout down.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.RegisterCritical("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})

	// HTTP router.
	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.Environment = cfg.Environment
	corsCfg.AllowedHeaders = append(corsCfg.AllowedHeaders, "X-Session-ID")

	router := handler.NewRouter(checkoutService, healthHandler, handler.RouterConfig{
		ServiceName:  "checkout",
		CORS:         corsCfg,
		PprofEnabled: cfg.PprofEnabled,
		PprofCIDRs:   cfg.PprofAllowedCIDRs,
	}, logger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redis:          redisClient,
		producer:       producer,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in the correct order:
// 1. HTTP server (drain in-flight requests)
// 2. Tracer (flush pending spans from drained requests)
// 3. Kafka producer
// 4. Redis client
// 5. PostgreSQL pool
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	// 1. Drain in-flight HTTP requests, up to 5s.
	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	// 2. Flush pending spans after HTTP drain so in-flight request spans are captured.
	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	// 3. Close Kafka producer.
	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	// 4. Close Redis client.
	if err := a.redis.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	// 5. Close PostgreSQL pool.
	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
