package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/Marcholio/product-review-catalog-sub000/internal/auth"
	"github.com/Marcholio/product-review-catalog-sub000/internal/cache"
	"github.com/Marcholio/product-review-catalog-sub000/internal/config"
	"github.com/Marcholio/product-review-catalog-sub000/internal/domain"
	"github.com/Marcholio/product-review-catalog-sub000/internal/event"
	handler "github.com/Marcholio/product-review-catalog-sub000/internal/handler/http"
	"github.com/Marcholio/product-review-catalog-sub000/internal/repository/postgres"
	"github.com/Marcholio/product-review-catalog-sub000/internal/service"
	"github.com/Marcholio/product-review-catalog-sub000/migrations"
	"github.com/Marcholio/product-review-catalog-sub000/pkg/database"
	"github.com/Marcholio/product-review-catalog-sub000/pkg/health"
	"github.com/Marcholio/product-review-catalog-sub000/pkg/httputil"
	pkgkafka "github.com/Marcholio/product-review-catalog-sub000/pkg/kafka"
	"github.com/Marcholio/product-review-catalog-sub000/pkg/middleware"
	"github.com/Marcholio/product-review-catalog-sub000/pkg/tracing"
)

const (
	serviceName    = "catalog"
	serviceVersion = "0.1.0"
	cacheNamespace = "catalog:products"
)

var (
	_ service.Events = (*event.Producer)(nil)
	_ service.Events = event.Noop{}

	_ service.CacheInvalidator = (*cache.ResponseCache)(nil)
	_ service.CacheInvalidator = cache.Disabled{}
	_ handler.ResponseCache    = (*cache.ResponseCache)(nil)
	_ handler.ResponseCache    = cache.Disabled{}
)

// responseCache is what both the router and the write paths need.
type responseCache interface {
	handler.ResponseCache
	service.CacheInvalidator
}

// App wires together all dependencies and runs the catalog service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *redis.Client
	producer       *pkgkafka.Producer
	rateLimiter    *middleware.RateLimiter
	httpServer     *http.Server
	tracerShutdown tracing.ShutdownFunc
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}

	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: serviceVersion,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.tracerShutdown = tracerShutdown

	// PostgreSQL
	pgCfg := cfg.Postgres()
	pgCfg.Tracer = database.NewQueryTracer(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, logger)

	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		a.closeAll()
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	a.pool = pool
	logger.Info("connected to PostgreSQL",
		slog.String("host", pgCfg.Host),
		slog.Int("port", pgCfg.Port),
		slog.String("database", pgCfg.DBName),
	)

	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, serviceName); err != nil {
		logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
	}

	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		a.closeAll()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})

	// Redis response cache
	var responses responseCache = cache.Disabled{}
	if cfg.RedisEnabled {
		client, err := database.NewRedisClient(ctx, cfg.Redis())
		if err != nil {
			a.closeAll()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.redis = client
		responses = cache.New(cache.NewRedisStore(client), cacheNamespace, cfg.CacheTTL, logger)
		healthHandler.RegisterNonCritical("redis", database.RedisChecker(client))
		logger.Info("response cache enabled", slog.String("addr", cfg.Redis().Addr()), slog.Duration("ttl", cfg.CacheTTL))
	}

	// Kafka domain events
	var events service.Events = event.Noop{}
	if cfg.KafkaEnabled {
		producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		a.producer = producer
		events = event.NewProducer(producer, event.DefaultBreakerConfig(), logger)
		healthHandler.RegisterNonCritical("kafka", producer.Ping)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	// Build the dependency graph.
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiry)

	productRepo := postgres.NewProductRepository(pool)
	ratingRepo := postgres.NewRatingRepository(pool)
	reviewRepo := postgres.NewReviewRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	wishlistRepo := postgres.NewWishlistRepository(pool)
	policyRepo := postgres.NewPasswordPolicyRepository(pool)

	policies := service.NewPasswordPolicyService(policyRepo, passwordPolicyDefaults(cfg), logger)
	services := handler.Services{
		Products: service.NewProductService(productRepo, events, responses, logger),
		Ratings:  service.NewRatingService(productRepo, ratingRepo, events, responses, logger),
		Reviews:  service.NewReviewService(reviewRepo, productRepo, events, responses, cfg.ReviewAutoApprove, logger),
		Wishlist: service.NewWishlistService(wishlistRepo, productRepo, logger),
		Users:    service.NewUserService(userRepo, policies, jwtManager, events, logger),
		Admin:    service.NewAdminService(userRepo, productRepo, reviewRepo, events, logger),
		Policies: policies,
	}

	a.rateLimiter = middleware.NewRateLimiter(cfg.AuthRateLimitRPS, cfg.AuthRateLimitBurst, cfg.TrustedProxyCIDRs, logger)

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins
	corsCfg.Environment = cfg.Environment

	router := handler.NewRouter(services, handler.RouterConfig{
		ServiceName:     serviceName,
		CORS:            corsCfg,
		PprofCIDRs:      cfg.PprofAllowedCIDRs,
		TokenValidator:  jwtManager.Validator(),
		AuthRateLimiter: a.rateLimiter,
		Cache:           responses,
		CacheMaxAge:     cacheMaxAge(cfg),
		Health:          healthHandler,
		ErrorWriter:     httputil.NewErrorWriter(logger, cfg.IsDevelopment()),
	}, logger)

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

func passwordPolicyDefaults(cfg *config.Config) domain.PasswordPolicy {
	return domain.PasswordPolicy{
		MinLength:           cfg.PasswordMinLength,
		RequireUppercase:    cfg.PasswordRequireUppercase,
		RequireLowercase:    cfg.PasswordRequireLowercase,
		RequireNumbers:      cfg.PasswordRequireNumbers,
		RequireSpecialChars: cfg.PasswordRequireSpecialChars,
		ExpiryDays:          cfg.PasswordExpiryDays,
		PreventReuseCount:   cfg.PasswordPreventReuseCount,
	}
}

// cacheMaxAge is the Cache-Control lifetime on catalog reads. Zero when
// Redis is off.
func cacheMaxAge(cfg *config.Config) time.Duration {
	if !cfg.RedisEnabled {
		return 0
	}
	return cfg.CacheTTL
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.closeAll()
		return err
	}

	return a.Shutdown()
}

// Shutdown drains HTTP first, then flushes spans, then closes the
// producer, the cache client and the pool.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.closeAll(); err != nil {
		errs = append(errs, err)
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// closeAll releases everything except the HTTP server. Safe to call on a
// partially built App.
func (a *App) closeAll() error {
	var errs []error

	if a.rateLimiter != nil {
		a.rateLimiter.Close()
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
		a.tracerShutdown = nil
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
		a.producer = nil
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
		a.redis = nil
	}

	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}

	return errors.Join(errs...)
}
