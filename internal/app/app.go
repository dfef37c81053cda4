package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/FeruzLatifov/hemis-back-sub004/internal/auth"
	"github.com/FeruzLatifov/hemis-back-sub004/internal/cache"
	"github.com/FeruzLatifov/hemis-back-sub004/internal/config"
	"github.com/FeruzLatifov/hemis-back-sub004/internal/domain"
	"github.com/FeruzLatifov/hemis-back-sub004/internal/event"
	handler "github.com/FeruzLatifov/hemis-back-sub004/internal/handler/http"
	"github.com/FeruzLatifov/hemis-back-sub004/internal/identity"
	"github.com/FeruzLatifov/hemis-back-sub004/internal/menu"
	"github.com/FeruzLatifov/hemis-back-sub004/internal/repository/postgres"
	"github.com/FeruzLatifov/hemis-back-sub004/internal/revocation"
	"github.com/FeruzLatifov/hemis-back-sub004/internal/service"
	"github.com/FeruzLatifov/hemis-back-sub004/pkg/database"
	"github.com/FeruzLatifov/hemis-back-sub004/pkg/health"
	pkgkafka "github.com/FeruzLatifov/hemis-back-sub004/pkg/kafka"
	"github.com/FeruzLatifov/hemis-back-sub004/pkg/middleware"
)

// App wires together all dependencies and runs the identity service.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	primary    *pgxpool.Pool
	replica    *pgxpool.Pool
	redis      *redis.Client
	producer   *pkgkafka.Producer
	httpServer *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// PostgreSQL primary.
	primaryCfg := cfg.PrimaryPostgres()
	primary, err := database.NewPostgresPool(ctx, &primaryCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres primary: %w", err)
	}
	logger.Info("connected to PostgreSQL primary",
		slog.String("host", primaryCfg.Host),
		slog.Int("port", primaryCfg.Port),
		slog.String("database", primaryCfg.DBName),
	)

	// Optional read replica.
	var replica *pgxpool.Pool
	if replicaCfg, ok := cfg.ReplicaPostgres(); ok {
		replica, err = database.NewPostgresPool(ctx, &replicaCfg, logger)
		if err != nil {
			primary.Close()
			return nil, fmt.Errorf("connect to postgres replica: %w", err)
		}
		logger.Info("connected to PostgreSQL replica",
			slog.String("host", replicaCfg.Host),
			slog.Int("port", replicaCfg.Port),
		)
	}

	var cluster *database.Cluster
	if replica != nil {
		cluster = database.NewCluster(primary, replica)
	} else {
		cluster = database.NewCluster(primary, nil)
	}

	// Redis backs both the revocation denylist and the shared cache tier.
	redisClient, err := database.NewRedisClient(ctx, cfg.Redis())
	if err != nil {
		primary.Close()
		if replica != nil {
			replica.Close()
		}
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis", slog.String("addr", cfg.Redis().Addr()))

	// Kafka producer.
	producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Build the dependency graph.
	principalRepo := postgres.NewPrincipalRepository(cluster)
	permissionRepo := postgres.NewPermissionRepository(cluster)
	menuRepo := postgres.NewMenuRepository(cluster)

	sharedCache := cache.NewShared(redisClient, logger)
	permCache := cache.NewPermissionCache(
		cache.NewLocal[[]string](cfg.LocalCacheCapacity, cfg.LocalCacheTTL),
		sharedCache,
		permissionRepo,
		cfg.SharedCacheTTL,
		logger,
	)
	menuCache := cache.NewMenuCache(
		cache.NewLocal[[]domain.MenuRow](64, cfg.LocalCacheTTL),
		cache.NewLocal[[]*domain.MenuNode](cfg.LocalCacheCapacity, cfg.LocalCacheTTL),
		sharedCache,
		menuRepo,
		cfg.SharedCacheTTL,
		logger,
	)

	publisher := event.NewPublisher(producer)
	invalidator := cache.NewInvalidator(permCache, menuCache, permissionRepo, publisher, logger)

	tokenManager := auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL, cfg.CompatTTL)
	revocationStore := revocation.NewStore(redisClient, logger)

	authService := service.NewAuthService(
		identity.NewResolver(principalRepo, logger),
		tokenManager,
		revocationStore,
		permCache,
		publisher,
		logger,
	)
	menuResolver := menu.NewResolver(menuCache)

	// Health checks. Kafka is non-critical: login still works when the event
	// bus is down, events are just lost.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return primary.Ping(ctx)
	})
	if replica != nil {
		healthHandler.RegisterNonCritical("postgres_replica", replica.Ping)
	}
	healthHandler.RegisterCritical("redis", revocationStore.Ping)
	healthHandler.RegisterNonCritical("kafka", producer.Ping)

	// HTTP router.
	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins
	corsCfg.Environment = cfg.Environment

	router := handler.NewRouter(handler.RouterConfig{
		AuthHandler:   handler.NewAuthHandler(authService, logger),
		MenuHandler:   handler.NewMenuHandler(menuResolver, logger),
		AdminHandler:  handler.NewAdminHandler(invalidator, authService, logger),
		AuthService:   authService,
		HealthHandler: healthHandler,
		Logger:        logger,
		CORS:          corsCfg,
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		primary:    primary,
		replica:    replica,
		redis:      redisClient,
		producer:   producer,
		httpServer: httpServer,
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

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	// Graceful HTTP server shutdown with a 10-second deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
	}

	if err := a.redis.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
	}

	if a.replica != nil {
		a.replica.Close()
	}
	a.primary.Close()

	a.logger.Info("application shutdown complete")
	return nil
}
