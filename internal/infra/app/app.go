package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/arklim/social-platform-accounts/internal/core/port"
	"github.com/arklim/social-platform-accounts/internal/infra/config"
	"github.com/arklim/social-platform-accounts/internal/infra/database"
	kafkainfra "github.com/arklim/social-platform-accounts/internal/infra/kafka"
	"github.com/arklim/social-platform-accounts/internal/infra/logger"
	"github.com/arklim/social-platform-accounts/internal/infra/notify"
	redisinfra "github.com/arklim/social-platform-accounts/internal/infra/redis"
	"github.com/arklim/social-platform-accounts/internal/infra/security"
	postgresrepo "github.com/arklim/social-platform-accounts/internal/repository/postgres"
	redisrepo "github.com/arklim/social-platform-accounts/internal/repository/redis"
	"github.com/arklim/social-platform-accounts/internal/transport/http/middleware"
	"github.com/arklim/social-platform-accounts/internal/transport/http/routes"
	"github.com/arklim/social-platform-accounts/internal/usecase"
)

// Application bundles the wired service with the resources it owns.
type Application struct {
	cfg    *config.AppConfig
	engine *gin.Engine
	logger *zap.Logger
	pool   *pgxpool.Pool
	redis  *redisinfra.Client
	kafka  *kafkainfra.Producer
}

// New wires every component from configuration.
func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init redis: %w", err)
	}

	hasher, err := security.NewHasher(security.Argon2Config{
		Memory:      cfg.Argon2.Memory,
		Iterations:  cfg.Argon2.Iterations,
		Parallelism: cfg.Argon2.Parallelism,
		SaltLength:  cfg.Argon2.SaltLength,
		KeyLength:   cfg.Argon2.KeyLength,
	})
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init hasher: %w", err)
	}

	tokens := security.NewStateTokenGenerator(cfg.Auth.SecretKey, cfg.Auth.TokenExpiry)
	validator := security.DefaultPasswordValidator(cfg.Auth.MinPasswordLength)

	var eventPublisher port.EventPublisher
	var kafkaProducer *kafkainfra.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaProducer, err = kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			eventPublisher = kafkainfra.NewEventPublisher(kafkaProducer, cfg.App, log)
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	var notifier port.Notifier
	if kafkaProducer != nil {
		notifier = notify.NewEventNotifier(eventPublisher)
	} else {
		notifier = notify.NewLogNotifier(log)
	}

	accounts := postgresrepo.NewAccountRepository(pool)
	sessions := redisrepo.NewSessionStore(redisClient.Client(), cfg.Redis.SessionPrefix, cfg.Redis.SessionTTL)
	resolver := usecase.NewIdentityResolver(accounts, cfg.Auth.IdentityFields)
	links := usecase.NewLinkBuilder(cfg.Frontend)
	hooks := &usecase.Hooks{}

	registrationService := usecase.NewRegistrationService(
		accounts, resolver, hasher, validator, tokens, notifier, eventPublisher, hooks, links, cfg.Auth, log,
	)
	authService, err := usecase.NewAuthService(accounts, resolver, hasher, sessions, hooks, log)
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init auth service: %w", err)
	}
	passwordResetService := usecase.NewPasswordResetService(
		accounts, resolver, hasher, validator, tokens, notifier, eventPublisher, sessions, hooks, links, log,
	)

	metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{})
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	engine := routes.Register(routes.Dependencies{
		Config:  cfg,
		Logger:  log,
		Metrics: metrics,
		Services: routes.ServiceSet{
			Auth:          authService,
			Registration:  registrationService,
			PasswordReset: passwordResetService,
		},
	})

	return &Application{
		cfg:    cfg,
		engine: engine,
		logger: log,
		pool:   pool,
		redis:  redisClient,
		kafka:  kafkaProducer,
	}, nil
}

// Run serves HTTP until the context is cancelled, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()
	defer func() {
		if a.kafka != nil {
			_ = a.kafka.Close()
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting accounts API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}
