package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/ticket-triage/internal/api/http"
	"github.com/spec-kit/ticket-triage/internal/api/http/handlers"
	"github.com/spec-kit/ticket-triage/internal/auth"
	"github.com/spec-kit/ticket-triage/internal/classify"
	"github.com/spec-kit/ticket-triage/internal/config"
	"github.com/spec-kit/ticket-triage/internal/events"
	"github.com/spec-kit/ticket-triage/internal/genai"
	"github.com/spec-kit/ticket-triage/internal/observability"
	"github.com/spec-kit/ticket-triage/internal/persistence"
	"github.com/spec-kit/ticket-triage/internal/repository"
	"github.com/spec-kit/ticket-triage/internal/resilience"
	"github.com/spec-kit/ticket-triage/internal/routing"
	"github.com/spec-kit/ticket-triage/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.App.Env, cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	mappingRepo := repository.NewTeamMappingRepository(pool)
	logRepo := repository.NewTicketLogRepository(pool)

	metrics := observability.NewMetrics()
	dispatcher := events.NewDispatcher(logger)
	_ = service.NewNotificationService(cfg.Notification, dispatcher, logger)

	retryPolicy := resilience.Policy{
		MaxAttempts: cfg.Routing.RetryMaxAttempts,
		BaseDelay:   time.Duration(cfg.Routing.RetryBaseSeconds) * time.Second,
		MaxDelay:    time.Duration(cfg.Routing.RetryMaxSeconds) * time.Second,
	}

	var generator genai.TextGenerator
	if cfg.Classifier.Enabled && cfg.Classifier.APIKey != "" {
		client, err := genai.NewGeminiClient(cfg.Classifier.APIKey, cfg.Classifier.Model,
			time.Duration(cfg.Classifier.TimeoutSeconds)*time.Second)
		if err != nil {
			logger.Warn("gemini client unavailable, keyword fallback only", zap.Error(err))
		} else {
			generator = client
		}
	} else {
		logger.Warn("AI classification disabled, keyword fallback only")
	}

	classifier := classify.NewClassifier(classify.Dependencies{
		Generator: generator,
		Cache:     classify.NewCache(cfg.Classifier.CacheSize),
		Retry:     retryPolicy,
		Model:     cfg.Classifier.Model,
		Logger:    logger,
	})

	breaker := routing.NewBreakerRegistry(cfg.Routing.BreakerFailureThreshold,
		time.Duration(cfg.Routing.BreakerCooldownSeconds)*time.Second)
	router := routing.NewRouter(routing.RouterDependencies{
		Client:     routing.NewHTTPClient(cfg.Routing),
		Breaker:    breaker,
		Retry:      retryPolicy,
		SystemAuth: routing.SystemAuthFromConfig(cfg.Routing),
		UserAgent:  cfg.Routing.UserAgent,
		Logger:     logger,
	})

	triage := service.NewTriageService(service.TriageDependencies{
		Classifier:      classifier,
		Router:          router,
		Mappings:        mappingRepo,
		Logs:            logRepo,
		StatusCache:     redis,
		Dispatcher:      dispatcher,
		Metrics:         metrics,
		Logger:          logger,
		PipelineTimeout: cfg.App.PipelineTimeout(),
	})

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:      handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Webhook:     handlers.NewWebhookHandler(triage, logRepo, classifier, router, metrics, logger),
		WebhookAuth: auth.NewWebhookAuth(cfg.Auth),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
