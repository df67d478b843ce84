package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/wellcast-go/internal/api"
	"github.com/irfndi/wellcast-go/internal/api/handlers"
	"github.com/irfndi/wellcast-go/internal/cache"
	"github.com/irfndi/wellcast-go/internal/config"
	"github.com/irfndi/wellcast-go/internal/database"
	"github.com/irfndi/wellcast-go/internal/logging"
	"github.com/irfndi/wellcast-go/internal/metrics"
	"github.com/irfndi/wellcast-go/internal/middleware"
	"github.com/irfndi/wellcast-go/internal/queue"
	"github.com/irfndi/wellcast-go/internal/services"
	"github.com/irfndi/wellcast-go/internal/telemetry"
	"github.com/irfndi/wellcast-go/internal/textgen"
)

const serviceName = "wellcast"

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.LogLevel, cfg.Environment)
	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Fatal("Server exited with error")
	}
}

func run(cfg *config.Config, logger *logrus.Logger) error {
	ctx := context.Background()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	shutdownTracing, err := telemetry.Init(ctx, cfg.Telemetry, cfg.Environment, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.WithError(err).Warn("Failed to flush traces")
		}
	}()

	db, err := database.NewPostgresConnection(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	redisClient, err := database.NewRedisConnection(cfg.Redis, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer redisClient.Close()

	publisher := newPublisher(cfg.Kafka, logger)
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close forecast publisher")
		}
	}()

	m := metrics.New()

	breakers := services.NewCircuitBreakerManager(breakerConfig(cfg.Recommendations.CircuitBreaker), logger)
	breakers.SetStateRecorder(m)

	strategies := buildStrategies(cfg.Recommendations, breakers, logger)
	recommender := services.NewRecommendationGenerator(logger, m, strategies...)

	engine := services.NewForecastEngine(
		services.NewDefaultScoringRubric(),
		cfg.Forecast.ToForecastConfig(),
		logger,
		services.WithRecommender(recommender),
		services.WithForecastRecorder(m),
	)

	traced := database.NewTracedDB(db.Pool)
	signalRepo := database.NewSignalRepository(traced)
	forecastRepo := database.NewForecastRepository(traced)
	forecastCache := cache.NewRedisForecastCache(redisClient.Client, cfg.Redis.ForecastTTL)

	forecastService := services.NewForecastService(engine, signalRepo, forecastRepo, forecastCache, publisher, m, logger)

	cleanup := services.NewCleanupService(signalRepo, forecastRepo, m, logger)
	cleanup.Start(cfg.Cleanup)
	defer cleanup.Stop()

	router := api.NewRouter(api.Dependencies{
		Service:        forecastService,
		Health:         handlers.NewHealthHandler(db, redisClient, breakers, version),
		Auth:           middleware.NewAuthMiddleware(cfg.Security.JWTSecret, cfg.Security.RequireAuth),
		Metrics:        m.Handler(),
		HTTPRecorder:   m,
		ServiceName:    cfg.Telemetry.ServiceName,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, logger)

	srv := &http.Server{
		Addr:              serverAddr(cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logging.LogStartup(logger, serviceName, version, cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("failed to start server: %w", err)
	case sig := <-quit:
		logging.LogShutdown(logger, serviceName, sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server exited")
	return nil
}

func serverAddr(port int) string {
	return fmt.Sprintf(":%d", port)
}

type forecastPublisher interface {
	services.ForecastPublisher
	Close() error
}

func newPublisher(cfg config.KafkaConfig, logger *logrus.Logger) forecastPublisher {
	if !cfg.Enabled {
		logger.Info("Kafka disabled, forecast events will not be published")
		return queue.NoopPublisher{}
	}
	return queue.NewProducer(cfg.Brokers, cfg.Topic, logger)
}

func breakerConfig(cfg config.CircuitBreakerConfig) services.CircuitBreakerConfig {
	return services.CircuitBreakerConfig{
		FailureThreshold: cfg.FailureThreshold,
		SuccessThreshold: cfg.SuccessThreshold,
		OpenTimeout:      cfg.OpenTimeout,
		MaxHalfOpen:      1,
	}
}

// buildStrategies returns one generative strategy per configured backend.
// Each backend gets its own circuit breaker. The generator adds the template
// strategy itself.
func buildStrategies(cfg config.RecommendationsConfig, breakers *services.CircuitBreakerManager, logger *logrus.Logger) []services.RecommendationStrategy {
	timeout := cfg.TimeoutDuration()
	var strategies []services.RecommendationStrategy

	if cfg.OpenAI.Enabled() {
		client, err := textgen.NewOpenAIClient(textgen.OpenAIConfig{
			APIKey:    cfg.OpenAI.APIKey,
			BaseURL:   cfg.OpenAI.BaseURL,
			Model:     cfg.OpenAI.Model,
			MaxTokens: cfg.OpenAI.MaxTokens,
		})
		if err != nil {
			logger.WithError(err).Warn("OpenAI recommendations disabled")
		} else {
			strategies = append(strategies, services.NewGenerativeStrategy(client, breakers.GetOrCreate(client.Name()), timeout))
		}
	}

	if cfg.HuggingFace.Enabled() {
		client, err := textgen.NewHuggingFaceClient(textgen.HuggingFaceConfig{
			APIKey:    cfg.HuggingFace.APIKey,
			BaseURL:   cfg.HuggingFace.BaseURL,
			Model:     cfg.HuggingFace.Model,
			MaxTokens: cfg.HuggingFace.MaxTokens,
		})
		if err != nil {
			logger.WithError(err).Warn("Hugging Face recommendations disabled")
		} else {
			strategies = append(strategies, services.NewGenerativeStrategy(client, breakers.GetOrCreate(client.Name()), timeout))
		}
	}

	logger.WithField("generative_backends", len(strategies)).Info("Recommendation strategies configured")
	return strategies
}
