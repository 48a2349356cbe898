package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	applogger "github.com/astralhq/chatgate/internal/logger"
	"github.com/astralhq/chatgate/pkg/admission"
	"github.com/astralhq/chatgate/pkg/config"
	"github.com/astralhq/chatgate/pkg/guardian"
	handlers "github.com/astralhq/chatgate/pkg/handlers/http"
	"github.com/astralhq/chatgate/pkg/hive"
	"github.com/astralhq/chatgate/pkg/infra/abuse"
	"github.com/astralhq/chatgate/pkg/infra/botid"
	"github.com/astralhq/chatgate/pkg/infra/flags"
	"github.com/astralhq/chatgate/pkg/infra/httpx"
	"github.com/astralhq/chatgate/pkg/infra/metrics"
	"github.com/astralhq/chatgate/pkg/infra/ratelimit"
	"github.com/astralhq/chatgate/pkg/pipeline"
	"github.com/astralhq/chatgate/pkg/server"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Println("no .env file found, using system environment variables")
	}

	logger := applogger.NewLogger()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	metrics.Register(prometheus.DefaultRegisterer)
	observer := metrics.NewObserver(logger)

	abuseTracker := abuse.NewTracker(redisClient, cfg.Abuse.BlockThreshold, cfg.Abuse.TTL)
	maintenanceStore := flags.NewMaintenanceStore(redisClient)
	limiter := ratelimit.NewRedisLimiter(redisClient, cfg.RateLimit.Limit, cfg.RateLimit.Window, nil)
	botClassifier := botid.NewClassifier(logger, cfg.Bot.Threshold)

	guard := guardian.NewHTTPGuardian(
		logger, nil, cfg.Guardian.BaseURL, cfg.Guardian.Token, cfg.Guardian.Timeout,
	)

	breaker := httpx.NewCircuitBreaker("hive", cfg.Hive.BreakerTimeout, cfg.Hive.BreakerMaxFailures)
	generator := hive.NewHTTPGenerator(
		logger, nil, breaker, cfg.Hive.BaseURL, cfg.Hive.Token, cfg.Hive.Timeout,
	)

	controller := admission.NewController(admission.ControllerDI{
		Maintenance:      maintenanceStore,
		Abuse:            abuseTracker,
		Bots:             botClassifier,
		Limiter:          limiter,
		Observer:         observer,
		Logger:           logger,
		IncrementTimeout: cfg.Abuse.IncrementTimeout,
	})

	orchestrator := pipeline.NewOrchestrator(pipeline.OrchestratorDI{
		Admission: controller,
		Guardian:  guard,
		Generator: generator,
		Observer:  observer,
		Logger:    logger,
		Options: pipeline.Options{
			Temperature: cfg.Pipeline.Temperature,
			TaskType:    cfg.Pipeline.TaskType,
		},
	})

	chatHandler := handlers.NewChatHandler(orchestrator, logger, cfg.Pipeline.Deadline)

	srv := server.New(server.DI{
		Config:      cfg,
		Logger:      logger,
		ChatHandler: chatHandler,
	})

	go func() {
		if err := srv.Run(); err != nil {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	fmt.Println("shutting down server...")
	if err := srv.Shutdown(); err != nil {
		fmt.Println("error shutting down server:", err)
		os.Exit(1)
	}
	fmt.Println("server gracefully stopped")
}
