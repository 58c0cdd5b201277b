// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	schedulerv1 "github.com/gurkanbulca/clarity/api/scheduler/v1"
	"github.com/gurkanbulca/clarity/internal/config"
	"github.com/gurkanbulca/clarity/internal/database"
	"github.com/gurkanbulca/clarity/internal/httpapi"
	"github.com/gurkanbulca/clarity/internal/idempotency"
	"github.com/gurkanbulca/clarity/internal/interpreter"
	"github.com/gurkanbulca/clarity/internal/middleware"
	"github.com/gurkanbulca/clarity/internal/repository"
	"github.com/gurkanbulca/clarity/internal/scheduler"
	"github.com/gurkanbulca/clarity/internal/service"
	"github.com/gurkanbulca/clarity/pkg/auth"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.ValidateConfig(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if cfg.Server.Debug {
		log.SetLevel(logrus.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.ToDatabaseConfig())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.WithError(err).Warn("Failed to close database connection")
		}
	}()

	if cfg.Server.AutoMigrate {
		log.Info("Running auto migration...")
		if err := database.Migrate(ctx, db); err != nil {
			log.Fatalf("Failed to run auto migration: %v", err)
		}
	}

	store := repository.NewStore(db, repository.WithDefaultTimezone(cfg.Scheduling.DefaultTimezone))
	tokenManager := auth.NewTokenManager(cfg.JWT.AccessSecret, cfg.JWT.AccessTokenDuration, cfg.JWT.Issuer)

	model := newInterpreter(ctx, cfg, log)
	orchestrator := scheduler.NewOrchestrator(store, model, scheduler.Config{
		InterpreterTimeout: cfg.Interpreter.Timeout,
		DefaultDuration:    cfg.Scheduling.DefaultTaskDuration,
		HorizonDays:        cfg.Scheduling.SearchHorizonDays,
	}, log)
	taskService := service.NewTaskService(store, log)

	var deduper httpapi.Deduper
	if cfg.Redis.URL != "" {
		rc, err := idempotency.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer closeRedis(rc, log)
		deduper = idempotency.NewRedisDeduper(rc, cfg.Redis.IdempotencyTTL).
			WithReservationTTL(2 * cfg.Interpreter.Timeout)
		log.Info("Command idempotency enabled")
	}

	grpcServer := newGRPCServer(cfg, tokenManager, service.NewSchedulerServer(orchestrator, taskService, log), log)
	listener, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.Server.GRPCPort))
	if err != nil {
		log.Fatalf("Failed to listen: %v", err)
	}
	go func() {
		log.Infof("Clarity gRPC server listening on port %s", cfg.Server.GRPCPort)
		if err := grpcServer.Serve(listener); err != nil {
			log.Fatalf("Failed to serve gRPC: %v", err)
		}
	}()

	e := httpapi.New(httpapi.Deps{
		Commands: orchestrator,
		Tasks:    taskService,
		Tokens:   tokenManager,
		Deduper:  deduper,
		Logger:   log,
	})
	go func() {
		log.Infof("Clarity HTTP server listening on port %s", cfg.Server.HTTPPort)
		if err := e.Start(":" + cfg.Server.HTTPPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to serve HTTP: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP shutdown")
	}
	grpcServer.GracefulStop()
	log.Info("Server shutdown complete")
}

func newInterpreter(ctx context.Context, cfg *config.Config, log *logrus.Logger) scheduler.Interpreter {
	gemini, err := interpreter.NewGemini(ctx, interpreter.GeminiConfig{
		APIKey:   cfg.Interpreter.APIKey,
		Model:    cfg.Interpreter.Model,
		Endpoint: cfg.Interpreter.Endpoint,
	}, log)
	if err != nil {
		if !errors.Is(err, interpreter.ErrUnavailable) {
			log.Fatalf("Failed to create interpreter: %v", err)
		}
		log.Warn("GEMINI_API_KEY not set; every command gets the fallback reply")
		return interpreter.Unavailable{}
	}
	return gemini
}

func newGRPCServer(cfg *config.Config, tokens *auth.TokenManager, srv schedulerv1.SchedulerServiceServer, log *logrus.Logger) *grpc.Server {
	metadataExtractor := middleware.NewMetadataExtractorInterceptor()
	authInterceptor := middleware.NewAuthInterceptor(tokens)
	validationInterceptor := middleware.NewValidationInterceptor(nil)

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			metadataExtractor.Unary(),
			validationInterceptor.Unary(),
			authInterceptor.Unary(),
			middleware.LoggingInterceptor(log),
		),
		grpc.ChainStreamInterceptor(
			metadataExtractor.Stream(),
			authInterceptor.Stream(),
		),
	)

	schedulerv1.RegisterSchedulerServiceServer(grpcServer, srv)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(schedulerv1.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	if cfg.Server.EnableReflection {
		reflection.Register(grpcServer)
		log.Info("gRPC reflection enabled (disable in production)")
	}
	return grpcServer
}

func closeRedis(rc *redis.Client, log *logrus.Logger) {
	if err := rc.Close(); err != nil {
		log.WithError(err).Warn("Failed to close redis connection")
	}
}
