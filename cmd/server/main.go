package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/pesio-ai/be-pg-salaries/internal/client"
	"github.com/pesio-ai/be-pg-salaries/internal/handler"
	"github.com/pesio-ai/be-pg-salaries/internal/pkg/auth"
	"github.com/pesio-ai/be-pg-salaries/internal/pkg/config"
	"github.com/pesio-ai/be-pg-salaries/internal/pkg/database"
	"github.com/pesio-ai/be-pg-salaries/internal/pkg/logger"
	"github.com/pesio-ai/be-pg-salaries/internal/pkg/middleware"
	"github.com/pesio-ai/be-pg-salaries/internal/repository"
	"github.com/pesio-ai/be-pg-salaries/internal/salary"
	"github.com/pesio-ai/be-pg-salaries/internal/service"
	"github.com/pesio-ai/be-pg-salaries/migrations"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:       cfg.Service.LogLevel,
		Environment: cfg.Service.Environment,
		ServiceName: cfg.Service.Name,
		Version:     cfg.Service.Version,
	})

	log.Info().
		Str("service", cfg.Service.Name).
		Str("version", cfg.Service.Version).
		Str("environment", cfg.Service.Environment).
		Msg("Starting Salaries Service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database
	db, err := database.New(ctx, database.Config{
		Host:        cfg.Database.Host,
		Port:        cfg.Database.Port,
		User:        cfg.Database.User,
		Password:    cfg.Database.Password,
		Database:    cfg.Database.Database,
		SSLMode:     cfg.Database.SSLMode,
		MaxConns:    cfg.Database.MaxConns,
		MinConns:    cfg.Database.MinConns,
		MaxConnTime: cfg.Database.MaxConnTime,
		MaxIdleTime: cfg.Database.MaxIdleTime,
		HealthCheck: cfg.Database.HealthCheck,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()
	log.Info().Msg("Database connection established")

	if cfg.Database.AutoMigrate {
		applied, err := db.Migrate(ctx, migrations.FS)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to apply migrations")
		}
		log.Info().Strs("applied", applied).Msg("Database migrations applied")
	}

	// Initialize repositories
	salaryRepo := repository.NewSalaryRepository(db)
	maintainerRepo := repository.NewMaintainerRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	// Payment lock: Redis when configured, otherwise in-process
	var locker service.Locker = client.NewKeyedMutex()
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("Failed to connect to redis")
		}
		defer rdb.Close()
		locker = client.NewRedisLocker(rdb, cfg.Redis.LockTTL, log.Logger)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("Redis payment lock enabled")
	} else {
		log.Warn().Msg("REDIS_ADDR not set, payment lock is per process")
	}

	// Receipt storage
	var receipts service.ReceiptStore
	if cfg.MinIO.Endpoint != "" {
		store, err := client.NewReceiptStore(ctx, client.MinIOConfig{
			Endpoint:  cfg.MinIO.Endpoint,
			AccessKey: cfg.MinIO.AccessKey,
			SecretKey: cfg.MinIO.SecretKey,
			Bucket:    cfg.MinIO.Bucket,
			UseSSL:    cfg.MinIO.UseSSL,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize receipt storage")
		}
		receipts = store
		log.Info().Str("bucket", cfg.MinIO.Bucket).Msg("Receipt storage enabled")
	} else {
		log.Warn().Msg("MINIO_ENDPOINT not set, receipt uploads are disabled")
	}

	// Salary events
	var events service.EventPublisher
	if cfg.NATS.URL != "" {
		js, err := client.NewJetStreamPublisher(ctx, cfg.NATS.URL, cfg.NATS.SubjectPrefix)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to NATS")
		}
		defer js.Close()
		events = client.NewNotificationPublisher(js, cfg.NATS.SubjectPrefix, log.Logger)
		log.Info().Str("url", cfg.NATS.URL).Msg("Salary events enabled")
	}

	loc, err := time.LoadLocation(cfg.Salary.TimeZone)
	if err != nil {
		log.Fatal().Err(err).Str("time_zone", cfg.Salary.TimeZone).Msg("Invalid salary time zone")
	}
	numeric, err := salary.ParseNumericPolicy(cfg.Salary.NumericPolicy)
	if err != nil {
		log.Fatal().Err(err).Str("numeric_policy", cfg.Salary.NumericPolicy).Msg("Invalid numeric policy")
	}

	// Initialize services
	salaryService := service.NewSalaryService(salaryRepo, maintainerRepo, auditRepo, locker, receipts, events, service.Options{
		Clock:         salary.SystemClock{Location: loc},
		EditWindow:    cfg.Salary.EditWindow,
		NumericPolicy: numeric,
		MinYear:       cfg.Salary.MinYear,
		MaxYear:       cfg.Salary.MaxYear,
	}, log)

	verifier := auth.NewVerifier(cfg.JWT.Secret, cfg.JWT.Issuer)

	// Setup HTTP routes
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := db.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})
	handler.NewHTTPHandler(salaryService, cfg.Server.MaxUploadBytes, log).Register(mux)

	h := middleware.Chain(mux,
		middleware.RequestID,
		middleware.Logger(&log.Logger),
		middleware.Recovery(&log.Logger),
		middleware.CORS(cfg.Server.AllowedOrigins),
		middleware.Timeout(cfg.Server.RequestTimeout),
		middleware.Auth(verifier, "/health"),
	)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      h,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("HTTP server failed")
		}
	}()

	// Start gRPC server
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(
		handler.LoggingInterceptor(&log.Logger),
		handler.AuthInterceptor(verifier, "/grpc.health.v1."),
	))
	handler.RegisterSalaryServiceServer(grpcServer, handler.NewGRPCHandler(salaryService, log))

	healthServer := health.NewServer()
	healthServer.SetServingStatus(handler.SalaryServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	grpcListener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.GRPCPort))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create gRPC listener")
	}

	go func() {
		log.Info().Int("port", cfg.Server.GRPCPort).Msg("Starting gRPC server")
		if err := grpcServer.Serve(grpcListener); err != nil {
			log.Error().Err(err).Msg("gRPC server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	healthServer.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	grpcServer.GracefulStop()

	log.Info().Msg("Server stopped")
}
