package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"tempiaops/internal/auth"
	"tempiaops/internal/cache"
	"tempiaops/internal/domain"
	"tempiaops/internal/handler"
	"tempiaops/internal/middleware"
	"tempiaops/internal/preview"
	"tempiaops/internal/repository"
	"tempiaops/internal/service"
	"tempiaops/internal/service/s3"
)

func newServeCommand() *cobra.Command {
	var skipMigrations bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and the gRPC health endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), skipMigrations)
		},
	}
	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not apply pending migrations on start")

	return cmd
}

func serve(ctx context.Context, skipMigrations bool) error {
	cfg, log := current.cfg, current.log
	if ctx == nil {
		ctx = context.Background()
	}

	db, err := connectWithRetry(cfg.Database, 5, 5*time.Second, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database after retries: %w", err)
	}
	defer db.Close()

	if !skipMigrations {
		if err := runMigrations(cfg.Database, log); err != nil {
			return err
		}
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	storage, err := s3.NewClient(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to create S3 client: %w", err)
	}

	checks := []handler.Check{{Name: "database", Probe: db.PingContext}}

	var urls cache.KV = cache.NoopKV{}
	if cfg.Redis.Addr != "" {
		rdb := cache.NewRedisClient(cfg.Redis)
		defer rdb.Close()
		urls = cache.NewRedisKV(rdb)
		checks = append(checks, handler.Check{
			Name:  "redis",
			Probe: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})
	} else {
		log.Info("redis not configured, signed URLs are not cached")
	}

	verifier := auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.DefaultRole)
	identity := auth.NewIdentityClient(cfg.Auth.IdentityURL, cfg.Auth.AnonKey, log)

	buildingRepo := repository.NewBuildingRepository(db)
	flowRepo := repository.NewFlowRepository(db)
	procedureRepo := repository.NewDocumentRepository(db, domain.KindProcedure)
	instructionRepo := repository.NewDocumentRepository(db, domain.KindInstruction)
	fdvRepo := repository.NewFdvRepository(db)
	kpiRepo := repository.NewKPIRepository(db)

	permissions := service.NewPermissionService()
	previews := preview.NewService(storage, os.TempDir())

	buildingService := service.NewBuildingService(buildingRepo, permissions)
	flowService := service.NewFlowService(flowRepo, buildingRepo, procedureRepo, permissions)
	procedureService := service.NewDocumentService(procedureRepo, permissions)
	instructionService := service.NewDocumentService(instructionRepo, permissions)
	fdvService := service.NewFdvService(fdvRepo, buildingRepo, storage, urls, previews, permissions, cfg.Storage.SignedURLTTL)
	kpiService := service.NewKPIService(kpiRepo, permissions)

	limiter := middleware.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst)
	defer limiter.Stop()
	if err := limiter.TrustProxies(cfg.Server.TrustedProxies...); err != nil {
		return fmt.Errorf("invalid server.trusted_proxies: %w", err)
	}

	healthHandler := handler.NewHealthHandler(checks...)

	router := handler.NewRouter(handler.Dependencies{
		Verifier:       verifier,
		RateLimiter:    limiter,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
		Health:         healthHandler,
		Auth:           handler.NewAuthHandler(identity, verifier),
		Buildings:      handler.NewBuildingHandler(buildingService),
		Flows:          handler.NewFlowHandler(flowService),
		Fdv:            handler.NewFdvHandler(fdvService, cfg.Server.MaxUploadMB),
		Procedures:     handler.NewDocumentHandler(procedureService),
		Instructions:   handler.NewDocumentHandler(instructionService),
		KPIs:           handler.NewKPIHandler(kpiService),
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go handler.ServingStatus(runCtx, healthServer, healthHandler)

	errCh := make(chan error, 2)

	go func() {
		lis, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.Server.GRPCPort))
		if err != nil {
			errCh <- fmt.Errorf("failed to listen for gRPC: %w", err)
			return
		}
		log.Info("starting gRPC server", zap.String("port", cfg.Server.GRPCPort))
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("failed to serve gRPC: %w", err)
		}
	}()

	go func() {
		log.Info("starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("failed to start HTTP server: %w", err)
		}
	}()

	var serveErr error
	select {
	case <-runCtx.Done():
		log.Info("shutting down servers")
	case serveErr = <-errCh:
		log.Error("server failed", zap.Error(serveErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP server forced to shutdown", zap.Error(err))
	}
	grpcServer.GracefulStop()

	log.Info("server exited")
	return serveErr
}
