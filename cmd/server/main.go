package main

import (
	"context"
	"log"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/auditrail/backend/api/handler"
	"github.com/auditrail/backend/internal/config"
	"github.com/auditrail/backend/internal/infrastructure/monitor"
	pgInfra "github.com/auditrail/backend/internal/infrastructure/postgres"
	redisInfra "github.com/auditrail/backend/internal/infrastructure/redis"
	"github.com/auditrail/backend/internal/middleware"
	"github.com/auditrail/backend/internal/router"
	"github.com/auditrail/backend/internal/services"
	"github.com/auditrail/backend/internal/services/lifecycle"
	"github.com/auditrail/backend/pkg/httpcontext"
	"github.com/auditrail/backend/pkg/logger"
	"github.com/auditrail/backend/repository"
	"github.com/auditrail/backend/repository/boltdb"
	pgRepo "github.com/auditrail/backend/repository/postgres"
	redisRepo "github.com/auditrail/backend/repository/redis"
	"github.com/auditrail/backend/usecase"
	activityUC "github.com/auditrail/backend/usecase/activity"
	authUC "github.com/auditrail/backend/usecase/auth"
	replayUC "github.com/auditrail/backend/usecase/replay"
	userUC "github.com/auditrail/backend/usecase/user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:       cfg.Logger.Level,
		Encoding:    cfg.Logger.Encoding,
		Service:     cfg.AppName,
		Environment: cfg.Environment,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	drainer := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	drainer.OnSignal(cancel)

	store := openStore(appCtx, cfg, drainer, zapLogger)

	// The admin token flow (and its Redis backing) only exists when an admin
	// key is configured; without one the replay endpoint is open, matching a
	// development setup.
	var authUseCase *authUC.UseCase
	var adminMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler
	var redisClient *redislib.Client
	if cfg.AdminAuthEnabled() {
		redisClient, err = redisInfra.NewClient(appCtx, cfg.Redis)
		if err != nil {
			zapLogger.Fatal("redis connection failed", zap.Error(err))
		}
		drainer.Defer("sessions", func(ctx context.Context) error {
			return redisClient.Close()
		})

		sessionRepo := redisRepo.NewSessionRepository(redisClient, cfg.Admin.SessionTTL)
		authUseCase = authUC.New(sessionRepo, authUC.Config{
			AdminKey:  cfg.Admin.APIKey,
			JWTSecret: cfg.Admin.JWTSecret,
			Issuer:    cfg.Admin.Issuer,
			TTL:       cfg.Admin.SessionTTL,
		}, zapLogger)
		adminMiddleware = middleware.AdminAuth(cfg.Admin.JWTSecret, authUseCase.ValidateSession, zapLogger)
	}

	mon := monitor.New(store, redisClient, 10*time.Second, zapLogger)
	mon.Start()
	drainer.Defer("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	exporter := services.NewExporter(store, cfg.Export.Dir, cfg.Export.Schedule, zapLogger)
	if err := exporter.Start(); err != nil {
		zapLogger.Fatal("exporter failed to start", zap.Error(err))
	}
	drainer.Defer("exporter", exporter.Stop)

	guard := usecase.NewReplayGuard()
	recorder := activityUC.NewRecorder(zapLogger)
	userUseCase := userUC.New(store, recorder, guard, zapLogger)
	activityUseCase := activityUC.New(store, zapLogger)
	replayUseCase := replayUC.New(store, guard, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		User:     apiHandler.NewUserHandler(userUseCase, ctxAdapter, zapLogger),
		Activity: apiHandler.NewActivityHandler(activityUseCase, ctxAdapter, zapLogger),
		Replay:   apiHandler.NewReplayHandler(replayUseCase, ctxAdapter, zapLogger),
		Health:   apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}
	if authUseCase != nil {
		handlers.Auth = apiHandler.NewAuthHandler(authUseCase, ctxAdapter, zapLogger)
	}

	r := router.New(handlers, adminMiddleware)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	drainer.Defer("http_server", func(ctx context.Context) error {
		return server.Shutdown()
	})

	<-appCtx.Done()

	if err := drainer.Drain(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}

func openStore(ctx context.Context, cfg *config.Config, drainer *lifecycle.Drainer, zapLogger *zap.Logger) repository.Store {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
			zapLogger.Fatal("migrations failed", zap.Error(err))
		}
		pool, err := pgInfra.NewPool(ctx, cfg.Database, zapLogger)
		if err != nil {
			zapLogger.Fatal("postgres connection failed", zap.Error(err))
		}
		drainer.Defer("postgres", func(ctx context.Context) error {
			pool.Close()
			return nil
		})
		return pgRepo.NewStore(pool)
	default:
		store, err := boltdb.Open(cfg.Storage.BoltPath)
		if err != nil {
			zapLogger.Fatal("failed to open bolt store", zap.Error(err))
		}
		drainer.Defer("boltdb", func(ctx context.Context) error {
			return store.Close()
		})
		zapLogger.Info("opened bolt store", zap.String("path", cfg.Storage.BoltPath))
		return store
	}
}
