package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mantenix-erp/mantenix-erp/internal/app"
	"github.com/mantenix-erp/mantenix-erp/internal/auth"
	"github.com/mantenix-erp/mantenix-erp/internal/equipment"
	"github.com/mantenix-erp/mantenix-erp/internal/observability"
	"github.com/mantenix-erp/mantenix-erp/internal/platform/cache"
	"github.com/mantenix-erp/mantenix-erp/internal/platform/db"
	"github.com/mantenix-erp/mantenix-erp/internal/rbac"
	"github.com/mantenix-erp/mantenix-erp/internal/shared"
	"github.com/mantenix-erp/mantenix-erp/internal/supplies"
	"github.com/mantenix-erp/mantenix-erp/internal/tickets"
	"github.com/mantenix-erp/mantenix-erp/internal/users"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, cfg.SessionTTL)
	auditLogger := shared.NewAuditLogger(dbpool)
	metrics := observability.NewMetrics()

	rbacRepo := rbac.NewRepository(dbpool)
	rbacService := rbac.NewService(rbacRepo, rbac.DefaultPolicyTable(), rbac.DefaultAliases(), logger, auditLogger)
	resolver := rbac.NewResolver(rbacRepo, rbac.DefaultAliases(), rbac.DefaultResolverConfig(), logger)
	guard := rbac.Middleware{Resolver: resolver, Logger: logger, Metrics: metrics}

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo, rbacService, sessionManager, logger)
	usersHandler := users.NewHandler(logger, usersService, guard)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager)

	ticketsRepo := tickets.NewRepository(dbpool)
	ticketsService := tickets.NewService(ticketsRepo)
	ticketsHandler := tickets.NewHandler(logger, ticketsService, guard)

	equipmentRepo := equipment.NewRepository(dbpool)
	equipmentService := equipment.NewService(equipmentRepo)
	equipmentHandler := equipment.NewHandler(logger, equipmentService, guard)

	suppliesRepo := supplies.NewRepository(dbpool)
	suppliesService := supplies.NewService(suppliesRepo)
	suppliesHandler := supplies.NewHandler(logger, suppliesService, guard)

	permissionsHandler := rbac.NewPermissionsHandler(logger, rbacService, guard)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessionManager,
		Actors:             usersService,
		AuthHandler:        authHandler,
		UsersHandler:       usersHandler,
		TicketsHandler:     ticketsHandler,
		EquipmentHandler:   equipmentHandler,
		SuppliesHandler:    suppliesHandler,
		PermissionsHandler: permissionsHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server exit", slog.Any("error", err))
		os.Exit(1)
	}
}
