package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/tourdesk/tourdesk/internal/accommodations"
	"github.com/tourdesk/tourdesk/internal/app"
	"github.com/tourdesk/tourdesk/internal/assignments"
	"github.com/tourdesk/tourdesk/internal/auth"
	"github.com/tourdesk/tourdesk/internal/bookings"
	"github.com/tourdesk/tourdesk/internal/observability"
	"github.com/tourdesk/tourdesk/internal/payments"
	"github.com/tourdesk/tourdesk/internal/platform/cache"
	"github.com/tourdesk/tourdesk/internal/platform/db"
	"github.com/tourdesk/tourdesk/internal/policy"
	"github.com/tourdesk/tourdesk/internal/shared"
	"github.com/tourdesk/tourdesk/internal/tours"
	"github.com/tourdesk/tourdesk/internal/users"
	"github.com/tourdesk/tourdesk/jobs"
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
	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("tourdesk exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	pool, err := db.New(ctx, cfg.PGDSN, db.PoolConfig{MaxConns: cfg.PGMaxConns})
	if err != nil {
		return err
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	queue := jobs.NewClient(redisOpts)
	defer func() {
		if err := queue.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	var engineOpts []policy.Option
	if cfg.PolicyAdminPays {
		engineOpts = append(engineOpts, policy.WithAdminPayments())
	}
	engine := policy.NewEngine(engineOpts...)
	authorizer := shared.NewAuthorizer(engine, logger, metrics)

	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.JWTTTL, cfg.JWTIssuer)
	authService := auth.NewService(auth.NewRepository(pool), tokens, auth.NewRevocationStore(redisClient), queue, logger)
	authMiddleware := auth.NewMiddleware(authService, logger)

	userService := users.NewService(users.NewRepository(pool), authorizer, queue, queue, logger)
	accommodationService := accommodations.NewService(accommodations.NewRepository(pool), authorizer, queue, logger)
	tourService := tours.NewService(tours.NewRepository(pool), authorizer, queue, logger)
	bookingService := bookings.NewService(bookings.Deps{
		Repo:           bookings.NewRepository(pool),
		Accommodations: accommodationService,
		Authorizer:     authorizer,
		Audit:          queue,
		Mailer:         queue,
		Directory:      userService,
		Logger:         logger,
	})
	paymentService := payments.NewService(payments.NewRepository(pool), bookingService, authorizer, queue, logger)
	assignmentService := assignments.NewService(assignments.NewRepository(pool), tourService, userService, authorizer, queue, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:                logger,
		Config:                cfg,
		Metrics:               metrics,
		Authorizer:            authorizer,
		RequireActor:          authMiddleware.RequireActor,
		AuthHandler:           auth.NewHandler(logger, authService, authMiddleware),
		UsersHandler:          users.NewHandler(logger, userService),
		AccommodationsHandler: accommodations.NewHandler(logger, accommodationService),
		ToursHandler:          tours.NewHandler(logger, tourService),
		BookingsHandler:       bookings.NewHandler(logger, bookingService),
		PaymentsHandler:       payments.NewHandler(logger, paymentService),
		AssignmentsHandler:    assignments.NewHandler(logger, assignmentService),
		JobHandler:            jobs.NewHandler(inspector, logger),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.Bool("admin_payments", cfg.PolicyAdminPays))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return group.Wait()
}
