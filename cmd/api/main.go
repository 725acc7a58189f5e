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

	httptransport "github.com/spec-kit/complaint-service/internal/api/http"
	"github.com/spec-kit/complaint-service/internal/api/http/handlers"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/classify"
	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/lock"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/persistence"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/sequence"
	"github.com/spec-kit/complaint-service/internal/service"
	"github.com/spec-kit/complaint-service/internal/sla"
	"github.com/spec-kit/complaint-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
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

	escalationCfg, err := config.LoadEscalationConfig(cfg.SLA.EscalationConfigPath)
	if err != nil {
		logger.Fatal("failed to load escalation config", zap.Error(err))
	}

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	policyRepo := repository.NewPolicyRepository(pool)
	historyRepo := repository.NewTicketHistoryRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	staffRepo := repository.NewStaffRepository(pool)

	seqGen := newSequenceGenerator(ctx, redis, cfg.SLA.SequenceKey, ticketRepo, logger)

	clock := sla.SystemClock()
	locks := lock.NewKeyedMutex()
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  ticketRepo,
		PolicyRepo:  policyRepo,
		HistoryRepo: historyRepo,
		Dispatcher:  dispatcher,
		Classifier:  classify.NewKeywordClassifier(),
		Sequence:    seqGen,
		Escalation:  escalationCfg,
		Locks:       locks,
		Clock:       clock,
		Logger:      logger,
		Defaults: service.DefaultPolicy{
			ResponseBudget:   time.Duration(cfg.SLA.DefaultResponseMinutes) * time.Minute,
			ResolutionBudget: time.Duration(cfg.SLA.DefaultResolutionMinutes) * time.Minute,
		},
	})
	escalationService := service.NewEscalationService(service.EscalationDependencies{
		TicketRepo:  ticketRepo,
		HistoryRepo: historyRepo,
		Dispatcher:  dispatcher,
		Escalation:  escalationCfg,
		Locks:       locks,
		Clock:       clock,
		Logger:      logger,
		Metrics:     metrics,
	})
	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:  userRepo,
		StaffRepo: staffRepo,
	})
	policyService := service.NewPolicyService(policyRepo, escalationCfg)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	notificationService.RegisterHandlers()

	sweep := worker.NewBreachSweep(worker.SweepConfig{
		Interval:            cfg.SLA.SweepInterval(),
		EscalationThreshold: time.Duration(cfg.SLA.EscalationThresholdMinutes) * time.Minute,
		ResponseWarning:     time.Duration(cfg.SLA.ResponseWarningMinutes) * time.Minute,
		ResolutionWarning:   time.Duration(cfg.SLA.ResolutionWarningMinutes) * time.Minute,
	}, ticketRepo, escalationService, dispatcher, clock, logger, metrics)
	sweep.Start(ctx)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo, staffRepo)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Users:          handlers.NewUsersHandler(authService),
		Staff:          handlers.NewStaffHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		StaffTickets:   handlers.NewStaffTicketsHandler(ticketService, escalationService),
		Policies:       handlers.NewPoliciesHandler(policyService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	sweep.Stop()
	_ = app.Shutdown()
}

// newSequenceGenerator prefers the shared Redis counter. When Redis is
// unreachable at boot it falls back to an in-process counter seeded from
// the highest persisted sequence, which is safe for a single instance.
func newSequenceGenerator(ctx context.Context, redis *persistence.Redis, key string, tickets repository.TicketRepository, logger *zap.Logger) sequence.Generator {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := redis.Ping(pingCtx); err != nil {
		logger.Warn("redis unavailable, using in-memory ticket sequence", zap.Error(err))
	} else {
		return sequence.NewRedisGenerator(redis.Client, key)
	}

	seed, err := tickets.MaxSequence(ctx)
	if err != nil {
		logger.Warn("failed to read max ticket sequence, seeding from zero", zap.Error(err))
		seed = 0
	}
	return sequence.NewMemoryGenerator(seed)
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
