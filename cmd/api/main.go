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

	httptransport "github.com/spec-kit/helpdesk-dispatch/internal/api/http"
	"github.com/spec-kit/helpdesk-dispatch/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-dispatch/internal/auth"
	"github.com/spec-kit/helpdesk-dispatch/internal/config"
	"github.com/spec-kit/helpdesk-dispatch/internal/dispatch"
	"github.com/spec-kit/helpdesk-dispatch/internal/events"
	"github.com/spec-kit/helpdesk-dispatch/internal/observability"
	"github.com/spec-kit/helpdesk-dispatch/internal/persistence"
	"github.com/spec-kit/helpdesk-dispatch/internal/repository"
	"github.com/spec-kit/helpdesk-dispatch/internal/service"
	"github.com/spec-kit/helpdesk-dispatch/internal/worker"
)

type repositories struct {
	tickets   repository.TicketRepository
	agents    repository.AgentRepository
	customers repository.CustomerRepository
	events    repository.DispatchEventRepository
	changes   repository.EntityChangeRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
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

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(cfg.Postgres.DSN, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	rdb := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer rdb.Close()

	repos := buildRepositories(pg)
	bus := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	var feedClient service.FeedList
	if rdb.Enabled() {
		feedClient = rdb.Client
	}
	feed := service.NewDispatchFeed(bus, feedClient, cfg.Redis, logger)
	worker.StartDispatchFeed(feed)

	journal := service.NewAuditJournal(repos.events, bus, logger)
	coordinator := dispatch.NewCoordinator(
		repository.NewDispatchStore(repos.tickets, repos.agents),
		journal,
		logger,
		dispatch.WithPace(cfg.Dispatch.Pace()),
		dispatch.WithMetrics(metrics),
	)

	authService := service.NewAuthService(cfg.Auth, repos.agents, logger)
	if err := authService.EnsureBootstrapAgent(ctx, cfg.Auth.BootstrapEmail, cfg.Auth.BootstrapPassword); err != nil {
		logger.Fatal("failed to create bootstrap agent", zap.Error(err))
	}
	agentService := service.NewAgentService(repos.agents, repos.changes, cfg.Auth.BcryptCost)
	customerService := service.NewCustomerService(repos.customers)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:   repos.tickets,
		CustomerRepo: repos.customers,
		ChangeRepo:   repos.changes,
		Dispatcher:   bus,
		Logger:       logger,
	})

	launcher := worker.NewDispatchLauncher(coordinator, cfg.Dispatch, logger)
	launcher.Start(ctx)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, time.Duration(cfg.App.RequestTimeoutSeconds)*time.Second)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, rdb),
		Auth:           handlers.NewAuthHandler(authService),
		Agents:         handlers.NewAgentsHandler(agentService),
		Customers:      handlers.NewCustomersHandler(customerService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Dispatch:       handlers.NewDispatchHandler(launcher, coordinator, journal, feed, metrics),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), repos.agents),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	cancel()
	launcher.Wait()
}

func buildRepositories(pg *persistence.Postgres) repositories {
	if !pg.Enabled() {
		store := repository.NewMemoryStore()
		return repositories{
			tickets:   store.Tickets(),
			agents:    store.Agents(),
			customers: store.Customers(),
			events:    store.DispatchEvents(),
			changes:   store.EntityChanges(),
		}
	}
	return repositories{
		tickets:   repository.NewTicketRepository(pg.Pool),
		agents:    repository.NewAgentRepository(pg.Pool),
		customers: repository.NewCustomerRepository(pg.Pool),
		events:    repository.NewDispatchEventRepository(pg.Pool),
		changes:   repository.NewEntityChangeRepository(pg.Pool),
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
