package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	proposalledger "agora/contexts/governance/proposal-ledger"
	ledgermemory "agora/contexts/governance/proposal-ledger/adapters/memory"
	ledgerpostgres "agora/contexts/governance/proposal-ledger/adapters/postgres"
	"agora/contexts/governance/proposal-ledger/application/workers"
	ledgerports "agora/contexts/governance/proposal-ledger/ports"
	accessgate "agora/contexts/identity-access/access-gate"
	accessmemory "agora/contexts/identity-access/access-gate/adapters/memory"
	accesspostgres "agora/contexts/identity-access/access-gate/adapters/postgres"
	accessqueries "agora/contexts/identity-access/access-gate/application/queries"
	"agora/contexts/identity-access/access-gate/domain/services"
	"agora/internal/platform/config"
	"agora/internal/platform/db"
	"agora/internal/platform/httpserver"
	"agora/internal/platform/messaging"
	"agora/internal/platform/metrics"

	"golang.org/x/sync/errgroup"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

const shutdownTimeout = 10 * time.Second

// The access gate's capability queries answer the ledger's questions as is.
var _ ledgerports.AccessGate = accessqueries.CapabilityQueries{}

type APIApp struct {
	server   *httpserver.Server
	database *db.Database
	bus      *messaging.Kafka
	// relay is set when the journal lives in process memory; no separate
	// worker can reach it then.
	relay  *relayLoop
	logger *slog.Logger
}

type WorkerApp struct {
	database *db.Database
	bus      *messaging.Kafka
	relay    relayLoop
	logger   *slog.Logger
}

// relayLoop drains the outbox on a ticker and archives finalized results.
type relayLoop struct {
	relay     workers.OutboxRelay
	projector workers.ResultsProjector
	interval  time.Duration
	logger    *slog.Logger
}

// modules holds both contexts wired against one storage backend.
type modules struct {
	ledger   proposalledger.Module
	access   accessgate.Module
	database *db.Database
}

func BuildAPI(ctx context.Context, cfg config.Config, logger *slog.Logger) (*APIApp, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("service", cfg.ServiceName, "process", "api")

	var collector *metrics.Metrics
	if cfg.MetricsEnabled {
		collector = metrics.New()
	}
	bus, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}
	built, err := buildModules(ctx, cfg, bus, collector, logger)
	if err != nil {
		return nil, err
	}
	if err := seedPrincipals(ctx, built.access, cfg); err != nil {
		_ = built.database.Close()
		return nil, err
	}
	if _, err := built.ledger.Replay.Execute(ctx); err != nil {
		_ = built.database.Close()
		return nil, fmt.Errorf("replay ledger journal: %w", err)
	}

	app := &APIApp{
		server:   httpserver.New(built.ledger, built.access, collector, logger, normalizeAddr(cfg.HTTPPort)),
		database: built.database,
		bus:      bus,
		logger:   logger,
	}
	if cfg.DatabaseDriver == config.DriverMemory {
		app.relay = &relayLoop{
			relay:     built.ledger.Relay,
			projector: built.ledger.Projector,
			interval:  cfg.RelayInterval,
			logger:    logger,
		}
	}
	return app, nil
}

func BuildWorker(ctx context.Context, cfg config.Config, logger *slog.Logger) (*WorkerApp, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("service", cfg.ServiceName, "process", "worker")
	if cfg.DatabaseDriver == config.DriverMemory {
		return nil, errors.New("worker requires a postgres or sqlite database; the memory journal is relayed by the api process")
	}

	var collector *metrics.Metrics
	if cfg.MetricsEnabled {
		collector = metrics.New()
	}
	bus, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}
	built, err := buildModules(ctx, cfg, bus, collector, logger)
	if err != nil {
		return nil, err
	}
	return &WorkerApp{
		database: built.database,
		bus:      bus,
		relay: relayLoop{
			relay:     built.ledger.Relay,
			projector: built.ledger.Projector,
			interval:  cfg.RelayInterval,
			logger:    logger,
		},
		logger: logger,
	}, nil
}

func buildModules(
	ctx context.Context,
	cfg config.Config,
	bus *messaging.Kafka,
	collector *metrics.Metrics,
	logger *slog.Logger,
) (modules, error) {
	var (
		observer      ledgerports.OperationObserver
		relayObserver workers.RelayObserver
	)
	if collector != nil {
		observer = collector
		relayObserver = collector
	}

	if cfg.DatabaseDriver == config.DriverMemory {
		roles := accessmemory.NewStore()
		access := accessgate.NewModule(accessgate.Dependencies{
			Repository:         roles,
			PermissionCache:    roles,
			Clock:              roles,
			IDGen:              roles,
			PermissionCacheTTL: cfg.PermissionCacheTTL,
			Logger:             logger,
		})
		access.Store = roles
		store := ledgermemory.NewStore()
		ledger := proposalledger.NewModule(proposalledger.Dependencies{
			Ledger:          store,
			Journal:         store,
			Outbox:          store,
			Publisher:       bus,
			Subscriber:      bus,
			Dedup:           store,
			Archive:         store,
			Access:          access.Handler.Capabilities,
			Clock:           store,
			IDGen:           store,
			MinVotingWindow: cfg.MinVotingWindow,
			OutboxBatchSize: cfg.OutboxBatchSize,
			Observer:        observer,
			RelayObserver:   relayObserver,
			Logger:          logger,
		})
		ledger.Store = store
		return modules{ledger: ledger, access: access}, nil
	}

	database, err := db.Connect(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return modules{}, err
	}

	accessRepo := accesspostgres.NewRepository(database.DB, logger)
	ledgerRepo := ledgerpostgres.NewRepository(database.DB, logger)
	if err := accessRepo.Migrate(ctx); err != nil {
		_ = database.Close()
		return modules{}, fmt.Errorf("migrate access gate: %w", err)
	}
	if err := ledgerRepo.Migrate(ctx); err != nil {
		_ = database.Close()
		return modules{}, fmt.Errorf("migrate ledger journal: %w", err)
	}

	access := accessgate.NewModule(accessgate.Dependencies{
		Repository:         accessRepo,
		PermissionCache:    accessmemory.NewStore(),
		Clock:              accesspostgres.SystemClock{},
		IDGen:              accesspostgres.UUIDGenerator{},
		PermissionCacheTTL: cfg.PermissionCacheTTL,
		Logger:             logger,
	})
	// Live ledger state stays in memory and is rebuilt from the journal.
	state := ledgermemory.NewStore()
	ledger := proposalledger.NewModule(proposalledger.Dependencies{
		Ledger:          state,
		Journal:         ledgerRepo,
		Outbox:          ledgerRepo,
		Publisher:       bus,
		Subscriber:      bus,
		Dedup:           ledgerRepo,
		Archive:         ledgerRepo,
		Access:          access.Handler.Capabilities,
		Clock:           ledgerpostgres.SystemClock{},
		IDGen:           ledgerpostgres.UUIDGenerator{},
		MinVotingWindow: cfg.MinVotingWindow,
		OutboxBatchSize: cfg.OutboxBatchSize,
		Observer:        observer,
		RelayObserver:   relayObserver,
		Logger:          logger,
	})
	ledger.Store = state
	return modules{ledger: ledger, access: access, database: database}, nil
}

// seedPrincipals grants the configured admin and caller roles. Existing
// assignments are left alone, so restarts are harmless.
func seedPrincipals(ctx context.Context, access accessgate.Module, cfg config.Config) error {
	for _, principalID := range cfg.BootstrapAdmins {
		if err := access.Handler.GrantRole.Seed(ctx, principalID, services.RoleAdmin); err != nil {
			return fmt.Errorf("seed admin %s: %w", principalID, err)
		}
	}
	for _, principalID := range cfg.AuthorizedCallers {
		if err := access.Handler.GrantRole.Seed(ctx, principalID, services.RoleAuthorizedCaller); err != nil {
			return fmt.Errorf("seed authorized caller %s: %w", principalID, err)
		}
	}
	return nil
}

// Run serves HTTP until ctx is done or the server fails.
func (a *APIApp) Run(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(a.server.Start)
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})
	if a.relay != nil {
		group.Go(func() error {
			return a.relay.run(groupCtx)
		})
	}

	a.logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"in_process_relay", a.relay != nil,
	)
	return group.Wait()
}

func (a *APIApp) Close() error {
	if a.bus != nil {
		a.bus.Wait()
	}
	return a.database.Close()
}

func (w *WorkerApp) Run(ctx context.Context) error {
	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.relay.interval.String(),
	)
	return w.relay.run(ctx)
}

func (w *WorkerApp) Close() error {
	if w.bus != nil {
		w.bus.Wait()
	}
	return w.database.Close()
}

// run subscribes the projector, then relays the outbox until ctx is done.
// The subscription comes first so no finalized event is relayed before it.
// A failed relay pass is logged and retried on the next tick.
func (l relayLoop) run(ctx context.Context) error {
	if err := l.projector.Start(ctx); err != nil {
		return err
	}
	interval := l.interval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := l.relay.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			l.logger.Warn("outbox relay pass failed",
				"event", "bootstrap_relay_pass_failed",
				"module", "internal/app/bootstrap",
				"layer", "platform",
				"error", err.Error(),
			)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
