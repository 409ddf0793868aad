package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	creditledger "bluecarbon/contexts/credit-registry/credit-ledger"
	ledgerpostgres "bluecarbon/contexts/credit-registry/credit-ledger/adapters/postgres"
	ledgerworkers "bluecarbon/contexts/credit-registry/credit-ledger/application/workers"
	paymentdistributor "bluecarbon/contexts/finance-core/payment-distributor"
	paymentpostgres "bluecarbon/contexts/finance-core/payment-distributor/adapters/postgres"
	paymentworkers "bluecarbon/contexts/finance-core/payment-distributor/application/workers"
	settlementservice "bluecarbon/contexts/finance-core/settlement-service"
	settlementpostgres "bluecarbon/contexts/finance-core/settlement-service/adapters/postgres"
	settlementworkers "bluecarbon/contexts/finance-core/settlement-service/application/workers"
	accesspolicyservice "bluecarbon/contexts/identity-access/access-policy-service"
	policypostgres "bluecarbon/contexts/identity-access/access-policy-service/adapters/postgres"
	policyworkers "bluecarbon/contexts/identity-access/access-policy-service/application/workers"
	consensusverifier "bluecarbon/contexts/verification-core/consensus-verifier"
	verifierpostgres "bluecarbon/contexts/verification-core/consensus-verifier/adapters/postgres"
	verifierworkers "bluecarbon/contexts/verification-core/consensus-verifier/application/workers"
	"bluecarbon/internal/platform/config"
	"bluecarbon/internal/platform/db"
	"bluecarbon/internal/platform/httpserver"
	"bluecarbon/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

// Core bundles the five modules wired together through their cross-context
// ports: consensus finalization mints on the ledger, settlement moves credits
// on the ledger and routes proceeds through the payment distributor.
type Core struct {
	Verifier consensusverifier.Module
	Ledger   creditledger.Module
	Payments paymentdistributor.Module
	Market   settlementservice.Module
	Policy   accesspolicyservice.Module
}

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres *db.Postgres

	verifierRelay   verifierworkers.OutboxRelay
	ledgerRelay     ledgerworkers.OutboxRelay
	paymentRelay    paymentworkers.OutboxRelay
	settlementRelay settlementworkers.OutboxRelay
	policyRelay     policyworkers.OutboxRelay

	claimConsumer  verifierworkers.ClaimRegistryConsumer
	listingExpirer settlementworkers.ListingExpirer

	relayDisabled bool
	pollInterval  time.Duration
	logger        *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	core := buildPostgresCore(pg, cfg, logger)
	server := httpserver.New(
		core.Verifier,
		core.Ledger,
		core.Payments,
		core.Market,
		core.Policy,
		logger,
		normalizeAddr(cfg.HTTPPort),
	)
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	core := buildPostgresCore(pg, cfg, logger)

	verifierRepo := verifierpostgres.NewRepository(pg.DB, logger)
	ledgerRepo := ledgerpostgres.NewRepository(pg.DB, logger)
	paymentRepo := paymentpostgres.NewRepository(pg.DB, logger)
	settlementRepo := settlementpostgres.NewRepository(pg.DB, logger)
	policyRepo := policypostgres.NewRepository(pg.DB, logger)

	return &WorkerApp{
		postgres: pg,
		verifierRelay: verifierworkers.OutboxRelay{
			Outbox:    verifierRepo,
			Publisher: kafka,
			Clock:     verifierpostgres.SystemClock{},
			Topic:     "verification.events",
			BatchSize: 100,
			Logger:    logger,
		},
		ledgerRelay: ledgerworkers.OutboxRelay{
			Outbox:    ledgerRepo,
			Publisher: kafka,
			Clock:     ledgerpostgres.SystemClock{},
			Topic:     "credits.events",
			BatchSize: 100,
			Logger:    logger,
		},
		paymentRelay: paymentworkers.OutboxRelay{
			Outbox:    paymentRepo,
			Publisher: kafka,
			Clock:     paymentpostgres.SystemClock{},
			Topic:     "payments.events",
			BatchSize: 100,
			Logger:    logger,
		},
		settlementRelay: settlementworkers.OutboxRelay{
			Outbox:    settlementRepo,
			Publisher: kafka,
			Clock:     settlementpostgres.SystemClock{},
			Topic:     "market.events",
			BatchSize: 100,
			Logger:    logger,
		},
		policyRelay: policyworkers.OutboxRelay{
			Outbox:    policyRepo,
			Publisher: kafka,
			Clock:     policypostgres.SystemClock{},
			Topic:     "policy.events",
			BatchSize: 100,
			Logger:    logger,
		},
		claimConsumer: verifierworkers.ClaimRegistryConsumer{
			Subscriber: kafka,
			Evidence:   core.Verifier.Evidence,
			Disabled:   !cfg.EnableClaimRegistryConsumer,
			Logger:     logger,
		},
		listingExpirer: settlementworkers.ListingExpirer{
			Service:   core.Market.Service,
			BatchSize: 100,
			Disabled:  !cfg.EnableListingExpirer,
			Logger:    logger,
		},
		relayDisabled: !cfg.EnableOutboxRelay,
		pollInterval:  2 * time.Second,
		logger:        logger,
	}, nil
}

// buildPostgresCore wires the five modules over their postgres repositories.
func buildPostgresCore(pg *db.Postgres, cfg config.Config, logger *slog.Logger) Core {
	ledgerRepo := ledgerpostgres.NewRepository(pg.DB, logger)
	ledgerModule := creditledger.NewModule(creditledger.Dependencies{
		Repository: ledgerRepo,
		Outbox:     ledgerRepo,
		Clock:      ledgerpostgres.SystemClock{},
		IDGen:      ledgerpostgres.UUIDGenerator{},
		Logger:     logger,
	})

	policyRepo := policypostgres.NewRepository(pg.DB, logger)
	policyModule := accesspolicyservice.NewModule(accesspolicyservice.Dependencies{
		Repository: policyRepo,
		Outbox:     policyRepo,
		Clock:      policypostgres.SystemClock{},
		IDGen:      policypostgres.UUIDGenerator{},
		Logger:     logger,
	})

	paymentRepo := paymentpostgres.NewRepository(pg.DB, logger)
	paymentModule := paymentdistributor.NewModule(paymentdistributor.Dependencies{
		Repository: paymentRepo,
		Outbox:     paymentRepo,
		Clock:      paymentpostgres.SystemClock{},
		IDGen:      paymentpostgres.UUIDGenerator{},
		Logger:     logger,
	})

	verifierRepo := verifierpostgres.NewRepository(pg.DB, logger)
	verifierModule := consensusverifier.NewModule(consensusverifier.Dependencies{
		Submissions: verifierRepo,
		Registry:    verifierRepo,
		Policy:      policyGate{policy: policyModule.Service},
		Issuer:      ledgerIssuer{ledger: ledgerModule.Service},
		Outbox:      verifierRepo,
		Clock:       verifierpostgres.SystemClock{},
		IDGen:       verifierpostgres.UUIDGenerator{},
		Logger:      logger,
	})

	settlementRepo := settlementpostgres.NewRepository(pg.DB, logger)
	settlementModule := settlementservice.NewModule(settlementservice.Dependencies{
		Listings:        settlementRepo,
		Credits:         ledgerMover{ledger: ledgerModule.Service},
		Distributor:     proceedsRouter{payments: paymentModule.Service},
		Outbox:          settlementRepo,
		Clock:           settlementpostgres.SystemClock{},
		IDGen:           settlementpostgres.UUIDGenerator{},
		FeeBasisPoints:  cfg.PlatformFeeBps,
		PlatformAccount: cfg.PlatformAccount,
		Logger:          logger,
	})

	return Core{
		Verifier: verifierModule,
		Ledger:   ledgerModule,
		Payments: paymentModule,
		Market:   settlementModule,
		Policy:   policyModule,
	}
}

// BuildInMemoryCore wires the five modules over in-memory stores. Used by
// tests and local development without postgres.
func BuildInMemoryCore(feeBasisPoints int64, platformAccount string, logger *slog.Logger) Core {
	ledgerModule := creditledger.NewInMemoryModule(logger)
	policyModule := accesspolicyservice.NewInMemoryModule(nil, logger)
	paymentModule := paymentdistributor.NewInMemoryModule(logger)
	verifierModule := consensusverifier.NewInMemoryModule(
		policyGate{policy: policyModule.Service},
		ledgerIssuer{ledger: ledgerModule.Service},
		logger,
	)
	settlementModule := settlementservice.NewInMemoryModule(
		ledgerMover{ledger: ledgerModule.Service},
		proceedsRouter{payments: paymentModule.Service},
		feeBasisPoints,
		platformAccount,
		logger,
	)
	return Core{
		Verifier: verifierModule,
		Ledger:   ledgerModule,
		Payments: paymentModule,
		Market:   settlementModule,
		Policy:   policyModule,
	}
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	if err := w.claimConsumer.Start(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if err := w.listingExpirer.RunOnce(ctx); err != nil {
			return err
		}
		if !w.relayDisabled {
			if err := w.runRelays(ctx); err != nil {
				return err
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) runRelays(ctx context.Context) error {
	if err := w.verifierRelay.RunOnce(ctx); err != nil {
		return err
	}
	if err := w.ledgerRelay.RunOnce(ctx); err != nil {
		return err
	}
	if err := w.paymentRelay.RunOnce(ctx); err != nil {
		return err
	}
	if err := w.settlementRelay.RunOnce(ctx); err != nil {
		return err
	}
	return w.policyRelay.RunOnce(ctx)
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
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
