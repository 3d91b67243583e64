package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/DanielPopoola/eventpay/internal/application"
	"github.com/DanielPopoola/eventpay/internal/breaker"
	"github.com/DanielPopoola/eventpay/internal/config"
	"github.com/DanielPopoola/eventpay/internal/domain"
	"github.com/DanielPopoola/eventpay/internal/gateway"
	"github.com/DanielPopoola/eventpay/internal/gateway/bam"
	"github.com/DanielPopoola/eventpay/internal/gateway/neonet"
	"github.com/DanielPopoola/eventpay/internal/gateway/paypal"
	"github.com/DanielPopoola/eventpay/internal/gateway/stripe"
	"github.com/DanielPopoola/eventpay/internal/infrastructure/persistence/memory"
	"github.com/DanielPopoola/eventpay/internal/infrastructure/persistence/postgres"
	"github.com/DanielPopoola/eventpay/internal/interfaces/rest/handlers"
	"github.com/google/uuid"
)

// app holds what every subcommand shares.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    domain.Store
	gateways *gateway.Registry
	breakers *breaker.Registry
	clock    application.Clock
	checks   map[string]handlers.HealthChecker
	closers  []func()
}

func loadApp(ctx context.Context, inMemory bool) (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	a := &app{
		cfg:    cfg,
		logger: logger,
		clock:  application.SystemClock{},
		checks: make(map[string]handlers.HealthChecker),
	}

	if inMemory {
		store := memory.NewStore()
		seedDemo(store, logger)
		a.store = store
	} else {
		db, err := postgres.Connect(ctx, &cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		a.checks["database"] = db
		a.store = postgres.NewStore(db)
	}

	a.gateways = buildGateways(cfg.Gateways, logger)
	if len(a.gateways.Gateways()) == 0 {
		logger.Warn("no payment gateways enabled")
	}

	a.breakers = breaker.NewRegistry(breaker.Settings{
		FailureThreshold: cfg.Breaker.FailureThreshold,
		CoolDown:         cfg.Breaker.CoolDown,
	}, logger, breaker.WithClock(a.clock))

	return a, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func buildGateways(cfg config.GatewaysConfig, logger *slog.Logger) *gateway.Registry {
	registry := gateway.NewRegistry()
	if cfg.Stripe.Enabled {
		registry.Register(stripe.New(cfg.Stripe, cfg.Timeout, logger))
	}
	if cfg.PayPal.Enabled {
		registry.Register(paypal.New(cfg.PayPal, cfg.Timeout, logger))
	}
	if cfg.NeoNet.Enabled {
		registry.Register(neonet.New(cfg.NeoNet, cfg.Timeout, logger))
	}
	if cfg.BAM.Enabled {
		registry.Register(bam.New(cfg.BAM, cfg.Timeout, logger))
	}
	logger.Info("payment gateways configured", "enabled", registry.Gateways())
	return registry
}

// seedDemo gives an in-memory run one event and a registration awaiting payment.
func seedDemo(store *memory.Store, logger *slog.Logger) {
	now := time.Now().UTC()
	event := domain.Event{ID: "evt-demo", Name: "Demo Conference", Capacity: 500}
	reg := domain.Registration{
		ID:        "reg-" + uuid.NewString(),
		EventID:   event.ID,
		Status:    domain.RegistrationPendingPayment,
		CreatedAt: now,
		UpdatedAt: now,
	}
	store.AddEvent(event)
	store.AddRegistration(reg)
	logger.Info("in-memory store seeded", "event_id", event.ID, "registration_id", reg.ID)
}
