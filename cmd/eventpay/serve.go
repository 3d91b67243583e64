package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DanielPopoola/eventpay/internal/application"
	"github.com/DanielPopoola/eventpay/internal/application/reconciliation"
	"github.com/DanielPopoola/eventpay/internal/application/services"
	"github.com/DanielPopoola/eventpay/internal/application/webhook"
	"github.com/DanielPopoola/eventpay/internal/config"
	"github.com/DanielPopoola/eventpay/internal/fees"
	"github.com/DanielPopoola/eventpay/internal/infrastructure/events"
	"github.com/DanielPopoola/eventpay/internal/interfaces/rest/handlers"
	"github.com/DanielPopoola/eventpay/internal/worker"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var inMemory bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and background workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(inMemory)
		},
	}
	cmd.Flags().BoolVar(&inMemory, "in-memory", false, "keep state in memory instead of PostgreSQL")
	return cmd
}

func runServe(inMemory bool) error {
	ctx := context.Background()

	a, err := loadApp(ctx, inMemory)
	if err != nil {
		return err
	}
	defer a.Close()

	cfg, logger := a.cfg, a.logger
	logger.Info("starting eventpay",
		"env", cfg.Primary.Env,
		"port", cfg.Server.Port,
		"log_level", cfg.Logger.Level,
		"in_memory", inMemory,
	)

	publisher := newPublisher(ctx, cfg.Events, a, logger)
	dispatcher := events.NewDispatcher(publisher, cfg.Events.BufferSize, logger)

	payments := services.NewPaymentService(
		a.store,
		a.gateways,
		a.breakers,
		fees.NewCalculator(fees.DefaultSchedule()),
		dispatcher,
		a.clock,
		logger,
		services.Options{
			GatewayTimeout: cfg.Orchestrator.GatewayTimeout,
			PaymentTTL:     cfg.Orchestrator.PaymentTTL,
		},
	)
	webhooks := webhook.NewHandler(a.store, a.gateways, payments, a.clock, logger)
	recon := reconciliation.NewService(a.store, a.gateways, a.breakers, a.clock, logger)

	h := handlers.NewHandlers(payments, webhooks, recon, a.gateways, a.breakers, a.checks, logger)
	router, err := handlers.NewRouter(h, cfg.Server.ReadTimeout, logger)
	if err != nil {
		_ = dispatcher.Close(ctx)
		return fmt.Errorf("build router: %w", err)
	}

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	sweeper := worker.NewRetrySweeper(a.store, payments, webhooks, a.clock, worker.SettingsFromConfig(cfg.Worker), logger)

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	sweeper.Start(workerCtx)

	reconcilerDone := make(chan struct{})
	if cfg.Worker.ReconcileInterval > 0 {
		reconciler := worker.NewReconciler(recon, a.clock, cfg.Worker.ReconcileInterval, cfg.Worker.ReconcileWindow, logger)
		go func() {
			defer close(reconcilerDone)
			reconciler.Start(workerCtx)
		}()
	} else {
		close(reconcilerDone)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case <-quit:
	case runErr = <-serverErr:
		logger.Error("server error", "error", runErr)
	}

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	// Let an in-flight sweep finish before cancelling the context it runs on.
	if err := sweeper.Stop(shutdownCtx); err != nil {
		logger.Error("retry sweeper did not stop in time", "error", err)
	}
	cancelWorkers()
	<-reconcilerDone

	if err := dispatcher.Close(shutdownCtx); err != nil {
		logger.Error("event dispatcher did not drain", "error", err)
	}

	logger.Info("server exited")
	return runErr
}

// newPublisher connects to NATS when a URL is configured and falls back to logging
// events otherwise.
func newPublisher(ctx context.Context, cfg config.EventsConfig, a *app, logger *slog.Logger) events.Publisher {
	if cfg.NATSURL == "" {
		logger.Info("no NATS URL configured, domain events will be logged")
		return events.NewLogPublisher(logger)
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	nats, err := events.NewNATSPublisher(connectCtx, cfg, logger)
	if err != nil {
		logger.Error("NATS unavailable, domain events will be logged", "error", err)
		return events.NewLogPublisher(logger)
	}
	a.closers = append(a.closers, nats.Close)
	a.checks["nats"] = nats
	return nats
}

var _ application.EventSink = (*events.Dispatcher)(nil)
