// Package cli holds the bootstrap shared by cmd/pfm and cmd/pfm-worker.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pfm/internal/amqp"
	"pfm/internal/backend"
	"pfm/internal/config"
	"pfm/internal/core"
	"pfm/internal/log"
	"pfm/internal/services"
)

// amqpConnectAttempts bounds the startup retries against the broker.
const amqpConnectAttempts = 5

// Options tune Bootstrap for one binary.
type Options struct {
	EnvFiles  []string
	Component string
	// WithEvents connects to the broker when AMQP_URL is set.
	WithEvents bool
	Clock      core.Clock
}

// App is a fully wired process: config, logger, store and services.
type App struct {
	Config    *config.Config
	Logger    *log.Logger
	Budget    core.Budget
	Backend   *backend.Result
	Events    *amqp.Client
	Ledger    *services.LedgerService
	Dashboard *services.DashboardService
}

// Bootstrap loads .env and configuration, builds the logger, opens the
// configured store and wires the services on top of it.
func Bootstrap(ctx context.Context, opts Options) (*App, error) {
	if err := config.LoadDotEnv(opts.EnvFiles...); err != nil {
		return nil, err
	}
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := NewLogger(cfg, opts.Component)
	if err != nil {
		return nil, err
	}
	log.SetDefault(logger)

	budget, err := config.LoadBudget(cfg.BudgetFile)
	if err != nil {
		return nil, err
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger).Create(ctx, bcfg)
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, Logger: logger, Budget: budget, Backend: res}

	// A nil *amqp.Client must not end up inside the interface.
	var publisher services.EventPublisher
	if opts.WithEvents && cfg.AMQPURL != "" {
		client, err := amqp.Connect(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger, amqpConnectAttempts)
		if err != nil {
			logger.WarnContext(ctx, "AMQP unavailable, continuing without events", log.FieldError, err)
		} else {
			app.Events = client
			publisher = client
		}
	}

	clock := opts.Clock
	app.Ledger = services.NewLedgerService(res.Store, budget, publisher, clock, logger)
	app.Dashboard = services.NewDashboardService(res.Store, budget, clock, logger)

	logger.InfoContext(ctx, "Application initialized",
		log.FieldOperation, log.OpStartup,
		log.FieldBackend, res.Type.String(),
		"categories", len(budget.Categories),
		"templates", len(budget.Templates),
		"events", app.Events != nil)
	return app, nil
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func NewLogger(cfg *config.Config, component string) (*log.Logger, error) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	lc := log.DefaultConfig()
	lc.Level = level
	lc.Format = cfg.LogFormat
	lc.Output = os.Stderr
	if component != "" {
		lc.Component = component
	}
	return log.New(lc), nil
}

// Close releases the broker connection and the store.
func (a *App) Close() error {
	var errs []error
	if a.Events != nil {
		if err := a.Events.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close amqp: %w", err))
		}
	}
	if err := a.Backend.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	return errors.Join(errs...)
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. The
// cleanup runs once with its own deadline after the signal arrives.
func GracefulShutdown(parent context.Context, logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
		case <-ctx.Done():
			return
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		cancel()
		if errors.Is(shutdownCtx.Err(), context.DeadlineExceeded) {
			logger.Warn("Shutdown timeout reached")
		}
	}()
	return ctx, cancel
}
