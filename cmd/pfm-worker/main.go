// Command pfm-worker mirrors the primary transaction store into a Google
// Sheets replica. It applies transaction events as they arrive and runs a
// full reconcile on startup and every RECONCILE_INTERVAL.
package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"pfm/internal/amqp"
	"pfm/internal/cli"
	"pfm/internal/log"
	"pfm/internal/store/google"
	"pfm/internal/worker"
)

const (
	amqpConnectAttempts = 10
	shutdownTimeout     = 30 * time.Second
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()
	app, err := cli.Bootstrap(ctx, cli.Options{Component: log.ComponentWorker})
	if err != nil {
		log.FromContext(ctx).Error("Worker bootstrap failed", log.FieldError, err)
		return err
	}
	defer app.Close()
	logger := app.Logger
	cfg := app.Config

	if !cfg.SheetsConfigured() {
		err := errors.New("GOOGLE_SPREADSHEET_ID and service account credentials are required")
		logger.Error("Replica not configured", log.FieldError, err)
		return err
	}
	replica, err := google.New(ctx, google.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		return err
	}
	if err := replica.EnsureHeader(ctx); err != nil {
		logger.Error("Failed to prepare replica sheet", log.FieldError, err)
		return err
	}

	mirror := worker.NewMirrorWorker(app.Backend.Store, replica, logger)

	ctx, cancel := cli.GracefulShutdown(ctx, logger, shutdownTimeout, nil)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return mirror.Run(gctx, cfg.ReconcileInterval)
	})

	if cfg.AMQPURL != "" {
		consumer, err := amqp.Connect(gctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger, amqpConnectAttempts)
		if err != nil {
			logger.Error("Failed to connect to AMQP", log.FieldError, err)
			cancel()
			_ = g.Wait()
			return err
		}
		defer consumer.Close()
		g.Go(func() error {
			return consumer.Consume(gctx, mirror.HandleEvent)
		})
	} else {
		logger.Info("AMQP_URL not set, running periodic reconcile only", "interval", cfg.ReconcileInterval)
	}

	logger.Info("pfm-worker started", log.FieldBackend, app.Backend.Type.String(), "sheet", cfg.GoogleSheetName)
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", log.FieldError, err)
		return err
	}
	logger.Info("Worker shutdown complete", log.FieldOperation, log.OpShutdown)
	return nil
}
