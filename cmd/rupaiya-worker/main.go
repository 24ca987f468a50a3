package main

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"
	"rupaiya/internal/cli"
	"rupaiya/internal/log"
	"rupaiya/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		cli.Exit(log.New(log.DefaultConfig()), "Configuration validation failed", err)
	}
	logger := cli.SetupLogger(cfg, log.ComponentWorker)
	logger.Info("Starting rupaiya-worker")

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	rt, err := cli.NewRuntime(ctx, cfg, logger)
	if err != nil {
		cli.Exit(logger, "Failed to initialize runtime", err)
	}
	defer func() {
		if err := rt.Close(); err != nil {
			logger.Error("Runtime cleanup failed", "error", err)
		}
	}()

	rt.Caches.StartCleanup(time.Minute)

	w := worker.NewImportWorker(rt.Ledger, rt.Source, cfg.ImportInterval, logger)

	g, gctx := errgroup.WithContext(ctx)
	if rt.AMQP != nil {
		g.Go(func() error {
			err := rt.AMQP.Consume(gctx, w.HandleEvent)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	} else {
		logger.Info("Skipping AMQP message consumption - no AMQP_URL provided")
	}
	g.Go(func() error {
		return w.RunScheduled(gctx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", "error", err)
		return
	}
	st := w.Stats()
	logger.Info("Worker shutdown complete", "imports", st.Imports, "failures", st.Failures)
}
