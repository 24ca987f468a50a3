// Package cli provides common CLI initialization utilities.
// This package consolidates the wiring shared by cmd/rupaiya and
// cmd/rupaiya-worker.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"rupaiya/internal/amqp"
	"rupaiya/internal/backend"
	"rupaiya/internal/cache"
	"rupaiya/internal/config"
	"rupaiya/internal/importer"
	"rupaiya/internal/ledger"
	"rupaiya/internal/log"
	gsheet "rupaiya/internal/sheets/google"
	mem "rupaiya/internal/sheets/memory"
)

// ImportSeedFile is read by the memory import source from the data directory.
const ImportSeedFile = "import.json"

// SetupLogger builds the application logger from config and sets it as the
// default slog logger.
func SetupLogger(cfg *config.Config, component string) *log.Logger {
	lc := log.DefaultConfig()
	lc.Level = log.ParseLevel(cfg.LogLevel)
	lc.Format = cfg.LogFormat
	lc.Component = component
	logger := log.New(lc)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		logger.Info("Shutdown signal received")
	}()
	return ctx, stop
}

// Runtime is the set of long lived components both binaries share.
type Runtime struct {
	Ledger  *ledger.Service
	Source  importer.Source
	AMQP    *amqp.Client
	Caches  *cache.Manager
	backend *backend.BackendResult
	logger  *log.Logger
}

// NewRuntime opens the configured backend and import source, connects the
// event publisher when AMQP is configured and builds the ledger service on
// top of them.
func NewRuntime(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Runtime, error) {
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger.Slog()).CreateBackend(ctx, bc)
	if err != nil {
		return nil, err
	}
	rt := &Runtime{backend: res, logger: logger, Caches: cache.NewManager(logger.Slog())}

	src, err := NewImportSource(ctx, cfg)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	rt.Source = src

	views := cache.NewLRUCache[any](cfg.CacheSize, cfg.CacheTTL)
	rt.Caches.Register(views)
	opts := []ledger.Option{ledger.WithViewCache(views)}

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			_ = rt.Close()
			return nil, fmt.Errorf("amqp: %w", err)
		}
		rt.AMQP = client
		opts = append(opts, ledger.WithPublisher(client))
		logger.Info("AMQP publisher enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	rt.Ledger = ledger.NewService(res.Store, res.Guard, logger, opts...)
	return rt, nil
}

// Close releases the broker connection and the storage backend.
func (rt *Runtime) Close() error {
	rt.Caches.Stop()
	if rt.AMQP != nil {
		if err := rt.AMQP.Close(); err != nil {
			rt.logger.Warn("Failed to close AMQP client", "error", err)
		}
	}
	if rt.backend != nil && rt.backend.Cleanup != nil {
		return rt.backend.Cleanup()
	}
	return nil
}

// NewImportSource selects the external source named by IMPORT_SOURCE.
// "none" yields a nil source, which disables importing.
func NewImportSource(ctx context.Context, cfg *config.Config) (importer.Source, error) {
	switch cfg.ImportSource {
	case "sheety":
		return importer.NewSheetyClient(cfg.SheetyURL, cfg.ImportTimeout, importer.WithField(cfg.SheetyField)), nil
	case "sheets":
		client, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			return nil, fmt.Errorf("google sheets source: %w", err)
		}
		return client, nil
	case "memory":
		src, err := mem.NewFromFile(filepath.Join(cfg.DataDir, ImportSeedFile))
		if err != nil {
			return nil, err
		}
		return src, nil
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown import source %q", cfg.ImportSource)
	}
}

// Exit logs err and terminates the process.
func Exit(logger *log.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}
