package backend

import (
	"context"
	"fmt"
	"log/slog"

	"rupaiya/internal/importer"
	"rupaiya/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case MemoryBackend:
		return f.createMemoryBackend(config)
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case RedisBackend:
		return f.createRedisBackend(ctx, config)
	case PostgresBackend:
		return f.createPostgresBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	store, err := storage.NewMemoryStoreFromDir(config.DataDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize memory store: %w", err)
	}
	f.logger.Info("Initialized memory backend", "data_directory", config.DataDirectory)
	return &BackendResult{Store: store, Guard: importer.NewLocalGuard(), Cleanup: store.Close}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	store, err := storage.NewSQLiteStore(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
	}
	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return &BackendResult{Store: store, Guard: importer.NewLocalGuard(), Cleanup: store.Close}, nil
}

// The redis backend shares one client between the store and a lock, so
// server and worker never import at the same time.
func (f *DefaultFactory) createRedisBackend(ctx context.Context, config Config) (*BackendResult, error) {
	client, err := storage.NewRedisClient(ctx, config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}
	store := storage.NewRedisStore(client, config.RedisPrefix)
	lock := storage.NewRedisLock(client, config.RedisPrefix, config.ImportLockTTL)
	f.logger.Info("Initialized redis backend", "prefix", config.RedisPrefix)
	return &BackendResult{Store: store, Guard: lock, Cleanup: store.Close}, nil
}

func (f *DefaultFactory) createPostgresBackend(ctx context.Context, config Config) (*BackendResult, error) {
	pool, err := storage.ConnectPostgres(ctx, config.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}
	store := storage.NewPostgresStore(pool)
	f.logger.Info("Initialized postgres backend")
	return &BackendResult{Store: store, Guard: importer.NewLocalGuard(), Cleanup: store.Close}, nil
}
