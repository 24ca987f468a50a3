package backend

import (
	"context"
	"time"

	"rupaiya/internal/importer"
	"rupaiya/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult is the store selected by configuration, the import guard
// that fits it, and the cleanup releasing their connections.
type BackendResult struct {
	Store   storage.Store
	Guard   importer.Guard
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// Memory backend seeds from DataDirectory.
	DataDirectory string

	SQLiteDBPath string

	RedisURL      string
	RedisPrefix   string
	ImportLockTTL time.Duration

	DatabaseURL string
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	RedisBackend    BackendType = "redis"
	PostgresBackend BackendType = "postgres"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, RedisBackend, PostgresBackend:
		return true
	default:
		return false
	}
}
