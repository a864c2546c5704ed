package backend

import (
	"context"

	"financeflow/internal/ports"
	gsheet "financeflow/internal/sheets/google"
)

// CleanupFunc releases resources held by a Result.
type CleanupFunc func() error

// Result bundles the adapters a run of the client needs.
type Result struct {
	Credentials ports.CredentialStore
	Events      ports.EventPublisher
	// Exporter is nil when export is not configured.
	Exporter ports.LedgerExporter
	Cleanup  CleanupFunc
}

// Factory builds adapters from configuration.
type Factory interface {
	Create(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation.
type Config struct {
	Type BackendType

	SQLiteDBPath string

	AMQPURL      string
	AMQPExchange string

	Sheets gsheet.Config
}

// BackendType selects where the credential is persisted.
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
