package backend

import (
	"context"
	"errors"
	"fmt"

	"financeflow/internal/amqp"
	"financeflow/internal/log"
	"financeflow/internal/ports"
	gsheet "financeflow/internal/sheets/google"
	"financeflow/internal/storage"
)

// DefaultFactory implements Factory.
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// Create opens the credential store and, when configured, the event
// publisher and the exporter. Failing to reach the broker or to set up the
// exporter is logged and the run continues without them.
func (f *DefaultFactory) Create(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var closers []func() error
	eventsEnabled := false
	res := &Result{Events: ports.NopPublisher{}}

	switch config.Type {
	case SQLiteBackend:
		store, err := storage.NewSQLiteCredentialStore(config.SQLiteDBPath, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite credential store: %w", err)
		}
		res.Credentials = store
		closers = append(closers, store.Close)
	case MemoryBackend:
		res.Credentials = storage.NewMemoryCredentialStore()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	if config.AMQPURL != "" {
		pub, err := amqp.NewPublisher(config.AMQPURL, config.AMQPExchange, f.logger)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP publisher, continuing without events",
				log.FieldError, err)
		} else {
			res.Events = pub
			eventsEnabled = true
			closers = append(closers, pub.Close)
			f.logger.InfoContext(ctx, "Initialized AMQP publisher", "exchange", config.AMQPExchange)
		}
	}

	if config.Sheets.SpreadsheetID != "" {
		exp, err := gsheet.NewExporter(ctx, config.Sheets, f.logger)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize Google Sheets exporter",
				log.FieldError, err)
		} else {
			res.Exporter = exp
		}
	}

	f.logger.DebugContext(ctx, "Initialized backend",
		log.FieldBackend, config.Type.String(),
		"events_enabled", eventsEnabled,
		"export_enabled", res.Exporter != nil)

	res.Cleanup = func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
	return res, nil
}
