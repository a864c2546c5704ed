// Package ports declares the capabilities the ledger core depends on. Each is
// implemented by an adapter (terminal, storage, amqp, sheets) and by fakes in
// tests.
package ports

import (
	"context"

	"financeflow/internal/core"
)

// Navigation targets used by the controllers.
const (
	EntryPath     = "/"
	DashboardPath = "/dashboard"
	AddPath       = "/add"
)

type (
	// Navigator receives navigation commands.
	Navigator interface {
		Navigate(path string)
	}

	// Confirmer asks the user a yes/no question and blocks until answered.
	Confirmer interface {
		Confirm(message string) bool
	}

	// TransactionAPI is the remote transaction collection.
	TransactionAPI interface {
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
		CreateTransaction(ctx context.Context, c core.ValidCandidate) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, id core.ID) error
	}

	// CredentialStore persists the session credential between runs.
	CredentialStore interface {
		// Load returns the stored token, or ok=false when there is none.
		Load(ctx context.Context) (token string, ok bool, err error)
		Save(ctx context.Context, token string) error
		Clear(ctx context.Context) error
	}

	// EventPublisher announces confirmed ledger and session changes.
	EventPublisher interface {
		Publish(ctx context.Context, e core.Event) error
	}

	// LedgerExporter writes a transaction list to an external document.
	LedgerExporter interface {
		Export(ctx context.Context, txs []core.Transaction) (ref string, err error)
	}
)

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, core.Event) error { return nil }

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

// ConfirmerFunc adapts a function to Confirmer.
type ConfirmerFunc func(message string) bool

func (f ConfirmerFunc) Confirm(message string) bool { return f(message) }
