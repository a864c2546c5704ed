package core

import "time"

const (
	EventTransactionCreated EventKind = "transaction.created"
	EventTransactionDeleted EventKind = "transaction.deleted"
	EventSessionEnded       EventKind = "session.ended"
)

type (
	EventKind string

	// Event records a confirmed change to the ledger or the session.
	Event struct {
		Kind          EventKind
		TransactionID ID
		Transaction   *Transaction
		Reason        string
		OccurredAt    time.Time
	}
)
