// Package services holds the in-memory transaction store that sits between
// the controllers and the remote API.
package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"financeflow/internal/core"
	"financeflow/internal/log"
	"financeflow/internal/ports"
)

var (
	ErrLoadFailed     = errors.New("load transactions")
	ErrDeleteFailed   = errors.New("delete transaction")
	ErrDeleteInFlight = errors.New("delete already in progress")
	ErrCreateFailed   = errors.New("create transaction")
)

// TransactionStore caches the transaction list of one dashboard instance.
// The list changes only through Load (full replace) and Remove.
type TransactionStore struct {
	api    ports.TransactionAPI
	events ports.EventPublisher
	logger *log.Logger
	now    func() time.Time

	loads singleflight.Group

	mu      sync.Mutex
	txs     []core.Transaction
	pending map[core.ID]struct{}
}

func NewTransactionStore(api ports.TransactionAPI, events ports.EventPublisher, logger *log.Logger) *TransactionStore {
	if events == nil {
		events = ports.NopPublisher{}
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &TransactionStore{
		api:     api,
		events:  events,
		logger:  logger.WithComponent(log.ComponentStore),
		now:     time.Now,
		pending: make(map[core.ID]struct{}),
	}
}

// Load fetches the full list and replaces the cached one. Concurrent calls
// share a single request, which runs detached from any one caller's
// cancellation; each caller stops waiting when its own ctx is done. On
// failure the cached list is left as it was and the error matches both
// ErrLoadFailed and the underlying API error.
func (s *TransactionStore) Load(ctx context.Context) ([]core.Transaction, error) {
	shared := context.WithoutCancel(ctx)
	ch := s.loads.DoChan("load", func() (any, error) {
		txs, err := s.api.ListTransactions(shared)
		if err != nil {
			return nil, err
		}
		txs = s.dedupe(shared, txs)

		s.mu.Lock()
		s.txs = txs
		s.mu.Unlock()
		return txs, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		res = singleflight.Result{Err: ctx.Err()}
	}
	if res.Err != nil {
		s.logger.WarnContext(ctx, "Failed to load transactions",
			log.FieldOperation, log.OpLoad,
			log.FieldError, res.Err)
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, res.Err)
	}

	txs := res.Val.([]core.Transaction)
	s.logger.DebugContext(ctx, "Transactions loaded",
		log.FieldCount, len(txs),
		"shared", res.Shared)
	return slices.Clone(txs), nil
}

// dedupe keeps the first occurrence of each id, preserving server order.
func (s *TransactionStore) dedupe(ctx context.Context, txs []core.Transaction) []core.Transaction {
	seen := make(map[core.ID]struct{}, len(txs))
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if _, dup := seen[tx.ID]; dup {
			s.logger.WarnContext(ctx, "Dropping duplicate transaction id from server",
				log.FieldTransactionID, string(tx.ID))
			continue
		}
		seen[tx.ID] = struct{}{}
		out = append(out, tx)
	}
	return out
}

// Remove deletes id on the server and, only once the server confirms,
// drops it from the cached list. A second Remove for an id that is still in
// flight fails with ErrDeleteInFlight without issuing a request.
func (s *TransactionStore) Remove(ctx context.Context, id core.ID) error {
	s.mu.Lock()
	if _, busy := s.pending[id]; busy {
		s.mu.Unlock()
		return ErrDeleteInFlight
	}
	s.pending[id] = struct{}{}
	s.mu.Unlock()

	err := s.api.DeleteTransaction(ctx, id)

	s.mu.Lock()
	delete(s.pending, id)
	if err == nil {
		s.txs = slices.DeleteFunc(s.txs, func(tx core.Transaction) bool { return tx.ID == id })
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.WarnContext(ctx, "Failed to delete transaction",
			log.FieldOperation, log.OpDelete,
			log.FieldTransactionID, string(id),
			log.FieldError, err)
		return fmt.Errorf("%w: %w", ErrDeleteFailed, err)
	}

	s.logger.InfoContext(ctx, "Transaction deleted", log.FieldTransactionID, string(id))
	s.publish(ctx, core.Event{Kind: core.EventTransactionDeleted, TransactionID: id})
	return nil
}

// Add creates a transaction on the server. The cached list is not touched;
// callers reload to see the new record.
func (s *TransactionStore) Add(ctx context.Context, c core.ValidCandidate) (core.Transaction, error) {
	tx, err := s.api.CreateTransaction(ctx, c)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to create transaction",
			log.FieldOperation, log.OpCreate,
			log.FieldError, err)
		return core.Transaction{}, fmt.Errorf("%w: %w", ErrCreateFailed, err)
	}

	s.logger.InfoContext(ctx, "Transaction created",
		log.FieldTransactionID, string(tx.ID),
		log.FieldAmount, tx.Amount.String(),
		log.FieldType, string(tx.Type))
	s.publish(ctx, core.Event{Kind: core.EventTransactionCreated, TransactionID: tx.ID, Transaction: &tx})
	return tx, nil
}

// Transactions returns a copy of the cached list.
func (s *TransactionStore) Transactions() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.txs)
}

// IsPending reports whether a delete for id is in flight.
func (s *TransactionStore) IsPending(id core.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, busy := s.pending[id]
	return busy
}

// Pending returns the ids with a delete in flight, sorted.
func (s *TransactionStore) Pending() []core.ID {
	s.mu.Lock()
	ids := make([]core.ID, 0, len(s.pending))
	for id := range s.pending {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	slices.Sort(ids)
	return ids
}

func (s *TransactionStore) publish(ctx context.Context, e core.Event) {
	e.OccurredAt = s.now()
	if err := s.events.Publish(ctx, e); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish ledger event",
			log.FieldOperation, log.OpPublish,
			"kind", string(e.Kind),
			log.FieldError, err)
	}
}
