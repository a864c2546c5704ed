package controllers

import (
	"context"
	"errors"
	"slices"
	"sync"

	"financeflow/internal/api"
	"financeflow/internal/core"
	"financeflow/internal/log"
	"financeflow/internal/ports"
	"financeflow/internal/services"
)

type Phase string

const (
	PhaseLoading   Phase = "loading"
	PhaseLoaded    Phase = "loaded"
	PhaseLoadError Phase = "load_error"
)

// DashboardState is a snapshot of what the dashboard shows.
type DashboardState struct {
	Phase          Phase
	Transactions   []core.Transaction
	Summary        core.Summary
	Error          string
	PendingDeletes []core.ID
	// Ended is set once the session was ended from this dashboard; the view
	// has navigated away and every further action is refused.
	Ended bool
}

// Dashboard owns one transaction store for the lifetime of a mount.
type Dashboard struct {
	store   *services.TransactionStore
	guard   SessionGuard
	confirm ports.Confirmer
	logger  *log.Logger

	mu      sync.Mutex
	mounted bool
	phase   Phase
	txs     []core.Transaction
	banner  string
	ended   bool
}

func NewDashboard(client ports.TransactionAPI, guard SessionGuard, confirm ports.Confirmer, events ports.EventPublisher, logger *log.Logger) *Dashboard {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Dashboard{
		store:   services.NewTransactionStore(client, events, logger),
		guard:   guard,
		confirm: confirm,
		logger:  logger.WithComponent(log.ComponentDashboard),
		phase:   PhaseLoading,
	}
}

// Mount performs the single initial load.
func (d *Dashboard) Mount(ctx context.Context) error {
	d.mu.Lock()
	if d.mounted {
		d.mu.Unlock()
		return ErrAlreadyMounted
	}
	d.mounted = true
	d.mu.Unlock()

	return d.load(ctx)
}

// Reload fetches the list again.
func (d *Dashboard) Reload(ctx context.Context) error {
	d.mu.Lock()
	d.mounted = true
	d.mu.Unlock()

	return d.load(ctx)
}

func (d *Dashboard) load(ctx context.Context) error {
	d.mu.Lock()
	if d.ended {
		d.mu.Unlock()
		return ErrSessionEnded
	}
	d.phase = PhaseLoading
	d.banner = ""
	d.mu.Unlock()

	txs, err := d.store.Load(ctx)

	d.mu.Lock()
	if err == nil {
		d.phase = PhaseLoaded
		d.txs = txs
		d.mu.Unlock()
		d.logger.InfoContext(ctx, "Dashboard loaded", log.FieldCount, len(txs))
		return nil
	}

	d.phase = PhaseLoadError
	d.txs = nil
	if api.IsUnauthorized(err) {
		d.endLocked()
		d.mu.Unlock()
		d.logger.WarnContext(ctx, "Credential rejected while loading",
			log.FieldOperation, log.OpLoad,
			log.FieldErrorType, log.ErrorTypeAuth)
		d.guard.OnUnauthorized(ctx)
		return err
	}
	if !d.ended {
		d.banner = MsgLoadFailed
	}
	d.mu.Unlock()
	return err
}

// Delete asks for confirmation and removes id once the server confirms.
// A declined prompt returns ErrDeleteDeclined without any request.
func (d *Dashboard) Delete(ctx context.Context, id core.ID) error {
	d.mu.Lock()
	switch {
	case d.ended:
		d.mu.Unlock()
		return ErrSessionEnded
	case d.phase != PhaseLoaded:
		d.mu.Unlock()
		return ErrNotLoaded
	}
	d.mu.Unlock()

	if d.store.IsPending(id) {
		return services.ErrDeleteInFlight
	}
	if !d.confirm.Confirm(MsgConfirmDelete) {
		d.logger.DebugContext(ctx, "Delete declined", log.FieldTransactionID, string(id))
		return ErrDeleteDeclined
	}

	err := d.store.Remove(ctx, id)
	if errors.Is(err, services.ErrDeleteInFlight) {
		return err
	}

	d.mu.Lock()
	if err == nil {
		d.txs = d.store.Transactions()
		if !d.ended {
			d.banner = ""
		}
		d.mu.Unlock()
		return nil
	}

	if api.IsUnauthorized(err) {
		d.endLocked()
		d.mu.Unlock()
		d.logger.WarnContext(ctx, "Credential rejected while deleting",
			log.FieldOperation, log.OpDelete,
			log.FieldErrorType, log.ErrorTypeAuth)
		d.guard.OnUnauthorized(ctx)
		return err
	}
	if !d.ended {
		d.banner = api.MessageOrDefault(err, MsgDeleteFailed)
	}
	d.mu.Unlock()
	return err
}

// Logout ends the session at the user's request.
func (d *Dashboard) Logout(ctx context.Context) {
	d.mu.Lock()
	d.endLocked()
	d.mu.Unlock()
	d.guard.Logout(ctx)
}

// endLocked marks the dashboard as left. Any banner is dropped: navigation
// replaces it. d.mu must be held.
func (d *Dashboard) endLocked() {
	d.ended = true
	d.banner = ""
}

// State returns a snapshot of the current view state.
func (d *Dashboard) State() DashboardState {
	pending := d.store.Pending()

	d.mu.Lock()
	defer d.mu.Unlock()
	txs := slices.Clone(d.txs)
	if txs == nil {
		txs = []core.Transaction{}
	}
	return DashboardState{
		Phase:          d.phase,
		Transactions:   txs,
		Summary:        core.Summarize(txs),
		Error:          d.banner,
		PendingDeletes: pending,
		Ended:          d.ended,
	}
}
