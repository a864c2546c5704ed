package controllers

import (
	"context"
	"errors"
	"sync"
	"time"

	"financeflow/internal/api"
	"financeflow/internal/core"
	"financeflow/internal/log"
	"financeflow/internal/ports"
	"financeflow/internal/services"
)

type CreationPhase string

const (
	PhaseIdle          CreationPhase = "idle"
	PhaseSubmitting    CreationPhase = "submitting"
	PhaseNavigatedAway CreationPhase = "navigated_away"
)

// Form holds the creation form fields as typed by the user.
type Form struct {
	Amount string
	Type   core.TransactionType
	Note   string
	Date   core.Date
}

func (f Form) candidate() core.Candidate {
	return core.Candidate{Amount: f.Amount, Type: f.Type, Note: f.Note, Date: f.Date}
}

type CreationState struct {
	Phase          CreationPhase
	Form           Form
	Error          string
	SubmitDisabled bool
	// Destination is the path navigated to once the phase is NavigatedAway.
	Destination string
}

type CreationOption func(*Creation)

// WithClock sets the clock used for the default form date.
func WithClock(now func() time.Time) CreationOption {
	return func(c *Creation) { c.now = now }
}

// Creation drives the new-transaction form.
type Creation struct {
	store  *services.TransactionStore
	guard  SessionGuard
	nav    ports.Navigator
	logger *log.Logger
	now    func() time.Time

	mu    sync.Mutex
	state CreationState
}

// NewCreation returns a controller with the form initialised to an expense
// dated today.
func NewCreation(client ports.TransactionAPI, guard SessionGuard, nav ports.Navigator, events ports.EventPublisher, logger *log.Logger, opts ...CreationOption) *Creation {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	c := &Creation{
		store:  services.NewTransactionStore(client, events, logger),
		guard:  guard,
		nav:    nav,
		logger: logger.WithComponent(log.ComponentCreation),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.state = CreationState{
		Phase: PhaseIdle,
		Form: Form{
			Type: core.Expense,
			Date: core.DateOf(c.now()),
		},
	}
	return c
}

func (c *Creation) SetAmount(v string) { c.edit(func(f *Form) { f.Amount = v }) }

func (c *Creation) SetType(t core.TransactionType) { c.edit(func(f *Form) { f.Type = t }) }

func (c *Creation) SetNote(v string) { c.edit(func(f *Form) { f.Note = v }) }

func (c *Creation) SetDate(d core.Date) { c.edit(func(f *Form) { f.Date = d }) }

// edit applies fn to the form unless a submit is running or the form was
// left.
func (c *Creation) edit(fn func(*Form)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Phase != PhaseIdle {
		return
	}
	fn(&c.state.Form)
}

// Submit validates the form and, when valid, creates the transaction. On
// success the user is sent to the dashboard, which reloads the list.
func (c *Creation) Submit(ctx context.Context) error {
	c.mu.Lock()
	switch c.state.Phase {
	case PhaseSubmitting:
		c.mu.Unlock()
		return ErrSubmitInProgress
	case PhaseNavigatedAway:
		c.mu.Unlock()
		return ErrFormClosed
	}
	c.state.Error = ""

	valid, err := core.Validate(c.state.Form.candidate())
	if err != nil {
		var verr *core.ValidationError
		if errors.As(err, &verr) {
			c.state.Error = verr.Message
		}
		c.mu.Unlock()
		c.logger.DebugContext(ctx, "Form rejected",
			log.FieldOperation, log.OpValidate,
			log.FieldError, err)
		return err
	}
	c.state.Phase = PhaseSubmitting
	c.state.SubmitDisabled = true
	c.mu.Unlock()

	_, err = c.store.Add(ctx, valid)

	c.mu.Lock()
	switch {
	case err == nil:
		c.leaveLocked(ports.DashboardPath)
		c.mu.Unlock()
		c.nav.Navigate(ports.DashboardPath)
		return nil
	case api.IsUnauthorized(err):
		c.leaveLocked(ports.EntryPath)
		c.mu.Unlock()
		c.logger.WarnContext(ctx, "Credential rejected while creating",
			log.FieldOperation, log.OpCreate,
			log.FieldErrorType, log.ErrorTypeAuth)
		c.guard.OnUnauthorized(ctx)
		return err
	default:
		c.state.Phase = PhaseIdle
		c.state.SubmitDisabled = false
		c.state.Error = api.MessageOrDefault(err, MsgCreateFailed)
		c.mu.Unlock()
		return err
	}
}

// leaveLocked records navigation away from the form. c.mu must be held.
func (c *Creation) leaveLocked(dest string) {
	c.state.Phase = PhaseNavigatedAway
	c.state.SubmitDisabled = true
	c.state.Destination = dest
	c.state.Error = ""
}

func (c *Creation) State() CreationState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}
