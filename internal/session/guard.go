package session

import (
	"context"
	"time"

	"financeflow/internal/core"
	"financeflow/internal/log"
	"financeflow/internal/ports"
)

const (
	ReasonUnauthorized = "unauthorized"
	ReasonLogout       = "logout"
)

// Guard ends the session: it clears the credential and sends the user back
// to the entry path. Navigation always happens, even when there was no
// credential to clear or the persisted copy could not be removed.
type Guard struct {
	session *Session
	nav     ports.Navigator
	events  ports.EventPublisher
	logger  *log.Logger
	now     func() time.Time
}

func NewGuard(s *Session, nav ports.Navigator, events ports.EventPublisher, logger *log.Logger) *Guard {
	if events == nil {
		events = ports.NopPublisher{}
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Guard{
		session: s,
		nav:     nav,
		events:  events,
		logger:  logger.WithComponent(log.ComponentSession),
		now:     time.Now,
	}
}

// OnUnauthorized handles a 401 from the API.
func (g *Guard) OnUnauthorized(ctx context.Context) {
	g.end(ctx, ReasonUnauthorized)
}

// Logout handles an explicit user logout.
func (g *Guard) Logout(ctx context.Context) {
	g.end(ctx, ReasonLogout)
}

func (g *Guard) end(ctx context.Context, reason string) {
	hadCredential := g.session.Active()

	if err := g.session.Clear(ctx); err != nil {
		g.logger.ErrorContext(ctx, "Failed to clear persisted credential",
			log.FieldReason, reason,
			log.FieldError, err,
			log.FieldErrorType, log.ErrorTypeDatabase)
	}

	if hadCredential {
		g.logger.InfoContext(ctx, "Session ended", log.FieldReason, reason)
		err := g.events.Publish(ctx, core.Event{
			Kind:       core.EventSessionEnded,
			Reason:     reason,
			OccurredAt: g.now(),
		})
		if err != nil {
			g.logger.WarnContext(ctx, "Failed to publish session event",
				log.FieldOperation, log.OpPublish,
				log.FieldError, err)
		}
	}

	g.nav.Navigate(ports.EntryPath)
}
