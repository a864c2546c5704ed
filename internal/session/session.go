// Package session holds the credential for the current user and the guard
// that ends the session when the API rejects it.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"financeflow/internal/log"
	"financeflow/internal/ports"
)

var ErrEmptyToken = errors.New("empty credential token")

// Session holds at most one credential token. When a CredentialStore is
// attached, Set and Clear write through to it.
type Session struct {
	mu     sync.RWMutex
	token  string
	store  ports.CredentialStore
	logger *log.Logger
}

// New returns an empty session. store may be nil for a purely in-memory
// session.
func New(store ports.CredentialStore, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Session{
		store:  store,
		logger: logger.WithComponent(log.ComponentSession),
	}
}

// Restore loads the persisted credential, if any.
func (s *Session) Restore(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	token, ok, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load credential: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if ok {
		s.token = token
	} else {
		s.token = ""
	}
	s.logger.DebugContext(ctx, "Session restored", "active", ok)
	return nil
}

// Token implements api.TokenSource.
func (s *Session) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

// Active reports whether a credential is held.
func (s *Session) Active() bool {
	_, ok := s.Token()
	return ok
}

// Set replaces the credential. If persisting fails the session is left
// unchanged.
func (s *Session) Set(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrEmptyToken
	}
	if s.store != nil {
		if err := s.store.Save(ctx, token); err != nil {
			return fmt.Errorf("save credential: %w", err)
		}
	}
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

// Clear drops the credential. The in-memory token is always cleared; an
// error only reports that the persisted copy could not be removed.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	if s.store == nil {
		return nil
	}
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	return nil
}
