package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"financeflow/internal/core"
	"financeflow/internal/log"
	"financeflow/internal/ports"
)

type fakeStore struct {
	token    string
	saved    bool
	loadErr  error
	saveErr  error
	clearErr error
	clears   int
}

func (f *fakeStore) Load(context.Context) (string, bool, error) {
	if f.loadErr != nil {
		return "", false, f.loadErr
	}
	return f.token, f.saved, nil
}

func (f *fakeStore) Save(_ context.Context, token string) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.token, f.saved = token, true
	return nil
}

func (f *fakeStore) Clear(context.Context) error {
	f.clears++
	if f.clearErr != nil {
		return f.clearErr
	}
	f.token, f.saved = "", false
	return nil
}

type recordingNav struct{ paths []string }

func (n *recordingNav) Navigate(path string) { n.paths = append(n.paths, path) }

type recordingPublisher struct {
	events []core.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e core.Event) error {
	p.events = append(p.events, e)
	return p.err
}

func TestSessionSetAndClear(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	s := New(store, log.Discard())

	_, ok := s.Token()
	require.False(t, ok)

	require.NoError(t, s.Set(ctx, "  tok-1 "))
	tok, ok := s.Token()
	require.True(t, ok)
	require.Equal(t, "tok-1", tok)
	require.Equal(t, "tok-1", store.token)

	require.NoError(t, s.Clear(ctx))
	require.False(t, s.Active())
	require.False(t, store.saved)
}

func TestSessionSetRejectsEmptyToken(t *testing.T) {
	s := New(nil, log.Discard())
	require.ErrorIs(t, s.Set(context.Background(), "   "), ErrEmptyToken)
	require.False(t, s.Active())
}

func TestSessionSetKeepsPreviousTokenWhenSaveFails(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	s := New(store, log.Discard())
	require.NoError(t, s.Set(ctx, "old"))

	store.saveErr = errors.New("disk full")
	require.Error(t, s.Set(ctx, "new"))

	tok, _ := s.Token()
	require.Equal(t, "old", tok)
}

func TestSessionRestore(t *testing.T) {
	ctx := context.Background()

	s := New(&fakeStore{token: "persisted", saved: true}, log.Discard())
	require.NoError(t, s.Restore(ctx))
	tok, ok := s.Token()
	require.True(t, ok)
	require.Equal(t, "persisted", tok)

	s = New(&fakeStore{loadErr: errors.New("locked")}, log.Discard())
	require.Error(t, s.Restore(ctx))
	require.False(t, s.Active())

	require.NoError(t, New(nil, log.Discard()).Restore(ctx))
}

func TestSessionClearAlwaysDropsMemoryToken(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	s := New(store, log.Discard())
	require.NoError(t, s.Set(ctx, "tok"))

	store.clearErr = errors.New("read-only")
	require.Error(t, s.Clear(ctx))
	require.False(t, s.Active())
}

func TestGuardOnUnauthorized(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	s := New(store, log.Discard())
	require.NoError(t, s.Set(ctx, "tok"))

	nav := &recordingNav{}
	pub := &recordingPublisher{}
	g := NewGuard(s, nav, pub, log.Discard())

	g.OnUnauthorized(ctx)

	require.False(t, s.Active())
	require.False(t, store.saved)
	require.Equal(t, []string{ports.EntryPath}, nav.paths)
	require.Len(t, pub.events, 1)
	require.Equal(t, core.EventSessionEnded, pub.events[0].Kind)
	require.Equal(t, ReasonUnauthorized, pub.events[0].Reason)
}

func TestGuardWithoutCredentialStillNavigates(t *testing.T) {
	nav := &recordingNav{}
	pub := &recordingPublisher{}
	g := NewGuard(New(nil, log.Discard()), nav, pub, log.Discard())

	g.OnUnauthorized(context.Background())
	g.OnUnauthorized(context.Background())

	require.Equal(t, []string{"/", "/"}, nav.paths)
	require.Empty(t, pub.events)
}

func TestGuardNavigatesWhenPersistenceFails(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	s := New(store, log.Discard())
	require.NoError(t, s.Set(ctx, "tok"))
	store.clearErr = errors.New("read-only")

	nav := &recordingNav{}
	pub := &recordingPublisher{err: errors.New("broker down")}
	g := NewGuard(s, nav, pub, log.Discard())

	g.Logout(ctx)

	require.False(t, s.Active())
	require.Equal(t, []string{ports.EntryPath}, nav.paths)
	require.Len(t, pub.events, 1)
	require.Equal(t, ReasonLogout, pub.events[0].Reason)
}
