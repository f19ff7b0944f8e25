// Package app holds the application state: the merged "current user" view
// of every live session.
//
// State is built once in server.go and handed to the handlers. It owns one
// subscription to the identity hub and reconciles events on a single
// goroutine, so reconciliations never overlap and run in publish order.
package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sakif/editorialchain/internal/identity"
	"github.com/sakif/editorialchain/internal/model"
)

// Reconciler turns an identity event into a merged view.
// *service.Reconciler satisfies it.
type Reconciler interface {
	Reconcile(ctx context.Context, id *model.Identity) *model.CurrentUser
}

type entry struct {
	view    *model.CurrentUser
	loading bool
}

// State is the per-session view table.
type State struct {
	sub        *identity.Subscription
	reconciler Reconciler
	logger     *slog.Logger

	// ended sessions stay refused until their tokens could have expired
	sessionTTL time.Duration
	now        func() time.Time

	mu       sync.RWMutex
	sessions map[string]*entry
	ended    map[string]time.Time

	stopOnce sync.Once
}

// New subscribes to hub. sessionTTL is the lifetime of session tokens: a
// signed-out session is refused for that long. Call Run to start consuming
// events and Close to unsubscribe.
func New(hub *identity.Hub, reconciler Reconciler, sessionTTL time.Duration, logger *slog.Logger) *State {
	return &State{
		sub:        hub.Subscribe(),
		reconciler: reconciler,
		logger:     logger,
		sessionTTL: sessionTTL,
		now:        time.Now,
		sessions:   make(map[string]*entry),
		ended:      make(map[string]time.Time),
	}
}

// Run consumes identity events until ctx is done or the subscription is
// closed. Each event is fully reconciled before the next one is read.
func (s *State) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-s.sub.Events():
			if !ok {
				return
			}
			s.handle(ctx, ev)
		}
	}
}

func (s *State) handle(ctx context.Context, ev identity.Event) {
	if ev.SignedOut() {
		s.EndSession(ev.SessionID)
		s.reconciler.Reconcile(ctx, nil)
		s.mu.Lock()
		delete(s.sessions, ev.SessionID)
		s.mu.Unlock()
		s.logger.Debug("session cleared", slog.String("session", ev.SessionID))
		return
	}

	s.MarkLoading(ev.SessionID)
	view := s.reconciler.Reconcile(ctx, ev.Identity)

	s.mu.Lock()
	s.sessions[ev.SessionID] = &entry{view: view}
	s.mu.Unlock()
}

// MarkLoading records that a session has an identity in flight. The sign-in
// flow calls it before publishing, so /api/me answers "loading" instead of
// "unknown" until the event is reconciled.
func (s *State) MarkLoading(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[sessionID]
	if !ok {
		e = &entry{}
		s.sessions[sessionID] = e
	}
	e.loading = true
}

// BeginRestore claims the restore of a session this process has no entry
// for. It reports false when the session already has an entry or has
// ended; only the caller that gets true may publish the identity.
func (s *State) BeginRestore(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; ok || s.endedLocked(sessionID) {
		return false
	}
	s.sessions[sessionID] = &entry{loading: true}
	return true
}

// EndSession refuses the session until its tokens could have expired.
// The view itself is dropped when the sign-out event is handled.
func (s *State) EndSession(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, until := range s.ended {
		if !now.Before(until) {
			delete(s.ended, id)
		}
	}
	s.ended[sessionID] = now.Add(s.sessionTTL)
}

// Revoked reports whether the session was signed out. auth.TokenService
// consults it on every request.
func (s *State) Revoked(sessionID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.endedLocked(sessionID)
}

func (s *State) endedLocked(sessionID string) bool {
	until, ok := s.ended[sessionID]
	return ok && s.now().Before(until)
}

// RenameViews sets the display name in every reconciled view of uid.
// Views are replaced, not mutated, since callers may still hold the old one.
func (s *State) RenameViews(uid, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.sessions {
		if e.view == nil || e.view.UID != uid {
			continue
		}
		v := *e.view
		v.DisplayName = name
		e.view = &v
	}
}

// View returns the merged view of a session.
//
//	known=false           no event seen for this session
//	loading=true          an identity is being reconciled; view is the previous one, if any
//	view!=nil, !loading   reconciled
func (s *State) View(sessionID string) (view *model.CurrentUser, loading, known bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[sessionID]
	if !ok {
		return nil, false, false
	}
	return e.view, e.loading, true
}

// Sessions returns the number of sessions with an entry.
func (s *State) Sessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close unsubscribes from the hub, which also ends Run. Safe to call more than once.
func (s *State) Close() {
	s.stopOnce.Do(s.sub.Unsubscribe)
}
