package lifecycle

import (
	"context"
	"log"
	"sync"
	"time"

	"levelUpAPI/internal/gateway"
)

// Start runs the reconciliation poll until the context is canceled. Backend
// failures are logged and the loop keeps its interval; they never kill the
// poll.
func (m *Manager) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := m.Reconcile(ctx); err != nil {
					log.Printf("reconcile for student %s: %v", m.studentID(), err)
				}
			}
		}
	}()
}

func (m *Manager) studentID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.ID
}

// Registry tracks live student sessions, one Manager and one poll
// goroutine each. Closing a session cancels its poll so no background
// work outlives a logout.
type Registry struct {
	mu       sync.Mutex
	gw       gateway.Gateway
	interval time.Duration
	sessions map[string]*session
}

type session struct {
	manager *Manager
	cancel  context.CancelFunc
}

func NewRegistry(gw gateway.Gateway, interval time.Duration) *Registry {
	return &Registry{
		gw:       gw,
		interval: interval,
		sessions: make(map[string]*session),
	}
}

// Open returns the student's session, loading state and starting the poll
// on first use. The poll gets its own context: it lives until Close, not
// until the opening request finishes.
func (r *Registry) Open(ctx context.Context, studentID string) (*Manager, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sess, ok := r.sessions[studentID]; ok {
		return sess.manager, nil
	}
	mgr, err := Open(ctx, r.gw, studentID)
	if err != nil {
		return nil, err
	}
	pollCtx, cancel := context.WithCancel(context.Background())
	mgr.Start(pollCtx, r.interval)
	r.sessions[studentID] = &session{manager: mgr, cancel: cancel}
	return mgr, nil
}

// Get returns an already-open session.
func (r *Registry) Get(studentID string) (*Manager, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[studentID]
	if !ok {
		return nil, false
	}
	return sess.manager, true
}

// Close ends a student's session and stops its poll.
func (r *Registry) Close(studentID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sess, ok := r.sessions[studentID]; ok {
		sess.cancel()
		delete(r.sessions, studentID)
	}
}

// CloseAll stops every session poll; used on shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, sess := range r.sessions {
		sess.cancel()
		delete(r.sessions, id)
	}
}
