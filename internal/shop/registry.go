package shop

import (
	"sync"

	"github.com/ilmhub/coinhub/internal/model"
)

// Factory builds the Service for a session. The returned func releases
// anything the Service holds, such as store subscriptions.
type Factory func(sess model.Session) (*Service, func())

type entry struct {
	svc     *Service
	release func()
}

// Registry keeps one Service per local session.
type Registry struct {
	mu      sync.Mutex
	entries map[int64]entry
	factory Factory
}

func NewRegistry(factory Factory) *Registry {
	return &Registry{entries: make(map[int64]entry), factory: factory}
}

// For returns the session's Service, creating it on first use.
func (r *Registry) For(sess model.Session) *Service {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[sess.ID]; ok {
		return e.svc
	}
	svc, release := r.factory(sess)
	if release == nil {
		release = func() {}
	}
	r.entries[sess.ID] = entry{svc: svc, release: release}
	return svc
}

// Lookup returns the session's Service without creating one.
func (r *Registry) Lookup(sessionID int64) (*Service, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[sessionID]
	return e.svc, ok
}

// Drop releases and forgets the session's Service.
func (r *Registry) Drop(sessionID int64) {
	r.mu.Lock()
	e, ok := r.entries[sessionID]
	delete(r.entries, sessionID)
	r.mu.Unlock()
	if ok {
		e.release()
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
