package memory

import (
	"context"
	"sync"
	"time"

	"github.com/geocoder89/busguard/internal/domain/session"
)

// SessionsRepo keeps session records for the lifetime of the process.
// Expired records stay readable until Purge removes them.
type SessionsRepo struct {
	mu    sync.RWMutex
	items map[string]session.Record
}

func NewSessionsRepo() *SessionsRepo {
	return &SessionsRepo{
		items: make(map[string]session.Record),
	}
}

func (r *SessionsRepo) Get(_ context.Context, id string) (session.Record, error) {
	r.mu.RLock()
	rec, ok := r.items[id]
	r.mu.RUnlock()

	if !ok {
		return session.Record{}, session.ErrNoSession
	}

	return rec, nil
}

func (r *SessionsRepo) Put(_ context.Context, id string, rec session.Record) error {
	r.mu.Lock()
	r.items[id] = rec
	r.mu.Unlock()

	return nil
}

func (r *SessionsRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	delete(r.items, id)
	r.mu.Unlock()

	return nil
}

func (r *SessionsRepo) Ping(context.Context) error { return nil }

// Purge drops every record that expired before cutoff.
func (r *SessionsRepo) Purge(_ context.Context, cutoff time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, rec := range r.items {
		if rec.Expired(cutoff) {
			delete(r.items, id)
			n++
		}
	}

	return n, nil
}

func (r *SessionsRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}
