package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-charles/meetsched/internal/flow"
)

// SessionRegistry keeps one flow machine per widget session, keyed by the
// X-Session-Id header. Sessions idle past the TTL are evicted; the booking
// ledger is shared and unaffected.
type SessionRegistry struct {
	ttl        time.Duration
	newMachine func() *flow.Machine
	now        func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	machine  *flow.Machine
	lastSeen time.Time
}

func NewSessionRegistry(ttl time.Duration, newMachine func() *flow.Machine) *SessionRegistry {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SessionRegistry{
		ttl:        ttl,
		newMachine: newMachine,
		now:        time.Now,
		sessions:   map[string]*session{},
	}
}

// Acquire returns the machine for id, creating a fresh session (and id)
// when the id is empty or expired.
func (r *SessionRegistry) Acquire(id string) (*flow.Machine, string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if id != "" {
		if s, ok := r.sessions[id]; ok {
			s.lastSeen = now
			return s.machine, id
		}
	}

	id = uuid.NewString()
	m := r.newMachine()
	r.sessions[id] = &session{machine: m, lastSeen: now}
	return m, id
}

// Len reports the number of live sessions.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Run evicts idle sessions until ctx is cancelled.
func (r *SessionRegistry) Run(ctx context.Context) {
	ticker := time.NewTicker(r.ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.evictIdle()
		}
	}
}

func (r *SessionRegistry) evictIdle() {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.ttl)
	for id, s := range r.sessions {
		if s.lastSeen.Before(cutoff) {
			delete(r.sessions, id)
		}
	}
}
