package session

import (
	"context"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/vizgrid/pkg/comm"
)

// Registry tracks live sessions by id.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	bus      comm.Bus
	opts     []Option
	logger   *log.Logger
}

// NewRegistry creates a registry whose sessions publish on bus and log to
// logger (nil discards). The options apply to every session it creates.
func NewRegistry(bus comm.Bus, logger *log.Logger, opts ...Option) *Registry {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Registry{
		sessions: make(map[string]*Session),
		bus:      bus,
		opts:     append([]Option{WithLogger(logger)}, opts...),
		logger:   logger,
	}
}

// Create starts a new session.
func (r *Registry) Create(ctx context.Context) (*Session, error) {
	s, err := New(ctx, r.bus, r.opts...)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.sessions[s.ID()] = s
	r.mu.Unlock()
	r.logger.Info("session created", "session", s.ID())
	return s, nil
}

// Get returns a live session. Expired sessions are closed, removed and
// reported as ErrNotFound.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if s.IsExpired(time.Now()) {
		r.remove(id)
		return nil, ErrNotFound
	}
	return s, nil
}

// Delete closes and removes a session.
func (r *Registry) Delete(id string) error {
	if !r.remove(id) {
		return ErrNotFound
	}
	return nil
}

func (r *Registry) remove(id string) bool {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if ok {
		s.Close()
		r.logger.Debug("session removed", "session", id)
	}
	return ok
}

// IDs returns the ids of all tracked sessions, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Len returns the number of tracked sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Cleanup removes every session that expired before now and returns how many
// were removed.
func (r *Registry) Cleanup(now time.Time) int {
	r.mu.RLock()
	var expired []string
	for id, s := range r.sessions {
		if s.IsExpired(now) {
			expired = append(expired, id)
		}
	}
	r.mu.RUnlock()

	n := 0
	for _, id := range expired {
		if r.remove(id) {
			n++
		}
	}
	if n > 0 {
		r.logger.Info("expired sessions removed", "count", n)
	}
	return n
}

// Run calls Cleanup every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			r.Cleanup(now)
		}
	}
}

// Close closes every session.
func (r *Registry) Close() error {
	for _, id := range r.IDs() {
		r.remove(id)
	}
	return nil
}
