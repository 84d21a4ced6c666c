package shell

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"events-portal/internal/events"
	"events-portal/internal/events/detail"
	"events-portal/internal/events/listing"
	"events-portal/internal/logger"
	"events-portal/internal/models"
)

// Gateway is everything the list and detail views fetch through.
type Gateway interface {
	listing.Gateway
	detail.Gateway
}

// Session is one browser's view state: a list and a detail synchronizer.
type Session struct {
	ID     string
	List   *listing.Synchronizer
	Detail *detail.Synchronizer

	lastSeen time.Time
}

func (s *Session) Close() {
	s.List.Close()
	s.Detail.Close()
}

type Factory func(id string) *Session

// NewSessionFactory wires a fresh pair of synchronizers per session. Saves
// and deletes on the detail view are forwarded to the session's list.
func NewSessionFactory(gw Gateway, reporter *events.Reporter, mode models.MatchMode, fanout int) Factory {
	return func(id string) *Session {
		list := listing.New(gw, reporter, mode)
		d := detail.New(gw, reporter, fanout)
		d.SetListener(list)
		return &Session{ID: id, List: list, Detail: d}
	}
}

// Registry owns the live sessions and expires idle ones.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	factory  Factory
	logger   *logger.Logger
	now      func() time.Time
}

func NewRegistry(ttl time.Duration, factory Factory, log *logger.Logger) *Registry {
	if log == nil {
		log = logger.Discard()
	}
	return &Registry{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		factory:  factory,
		logger:   log,
		now:      time.Now,
	}
}

// Get returns the session for id, starting a new one under a fresh id when
// id is empty or unknown.
func (r *Registry) Get(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if sess, ok := r.sessions[id]; ok && id != "" {
		sess.lastSeen = now
		return sess
	}

	sess := r.factory(uuid.NewString())
	sess.lastSeen = now
	r.sessions[sess.ID] = sess
	r.logger.Debug("SESSION", fmt.Sprintf("Started session %s", sess.ID))
	return sess
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep closes sessions idle for longer than the TTL and reports how many
// were removed.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	cutoff := r.now().Add(-r.ttl)
	var expired []*Session
	for id, sess := range r.sessions {
		if sess.lastSeen.Before(cutoff) {
			expired = append(expired, sess)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, sess := range expired {
		sess.Close()
	}
	if len(expired) > 0 {
		r.logger.Info("SESSION", fmt.Sprintf("Expired %d idle sessions", len(expired)))
	}
	return len(expired)
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// CloseAll ends every session.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, sess := range sessions {
		sess.Close()
	}
}
