package workdone

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
)

// Registry maps tokens to their live Sessions. It is safe for concurrent use:
// the transport goroutine creates and feeds sessions while drivers remove
// them.
type Registry struct {
	host         Host
	canceller    Canceller
	log          logr.Logger
	namespace    string
	pollInterval time.Duration
	observer     Observer

	mu       sync.Mutex
	sessions map[Token]*Session
	disposed atomic.Bool
}

// Option configures a Registry.
type Option func(r *Registry)

// WithCanceller sets where cancel requests for sessions are sent.
func WithCanceller(c Canceller) Option {
	return func(r *Registry) {
		r.canceller = c
	}
}

func WithLogger(log logr.Logger) Option {
	return func(r *Registry) {
		r.log = log
	}
}

// WithNamespace prefixes every indicator title with "<namespace>: ".
func WithNamespace(namespace string) Option {
	return func(r *Registry) {
		r.namespace = namespace
	}
}

// WithPollInterval bounds each driver's inbox wait, and so the worst-case
// latency of noticing a cancellation.
func WithPollInterval(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.pollInterval = d
		}
	}
}

func WithObserver(o Observer) Option {
	return func(r *Registry) {
		if o != nil {
			r.observer = o
		}
	}
}

// NewRegistry creates a Registry whose drivers run on host.
func NewRegistry(host Host, opts ...Option) *Registry {
	r := &Registry{
		host:         host,
		canceller:    noopCanceller{},
		log:          logr.Discard(),
		pollInterval: DefaultPollInterval,
		observer:     noopObserver{},
		sessions:     map[Token]*Session{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CreateSession registers a session for token unless one already exists. It
// does not start a driver and never blocks on anything but the map lock.
func (r *Registry) CreateSession(token any) {
	if r.disposed.Load() {
		return
	}
	t, ok := NormalizeToken(token)
	if !ok {
		r.log.V(5).Info("ignoring create for malformed token", "token", token)
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.disposed.Load() {
		return
	}
	if _, ok := r.sessions[t]; !ok {
		r.sessions[t] = newSession(t, r.canceller, r.log)
	}
}

// NotifyProgress routes a notification to the session for token.
//
// Notifications for unknown tokens are dropped unless they are a Begin, in
// which case the session is created on the fly. A Begin starts the session's
// driver before NotifyProgress returns, so every later notification for the
// token has a consumer. An End marks the session done.
func (r *Registry) NotifyProgress(token any, n Notification) {
	if r.disposed.Load() {
		return
	}
	t, ok := NormalizeToken(token)
	if !ok || n == nil {
		r.log.V(5).Info("ignoring malformed progress notification", "token", token)
		return
	}

	begin, isBegin := n.(Begin)

	r.mu.Lock()
	if r.disposed.Load() {
		// Dispose won the race for the lock
		r.mu.Unlock()
		return
	}
	s, found := r.sessions[t]
	if !found {
		if !isBegin {
			r.mu.Unlock()
			r.log.V(5).Info("dropping progress for unknown token", "token", t.String(), "kind", kind(n))
			return
		}
		s = newSession(t, r.canceller, r.log)
		r.sessions[t] = s
	}
	r.mu.Unlock()

	if !found {
		r.log.V(5).Info("created session without create handshake", "token", t.String())
	}

	s.enqueue(n)

	switch n.(type) {
	case Begin:
		s.captureBegin(begin)
		s.startDriver(func() {
			r.launch(s)
		})
	case End:
		s.done.Store(true)
		if !s.Started() {
			// nothing will ever drain this session
			r.remove(s)
		}
	}
}

// CancelAllSessions cancels every live session. Drivers notice within one
// poll interval and tear their sessions down; sessions that never got a
// Begin are removed immediately.
func (r *Registry) CancelAllSessions(ctx context.Context) {
	for _, s := range r.snapshot() {
		s.Cancel(ctx)
		if !s.Started() {
			// no driver will ever come along to remove it
			r.remove(s)
		}
	}
}

// Dispose cancels every session, empties the registry and turns every later
// CreateSession and NotifyProgress into a no-op. Only the first call has an
// effect.
func (r *Registry) Dispose(ctx context.Context) {
	if !r.disposed.CompareAndSwap(false, true) {
		return
	}
	r.log.V(3).Info("disposing progress registry", "sessions", r.Len())
	r.CancelAllSessions(ctx)

	r.mu.Lock()
	r.sessions = map[Token]*Session{}
	r.mu.Unlock()
}

func (r *Registry) Disposed() bool {
	return r.disposed.Load()
}

// Session returns the live session for token, if any.
func (r *Registry) Session(token any) (*Session, bool) {
	t, ok := NormalizeToken(token)
	if !ok {
		return nil, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[t]
	return s, ok
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Tokens returns the tokens of the live sessions, sorted.
func (r *Registry) Tokens() []Token {
	r.mu.Lock()
	tokens := make([]Token, 0, len(r.sessions))
	for t := range r.sessions {
		tokens = append(tokens, t)
	}
	r.mu.Unlock()
	sort.Slice(tokens, func(i, j int) bool { return tokens[i] < tokens[j] })
	return tokens
}

func (r *Registry) snapshot() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	return sessions
}

// remove deletes s from the registry exactly once. A newer session that
// reuses the token is left alone.
func (r *Registry) remove(s *Session) {
	s.removeWith(func() {
		r.mu.Lock()
		if cur, ok := r.sessions[s.token]; ok && cur == s {
			delete(r.sessions, s.token)
		}
		r.mu.Unlock()
	})
}

func (r *Registry) indicatorTitle(s *Session) string {
	if r.namespace == "" {
		return s.Title()
	}
	return r.namespace + ": " + s.Title()
}
