package workdone

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
)

// DefaultPollInterval bounds how long a driver waits on its inbox before
// re-checking for cancellation.
const DefaultPollInterval = 200 * time.Millisecond

// Session holds the state of one unit of work.
type Session struct {
	token Token

	mu          sync.Mutex
	title       string
	cancellable bool
	begun       bool

	done      atomic.Bool
	cancelled atomic.Bool

	inbox *Inbox

	canceller  Canceller
	log        logr.Logger
	cancelOnce sync.Once
	driverOnce sync.Once
	removeOnce sync.Once
	started    atomic.Bool
}

func newSession(token Token, canceller Canceller, log logr.Logger) *Session {
	return &Session{
		token:     token,
		title:     token.String(),
		inbox:     NewInbox(),
		canceller: canceller,
		log:       log.WithValues("token", token.String()),
	}
}

func (s *Session) Token() Token {
	return s.token
}

// Title returns the title captured from the first Begin, or the token when no
// Begin has been seen.
func (s *Session) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.title
}

func (s *Session) Cancellable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancellable
}

func (s *Session) Done() bool {
	return s.done.Load()
}

func (s *Session) Cancelled() bool {
	return s.cancelled.Load()
}

// Cancel marks the session cancelled and asks the language server to abandon
// the work. Only the first call reaches the server; delivery failures are
// logged and dropped because the local state is already cancelled.
func (s *Session) Cancel(ctx context.Context) {
	s.cancelOnce.Do(func() {
		s.cancelled.Store(true)
		if err := s.canceller.CancelRemote(ctx, s.token); err != nil {
			s.log.V(3).Info("unable to deliver cancel to language server", "error", err.Error())
		}
	})
}

// NextNotification pops the next queued notification, waiting at most
// timeout. It returns nil, nil on timeout.
func (s *Session) NextNotification(ctx context.Context, timeout time.Duration) (Notification, error) {
	if timeout <= 0 {
		timeout = DefaultPollInterval
	}
	return s.inbox.Next(ctx, timeout)
}

// Pending returns the number of notifications waiting in the inbox.
func (s *Session) Pending() int {
	return s.inbox.Len()
}

// Started reports whether a driver was launched for the session.
func (s *Session) Started() bool {
	return s.started.Load()
}

func (s *Session) enqueue(n Notification) {
	s.inbox.Push(n)
}

// captureBegin records title and cancellability from the first Begin only.
func (s *Session) captureBegin(b Begin) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.begun {
		return
	}
	s.begun = true
	if b.Title != "" {
		s.title = b.Title
	}
	s.cancellable = b.Cancellable
}

// startDriver runs launch once for the lifetime of the session.
func (s *Session) startDriver(launch func()) {
	s.driverOnce.Do(func() {
		s.started.Store(true)
		launch()
	})
}

// removeWith runs remove once for the lifetime of the session.
func (s *Session) removeWith(remove func()) {
	s.removeOnce.Do(remove)
}
