package workdone

import (
	"context"
	"sync"
	"time"
)

// Inbox is the FIFO of pending notifications for one session. Push never
// blocks the producer; Next waits for a notification for at most the given
// timeout so the consumer can keep checking for cancellation while the
// producer is idle.
//
// An Inbox has exactly one producer and one consumer.
type Inbox struct {
	mu    sync.Mutex
	items []Notification
	// ready holds at most one wake-up token. It is topped up by Push and
	// drained by Next.
	ready chan struct{}
}

func NewInbox() *Inbox {
	return &Inbox{
		ready: make(chan struct{}, 1),
	}
}

// Push appends n to the inbox.
func (i *Inbox) Push(n Notification) {
	i.mu.Lock()
	i.items = append(i.items, n)
	i.mu.Unlock()

	select {
	case i.ready <- struct{}{}:
	default:
		// a wake-up is already pending
	}
}

// Next removes and returns the oldest notification. If the inbox is empty it
// waits until one is pushed or timeout elapses, in which case it returns
// nil, nil. If ctx is done first it returns ErrInterrupted.
func (i *Inbox) Next(ctx context.Context, timeout time.Duration) (Notification, error) {
	if n, ok := i.pop(); ok {
		return n, nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case <-i.ready:
			if n, ok := i.pop(); ok {
				return n, nil
			}
			// stale wake-up for an item we already took, keep waiting
		case <-timer.C:
			return nil, nil
		case <-ctx.Done():
			return nil, ErrInterrupted
		}
	}
}

// Len returns the number of queued notifications.
func (i *Inbox) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.items)
}

func (i *Inbox) pop() (Notification, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if len(i.items) == 0 {
		return nil, false
	}
	n := i.items[0]
	i.items[0] = nil
	i.items = i.items[1:]
	return n, true
}
