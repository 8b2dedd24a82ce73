// Package indicator is a headless progress-indicator facility. Every task
// gets an Indicator whose state changes are published as progress events,
// so any progress.Reporter can render them.
package indicator

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/go-logr/logr"
	"github.com/konveyor/progress-bridge/progress"
	"github.com/konveyor/progress-bridge/workdone"
)

// Host runs background tasks, each behind its own Indicator.
type Host struct {
	ctx       context.Context
	log       logr.Logger
	collector progress.Reporter

	wg   sync.WaitGroup
	mu   sync.Mutex
	live map[string]*Indicator
}

var _ workdone.Host = &Host{}

// NewHost creates a host whose tasks run under ctx and publish to collector.
// A nil collector discards events.
func NewHost(ctx context.Context, log logr.Logger, collector progress.Reporter) *Host {
	if collector == nil {
		collector = progress.NewNoopReporter()
	}
	return &Host{
		ctx:       ctx,
		log:       log.WithName("indicator"),
		collector: collector,
		live:      map[string]*Indicator{},
	}
}

// Start shows a new indicator and runs task on its own goroutine. A task
// returning workdone.ErrCancelled ends the indicator as cancelled; any other
// error is logged and also ends it as cancelled.
func (h *Host) Start(title string, cancellable bool, task workdone.TaskFunc) {
	ind := newIndicator(h.collector, title, cancellable)

	h.mu.Lock()
	h.live[ind.id] = ind
	h.mu.Unlock()
	h.wg.Add(1)

	ind.emitStart()

	go func() {
		defer h.wg.Done()
		defer func() {
			h.mu.Lock()
			delete(h.live, ind.id)
			h.mu.Unlock()
		}()

		err := task(h.ctx, ind)
		switch {
		case err == nil:
			ind.finish()
		case errors.Is(err, workdone.ErrCancelled):
			ind.SetCancelled()
		default:
			h.log.Error(err, "progress task failed", "title", title, "id", ind.id)
			ind.cancelWith(map[string]interface{}{"error": err.Error()})
		}
	}()
}

// CancelAll presses cancel on every live cancellable indicator, as a user
// would.
func (h *Host) CancelAll() int {
	n := 0
	for _, ind := range h.snapshot() {
		if ind.Cancel() {
			n++
		}
	}
	h.log.V(3).Info("cancel requested on live indicators", "count", n)
	return n
}

// Wait blocks until every task started so far has returned, or ctx ends.
func (h *Host) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Indicators returns the state of every live indicator ordered by title.
func (h *Host) Indicators() []State {
	live := h.snapshot()
	states := make([]State, 0, len(live))
	for _, ind := range live {
		states = append(states, ind.State())
	}
	sort.Slice(states, func(i, j int) bool {
		if states[i].Title == states[j].Title {
			return states[i].ID < states[j].ID
		}
		return states[i].Title < states[j].Title
	})
	return states
}

// Len returns the number of live indicators.
func (h *Host) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.live)
}

func (h *Host) snapshot() []*Indicator {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*Indicator, 0, len(h.live))
	for _, ind := range h.live {
		out = append(out, ind)
	}
	return out
}
