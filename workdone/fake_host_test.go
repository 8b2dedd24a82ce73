package workdone

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

type fakeIndicator struct {
	title       string
	cancellable bool

	mu            sync.Mutex
	indeterminate bool
	fraction      float64
	texts         []string
	cancelled     bool
	finished      bool
	result        error
	userCancel    atomic.Bool
	updates       int
}

func (f *fakeIndicator) IsCanceled() bool { return f.userCancel.Load() }

func (f *fakeIndicator) SetIndeterminate(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indeterminate = v
	f.updates++
}

func (f *fakeIndicator) SetFraction(v float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fraction = v
	f.updates++
}

func (f *fakeIndicator) SetText(v string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, v)
}

func (f *fakeIndicator) SetCancelled() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = true
}

type indicatorState struct {
	indeterminate bool
	fraction      float64
	texts         []string
	cancelled     bool
	finished      bool
	result        error
}

func (f *fakeIndicator) state() indicatorState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return indicatorState{
		indeterminate: f.indeterminate,
		fraction:      f.fraction,
		texts:         append([]string{}, f.texts...),
		cancelled:     f.cancelled,
		finished:      f.finished,
		result:        f.result,
	}
}

// fakeHost runs every task on its own goroutine, like a background task
// scheduler, and records the indicators it built.
type fakeHost struct {
	ctx context.Context

	mu         sync.Mutex
	indicators []*fakeIndicator
	wg         sync.WaitGroup
}

func newFakeHost(ctx context.Context) *fakeHost {
	return &fakeHost{ctx: ctx}
}

func (h *fakeHost) Start(title string, cancellable bool, task TaskFunc) {
	ind := &fakeIndicator{title: title, cancellable: cancellable}
	h.mu.Lock()
	h.indicators = append(h.indicators, ind)
	h.mu.Unlock()

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		err := task(h.ctx, ind)
		ind.mu.Lock()
		ind.finished = true
		ind.result = err
		if errors.Is(err, ErrCancelled) {
			ind.cancelled = true
		}
		ind.mu.Unlock()
	}()
}

func (h *fakeHost) all() []*fakeIndicator {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*fakeIndicator{}, h.indicators...)
}

func (h *fakeHost) byTitle(title string) *fakeIndicator {
	for _, ind := range h.all() {
		if ind.title == title {
			return ind
		}
	}
	return nil
}

type recordingCanceller struct {
	mu     sync.Mutex
	tokens []Token
	err    error
}

func (c *recordingCanceller) CancelRemote(ctx context.Context, token Token) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = append(c.tokens, token)
	return c.err
}

func (c *recordingCanceller) calls(token Token) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.tokens {
		if t == token {
			n++
		}
	}
	return n
}
