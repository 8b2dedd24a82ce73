package progress

import (
	"context"
	"sync"
	"time"
)

// Progress is the hub between collectors and reporters.
//
// Events read from every subscribed collector are multiplexed onto one
// central channel and then fanned out to every reporter. Each reporter has
// its own buffered channel and worker goroutine. All goroutines stop when the
// context given via WithContext is cancelled.
//
//	col := collector.New()
//	prog, err := progress.New(
//	    progress.WithContext(ctx),
//	    progress.WithReporters(reporter.NewTextReporter(os.Stderr)),
//	    progress.WithCollectors(col),
//	)
type Progress struct {
	ctx                context.Context
	reporters          []Reporter
	reporterChannels   []chan Event
	collectors         []Collector
	collectorChan      chan Event
	collecterCancelMap map[int]context.CancelFunc
	subscribeMutex     sync.Mutex
}

// ProgressOption configures a Progress instance during creation.
type ProgressOption func(p *Progress)

// WithContext sets the context that bounds every background goroutine.
func WithContext(ctx context.Context) ProgressOption {
	return func(p *Progress) {
		p.ctx = ctx
	}
}

// WithReporters adds one or more reporters. Every reporter receives every
// event.
func WithReporters(reporters ...Reporter) ProgressOption {
	return func(p *Progress) {
		p.reporters = append(p.reporters, reporters...)
	}
}

// WithCollectors adds collectors that New subscribes to.
func WithCollectors(collectors ...Collector) ProgressOption {
	return func(p *Progress) {
		p.collectors = append(p.collectors, collectors...)
	}
}

// New creates a Progress hub and starts its goroutines. Without reporters a
// NoopReporter is installed.
func New(opts ...ProgressOption) (*Progress, error) {
	pg := &Progress{
		collectorChan:      make(chan Event, 100),
		collecterCancelMap: map[int]context.CancelFunc{},
		subscribeMutex:     sync.Mutex{},
	}
	for _, opt := range opts {
		opt(pg)
	}
	if pg.ctx == nil {
		pg.ctx = context.Background()
	}

	if len(pg.reporters) == 0 {
		pg.reporters = append(pg.reporters, &NoopReporter{})
	}

	for _, reporter := range pg.reporters {
		reporterChannel := make(chan Event, 100)
		pg.reporterChannels = append(pg.reporterChannels, reporterChannel)
		go pg.reporterWorker(reporter, reporterChannel)
	}

	go func() {
		for {
			select {
			case event := <-pg.collectorChan:
				for _, ch := range pg.reporterChannels {
					select {
					case ch <- event:
					case <-pg.ctx.Done():
						return
					}
				}
			case <-pg.ctx.Done():
				return
			}
		}
	}()

	for _, collector := range pg.collectors {
		pg.Subscribe(collector)
	}

	return pg, nil
}

// Unsubscribe stops receiving events from the specified collector. Events
// already in flight may still be delivered.
func (p *Progress) Unsubscribe(collector Collector) {
	p.subscribeMutex.Lock()
	subscribeCancel, ok := p.collecterCancelMap[collector.ID()]
	delete(p.collecterCancelMap, collector.ID())
	p.subscribeMutex.Unlock()
	if ok {
		subscribeCancel()
	}
}

// Subscribe starts forwarding events from the collector until Unsubscribe is
// called or the hub context ends.
func (p *Progress) Subscribe(collector Collector) {
	subscribeContext, subscribeCancel := context.WithCancel(p.ctx)
	p.subscribeMutex.Lock()
	p.collectors = appendUnique(p.collectors, collector)
	p.collecterCancelMap[collector.ID()] = subscribeCancel
	p.subscribeMutex.Unlock()

	go func() {
		for {
			select {
			case event := <-collector.CollectChannel():
				select {
				case p.collectorChan <- event:
				case <-subscribeContext.Done():
					return
				}
			case <-subscribeContext.Done():
				return
			}
		}
	}()
}

// Drain blocks until every buffered event has been handed to a reporter, or
// ctx ends. It does not wait for a Report call that is already running.
func (p *Progress) Drain(ctx context.Context) error {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		if p.pending() == 0 {
			return nil
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		case <-p.ctx.Done():
			return p.ctx.Err()
		}
	}
}

func (p *Progress) pending() int {
	n := len(p.collectorChan)
	for _, ch := range p.reporterChannels {
		n += len(ch)
	}
	p.subscribeMutex.Lock()
	for _, c := range p.collectors {
		if _, ok := p.collecterCancelMap[c.ID()]; ok {
			n += len(c.CollectChannel())
		}
	}
	p.subscribeMutex.Unlock()
	return n
}

func (p *Progress) reporterWorker(reporter Reporter, events chan Event) {
	for {
		select {
		case event := <-events:
			reporter.Report(event)
		case <-p.ctx.Done():
			return
		}
	}
}

func appendUnique(collectors []Collector, c Collector) []Collector {
	for _, existing := range collectors {
		if existing.ID() == c.ID() {
			return collectors
		}
	}
	return append(collectors, c)
}
