package progress

import (
	"context"
	"sync"
	"testing"
	"time"
)

// mockCollector implements the Collector interface for testing
type mockCollector struct {
	id int
	ch chan Event
}

func newMockCollector(id int) *mockCollector {
	return &mockCollector{
		id: id,
		ch: make(chan Event, 100),
	}
}

func (m *mockCollector) ID() int {
	return m.id
}

func (m *mockCollector) CollectChannel() chan Event {
	return m.ch
}

func (m *mockCollector) Report(event Event) {
	select {
	case m.ch <- event:
	default:
	}
}

// mockReporter implements the Reporter interface for testing
type mockReporter struct {
	events []Event
	mu     sync.Mutex
}

func (m *mockReporter) Report(event Event) {
	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()
}

func (m *mockReporter) GetEvents() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event{}, m.events...)
}

func (m *mockReporter) EventCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

func waitForCount(t *testing.T, r *mockReporter, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if r.EventCount() >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Expected %d events, got %d", want, r.EventCount())
}

func TestNew_DefaultNoopReporter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	prog, err := New(WithContext(ctx))
	if err != nil {
		t.Fatalf("Failed to create Progress: %v", err)
	}
	if len(prog.reporters) != 1 {
		t.Errorf("Expected 1 default reporter, got %d", len(prog.reporters))
	}
	if _, ok := prog.reporters[0].(*NoopReporter); !ok {
		t.Errorf("Expected NoopReporter, got %T", prog.reporters[0])
	}
}

func TestProgress_EventFlowPreservesOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	collector := newMockCollector(1)
	reporter := &mockReporter{}

	_, err := New(
		WithContext(ctx),
		WithCollectors(collector),
		WithReporters(reporter),
	)
	if err != nil {
		t.Fatalf("Failed to create Progress: %v", err)
	}

	events := []Event{
		{Stage: StageStart, ID: "a", Title: "gopls: Indexing", Indeterminate: true},
		{Stage: StageUpdate, ID: "a", Percent: 10},
		{Stage: StageUpdate, ID: "a", Percent: 50, Message: "half"},
		{Stage: StageFinish, ID: "a", Percent: 50},
	}
	for _, event := range events {
		collector.Report(event)
	}

	waitForCount(t, reporter, len(events))
	got := reporter.GetEvents()
	for i, expected := range events {
		if got[i].Stage != expected.Stage || got[i].Percent != expected.Percent {
			t.Errorf("Event %d: expected %s/%v, got %s/%v", i, expected.Stage, expected.Percent, got[i].Stage, got[i].Percent)
		}
	}
}

func TestProgress_MultipleReportersAndCollectors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	collector1 := newMockCollector(1)
	collector2 := newMockCollector(2)
	reporter1 := &mockReporter{}
	reporter2 := &mockReporter{}

	_, err := New(
		WithContext(ctx),
		WithCollectors(collector1, collector2),
		WithReporters(reporter1, reporter2),
	)
	if err != nil {
		t.Fatalf("Failed to create Progress: %v", err)
	}

	collector1.Report(Event{Stage: StageStart, ID: "one"})
	collector2.Report(Event{Stage: StageStart, ID: "two"})

	waitForCount(t, reporter1, 2)
	waitForCount(t, reporter2, 2)
}

func TestProgress_SubscribeAndUnsubscribe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reporter := &mockReporter{}
	prog, err := New(
		WithContext(ctx),
		WithReporters(reporter),
	)
	if err != nil {
		t.Fatalf("Failed to create Progress: %v", err)
	}

	collector := newMockCollector(1)
	prog.Subscribe(collector)

	collector.Report(Event{Stage: StageStart, Message: "Before unsubscribe"})
	waitForCount(t, reporter, 1)

	prog.Unsubscribe(collector)
	time.Sleep(50 * time.Millisecond)

	collector.Report(Event{Stage: StageFinish, Message: "After unsubscribe"})
	time.Sleep(50 * time.Millisecond)

	events := reporter.GetEvents()
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}
	if events[0].Message != "Before unsubscribe" {
		t.Errorf("Expected first event message, got: %s", events[0].Message)
	}

	// unsubscribing twice is harmless
	prog.Unsubscribe(collector)
}

func TestProgress_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	collector := newMockCollector(1)
	reporter := &mockReporter{}

	_, err := New(
		WithContext(ctx),
		WithCollectors(collector),
		WithReporters(reporter),
	)
	if err != nil {
		t.Fatalf("Failed to create Progress: %v", err)
	}

	collector.Report(Event{Stage: StageStart})
	waitForCount(t, reporter, 1)

	cancel()
	time.Sleep(50 * time.Millisecond)

	collector.Report(Event{Stage: StageFinish})
	time.Sleep(50 * time.Millisecond)

	if n := reporter.EventCount(); n > 1 {
		t.Errorf("Expected at most 1 event after context cancellation, got %d", n)
	}
}

func TestProgress_ConcurrentReporting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	collector := newMockCollector(1)
	reporter := &mockReporter{}

	prog, err := New(
		WithContext(ctx),
		WithCollectors(collector),
		WithReporters(reporter),
	)
	if err != nil {
		t.Fatalf("Failed to create Progress: %v", err)
	}

	var wg sync.WaitGroup
	goroutines := 5
	eventsPerGoroutine := 10
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < eventsPerGoroutine; j++ {
				collector.Report(Event{Stage: StageUpdate, Percent: float64(j)})
			}
		}()
	}
	wg.Wait()

	drainCtx, drainCancel := context.WithTimeout(ctx, 2*time.Second)
	defer drainCancel()
	if err := prog.Drain(drainCtx); err != nil {
		t.Fatalf("Drain failed: %v", err)
	}
	waitForCount(t, reporter, goroutines*eventsPerGoroutine)
}

func TestStage_Terminal(t *testing.T) {
	for stage, want := range map[Stage]bool{
		StageStart:  false,
		StageUpdate: false,
		StageFinish: true,
		StageCancel: true,
	} {
		if got := stage.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", stage, got, want)
		}
	}
}

func BenchmarkProgress_SingleCollectorSingleReporter(b *testing.B) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	collector := newMockCollector(1)
	reporter := &mockReporter{}

	_, err := New(
		WithContext(ctx),
		WithCollectors(collector),
		WithReporters(reporter),
	)
	if err != nil {
		b.Fatalf("Failed to create Progress: %v", err)
	}

	event := Event{Stage: StageUpdate, ID: "bench", Percent: 10}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		collector.Report(event)
	}
}
