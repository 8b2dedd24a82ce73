package bridge

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/konveyor/progress-bridge/lsp/client"
	"github.com/konveyor/progress-bridge/lsp/fakeserver"
	"github.com/konveyor/progress-bridge/progress"
	"github.com/konveyor/progress-bridge/progress/reporter"
	"github.com/konveyor/progress-bridge/workdone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTimeout = 5 * time.Second

type recordingObserver struct {
	mu       sync.Mutex
	started  []string
	outcomes map[workdone.Token]workdone.Outcome
}

func (o *recordingObserver) SessionStarted(token workdone.Token, title string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started = append(o.started, title)
}

func (o *recordingObserver) SessionEnded(token workdone.Token, outcome workdone.Outcome, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.outcomes == nil {
		o.outcomes = map[workdone.Token]workdone.Outcome{}
	}
	o.outcomes[token] = outcome
}

func (o *recordingObserver) outcome(token workdone.Token) (workdone.Outcome, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	out, ok := o.outcomes[token]
	return out, ok
}

type fixture struct {
	ctx      context.Context
	server   *fakeserver.Server
	bridge   *Bridge
	events   *reporter.ChannelReporter
	observer *recordingObserver
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	t.Cleanup(cancel)

	f := &fixture{
		ctx:      ctx,
		server:   fakeserver.New(logr.Discard()),
		events:   reporter.NewChannelReporter(ctx, reporter.WithBufferSize(256)),
		observer: &recordingObserver{},
	}
	base := []Option{
		WithContext(ctx),
		WithServerConfig(client.Config{LspServerName: "fake"}),
		WithDialer(f.server),
		WithPollInterval(10 * time.Millisecond),
		WithThrottleInterval(time.Millisecond),
		WithReporters(f.events),
		WithObserver(f.observer),
	}
	b, err := New(append(base, opts...)...)
	require.NoError(t, err)
	f.bridge = b
	require.NoError(t, b.Start())
	require.NoError(t, f.server.WaitInitialized(ctx))
	t.Cleanup(func() {
		_ = b.Stop(context.Background())
	})
	return f
}

func (f *fixture) next(t *testing.T, stage progress.Stage) progress.Event {
	t.Helper()
	timeout := time.After(testTimeout)
	for {
		select {
		case ev, ok := <-f.events.Events():
			require.True(t, ok, "event channel closed")
			if ev.Stage == stage {
				return ev
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s event", stage)
			return progress.Event{}
		}
	}
}

func TestNew_RequiresServer(t *testing.T) {
	_, err := New(WithLogger(logr.Discard()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no language server configured")
}

func TestNew_JoinsOptionErrors(t *testing.T) {
	_, err := New(
		WithPollInterval(-time.Second),
		WithThrottleInterval(-time.Second),
		WithCollector(nil),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "poll interval")
	assert.Contains(t, err.Error(), "throttle interval")
	assert.Contains(t, err.Error(), "collector must not be nil")
}

func TestNew_InvalidServerConfig(t *testing.T) {
	_, err := New(WithServerConfig(client.Config{LspServerName: "nothing"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid server config")
}

func TestBridge_ProgressEndToEnd(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.server.Create(f.ctx, 3))
	require.NoError(t, f.server.Begin(f.ctx, 3, "Indexing", false, workdone.Percent(0), "starting"))
	start := f.next(t, progress.StageStart)
	assert.Equal(t, "fake: Indexing", start.Title)

	require.NoError(t, f.server.Report(f.ctx, 3, workdone.Percent(100), "all packages"))
	update := f.next(t, progress.StageUpdate)
	assert.Equal(t, start.ID, update.ID)

	require.NoError(t, f.server.End(f.ctx, 3))
	finish := f.next(t, progress.StageFinish)
	assert.Equal(t, "3", finish.Token)
	assert.Equal(t, 100.0, finish.Percent)

	require.Eventually(t, func() bool {
		out, ok := f.observer.outcome("3")
		return ok && out == workdone.OutcomeCompleted
	}, testTimeout, 5*time.Millisecond)
	assert.Equal(t, 0, f.bridge.Registry().Len())
	assert.Empty(t, f.server.Cancels())
}

func TestBridge_CancelAllForwardsToServer(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.server.Begin(f.ctx, "scan", "Scanning", true, nil, ""))
	f.next(t, progress.StageStart)
	require.NoError(t, f.server.Begin(f.ctx, "fixed", "Not cancellable", false, nil, ""))
	f.next(t, progress.StageStart)

	assert.Equal(t, 1, f.bridge.CancelAll())

	require.Eventually(t, func() bool { return len(f.server.Cancels()) == 1 }, testTimeout, 5*time.Millisecond)
	assert.Equal(t, "scan", f.server.Cancels()[0].Value)
	cancelled := f.next(t, progress.StageCancel)
	assert.Equal(t, "fake: Scanning", cancelled.Title)

	_, live := f.bridge.Registry().Session("fixed")
	assert.True(t, live)
}

func TestBridge_StopDisposesAndShutsDown(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.server.Begin(f.ctx, 9, "Long job", true, nil, ""))
	f.next(t, progress.StageStart)

	require.NoError(t, f.bridge.Stop(f.ctx))
	assert.True(t, f.bridge.Registry().Disposed())
	assert.Equal(t, 0, f.bridge.Registry().Len())
	assert.Equal(t, 0, f.bridge.Host().Len())
	assert.True(t, f.server.ShutdownReceived())

	select {
	case <-f.bridge.Done():
	case <-time.After(testTimeout):
		t.Fatal("connection did not close")
	}

	// notifications after Stop are ignored and Stop is idempotent
	f.bridge.Registry().CreateSession("late")
	assert.Equal(t, 0, f.bridge.Registry().Len())
	assert.NoError(t, f.bridge.Stop(f.ctx))
}

func TestBridge_SettingsFileAndOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
namespace: from-file
pollInterval: 20ms
server:
  lspServerName: gopls
  lspServerPath: /usr/bin/gopls
`), 0644))

	server := fakeserver.New(logr.Discard())
	b, err := New(WithSettingsFile(path), WithDialer(server))
	require.NoError(t, err)
	assert.Equal(t, "gopls", b.Client().Name())
	require.NoError(t, b.Stop(context.Background()))

	t.Run("file namespace", func(t *testing.T) {
		f := newFixture(t, WithSettingsFile(path))
		require.NoError(t, f.server.Begin(f.ctx, 1, "Load", false, nil, ""))
		assert.Equal(t, "from-file: Load", f.next(t, progress.StageStart).Title)
	})

	t.Run("option overrides file", func(t *testing.T) {
		f := newFixture(t, WithSettingsFile(path), WithNamespace("cli"))
		require.NoError(t, f.server.Begin(f.ctx, 1, "Load", false, nil, ""))
		assert.Equal(t, "cli: Load", f.next(t, progress.StageStart).Title)
	})

	t.Run("empty namespace drops prefix", func(t *testing.T) {
		f := newFixture(t, WithNamespace(""))
		require.NoError(t, f.server.Begin(f.ctx, 1, "Load", false, nil, ""))
		assert.Equal(t, "Load", f.next(t, progress.StageStart).Title)
	})
}

func TestBridge_WorkspaceFoldersOverride(t *testing.T) {
	dir := t.TempDir()
	f := newFixture(t, WithWorkspaceFolders(dir))

	params := f.server.InitializeParams()
	require.NotNil(t, params)
	assert.Equal(t, "file://"+dir, params.RootURI)
}
