package workdone

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInbox_FIFO(t *testing.T) {
	inbox := NewInbox()
	inbox.Push(Begin{Title: "a"})
	inbox.Push(Report{Message: "b"})
	inbox.Push(End{})
	assert.Equal(t, 3, inbox.Len())

	ctx := context.Background()
	for _, want := range []Notification{Begin{Title: "a"}, Report{Message: "b"}, End{}} {
		got, err := inbox.Next(ctx, 10*time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, 0, inbox.Len())
}

func TestInbox_TimeoutReturnsNil(t *testing.T) {
	inbox := NewInbox()

	start := time.Now()
	got, err := inbox.Next(context.Background(), 30*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestInbox_WakesOnPush(t *testing.T) {
	inbox := NewInbox()

	go func() {
		time.Sleep(20 * time.Millisecond)
		inbox.Push(End{})
	}()

	start := time.Now()
	got, err := inbox.Next(context.Background(), 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, End{}, got)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestInbox_Interrupted(t *testing.T) {
	inbox := NewInbox()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := inbox.Next(ctx, time.Second)
	assert.Nil(t, got)
	assert.True(t, errors.Is(err, ErrInterrupted))
}

func TestInbox_QueuedItemWinsOverCancelledContext(t *testing.T) {
	inbox := NewInbox()
	inbox.Push(End{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := inbox.Next(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, End{}, got)
}

func TestInbox_StaleWakeUpKeepsWaiting(t *testing.T) {
	inbox := NewInbox()
	inbox.Push(End{})
	inbox.Push(End{})
	ctx := context.Background()

	_, err := inbox.Next(ctx, time.Millisecond)
	require.NoError(t, err)
	_, err = inbox.Next(ctx, time.Millisecond)
	require.NoError(t, err)

	// the wake-up from the second push is still buffered
	got, err := inbox.Next(ctx, 20*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, got)
}
