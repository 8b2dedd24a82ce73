package workdone

import (
	"context"
	"errors"
)

var (
	// ErrCancelled is returned by a driver task when its session ended by
	// cancellation. Hosts treat it as "operation was cancelled", not as a
	// failure.
	ErrCancelled = errors.New("work done progress cancelled")

	// ErrInterrupted is returned by Inbox.Next when the waiting context is
	// done before a notification or the poll timeout.
	ErrInterrupted = errors.New("wait for progress notification interrupted")
)

// TaskFunc is the body of a background task run by a Host. Returning nil runs
// the indicator to completion; returning ErrCancelled reports it cancelled.
type TaskFunc func(ctx context.Context, ind Indicator) error

// Host is the progress-indicator facility the bridge draws on.
type Host interface {
	// Start constructs an indicator with the given title and runs task in
	// the background. It must not block.
	Start(title string, cancellable bool, task TaskFunc)
}

// Indicator is a single live progress indicator owned by a Host.
type Indicator interface {
	// IsCanceled reports whether the user asked to cancel the indicator.
	IsCanceled() bool
	SetIndeterminate(indeterminate bool)
	// SetFraction sets the completed fraction in [0, 1].
	SetFraction(fraction float64)
	SetText(text string)
	// SetCancelled marks the indicator as ended by cancellation.
	SetCancelled()
}

// TokenSetter is implemented by indicators that want to know which token
// they are showing. The driver calls SetToken before any other update.
type TokenSetter interface {
	SetToken(token Token)
}

// Canceller sends the cancel request for a token back to the language server.
type Canceller interface {
	CancelRemote(ctx context.Context, token Token) error
}

// CancellerFunc adapts a function to the Canceller interface.
type CancellerFunc func(ctx context.Context, token Token) error

func (f CancellerFunc) CancelRemote(ctx context.Context, token Token) error {
	return f(ctx, token)
}

type noopCanceller struct{}

func (noopCanceller) CancelRemote(context.Context, Token) error { return nil }
