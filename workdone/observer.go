package workdone

import "time"

// Outcome describes how a driven session ended.
type Outcome string

const (
	// OutcomeCompleted means an End notification finished the session.
	OutcomeCompleted Outcome = "completed"
	// OutcomeCancelled means the user or CancelAllSessions cancelled it.
	OutcomeCancelled Outcome = "cancelled"
	// OutcomeInterrupted means the host stopped the driver while it waited.
	OutcomeInterrupted Outcome = "interrupted"
	// OutcomeDisposed means the registry was disposed under it.
	OutcomeDisposed Outcome = "disposed"
)

// Observer is told when drivers start and stop. Implementations must be safe
// for concurrent use and must not block.
type Observer interface {
	SessionStarted(token Token, title string)
	SessionEnded(token Token, outcome Outcome, elapsed time.Duration)
}

type noopObserver struct{}

func (noopObserver) SessionStarted(Token, string)                {}
func (noopObserver) SessionEnded(Token, Outcome, time.Duration) {}

// Observers fans every call out to each member in order.
type Observers []Observer

func (o Observers) SessionStarted(token Token, title string) {
	for _, obs := range o {
		obs.SessionStarted(token, title)
	}
}

func (o Observers) SessionEnded(token Token, outcome Outcome, elapsed time.Duration) {
	for _, obs := range o {
		obs.SessionEnded(token, outcome, elapsed)
	}
}
