package progress

import (
	"time"
)

// ProgressInterface defines the contract for managing collector subscriptions.
type ProgressInterface interface {
	// Subscribe starts receiving events from a collector.
	Subscribe(collector Collector)

	// Unsubscribe stops receiving events from a collector.
	Unsubscribe(collector Collector)
}

// Reporter is the interface for outputting progress events.
//
// Implementations must be safe for concurrent use. Report is called from the
// hub's reporter worker goroutines and should not block for long.
type Reporter interface {
	// Report outputs a progress event.
	Report(event Event)
}

// Collector gathers events from producers and exposes them on a channel the
// Progress hub subscribes to.
//
// Collectors embed Reporter: producers call Report and the collector forwards
// (or throttles) the event onto CollectChannel.
type Collector interface {
	Reporter

	// ID returns a unique identifier for this collector, used by Progress to
	// manage subscriptions.
	ID() int

	// CollectChannel returns the channel from which Progress reads events.
	CollectChannel() chan Event
}

// Event is a snapshot of one indicator at a point in time.
//
// ID is stable for the life of the indicator. Token is the work-done token
// the indicator is showing, when known.
type Event struct {
	// Timestamp is when the event occurred. Reporters fill it in when zero.
	Timestamp time.Time `json:"timestamp"`

	Stage Stage `json:"stage"`

	ID    string `json:"id"`
	Token string `json:"token,omitempty"`

	// Title is the indicator title, e.g. "gopls: Indexing".
	Title string `json:"title,omitempty"`

	// Message is the latest status text.
	Message string `json:"message,omitempty"`

	// Percent is the completion percentage (0-100). Meaningless while
	// Indeterminate is set.
	Percent float64 `json:"percent,omitempty"`

	Indeterminate bool `json:"indeterminate,omitempty"`
	Cancellable   bool `json:"cancellable,omitempty"`

	// Metadata contains additional information, such as the reason an
	// indicator was cancelled.
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Stage is the lifecycle phase of an indicator.
type Stage string

const (
	// StageStart is emitted once when an indicator is shown.
	StageStart Stage = "start"

	// StageUpdate is emitted whenever title, text or fraction changes.
	StageUpdate Stage = "update"

	// StageFinish is emitted when the task behind the indicator returns
	// normally.
	StageFinish Stage = "finish"

	// StageCancel is emitted when the indicator is marked cancelled.
	StageCancel Stage = "cancel"
)

// Terminal reports whether no further events follow this one for the same ID.
func (s Stage) Terminal() bool {
	return s == StageFinish || s == StageCancel
}
