package indicator

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/konveyor/progress-bridge/progress"
	"github.com/konveyor/progress-bridge/workdone"
)

// State is a point-in-time copy of an indicator.
type State struct {
	ID            string
	Token         string
	Title         string
	Text          string
	Fraction      float64
	Indeterminate bool
	Cancellable   bool
	CancelPressed bool
	Cancelled     bool
	Finished      bool
}

// Indicator is a single progress indicator. It implements workdone.Indicator
// and workdone.TokenSetter. Once finished or cancelled it ignores further
// updates.
type Indicator struct {
	id        string
	collector progress.Reporter

	userCancel atomic.Bool

	mu            sync.Mutex
	token         string
	title         string
	text          string
	fraction      float64
	indeterminate bool
	cancellable   bool
	cancelled     bool
	finished      bool
}

var (
	_ workdone.Indicator   = &Indicator{}
	_ workdone.TokenSetter = &Indicator{}
)

func newIndicator(collector progress.Reporter, title string, cancellable bool) *Indicator {
	return &Indicator{
		id:            uuid.NewString(),
		collector:     collector,
		title:         title,
		cancellable:   cancellable,
		indeterminate: true,
	}
}

func (i *Indicator) ID() string {
	return i.id
}

// Cancel records a user cancel request. It reports false, and does nothing,
// for indicators that are not cancellable or already ended.
func (i *Indicator) Cancel() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.cancellable || i.ended() {
		return false
	}
	i.userCancel.Store(true)
	return true
}

func (i *Indicator) IsCanceled() bool {
	return i.userCancel.Load()
}

func (i *Indicator) SetToken(token workdone.Token) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.token = token.String()
}

func (i *Indicator) SetIndeterminate(indeterminate bool) {
	i.update(func() bool {
		if i.indeterminate == indeterminate {
			return false
		}
		i.indeterminate = indeterminate
		return true
	})
}

func (i *Indicator) SetFraction(fraction float64) {
	switch {
	case fraction < 0:
		fraction = 0
	case fraction > 1:
		fraction = 1
	}
	i.update(func() bool {
		if i.fraction == fraction {
			return false
		}
		i.fraction = fraction
		return true
	})
}

func (i *Indicator) SetText(text string) {
	i.update(func() bool {
		if i.text == text {
			return false
		}
		i.text = text
		return true
	})
}

func (i *Indicator) SetCancelled() {
	i.cancelWith(nil)
}

func (i *Indicator) State() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return State{
		ID:            i.id,
		Token:         i.token,
		Title:         i.title,
		Text:          i.text,
		Fraction:      i.fraction,
		Indeterminate: i.indeterminate,
		Cancellable:   i.cancellable,
		CancelPressed: i.userCancel.Load(),
		Cancelled:     i.cancelled,
		Finished:      i.finished,
	}
}

func (i *Indicator) cancelWith(metadata map[string]interface{}) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.ended() {
		return
	}
	i.cancelled = true
	i.emit(progress.StageCancel, metadata)
}

func (i *Indicator) finish() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.ended() {
		return
	}
	i.finished = true
	i.emit(progress.StageFinish, nil)
}

func (i *Indicator) emitStart() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.emit(progress.StageStart, nil)
}

// update applies change and publishes an update event when it reports a
// difference.
func (i *Indicator) update(change func() bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.ended() || !change() {
		return
	}
	i.emit(progress.StageUpdate, nil)
}

func (i *Indicator) ended() bool {
	return i.cancelled || i.finished
}

// emit must be called with mu held so events leave in state order.
func (i *Indicator) emit(stage progress.Stage, metadata map[string]interface{}) {
	i.collector.Report(progress.Event{
		Timestamp:     time.Now(),
		Stage:         stage,
		ID:            i.id,
		Token:         i.token,
		Title:         i.title,
		Message:       i.text,
		Percent:       i.fraction * 100,
		Indeterminate: i.indeterminate,
		Cancellable:   i.cancellable,
		Metadata:      metadata,
	})
}
