package workdone

import (
	"context"
	"time"

	"github.com/konveyor/progress-bridge/tracing"
	"go.opentelemetry.io/otel/attribute"
)

// launch hands the session's driver to the host. It runs on the transport
// goroutine, inside the Begin branch of NotifyProgress.
func (r *Registry) launch(s *Session) {
	title := r.indicatorTitle(s)
	r.log.V(5).Info("starting progress driver", "token", s.token.String(), "title", title)
	r.host.Start(title, s.Cancellable(), func(ctx context.Context, ind Indicator) error {
		return r.drive(ctx, s, ind)
	})
}

// drive mirrors s onto ind until the session reaches a terminal state. The
// session is always removed from the registry on the way out.
func (r *Registry) drive(ctx context.Context, s *Session, ind Indicator) error {
	ctx, span := tracing.StartNewSpan(ctx, "workdone.session",
		attribute.String("token", s.token.String()),
		attribute.String("title", s.Title()),
		attribute.Bool("cancellable", s.Cancellable()),
	)
	if ts, ok := ind.(TokenSetter); ok {
		ts.SetToken(s.token)
	}
	started := time.Now()
	outcome := OutcomeCompleted
	r.observer.SessionStarted(s.token, s.Title())

	defer func() {
		if outcome != OutcomeCompleted {
			ind.SetCancelled()
		}
		r.remove(s)
		elapsed := time.Since(started)
		span.SetAttributes(attribute.String("outcome", string(outcome)))
		span.End()
		r.observer.SessionEnded(s.token, outcome, elapsed)
		r.log.V(5).Info("progress driver finished", "token", s.token.String(), "outcome", outcome, "elapsed", elapsed)
	}()

	for {
		switch {
		case r.disposed.Load():
			outcome = OutcomeDisposed
			return ErrCancelled
		case s.Cancelled():
			outcome = OutcomeCancelled
			return ErrCancelled
		case s.Done() && s.Pending() == 0:
			// queued Begin/Report must reach the indicator before End does
			return nil
		}

		if ind.IsCanceled() {
			r.log.V(3).Info("progress cancelled by user", "token", s.token.String())
			s.Cancel(ctx)
			outcome = OutcomeCancelled
			return ErrCancelled
		}

		n, err := s.NextNotification(ctx, r.pollInterval)
		if err != nil {
			outcome = OutcomeInterrupted
			return ErrCancelled
		}
		if n == nil {
			continue
		}
		span.AddEvent(kind(n))

		switch v := n.(type) {
		case Begin:
			applyUpdate(ind, v.Percentage, v.Message, true)
		case Report:
			applyUpdate(ind, v.Percentage, v.Message, false)
		case End:
			return nil
		}
	}
}
