package mails

import (
	"context"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
)

// BreakerMailer stops calling the wrapped sender after consecutive failures
// and lets a trial request through once timeout has elapsed.
type BreakerMailer struct {
	next Sender
	cb   *gobreaker.CircuitBreaker[any]
}

func NewBreakerMailer(next Sender, failures uint32, timeout time.Duration, log *slog.Logger) *BreakerMailer {
	if failures == 0 {
		failures = 5
	}
	settings := gobreaker.Settings{
		Name:    "mailer",
		Timeout: timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	}
	return &BreakerMailer{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[any](settings),
	}
}

func (m *BreakerMailer) Send(ctx context.Context, msg Message, recipient string) error {
	_, err := m.cb.Execute(func() (any, error) {
		return nil, m.next.Send(ctx, msg, recipient)
	})
	return err
}

func (m *BreakerMailer) State() gobreaker.State {
	return m.cb.State()
}
