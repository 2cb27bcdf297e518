package email

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"motoclub/internal/logging"
)

// ErrUnavailable is returned while the breaker is open and sends are rejected.
var ErrUnavailable = errors.New("email provider temporarily unavailable")

// BreakerConfig tunes the circuit breaker around a Sender.
type BreakerConfig struct {
	FailureThreshold uint32        // consecutive failures before opening
	Timeout          time.Duration // open duration before a half-open probe
}

// DefaultBreakerConfig returns the settings used by the server.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{FailureThreshold: 3, Timeout: 60 * time.Second}
}

// BreakerSender stops calling a failing provider for a cool-down period.
type BreakerSender struct {
	next Sender
	cb   *gobreaker.CircuitBreaker[SendResult]
}

// NewBreakerSender wraps next with a circuit breaker.
// POST: after FailureThreshold consecutive failures Send returns ErrUnavailable until Timeout elapses
func NewBreakerSender(next Sender, cfg BreakerConfig) *BreakerSender {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = DefaultBreakerConfig().FailureThreshold
	}
	settings := gobreaker.Settings{
		Name:        "email",
		MaxRequests: 1,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("breaker_state_change")
		},
	}
	return &BreakerSender{next: next, cb: gobreaker.NewCircuitBreaker[SendResult](settings)}
}

// Send delegates to the wrapped sender unless the breaker is open.
func (b *BreakerSender) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	res, err := b.cb.Execute(func() (SendResult, error) {
		return b.next.Send(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return SendResult{}, ErrUnavailable
	}
	return res, err
}
