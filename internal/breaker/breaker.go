// Package breaker builds the circuit breakers guarding remote APIs.
package breaker

import (
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/justestif/moodtunes/internal/logging"
	"github.com/justestif/moodtunes/internal/metrics"
)

const (
	// ConsecutiveFailures trips an open breaker.
	ConsecutiveFailures = 5
	// OpenTimeout is how long a breaker stays open before probing.
	OpenTimeout = 30 * time.Second
)

// Settings returns the shared breaker settings for name. The breaker
// state is exported as a gauge and state changes are logged.
func Settings(name string) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			open := 0.0
			if to == gobreaker.StateOpen {
				open = 1
			}
			metrics.BreakerState.WithLabelValues(name).Set(open)
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	}
}

// New returns a breaker with Settings(name).
func New[T any](name string) *gobreaker.CircuitBreaker[T] {
	return gobreaker.NewCircuitBreaker[T](Settings(name))
}
