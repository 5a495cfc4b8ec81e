package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/jonathan/content-curator/internal/logging"
	"github.com/jonathan/content-curator/internal/metrics"
)

// BreakerSettings configures BreakerClient.
type BreakerSettings struct {
	Name                string
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
	HalfOpenRequests    uint32
}

// BreakerClient wraps a Client with a circuit breaker so a dead provider
// fails fast instead of costing a full request timeout per call.
type BreakerClient struct {
	inner Client
	cb    *gobreaker.CircuitBreaker[any]
	name  string
}

// NewBreakerClient wraps inner with a circuit breaker.
func NewBreakerClient(inner Client, s BreakerSettings) *BreakerClient {
	if s.Name == "" {
		s.Name = "llm"
	}
	if s.ConsecutiveFailures == 0 {
		s.ConsecutiveFailures = 5
	}
	if s.HalfOpenRequests == 0 {
		s.HalfOpenRequests = 1
	}
	if s.OpenTimeout <= 0 {
		s.OpenTimeout = 30 * time.Second
	}

	metrics.SetBreakerState(s.Name, stateToFloat(gobreaker.StateClosed))

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.HalfOpenRequests,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.ConsecutiveFailures
		},
		// Caller cancellation says nothing about provider health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
			metrics.SetBreakerState(name, stateToFloat(to))
		},
	})

	return &BreakerClient{inner: inner, cb: cb, name: s.Name}
}

// Complete implements Client.
func (b *BreakerClient) Complete(ctx context.Context, messages []Message, opts CompletionOptions) (string, error) {
	return execute[string](b, func() (any, error) {
		return b.inner.Complete(ctx, messages, opts)
	})
}

// Embed implements Client.
func (b *BreakerClient) Embed(ctx context.Context, text string) ([]float32, error) {
	return execute[[]float32](b, func() (any, error) {
		return b.inner.Embed(ctx, text)
	})
}

// EmbedBatch implements Client.
func (b *BreakerClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return execute[[][]float32](b, func() (any, error) {
		return b.inner.EmbedBatch(ctx, texts)
	})
}

// Close closes the wrapped client.
func (b *BreakerClient) Close() error {
	return b.inner.Close()
}

// State returns the current breaker state.
func (b *BreakerClient) State() gobreaker.State {
	return b.cb.State()
}

func execute[T any](b *BreakerClient, fn func() (any, error)) (T, error) {
	var zero T
	result, err := b.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.RecordLLMRequest("rejected", err)
			return zero, &APICallError{Operation: b.name, Message: "circuit breaker rejected request", Cause: err}
		}
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
