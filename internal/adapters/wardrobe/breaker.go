package wardrobe

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/okian/stylist/internal/domain/model"
	"github.com/okian/stylist/pkg/logger"
	"github.com/okian/stylist/pkg/metrics"
)

// BreakerConfig configures BreakerSource.
type BreakerConfig struct {
	// Name identifies the breaker in logs and metrics.
	Name string

	// MaxRequests is the number of requests allowed in half-open state.
	MaxRequests uint32

	// Interval is the cyclic reset period for counts in closed state.
	Interval time.Duration

	// Timeout is how long the breaker stays open before probing again.
	Timeout time.Duration

	// FailureThreshold is the number of consecutive failures before opening.
	FailureThreshold uint32
}

// DefaultBreakerConfig returns production defaults.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:             "wardrobe-source",
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// BreakerSource guards another Source with a circuit breaker. While the
// breaker is open every call fails fast with ErrUnavailable.
type BreakerSource struct {
	next Source
	cb   *gobreaker.CircuitBreaker[any]
	name string
}

// NewBreakerSource wraps next.
func NewBreakerSource(next Source, cfg BreakerConfig) *BreakerSource {
	def := DefaultBreakerConfig()
	if cfg.Name == "" {
		cfg.Name = def.Name
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = def.MaxRequests
	}

	b := &BreakerSource{next: next, name: cfg.Name}
	log := logger.Get().Named("wardrobe")
	b.cb = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		// Missing rows and cancelled callers say nothing about source health.
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrNotFound) ||
				errors.Is(err, context.Canceled) ||
				errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.UpdateBreakerState(name, int(to))
			log.Warn(context.Background(), "circuit breaker state changed",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()))
		},
	})
	metrics.UpdateBreakerState(cfg.Name, int(gobreaker.StateClosed))
	return b
}

// State reports the breaker state.
func (b *BreakerSource) State() gobreaker.State {
	return b.cb.State()
}

// Snapshot implements Source.
func (b *BreakerSource) Snapshot(ctx context.Context, userID string) (model.WardrobeSnapshot, error) {
	return guard(b, "snapshot", func() (model.WardrobeSnapshot, error) {
		return b.next.Snapshot(ctx, userID)
	})
}

// Outfits implements Source.
func (b *BreakerSource) Outfits(ctx context.Context, userID string) ([]model.OutfitCandidate, error) {
	return guard(b, "outfits", func() ([]model.OutfitCandidate, error) {
		return b.next.Outfits(ctx, userID)
	})
}

// Features implements Source.
func (b *BreakerSource) Features(ctx context.Context, userID string, itemIDs []string) ([]model.ItemFeature, error) {
	return guard(b, "features", func() ([]model.ItemFeature, error) {
		return b.next.Features(ctx, userID, itemIDs)
	})
}

func guard[T any](b *BreakerSource, op string, fn func() (T, error)) (T, error) {
	start := time.Now()
	res, err := b.cb.Execute(func() (any, error) {
		v, err := fn()
		return v, err
	})
	latency := float64(time.Since(start).Milliseconds())

	var zero T
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordSourceLatency("breaker_"+op, "open", latency)
		return zero, fmt.Errorf("%w: %s: %w", ErrUnavailable, b.name, err)
	case err != nil:
		metrics.RecordSourceLatency("breaker_"+op, "error", latency)
		return zero, err
	}
	metrics.RecordSourceLatency("breaker_"+op, "ok", latency)
	out, _ := res.(T)
	return out, nil
}
