package weather

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/viant/closet/internal/logging"
	"github.com/viant/closet/internal/metrics"
)

// DefaultTimeout bounds a single lookup.
const DefaultTimeout = 5 * time.Second

// Fallback reasons.
const (
	ReasonNoLookup    = "no_lookup"
	ReasonRateLimited = "rate_limited"
	ReasonCircuitOpen = "circuit_open"
	ReasonTimeout     = "timeout"
	ReasonLookupError = "lookup_error"
)

// Resolution is the outcome of resolving a location. Reading is nil when
// the label is the fallback default.
type Resolution struct {
	Label    Label
	Reading  *Reading
	Fallback string
}

// Resolver resolves a location to a Label. It never fails: every lookup
// problem yields DefaultLabel. Lookups are attempted once, without retries.
type Resolver struct {
	lookup  Lookup
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker[Reading]
	limiter *rate.Limiter
	log     zerolog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithTimeout sets the per-lookup timeout; non-positive values keep the default.
func WithTimeout(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithCircuitBreaker opens the circuit after failures consecutive lookup
// failures; while open, lookups are skipped for cooldown.
func WithCircuitBreaker(failures uint32, cooldown time.Duration) ResolverOption {
	return func(r *Resolver) {
		if failures == 0 {
			return
		}
		r.breaker = gobreaker.NewCircuitBreaker[Reading](gobreaker.Settings{
			Name:        "weather",
			MaxRequests: 1,
			Timeout:     cooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= failures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
				r.log.Warn().Str("from", from.String()).Str("to", to.String()).Msg("weather circuit breaker state changed")
			},
		})
	}
}

// WithRateLimit caps lookups per minute. Requests over the limit do not
// wait; they resolve to the default label.
func WithRateLimit(perMinute int) ResolverOption {
	return func(r *Resolver) {
		if perMinute > 0 {
			r.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
		}
	}
}

// NewResolver creates a Resolver over lookup. A nil lookup always resolves
// to DefaultLabel.
func NewResolver(lookup Lookup, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		lookup:  lookup,
		timeout: DefaultTimeout,
		log:     logging.With().Str("component", "weather").Logger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve fetches and classifies the weather at location.
func (r *Resolver) Resolve(ctx context.Context, location string) Resolution {
	if r.lookup == nil {
		return r.fallback(location, ReasonNoLookup, nil)
	}
	if r.limiter != nil && !r.limiter.Allow() {
		return r.fallback(location, ReasonRateLimited, nil)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	fetch := func() (Reading, error) { return r.fetch(ctx, location) }
	var (
		reading Reading
		err     error
	)
	if r.breaker != nil {
		reading, err = r.breaker.Execute(fetch)
	} else {
		reading, err = fetch()
	}
	if err != nil {
		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			return r.fallback(location, ReasonCircuitOpen, err)
		case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
			return r.fallback(location, ReasonTimeout, err)
		default:
			return r.fallback(location, ReasonLookupError, err)
		}
	}
	return Resolution{Label: Classify(reading), Reading: &reading}
}

type fetchResult struct {
	reading Reading
	err     error
}

// fetch runs the lookup so that it returns by the context deadline even
// when the lookup ignores ctx, and turns a lookup panic into an error.
func (r *Resolver) fetch(ctx context.Context, location string) (Reading, error) {
	done := make(chan fetchResult, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- fetchResult{err: fmt.Errorf("weather: lookup panicked: %v", p)}
			}
		}()
		reading, err := r.lookup.Fetch(ctx, location)
		done <- fetchResult{reading: reading, err: err}
	}()
	select {
	case res := <-done:
		return res.reading, res.err
	case <-ctx.Done():
		return Reading{}, ctx.Err()
	}
}

func (r *Resolver) fallback(location, reason string, err error) Resolution {
	metrics.WeatherFallbacks.WithLabelValues(reason).Inc()
	r.log.Warn().Err(err).Str("location", location).Str("reason", reason).
		Str("label", string(DefaultLabel)).Msg("weather lookup failed, using default label")
	return Resolution{Label: DefaultLabel, Fallback: reason}
}
