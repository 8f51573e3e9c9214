// Package app contains application services that orchestrate use cases.
package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jsamuelsen/motivation-service/internal/domain"
	"github.com/jsamuelsen/motivation-service/internal/platform/logging"
	"github.com/jsamuelsen/motivation-service/internal/platform/metrics"
	"github.com/jsamuelsen/motivation-service/internal/ports"
)

// Defaults applied by NewQuoteService to zero-valued config fields.
const (
	DefaultMaxAttempts    = 5
	DefaultAttemptTimeout = 10 * time.Second
)

// BackoffPolicy returns how long to wait after the given 0-indexed attempt fails.
type BackoffPolicy interface {
	Delay(attempt int) time.Duration
}

// BackoffFunc adapts a plain function to BackoffPolicy.
type BackoffFunc func(attempt int) time.Duration

// Delay implements BackoffPolicy.
func (f BackoffFunc) Delay(attempt int) time.Duration { return f(attempt) }

// SleepFunc waits for d or until ctx is done, whichever comes first.
type SleepFunc func(ctx context.Context, d time.Duration) error

// QuoteServiceConfig contains configuration for the quote service.
type QuoteServiceConfig struct {
	// Generator performs one upstream generation per call. Required.
	Generator ports.QuoteGenerator

	// Prompt is sent unchanged on every attempt.
	// Zero value uses domain.DefaultQuotePrompt().
	Prompt domain.QuotePrompt

	// MaxAttempts bounds the number of generation attempts per fetch.
	MaxAttempts int

	// AttemptTimeout bounds each individual attempt.
	AttemptTimeout time.Duration

	// OverallTimeout, when positive, bounds the whole fetch including backoff.
	OverallTimeout time.Duration

	// Backoff chooses the delay between attempts. Required.
	Backoff BackoffPolicy

	// Sleep waits between attempts. Defaults to a context-aware timer.
	Sleep SleepFunc

	// Metrics records attempt outcomes. Optional.
	Metrics *metrics.QuoteMetrics

	// Logger is used when the request context carries no logger.
	Logger *slog.Logger
}

// QuoteService implements ports.QuoteFetcher: a bounded
// retry-with-exponential-backoff loop around a QuoteGenerator.
type QuoteService struct {
	generator      ports.QuoteGenerator
	prompt         domain.QuotePrompt
	maxAttempts    int
	attemptTimeout time.Duration
	overallTimeout time.Duration
	backoff        BackoffPolicy
	sleep          SleepFunc
	metrics        *metrics.QuoteMetrics
	logger         *slog.Logger
}

// NewQuoteService creates a new quote service with the provided dependencies.
// Panics if Generator or Backoff is nil.
func NewQuoteService(cfg QuoteServiceConfig) *QuoteService {
	if cfg.Generator == nil {
		panic("QuoteService: Generator is required")
	}

	if cfg.Backoff == nil {
		panic("QuoteService: Backoff is required")
	}

	prompt := cfg.Prompt
	if prompt.Text == "" {
		prompt = domain.DefaultQuotePrompt()
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	attemptTimeout := cfg.AttemptTimeout
	if attemptTimeout <= 0 {
		attemptTimeout = DefaultAttemptTimeout
	}

	sleep := cfg.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &QuoteService{
		generator:      cfg.Generator,
		prompt:         prompt,
		maxAttempts:    maxAttempts,
		attemptTimeout: attemptTimeout,
		overallTimeout: cfg.OverallTimeout,
		backoff:        cfg.Backoff,
		sleep:          sleep,
		metrics:        cfg.Metrics,
		logger:         logger,
	}
}

// FetchQuote obtains one validated quote, retrying failed attempts with
// exponential backoff. The only error it returns is a
// *domain.QuoteUnavailableError (matching domain.ErrQuoteUnavailable).
//
// Attempts run detached from ctx's cancellation so that a client
// disconnect does not abort an in-flight upstream call; ctx values such as
// request IDs and the scoped logger are preserved.
func (s *QuoteService) FetchQuote(ctx context.Context) (*domain.Quote, error) {
	logger := logging.FromContextOr(ctx, s.logger)

	loopCtx := context.WithoutCancel(ctx)
	if s.overallTimeout > 0 {
		var cancel context.CancelFunc
		loopCtx, cancel = context.WithTimeout(loopCtx, s.overallTimeout)
		defer cancel()
	}

	var (
		lastErr  error
		attempts int
		result   = metrics.ResultExhausted
	)

	for attempt := range s.maxAttempts {
		if loopCtx.Err() != nil {
			result = metrics.ResultDeadline
			break
		}

		attempts++

		quote, err := s.attempt(loopCtx, attempt)
		if err == nil {
			s.metrics.ObserveAttempt(metrics.OutcomeSuccess)
			s.metrics.ObserveFetch(metrics.ResultSuccess, attempts)

			logger.InfoContext(ctx, "quote fetched",
				slog.Int("attempt", attempts),
				slog.String("author", quote.Author),
			)

			return quote, nil
		}

		lastErr = err
		s.metrics.ObserveAttempt(attemptOutcome(err))

		logger.WarnContext(ctx, "quote attempt failed",
			slog.Int("attempt", attempts),
			slog.Int("max_attempts", s.maxAttempts),
			slog.Any("error", err),
		)

		if attempts == s.maxAttempts {
			break
		}

		delay := s.backoff.Delay(attempt)
		logger.InfoContext(ctx, "retrying quote fetch",
			slog.Duration("delay", delay),
			slog.Int("next_attempt", attempts+1),
		)
		s.metrics.ObserveBackoff(delay)

		if err := s.sleep(loopCtx, delay); err != nil {
			result = metrics.ResultDeadline
			break
		}
	}

	s.metrics.ObserveFetch(result, attempts)

	logger.ErrorContext(ctx, "quote fetch failed",
		slog.Int("attempts", attempts),
		slog.String("result", result),
		slog.Any("error", lastErr),
	)

	return nil, domain.NewQuoteUnavailableError(attempts, lastErr)
}

// attempt runs one generation under its own timeout.
func (s *QuoteService) attempt(ctx context.Context, attempt int) (*domain.Quote, error) {
	ctx, cancel := context.WithTimeout(ctx, s.attemptTimeout)
	defer cancel()

	logging.FromContextOr(ctx, s.logger).Log(ctx, logging.LevelTrace, "starting quote attempt",
		slog.Int("attempt", attempt+1),
		slog.Duration("timeout", s.attemptTimeout),
	)

	quote, err := s.generator.GenerateQuote(ctx, s.prompt)
	if err != nil {
		return nil, err
	}

	if quote == nil {
		return nil, domain.NewValidationError("quote", "generator returned no quote")
	}

	return quote, nil
}

// attemptOutcome classifies a failed attempt for metrics.
func attemptOutcome(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return metrics.OutcomeTimeout
	case domain.IsValidation(err):
		return metrics.OutcomeMalformed
	case domain.IsUnavailable(err):
		return metrics.OutcomeUpstream
	default:
		return metrics.OutcomeError
	}
}

// sleepContext waits for d, returning early with ctx's error if ctx ends first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
