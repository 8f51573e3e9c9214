package ports

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChecker struct {
	name        string
	err         error
	nonCritical bool
}

func (s *stubChecker) Name() string { return s.name }

func (s *stubChecker) Check(context.Context) error { return s.err }

// generatorChecker is a quote generator that degrades readiness when down.
type generatorChecker struct{ stubChecker }

func (g *generatorChecker) NonCritical() bool { return g.nonCritical }

func generator(name string, err error) *generatorChecker {
	return &generatorChecker{stubChecker{name: name, err: err, nonCritical: true}}
}

// blockingChecker waits for its context to end.
type blockingChecker struct{ name string }

func (b *blockingChecker) Name() string { return b.name }

func (b *blockingChecker) Check(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestNewHealthRegistry(t *testing.T) {
	registry := NewHealthRegistry()

	require.NotNil(t, registry)
	assert.Empty(t, registry.checkers)
	assert.Equal(t, DefaultCheckTimeout, registry.checkTimeout)

	assert.Equal(t, time.Second, NewHealthRegistry(WithCheckTimeout(time.Second)).checkTimeout)
	assert.Equal(t, DefaultCheckTimeout, NewHealthRegistry(WithCheckTimeout(0)).checkTimeout)
}

func TestRegister(t *testing.T) {
	registry := NewHealthRegistry()

	require.NoError(t, registry.Register(generator("gemini", nil)))
	require.NoError(t, registry.Register(&stubChecker{name: "static"}))

	err := registry.Register(&stubChecker{name: "gemini"})
	require.ErrorIs(t, err, ErrDuplicateChecker)
	assert.Contains(t, err.Error(), "gemini")

	assert.Error(t, registry.Register(nil))
	assert.Len(t, registry.checkers, 2)
}

func TestCheckAll_Status(t *testing.T) {
	errDown := errors.New("circuit breaker open")
	errMissing := errors.New("index.html not found")

	tests := []struct {
		name     string
		checkers []HealthChecker
		want     HealthStatus
	}{
		{
			name: "no checkers",
			want: HealthStatusHealthy,
		},
		{
			name:     "all healthy",
			checkers: []HealthChecker{generator("gemini", nil), &stubChecker{name: "static"}},
			want:     HealthStatusHealthy,
		},
		{
			name:     "generator down degrades",
			checkers: []HealthChecker{generator("gemini", errDown), &stubChecker{name: "static"}},
			want:     HealthStatusDegraded,
		},
		{
			name:     "static missing is unhealthy",
			checkers: []HealthChecker{generator("gemini", nil), &stubChecker{name: "static", err: errMissing}},
			want:     HealthStatusUnhealthy,
		},
		{
			name:     "critical failure wins over degraded",
			checkers: []HealthChecker{generator("gemini", errDown), &stubChecker{name: "static", err: errMissing}},
			want:     HealthStatusUnhealthy,
		},
		{
			name: "opted back into critical",
			checkers: []HealthChecker{
				&generatorChecker{stubChecker{name: "genai", err: errDown, nonCritical: false}},
			},
			want: HealthStatusUnhealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := NewHealthRegistry()
			for _, c := range tt.checkers {
				require.NoError(t, registry.Register(c))
			}

			result := registry.CheckAll(context.Background())

			require.NotNil(t, result)
			assert.Equal(t, tt.want, result.Status)
			assert.Len(t, result.Checks, len(tt.checkers))
			assert.False(t, result.Timestamp.IsZero())
		})
	}
}

func TestCheckAll_CheckResults(t *testing.T) {
	registry := NewHealthRegistry()
	require.NoError(t, registry.Register(generator("gemini", errors.New("circuit breaker open"))))
	require.NoError(t, registry.Register(&stubChecker{name: "static"}))

	result := registry.CheckAll(context.Background())

	gemini := result.Checks["gemini"]
	require.NotNil(t, gemini)
	assert.Equal(t, HealthStatusUnhealthy, gemini.Status)
	assert.False(t, gemini.Critical)
	assert.Equal(t, "circuit breaker open", gemini.Message)

	static := result.Checks["static"]
	require.NotNil(t, static)
	assert.Equal(t, HealthStatusHealthy, static.Status)
	assert.True(t, static.Critical)
	assert.Empty(t, static.Message)
}

func TestCheckAll_CheckTimeout(t *testing.T) {
	registry := NewHealthRegistry(WithCheckTimeout(20 * time.Millisecond))
	require.NoError(t, registry.Register(&blockingChecker{name: "static"}))

	start := time.Now()
	result := registry.CheckAll(context.Background())

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, HealthStatusUnhealthy, result.Status)
	assert.Contains(t, result.Checks["static"].Message, "deadline exceeded")
}

func TestCheckAll_ContextCancelled(t *testing.T) {
	registry := NewHealthRegistry()
	require.NoError(t, registry.Register(&blockingChecker{name: "static"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := registry.CheckAll(ctx)

	assert.Equal(t, HealthStatusUnhealthy, result.Status)
	assert.Contains(t, result.Checks["static"].Message, "context canceled")
}
