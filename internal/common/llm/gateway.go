package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	apperrors "analytics-chat/internal/common/errors"
	"analytics-chat/internal/common/logger"
	"analytics-chat/internal/common/metrics"
	"analytics-chat/internal/models"
)

const (
	DefaultMaxTokens       = 1024
	DefaultTemperatureStep = 0.2
	MaxTemperature         = 1.0
)

// Validator decides whether a model reply is usable.
type Validator func(text string) bool

type GatewayConfig struct {
	Timeout         time.Duration
	RetryDelay      time.Duration
	TemperatureStep float64
	MaxRetries      int
}

type Gateway struct {
	backend Backend
	clock   clockwork.Clock
	config  GatewayConfig
	logger  logger.Logger
}

type Option func(*Gateway)

// WithClock replaces the clock used for retry sleeps.
func WithClock(c clockwork.Clock) Option {
	return func(g *Gateway) { g.clock = c }
}

func NewGateway(backend Backend, cfg GatewayConfig, log logger.Logger, opts ...Option) *Gateway {
	if cfg.TemperatureStep == 0 {
		cfg.TemperatureStep = DefaultTemperatureStep
	}
	g := &Gateway{
		backend: backend,
		clock:   clockwork.NewRealClock(),
		config:  cfg,
		logger:  logger.ForComponent(log, "llm-gateway"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gateway) BackendName() string {
	return g.backend.Name()
}

// DefaultRetries is the configured retry budget for validator-gated calls.
func (g *Gateway) DefaultRetries() int {
	return g.config.MaxRetries
}

// Invoke sends one conversation and returns the raw reply text.
func (g *Gateway) Invoke(ctx context.Context, messages []models.Message, temperature float64, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	if g.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.config.Timeout)
		defer cancel()
	}

	start := g.clock.Now()
	text, err := g.backend.Chat(ctx, Request{
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	elapsed := g.clock.Since(start)

	if err != nil {
		if ctx.Err() != nil && !errors.Is(err, apperrors.ErrBackendUnavailable) {
			err = fmt.Errorf("%w: %v", apperrors.ErrBackendUnavailable, err)
		}
		metrics.LLMCalls.WithLabelValues(g.backend.Name(), outcomeLabel(err)).Inc()
		g.logger.Warn("llm call failed", map[string]interface{}{
			"backend":    g.backend.Name(),
			"durationMs": elapsed.Milliseconds(),
			"error":      err.Error(),
		})
		return "", err
	}

	metrics.LLMCalls.WithLabelValues(g.backend.Name(), "ok").Inc()
	g.logger.Debug("llm call completed", map[string]interface{}{
		"backend":     g.backend.Name(),
		"durationMs":  elapsed.Milliseconds(),
		"replyLength": len(text),
		"temperature": temperature,
	})
	return text, nil
}

type RetryOptions struct {
	MaxRetries  int
	Temperature float64
	MaxTokens   int
}

// InvokeWithRetry calls Invoke up to MaxRetries+1 times until validate
// accepts a reply. A rejected reply raises the temperature by a fixed step,
// capped at 1.0; a failed call keeps it. Either way the next attempt waits
// RetryDelay. When no reply is accepted the last obtained reply is returned
// without error, so callers that need validity must check again. An error is
// returned only when no attempt produced any reply.
func (g *Gateway) InvokeWithRetry(ctx context.Context, messages []models.Message, validate Validator, opts RetryOptions) (string, error) {
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	attempts := opts.MaxRetries + 1
	temperature := opts.Temperature

	var (
		last    string
		gotText bool
		lastErr error
		used    int
	)

	defer func() { metrics.LLMAttempts.Observe(float64(used)) }()

	for attempt := 1; attempt <= attempts; attempt++ {
		used = attempt
		text, err := g.Invoke(ctx, messages, temperature, opts.MaxTokens)
		if err != nil {
			lastErr = err
		} else {
			last, gotText = text, true
			if validate == nil || validate(text) {
				return text, nil
			}
			g.logger.Info("llm reply rejected by validator", map[string]interface{}{
				"attempt":     attempt,
				"temperature": temperature,
			})
			temperature = nextTemperature(temperature, g.config.TemperatureStep)
		}

		if attempt == attempts {
			break
		}
		if err := g.sleep(ctx, g.config.RetryDelay); err != nil {
			lastErr = err
			break
		}
	}

	if gotText {
		return last, nil
	}
	return "", lastErr
}

func (g *Gateway) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-g.clock.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Health probes the backend when it supports a cheap probe.
func (g *Gateway) Health(ctx context.Context) error {
	if hc, ok := g.backend.(HealthChecker); ok {
		return hc.Ping(ctx)
	}
	return nil
}

func nextTemperature(t, step float64) float64 {
	t += step
	if t > MaxTemperature {
		return MaxTemperature
	}
	return t
}

func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrBackendUnavailable):
		return "unavailable"
	case errors.Is(err, apperrors.ErrBackendError):
		return "error"
	default:
		return "failed"
	}
}
