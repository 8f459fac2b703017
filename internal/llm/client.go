// Package llm provides a uniform text-generation client over
// interchangeable providers, with per-provider retry and ordered failover.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"supportrag/internal/domain"
	"supportrag/internal/prompt"
)

// Provider is one generation backend. Generate returns the normalized text
// for a flattened prompt; transient failures are wrapped via markTransient.
type Provider interface {
	Name() string
	Generate(ctx context.Context, text string) (string, error)
}

// Client tries providers in priority order. A provider's transient
// failures are retried with exponential backoff up to MaxRetries attempts;
// the first success wins. When every provider is exhausted the aggregated
// causes come back as *domain.GenerationError.
type Client struct {
	providers  []Provider
	maxRetries int
	logger     *slog.Logger

	// sleep is swapped in tests to avoid real backoff delays.
	sleep func(ctx context.Context, d time.Duration) error
}

const DefaultMaxRetries = 3

func NewClient(providers []Provider, maxRetries int, logger *slog.Logger) (*Client, error) {
	if len(providers) == 0 {
		return nil, fmt.Errorf("%w: at least one provider is required", domain.ErrInvalidInput)
	}
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &Client{
		providers:  providers,
		maxRetries: maxRetries,
		logger:     logger,
		sleep:      sleepCtx,
	}, nil
}

// Generate renders the prompt once and walks the provider chain. It returns
// the generated text and the name of the provider that produced it.
func (c *Client) Generate(ctx context.Context, p domain.Prompt) (string, string, error) {
	text := prompt.Render(p)
	var attempts []domain.Attempt
	for _, provider := range c.providers {
		out, err := c.generateWithRetry(ctx, provider, text)
		if err == nil {
			return out, provider.Name(), nil
		}
		c.logger.Warn("provider failed, trying next", "provider", provider.Name(), "error", err)
		attempts = append(attempts, domain.Attempt{Provider: provider.Name(), Err: err})
		if ctx.Err() != nil {
			break
		}
	}
	return "", "", &domain.GenerationError{Attempts: attempts}
}

func (c *Client) generateWithRetry(ctx context.Context, provider Provider, text string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		out, err := provider.Generate(ctx, text)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !isTransient(err) {
			return "", err
		}
		if attempt == c.maxRetries {
			break
		}
		c.logger.Debug("transient failure, backing off",
			"provider", provider.Name(), "attempt", attempt, "error", err)
		if err := c.sleep(ctx, backoffDelay(attempt)); err != nil {
			return "", lastErr
		}
	}
	return "", lastErr
}

// backoffDelay doubles per attempt, capped at 5s.
func backoffDelay(attempt int) time.Duration {
	d := 200 * time.Millisecond << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
