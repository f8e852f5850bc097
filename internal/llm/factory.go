package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/abhisek/examprep/internal/store"
)

// Providers is one configured backend under two middleware stacks:
//
//	Direct:   caller → timeout → logging → base
//	Retrying: caller → timeout → retry → logging → base
//
// Direct is for callers that bound their own attempts. Question set
// generation uses it so each of its attempts is a single vendor call.
type Providers struct {
	Direct   Provider
	Retrying Provider
}

// NewProviders creates the base Provider selected by cfg and decorates it.
func NewProviders(ctx context.Context, cfg Config, events store.LLMEventRepo, logger *slog.Logger) (*Providers, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var base Provider
	var err error

	switch cfg.Provider {
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "openrouter":
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case "mock":
		base = NewMockProvider()
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}
	return Decorate(base, cfg, events, logger), nil
}

// Decorate wraps base with the middleware stacks described on Providers.
// Both stacks share one logging layer, so every vendor call is recorded
// exactly once.
func Decorate(base Provider, cfg Config, events store.LLMEventRepo, logger *slog.Logger) *Providers {
	logged := WithLogging(base, events, logger)
	return &Providers{
		Direct:   withTimeout(logged, cfg.Timeout),
		Retrying: withTimeout(WithRetry(logged, cfg.Retry, logger), cfg.Timeout),
	}
}

// NewProvidersFromEnv resolves configuration from EXAMPREP_* variables, or
// from the vendors' standard key variables when no provider is selected.
func NewProvidersFromEnv(ctx context.Context, events store.LLMEventRepo, logger *slog.Logger) (*Providers, error) {
	cfg := ConfigFromEnv()
	if cfg.Validate() != nil {
		if discovered, ok := DiscoverConfig(); ok {
			cfg = discovered
		}
	}
	return NewProviders(ctx, cfg, events, logger)
}

func withTimeout(p Provider, d time.Duration) Provider {
	if d <= 0 {
		return p
	}
	return &timeoutProvider{inner: p, timeout: d}
}

type timeoutProvider struct {
	inner   Provider
	timeout time.Duration
}

func (t *timeoutProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.Generate(ctx, req)
}

func (t *timeoutProvider) ModelID() string { return t.inner.ModelID() }
