package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/abhisek/examprep/internal/analysis"
	"github.com/abhisek/examprep/internal/attempt"
	"github.com/abhisek/examprep/internal/config"
	"github.com/abhisek/examprep/internal/leaderboard"
	"github.com/abhisek/examprep/internal/llm"
	"github.com/abhisek/examprep/internal/questiongen"
	"github.com/abhisek/examprep/internal/store"
	"github.com/abhisek/examprep/internal/store/mongostore"
)

// backend is the wired set of services behind the CLI and the server.
type backend struct {
	repos  store.Repos
	events store.LLMEventRepo

	quizzes  *questiongen.Service
	attempts *attempt.Service
	board    leaderboard.Board

	ping    func(ctx context.Context) error
	closers []func() error
}

// openBackend connects storage, the LLM provider and the optional Redis
// leaderboard. A missing LLM provider leaves generation and analysis
// unavailable without failing.
func openBackend(ctx context.Context, cfg config.Config, logger *slog.Logger) (*backend, error) {
	b := &backend{}

	switch cfg.Driver {
	case config.DriverMongo:
		ms, err := mongostore.Open(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("open mongo: %w", err)
		}
		b.repos, b.ping = ms, ms.Ping
		b.closers = append(b.closers, func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return ms.Close(ctx)
		})
	default:
		st, err := store.Open(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		b.repos, b.events, b.ping = st, st, st.Ping
		b.closers = append(b.closers, st.Close)
	}

	loc, err := cfg.Location()
	if err != nil {
		b.Close()
		return nil, err
	}

	providers, err := llm.NewProvidersFromEnv(ctx, b.events, logger)
	if err != nil {
		logger.Warn("LLM provider not configured, generation and analysis unavailable", "error", err)
	}

	var analyzer analysis.Analyzer
	if providers != nil {
		// The generator's attempt loop is the only retry for question sets.
		capability := questiongen.NewLLMCapability(providers.Direct, questiongen.DefaultCapabilityConfig(), logger)
		b.quizzes = questiongen.NewService(capability, b.repos, questiongen.Config{MaxAttempts: cfg.MaxGenerationAttempts}, logger)
		analyzer = analysis.NewLLMAnalyzer(providers.Retrying, analysis.DefaultConfig(), logger)
	}

	b.board = leaderboard.NewStoreBoard(b.repos)
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, ranking from storage", "addr", cfg.RedisAddr, "error", err)
			client.Close()
		} else {
			rb := leaderboard.NewRedisBoard(client, "")
			if err := rb.Seed(ctx, b.repos); err != nil {
				logger.Warn("leaderboard seeding failed", "error", err)
			}
			b.board = rb
			b.closers = append(b.closers, rb.Close)
		}
	}

	b.attempts = attempt.NewService(b.repos, analyzer, b.board, attempt.Config{
		Location:      loc,
		AsyncAnalysis: cfg.AsyncAnalysis,
	}, logger)
	return b, nil
}

// Close stops the analysis worker and then releases connections in
// reverse order of opening.
func (b *backend) Close() error {
	if b.attempts != nil {
		b.attempts.Close()
	}
	var first error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}
