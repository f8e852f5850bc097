package questiongen

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/abhisek/examprep/internal/llm"
	"github.com/abhisek/examprep/internal/quiz"
)

// DefaultMaxAttempts is the number of capability calls made before a
// generation gives up.
const DefaultMaxAttempts = 5

// Config controls the SetGenerator.
type Config struct {
	// MaxAttempts bounds the capability calls per generation.
	// Zero means DefaultMaxAttempts.
	MaxAttempts int

	// Rand drives option shuffling. Nil uses the global source.
	Rand quiz.Rand
}

// Result is a generated question set plus the calls it took.
type Result struct {
	Questions []quiz.Question
	Attempts  []AttemptRecord
}

// SetGenerator produces exactly the requested number of questions,
// excluding the user's history.
type SetGenerator struct {
	history    HistoryStore
	capability Capability
	cfg        Config
	logger     *slog.Logger
}

// NewSetGenerator creates a SetGenerator.
func NewSetGenerator(history HistoryStore, capability Capability, cfg Config, logger *slog.Logger) *SetGenerator {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SetGenerator{history: history, capability: capability, cfg: cfg, logger: logger}
}

// Generate fetches the user's history once, then calls the capability until
// a batch holds exactly cfg.Count questions or the attempt ceiling is hit.
// Mismatched counts, malformed batches and transport failures are retried.
// When the ceiling is hit the result is a *GenerationFailedError, or a
// *TransportError if the last call failed to reach the capability.
func (g *SetGenerator) Generate(ctx context.Context, cfg quiz.Configuration) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	exclusions, err := g.history.QuestionTexts(ctx, cfg.UserID)
	if err != nil {
		return nil, fmt.Errorf("load question history: %w", err)
	}
	exclusions = dedupTexts(exclusions)

	req := BatchRequest{Configuration: cfg, Exclusions: exclusions}
	var records []AttemptRecord

	for n := 1; n <= g.cfg.MaxAttempts; n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		qs, err := g.capability.GenerateBatch(ctx, req)
		rec := AttemptRecord{Attempt: n, Count: len(qs)}

		switch {
		case err == nil && len(qs) == cfg.Count:
			records = append(records, rec)
			quiz.Shuffle(qs, g.cfg.Rand)
			g.logger.Info("question set generated",
				"user_id", cfg.UserID, "count", len(qs), "attempts", n)
			return &Result{Questions: qs, Attempts: records}, nil

		case err == nil:
			rec.Err = fmt.Errorf("%w: got %d, want %d", ErrCountMismatch, len(qs), cfg.Count)

		case llm.IsCanceled(err) && ctx.Err() != nil:
			return nil, err

		case llm.IsContentError(err):
			rec.Count = 0
			rec.Err = fmt.Errorf("%w: %w", ErrCountMismatch, err)

		default:
			rec.Count = 0
			rec.Transport = true
			rec.Err = err
		}

		records = append(records, rec)
		g.logger.Warn("generation attempt failed",
			"user_id", cfg.UserID, "attempt", n, "count", rec.Count,
			"want", cfg.Count, "transport", rec.Transport, "error", rec.Err)
	}

	last := records[len(records)-1]
	if last.Transport {
		return nil, &TransportError{Attempts: records, Err: last.Err}
	}
	return nil, &GenerationFailedError{Requested: cfg.Count, LastCount: last.Count, Attempts: records}
}

func dedupTexts(texts []string) []string {
	seen := make(map[string]struct{}, len(texts))
	out := texts[:0:0]
	for _, t := range texts {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
