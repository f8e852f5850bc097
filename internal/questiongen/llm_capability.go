package questiongen

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/abhisek/examprep/internal/llm"
	"github.com/abhisek/examprep/internal/quiz"
)

// CapabilityConfig controls the LLMCapability.
type CapabilityConfig struct {
	// TokensPerQuestion sizes the response budget of a batch.
	TokensPerQuestion int

	// Temperature controls LLM output randomness (0.0-1.0).
	Temperature float64

	// MaxExclusions caps the prior questions listed in the prompt.
	// Zero lists all of them.
	MaxExclusions int
}

// DefaultCapabilityConfig returns recommended defaults.
func DefaultCapabilityConfig() CapabilityConfig {
	return CapabilityConfig{
		TokensPerQuestion: 400,
		Temperature:       0.7,
	}
}

// LLMCapability implements Capability with an LLM provider.
type LLMCapability struct {
	provider llm.Provider
	cfg      CapabilityConfig
	logger   *slog.Logger
}

// NewLLMCapability creates an LLM-backed generation capability.
func NewLLMCapability(provider llm.Provider, cfg CapabilityConfig, logger *slog.Logger) *LLMCapability {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &LLMCapability{provider: provider, cfg: cfg, logger: logger}
}

// questionOutput is one raw question before validation.
type questionOutput struct {
	Text             string          `json:"text"`
	Kind             string          `json:"kind"`
	Options          []string        `json:"options"`
	CorrectOptions   []string        `json:"correct_options"`
	NumericAnswer    float64         `json:"numeric_answer"`
	NumericTolerance *quiz.Tolerance `json:"numeric_tolerance"`
	Difficulty       string          `json:"difficulty"`
	Topic            string          `json:"topic"`
}

type questionSetOutput struct {
	Questions []questionOutput `json:"questions"`
}

// GenerateBatch makes one LLM call. Questions that fail validation or
// repeat a text within the batch are dropped, so a bad batch comes back
// short instead of failing.
func (c *LLMCapability) GenerateBatch(ctx context.Context, req BatchRequest) ([]quiz.Question, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeQuestionSet)

	resp, err := c.provider.Generate(ctx, llm.Request{
		System: systemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildUserMessage(req, c.cfg)},
		},
		Schema:      QuestionSetSchema,
		MaxTokens:   512 + c.cfg.TokensPerQuestion*req.Configuration.Count,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM generation failed: %w", err)
	}

	var raw questionSetOutput
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return nil, &llm.ErrInvalidResponse{Content: resp.Content, Err: fmt.Errorf("parse question set: %w", err)}
	}

	seen := make(map[string]struct{}, len(raw.Questions))
	out := make([]quiz.Question, 0, len(raw.Questions))
	for i, qo := range raw.Questions {
		q := toQuestion(qo, req.Configuration.Difficulty)
		if err := quiz.Validate(q); err != nil {
			c.logger.Warn("dropping invalid question", "index", i, "error", err)
			continue
		}
		if _, dup := seen[q.Text]; dup {
			c.logger.Warn("dropping duplicate question", "index", i, "text", q.Text)
			continue
		}
		seen[q.Text] = struct{}{}
		out = append(out, q)
	}
	return out, nil
}

func toQuestion(qo questionOutput, fallback quiz.Difficulty) quiz.Question {
	q := quiz.Question{
		Text:       qo.Text,
		Kind:       quiz.Kind(qo.Kind),
		Difficulty: quiz.Difficulty(qo.Difficulty),
		Topic:      qo.Topic,
	}
	if !q.Difficulty.Valid() {
		q.Difficulty = fallback
	}

	switch q.Kind {
	case quiz.KindSingleChoice, quiz.KindMultiChoice:
		q.Options = qo.Options
		q.Correct = quiz.NormalizeFor(qo.CorrectOptions, q)
	case quiz.KindNumeric:
		q.Correct = quiz.NumericAnswer(qo.NumericAnswer)
		q.Tolerance = qo.NumericTolerance
	}
	return q
}
