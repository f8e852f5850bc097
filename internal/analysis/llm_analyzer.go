package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"text/template"

	"github.com/abhisek/examprep/internal/llm"
	"github.com/abhisek/examprep/internal/scoring"
)

// Config holds configuration for the LLM analyzer.
type Config struct {
	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   2048,
		Temperature: 0.3,
	}
}

// LLMAnalyzer implements Analyzer with an LLM provider.
type LLMAnalyzer struct {
	provider llm.Provider
	cfg      Config
	logger   *slog.Logger
}

// NewLLMAnalyzer creates an LLM-backed analyzer.
func NewLLMAnalyzer(provider llm.Provider, cfg Config, logger *slog.Logger) *LLMAnalyzer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &LLMAnalyzer{provider: provider, cfg: cfg, logger: logger}
}

// analysisOutput is the raw LLM response.
type analysisOutput struct {
	Feedback      string   `json:"feedback"`
	WeakestTopics []string `json:"weakest_topics"`
	PerQuestion   []struct {
		QuestionText string `json:"question_text"`
		ErrorType    string `json:"error_type"`
	} `json:"per_question"`
}

// Analyze sends the attempt outcomes to the LLM. Every failure is wrapped
// in ErrAnalysisUnavailable.
func (a *LLMAnalyzer) Analyze(ctx context.Context, req Request) (*Report, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeAnalysis)

	userMsg, err := buildAnalysisMessage(req)
	if err != nil {
		return nil, fmt.Errorf("%w: build prompt: %w", ErrAnalysisUnavailable, err)
	}

	resp, err := a.provider.Generate(ctx, llm.Request{
		System: analysisSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: userMsg},
		},
		Schema:      AnalysisSchema,
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAnalysisUnavailable, err)
	}

	var raw analysisOutput
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return nil, fmt.Errorf("%w: parse response: %w", ErrAnalysisUnavailable, err)
	}

	report := &Report{Feedback: raw.Feedback, WeakestTopics: raw.WeakestTopics}
	for _, pq := range raw.PerQuestion {
		t := scoring.ErrorType(pq.ErrorType)
		if !scoring.IsWrongAnswerType(t) {
			a.logger.Warn("discarding unknown error type", "error_type", pq.ErrorType, "question", pq.QuestionText)
			continue
		}
		report.PerQuestion = append(report.PerQuestion, QuestionResult{QuestionText: pq.QuestionText, ErrorType: t})
	}
	return report, nil
}

const analysisSystemPrompt = `You are an experienced exam coach. A student has just finished a practice quiz. Classify each wrongly answered question and summarize where the student should focus.

Instructions:
- Classify every wrong answer as exactly one of:
  - conceptual: the student does not understand the underlying idea.
  - careless_slip: the student knows the idea but made an arithmetic, reading or selection slip. Very fast answers are a hint.
  - question_misinterpretation: the student answered a different question than the one asked.
- Copy question_text verbatim from the input. Do not classify correct answers.
- List at most five weakest topics, weakest first.
- Keep feedback to two to four sentences, specific and encouraging. Adapt the tone to the learning style hint when one is given.`

var analysisUserTemplate = template.Must(template.New("analysis").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(`Exam: {{.Exam}}
{{- if .Stream}}
Stream: {{.Stream}}
{{- end}}
{{- if .LearningStyleHint}}
Learning style: {{.LearningStyleHint}}
{{- end}}

Questions:
{{range $i, $it := .Items}}{{$i | inc}}. {{$it.QuestionText}}
   Topic: {{if $it.Topic}}{{$it.Topic}}{{else}}unspecified{{end}}; difficulty: {{$it.Difficulty}}; time: {{printf "%.0f" $it.TimeTakenSeconds}}s
   Student answer: {{$it.UserAnswer}}
   Correct answer: {{$it.CorrectAnswer}}
   Result: {{if $it.IsCorrect}}correct{{else}}WRONG{{end}}
{{end}}`))

func buildAnalysisMessage(req Request) (string, error) {
	var buf bytes.Buffer
	if err := analysisUserTemplate.Execute(&buf, req); err != nil {
		return "", err
	}
	return buf.String(), nil
}
