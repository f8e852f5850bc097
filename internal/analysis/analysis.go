package analysis

import (
	"context"
	"errors"

	"github.com/abhisek/examprep/internal/scoring"
)

// ErrAnalysisUnavailable wraps every failure of the analysis capability.
// It is non-fatal: the attempt stays valid without a classification.
var ErrAnalysisUnavailable = errors.New("analysis unavailable")

// Item is one question outcome sent for analysis.
type Item struct {
	QuestionText     string  `json:"question_text"`
	Topic            string  `json:"topic,omitempty"`
	Difficulty       string  `json:"difficulty"`
	TimeTakenSeconds float64 `json:"time_taken_seconds"`
	UserAnswer       string  `json:"user_answer"`
	CorrectAnswer    string  `json:"correct_answer"`
	IsCorrect        bool    `json:"is_correct"`
}

// Request is the input of a performance analysis.
type Request struct {
	Exam              string
	Stream            string
	Items             []Item
	LearningStyleHint string
}

// QuestionResult is the classification the capability returned for one
// question, keyed by its text.
type QuestionResult struct {
	QuestionText string
	ErrorType    scoring.ErrorType
}

// Report is the capability's analysis of an attempt.
type Report struct {
	Feedback      string
	WeakestTopics []string
	PerQuestion   []QuestionResult
}

// Analyzer classifies wrong answers and summarizes weak topics.
type Analyzer interface {
	Analyze(ctx context.Context, req Request) (*Report, error)
}

// BuildRequest turns a finalized attempt into an analysis request.
func BuildRequest(a *scoring.Attempt, learningStyleHint string) Request {
	req := Request{
		Exam:              a.Exam,
		Stream:            a.Stream,
		LearningStyleHint: learningStyleHint,
		Items:             make([]Item, len(a.Questions)),
	}
	for i, q := range a.Questions {
		item := Item{
			QuestionText:     q.Text,
			Topic:            q.Topic,
			Difficulty:       string(q.Difficulty),
			TimeTakenSeconds: q.TimeTakenSeconds,
			CorrectAnswer:    q.Correct.String(),
			UserAnswer:       "(unanswered)",
		}
		if i < len(a.Outcomes) {
			item.UserAnswer = a.Outcomes[i].Answer.String()
			item.IsCorrect = a.Outcomes[i].Correct
		}
		req.Items[i] = item
	}
	return req
}
