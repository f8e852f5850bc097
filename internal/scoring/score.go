package scoring

import (
	"log/slog"

	"github.com/abhisek/examprep/internal/quiz"
)

// Outcome is the verdict for one question of an attempt.
type Outcome struct {
	Index   int         `json:"index"`
	Correct bool        `json:"correct"`
	Answer  quiz.Answer `json:"answer"`
	Status  quiz.Status `json:"answer_status"`
}

// Scorecard is the server-side result of scoring an attempt.
type Scorecard struct {
	Score    int       `json:"score"`
	Total    int       `json:"total"`
	Outcomes []Outcome `json:"outcomes"`
}

// Result reduces the scorecard to what gamification needs.
func (s Scorecard) Result() Result {
	return Result{Score: s.Score, Total: s.Total}
}

// Scorer evaluates every answer of an attempt.
type Scorer struct {
	eval *quiz.Evaluator
}

// NewScorer creates a Scorer that logs data-integrity warnings to logger.
func NewScorer(logger *slog.Logger) *Scorer {
	return &Scorer{eval: quiz.NewEvaluator(logger)}
}

// Score normalizes and evaluates answers[i] against questions[i] for every
// question. Missing entries are unanswered. Malformed input only ever makes
// a single answer incorrect.
func (s *Scorer) Score(questions []quiz.Question, answers map[int]any) Scorecard {
	card := Scorecard{Total: len(questions), Outcomes: make([]Outcome, len(questions))}
	for i, q := range questions {
		ok, a := s.eval.Evaluate(q, answers[i])
		card.Outcomes[i] = Outcome{Index: i, Correct: ok, Answer: a, Status: a.Status}
		if ok {
			card.Score++
		}
	}
	return card
}

var silentScorer = NewScorer(nil)

// ScoreAttempt scores answers without logging.
func ScoreAttempt(questions []quiz.Question, answers map[int]any) Scorecard {
	return silentScorer.Score(questions, answers)
}
