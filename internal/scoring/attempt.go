package scoring

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/abhisek/examprep/internal/quiz"
)

// ErrFinalized is returned when a finalized attempt is mutated.
var ErrFinalized = errors.New("attempt already finalized")

// Attempt is one user's quiz session. It is created empty when the quiz
// starts, mutated per question while the user works, finalized on
// submission, persisted, and later enriched with a Classification.
type Attempt struct {
	ID     string `json:"id"`
	QuizID string `json:"quiz_id"`
	UserID string `json:"user_id"`
	Exam   string `json:"exam"`
	Stream string `json:"stream,omitempty"`

	// Questions are copies of the quiz questions in delivery order.
	Questions []quiz.Question `json:"questions"`

	// Answers maps question index to the raw submitted value.
	Answers map[int]any `json:"answers"`

	Outcomes         []Outcome      `json:"outcomes,omitempty"`
	Score            int            `json:"score"`
	TotalTimeSeconds float64        `json:"total_time_seconds"`
	Classification   Classification `json:"error_classification"`

	SubmittedAt time.Time `json:"submitted_at"`
	Date        Date      `json:"attempt_date"`
	Finalized   bool      `json:"finalized"`
}

// NewAttempt starts an attempt on z with per-question timers at zero.
func NewAttempt(z *quiz.Quiz) *Attempt {
	qs := slices.Clone(z.Questions)
	for i := range qs {
		qs[i].TimeTakenSeconds = 0
	}
	return &Attempt{
		QuizID:         z.ID,
		UserID:         z.UserID,
		Exam:           z.Config.Exam,
		Stream:         z.Config.Stream,
		Questions:      qs,
		Answers:        make(map[int]any),
		Classification: Pending(),
	}
}

func (a *Attempt) checkIndex(i int) error {
	if a.Finalized {
		return ErrFinalized
	}
	if i < 0 || i >= len(a.Questions) {
		return fmt.Errorf("question index %d out of range [0, %d)", i, len(a.Questions))
	}
	return nil
}

// SetAnswer records the raw answer for question i, replacing any earlier one.
func (a *Attempt) SetAnswer(i int, raw any) error {
	if err := a.checkIndex(i); err != nil {
		return err
	}
	a.Answers[i] = raw
	return nil
}

// RecordTime adds seconds to the time spent on question i.
func (a *Attempt) RecordTime(i int, seconds float64) error {
	if err := a.checkIndex(i); err != nil {
		return err
	}
	if seconds < 0 {
		return fmt.Errorf("negative time %v for question %d", seconds, i)
	}
	a.Questions[i].TimeTakenSeconds += seconds
	return nil
}

// Finalize scores the attempt and freezes it. The score always comes from
// the scorer, never from the client. Total time defaults to the sum of the
// per-question times when totalSeconds is zero.
func (a *Attempt) Finalize(s *Scorer, at time.Time, loc *time.Location, totalSeconds float64) (Scorecard, error) {
	if a.Finalized {
		return Scorecard{}, ErrFinalized
	}
	if s == nil {
		s = silentScorer
	}

	card := s.Score(a.Questions, a.Answers)
	a.Outcomes = card.Outcomes
	a.Score = card.Score

	if totalSeconds <= 0 {
		for _, q := range a.Questions {
			totalSeconds += q.TimeTakenSeconds
		}
	}
	a.TotalTimeSeconds = totalSeconds
	a.SubmittedAt = at.UTC()
	a.Date = DateOf(at, loc)
	a.Finalized = true
	return card, nil
}

// Rescore recomputes outcomes of a stored attempt from its questions and
// raw answers.
func (a *Attempt) Rescore() {
	card := ScoreAttempt(a.Questions, a.Answers)
	a.Outcomes = card.Outcomes
	a.Score = card.Score
}

// Clone returns a copy of a whose slices and maps can be modified freely.
func (a *Attempt) Clone() *Attempt {
	c := *a
	c.Questions = slices.Clone(a.Questions)
	c.Answers = maps.Clone(a.Answers)
	c.Outcomes = slices.Clone(a.Outcomes)
	c.Classification.Tags = slices.Clone(a.Classification.Tags)
	c.Classification.Tally = maps.Clone(a.Classification.Tally)
	c.Classification.WeakestTopics = slices.Clone(a.Classification.WeakestTopics)
	return &c
}
