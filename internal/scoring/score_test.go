package scoring

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/abhisek/examprep/internal/quiz"
)

func scenarioQuestions() []quiz.Question {
	var qs []quiz.Question
	for i := range 7 {
		qs = append(qs, quiz.Question{
			Text:       fmt.Sprintf("Single %d", i),
			Kind:       quiz.KindSingleChoice,
			Options:    []string{"A", "B", "C", "D"},
			Correct:    quiz.SingleAnswer("C"),
			Difficulty: quiz.DifficultyEasy,
			Topic:      "Optics",
		})
	}
	for i := range 2 {
		qs = append(qs, quiz.Question{
			Text:       fmt.Sprintf("Multi %d", i),
			Kind:       quiz.KindMultiChoice,
			Options:    []string{"A", "B", "C", "D"},
			Correct:    quiz.MultiAnswer("A", "B"),
			Difficulty: quiz.DifficultyMedium,
			Topic:      "Waves",
		})
	}
	qs = append(qs, quiz.Question{
		Text:       "Numeric",
		Kind:       quiz.KindNumeric,
		Correct:    quiz.NumericAnswer(9.8),
		Difficulty: quiz.DifficultyHard,
		Topic:      "Mechanics",
	})
	return qs
}

func TestScoreAttempt_Scenario(t *testing.T) {
	qs := scenarioQuestions()
	answers := map[int]any{}
	for i := range 7 {
		answers[i] = "C"
	}
	answers[7] = []any{"A", "B", "D"}
	answers[8] = "A, B, C"
	answers[9] = "9.805"

	card := ScoreAttempt(qs, answers)
	require.Equal(t, 8, card.Score)
	require.Equal(t, 10, card.Total)
	require.False(t, card.Outcomes[7].Correct)
	require.False(t, card.Outcomes[8].Correct)
	require.True(t, card.Outcomes[9].Correct)

	u := UpdateGamification(State{Points: 100}, day("2026-03-01"), card.Result())
	require.Equal(t, 180, u.State.Points)
}

func TestScoreAttempt_MalformedAnswersDoNotAbort(t *testing.T) {
	qs := scenarioQuestions()
	answers := map[int]any{
		0:  map[string]any{"weird": true},
		1:  []any{"C", "D"},
		2:  "C",
		9:  "nine point eight",
		42: "ignored",
	}
	card := ScoreAttempt(qs, answers)
	require.Equal(t, 1, card.Score)
	require.Len(t, card.Outcomes, len(qs))
	require.Equal(t, quiz.StatusMismatch, card.Outcomes[1].Status)
	require.Equal(t, quiz.StatusInvalid, card.Outcomes[9].Status)
	require.Equal(t, quiz.StatusUnanswered, card.Outcomes[5].Status)
}

func TestAttemptLifecycle(t *testing.T) {
	cfg := quiz.Configuration{Exam: "JEE", Syllabus: "Physics", Difficulty: quiz.DifficultyEasy, Count: 10, UserID: "u1"}
	z := quiz.NewQuiz(cfg, scenarioQuestions(), time.Now())
	z.Questions[0].TimeTakenSeconds = 99

	a := NewAttempt(z)
	require.Equal(t, z.ID, a.QuizID)
	require.Equal(t, ClassificationPending, a.Classification.State)
	require.Zero(t, a.Questions[0].TimeTakenSeconds)
	require.Equal(t, 99.0, z.Questions[0].TimeTakenSeconds, "quiz questions must not be shared")

	require.NoError(t, a.SetAnswer(0, "B"))
	require.NoError(t, a.SetAnswer(0, "C"))
	require.NoError(t, a.RecordTime(0, 12.5))
	require.NoError(t, a.RecordTime(0, 2.5))
	require.NoError(t, a.RecordTime(9, 30))
	require.Error(t, a.SetAnswer(10, "A"))
	require.Error(t, a.RecordTime(-1, 1))
	require.Error(t, a.RecordTime(1, -3))

	at := time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC)
	card, err := a.Finalize(nil, at, time.FixedZone("IST", 19800), 0)
	require.NoError(t, err)
	require.Equal(t, 1, card.Score)
	require.Equal(t, 1, a.Score)
	require.Equal(t, 45.0, a.TotalTimeSeconds)
	require.Equal(t, "2026-03-02", a.Date.String())
	require.True(t, a.Finalized)

	require.ErrorIs(t, a.SetAnswer(1, "C"), ErrFinalized)
	_, err = a.Finalize(nil, at, nil, 0)
	require.ErrorIs(t, err, ErrFinalized)
}

func TestAttemptRescore(t *testing.T) {
	a := &Attempt{Questions: scenarioQuestions(), Answers: map[int]any{0: "C", 9: 9.8}}
	a.Score = 10
	a.Rescore()
	require.Equal(t, 2, a.Score)
	require.Len(t, a.Outcomes, 10)
}
