package report

import (
	"strings"
	"testing"
	"time"

	"github.com/abhisek/examprep/internal/quiz"
	"github.com/abhisek/examprep/internal/scoring"
)

func sampleQuiz() *quiz.Quiz {
	cfg := quiz.Configuration{Exam: "GATE", Syllabus: "Graphs", Difficulty: quiz.DifficultyMedium, Count: 2, UserID: "u1"}
	return quiz.NewQuiz(cfg, []quiz.Question{
		{
			Text:    "Which traversal uses a queue?",
			Kind:    quiz.KindSingleChoice,
			Options: []string{"DFS", "BFS", "Inorder", "Postorder"},
			Correct: quiz.SingleAnswer("BFS"),
			Topic:   "Traversal",
		},
		{
			Text:    "Edges in a spanning tree of 6 vertices?",
			Kind:    quiz.KindNumeric,
			Correct: quiz.NumericAnswer(5),
		},
	}, time.Now())
}

func TestQuiz(t *testing.T) {
	z := sampleQuiz()

	out := Quiz(z, false)
	for _, want := range []string{"GATE · Graphs", "Which traversal uses a queue?", "B) BFS", "Traversal"} {
		if !strings.Contains(out, want) {
			t.Errorf("Quiz() missing %q", want)
		}
	}
	if strings.Contains(out, "answer:") {
		t.Error("Quiz() without answers shows an answer")
	}

	out = Quiz(z, true)
	if !strings.Contains(out, "answer: BFS") || !strings.Contains(out, "answer: 5") {
		t.Error("Quiz() with answers is missing the correct answers")
	}
}

func TestStats(t *testing.T) {
	d := scoring.Date{Year: 2026, Month: 3, Day: 9}
	st := scoring.State{
		UserID:          "u1",
		Points:          120,
		CurrentStreak:   2,
		LongestStreak:   4,
		Badges:          []string{scoring.BadgeFirstSteps},
		LastAttemptDate: &d,
	}

	classified := scoring.NewAttempt(sampleQuiz())
	classified.Score, classified.Date = 1, d
	classified.Classification = scoring.Classification{
		State:         scoring.ClassificationPresent,
		WeakestTopics: []string{"Trees", "Traversal"},
	}
	pending := scoring.NewAttempt(sampleQuiz())
	pending.Classification = scoring.Classification{State: scoring.ClassificationPending, WeakestTopics: []string{"Ignored"}}

	out := Stats(st, []*scoring.Attempt{classified, pending}, scoring.DefaultPolicy())
	for _, want := range []string{"Points", "120", "2026-03-09", scoring.BadgeFirstSteps, "Trees, Traversal", "50%"} {
		if !strings.Contains(out, want) {
			t.Errorf("Stats() missing %q", want)
		}
	}
	if strings.Contains(out, "Ignored") {
		t.Error("Stats() used topics from an unclassified attempt")
	}
}

func TestWeakTopics_OrderAndLimit(t *testing.T) {
	mk := func(topics ...string) *scoring.Attempt {
		return &scoring.Attempt{Classification: scoring.Classification{State: scoring.ClassificationPresent, WeakestTopics: topics}}
	}
	got := weakTopics([]*scoring.Attempt{mk("Optics", "Waves"), mk("Waves", "Heat"), mk("Waves", "Optics", "Atoms")})
	want := []string{"Waves", "Optics", "Atoms"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("weakTopics() = %v, want %v", got, want)
	}
}

func TestBar_Clamps(t *testing.T) {
	if !strings.Contains(Bar("", 1.5, 20), "150%") {
		t.Error("Bar() should still report the raw percentage")
	}
	if Bar("x", -1, 2) == "" {
		t.Error("Bar() rendered nothing")
	}
}
