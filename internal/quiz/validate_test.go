package quiz

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(q *Question)
		base      func() Question
		validator string
	}{
		{"valid single", func(q *Question) {}, singleQ, ""},
		{"valid multi", func(q *Question) {}, multiQ, ""},
		{"valid numeric", func(q *Question) {}, func() Question { return numericQ(2, &Tolerance{Min: 1.9, Max: 2.1}) }, ""},
		{"empty text", func(q *Question) { q.Text = " " }, singleQ, "structural"},
		{"unknown kind", func(q *Question) { q.Kind = "essay" }, singleQ, "structural"},
		{"unknown difficulty", func(q *Question) { q.Difficulty = "extreme" }, singleQ, "structural"},
		{"three options", func(q *Question) { q.Options = q.Options[:3] }, singleQ, "options"},
		{"duplicate options", func(q *Question) { q.Options[1] = q.Options[0] }, singleQ, "options"},
		{"blank option", func(q *Question) { q.Options[2] = "" }, singleQ, "options"},
		{"numeric with options", func(q *Question) { q.Options = []string{"1", "2", "3", "4"} }, func() Question { return numericQ(2, nil) }, "options"},
		{"answer not an option", func(q *Question) { q.Correct = SingleAnswer("Chloroplast") }, singleQ, "answer"},
		{"multi with one answer", func(q *Question) { q.Correct = MultiAnswer("X") }, multiQ, "answer"},
		{"multi with four answers", func(q *Question) { q.Correct = MultiAnswer("X", "Y", "Z", "W") }, multiQ, "answer"},
		{"multi answer not an option", func(q *Question) { q.Correct = MultiAnswer("X", "Q") }, multiQ, "answer"},
		{"kind disagrees with answer", func(q *Question) { q.Correct = NumericAnswer(1) }, singleQ, "answer"},
		{"inverted tolerance", func(q *Question) { q.Tolerance = &Tolerance{Min: 3, Max: 1} }, func() Question { return numericQ(2, nil) }, "answer"},
		{"answer outside tolerance", func(q *Question) { q.Tolerance = &Tolerance{Min: 5, Max: 6} }, func() Question { return numericQ(2, nil) }, "answer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := tt.base()
			q.Options = append([]string(nil), q.Options...)
			tt.mutate(&q)

			err := Validate(q)
			if tt.validator == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Validator != tt.validator {
				t.Errorf("validator = %q, want %q (%s)", verr.Validator, tt.validator, verr.Message)
			}
		})
	}
}

func TestConfigurationValidate(t *testing.T) {
	good := Configuration{Exam: "JEE", Syllabus: "Kinematics", Difficulty: DifficultyMedium, Count: 10, UserID: "u1"}
	if err := good.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := []Configuration{
		{Syllabus: "s", Difficulty: DifficultyEasy, Count: 1, UserID: "u"},
		{Exam: "e", Difficulty: DifficultyEasy, Count: 1, UserID: "u"},
		{Exam: "e", Syllabus: "s", Difficulty: DifficultyEasy, Count: 1},
		{Exam: "e", Syllabus: "s", Difficulty: "trivial", Count: 1, UserID: "u"},
		{Exam: "e", Syllabus: "s", Difficulty: DifficultyEasy, Count: 0, UserID: "u"},
	}
	for i, c := range bad {
		if err := c.Validate(); err == nil {
			t.Errorf("case %d: expected error for %+v", i, c)
		}
	}
}

func TestParseDifficulty(t *testing.T) {
	d, err := ParseDifficulty(" Hard ")
	if err != nil || d != DifficultyHard {
		t.Fatalf("ParseDifficulty = %q, %v", d, err)
	}
	if _, err := ParseDifficulty("brutal"); err == nil {
		t.Fatal("expected error")
	}
}

func TestQuestionJSONRoundTrip(t *testing.T) {
	qs := []Question{singleQ(), multiQ(), numericQ(9.8, &Tolerance{Min: 9.7, Max: 9.9})}
	for _, q := range qs {
		data, err := json.Marshal(q)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var got Question
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if err := Validate(got); err != nil {
			t.Fatalf("decoded question invalid: %v (%s)", err, data)
		}
		if !IsCorrect(got, q.Correct) {
			t.Fatalf("decoded correct answer differs: %s", data)
		}
	}
}

func TestQuestionUnmarshal_StoredShapes(t *testing.T) {
	t.Run("comma-joined multi answer", func(t *testing.T) {
		var q Question
		data := `{"text":"Pick two","kind":"multi_choice","options":["A","B","C","D"],"correct_answer":"B, A","difficulty":"easy"}`
		if err := json.Unmarshal([]byte(data), &q); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if !IsCorrect(q, MultiAnswer("A", "B")) {
			t.Fatalf("correct = %+v", q.Correct)
		}
	})

	t.Run("array for single choice decodes as mismatch", func(t *testing.T) {
		var q Question
		data := `{"text":"Pick one","kind":"single_choice","options":["A","B","C","D"],"correct_answer":["A","B"],"difficulty":"easy"}`
		if err := json.Unmarshal([]byte(data), &q); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if q.Correct.Status != StatusMismatch {
			t.Fatalf("status = %q, want mismatch", q.Correct.Status)
		}
		if _, warn := Check(q, SingleAnswer("A")); warn == nil {
			t.Fatal("expected data integrity warning")
		}
	})

	t.Run("numeric string answer", func(t *testing.T) {
		var q Question
		data := `{"text":"g?","kind":"numeric","correct_answer":"9.81","difficulty":"easy"}`
		if err := json.Unmarshal([]byte(data), &q); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if q.Correct.Number != 9.81 {
			t.Fatalf("number = %v", q.Correct.Number)
		}
	})
}

func TestNewQuiz(t *testing.T) {
	cfg := Configuration{Exam: "NEET", Syllabus: "Cell biology", Difficulty: DifficultyEasy, Count: 1, UserID: "u42"}
	z := NewQuiz(cfg, []Question{singleQ()}, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	if z.ID == "" || z.UserID != "u42" {
		t.Fatalf("quiz = %+v", z)
	}
	if texts := z.Texts(); len(texts) != 1 || texts[0] != singleQ().Text {
		t.Fatalf("texts = %v", texts)
	}
}
