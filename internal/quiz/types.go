package quiz

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind determines the shape of a question's answer and how it is evaluated.
type Kind string

const (
	// KindSingleChoice means exactly one of four options is correct.
	KindSingleChoice Kind = "single_choice"

	// KindMultiChoice means two or three of four options are correct and the
	// learner must select all of them.
	KindMultiChoice Kind = "multi_choice"

	// KindNumeric means the learner enters a number checked against a window.
	KindNumeric Kind = "numeric"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindSingleChoice, KindMultiChoice, KindNumeric:
		return true
	}
	return false
}

// HasOptions reports whether questions of this kind carry an option list.
func (k Kind) HasOptions() bool {
	return k == KindSingleChoice || k == KindMultiChoice
}

// Difficulty is the requested or self-assessed difficulty of a question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is a known difficulty.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// ParseDifficulty accepts any casing of easy, medium or hard.
func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", fmt.Errorf("unknown difficulty %q (want easy, medium or hard)", s)
	}
	return d, nil
}

// OptionCount is the number of options every choice question carries.
const OptionCount = 4

// Tolerance is an inclusive acceptance range for numeric answers.
type Tolerance struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies within [Min, Max].
func (t Tolerance) Contains(v float64) bool {
	return v >= t.Min && v <= t.Max
}

// Question is one generated quiz item as delivered to the learner.
type Question struct {
	// Text is the prompt. Texts are unique within a quiz and are the key used
	// to merge analysis results back onto questions.
	Text string `json:"text"`

	Kind Kind `json:"kind"`

	// Options holds exactly four unique entries for choice kinds and is
	// empty for numeric questions.
	Options []string `json:"options,omitempty"`

	// Correct is the canonical correct answer. For choice kinds its values
	// are members of Options.
	Correct Answer `json:"correct_answer"`

	// Tolerance overrides the default numeric window when set.
	Tolerance *Tolerance `json:"numeric_tolerance,omitempty"`

	Difficulty Difficulty `json:"difficulty"`

	// Topic is an optional label used for weak-topic aggregation.
	Topic string `json:"topic,omitempty"`

	// TimeTakenSeconds accumulates while the learner works on the question.
	TimeTakenSeconds float64 `json:"time_taken_seconds"`
}

// HasOption reports whether s is exactly one of the question's options.
func (q Question) HasOption(s string) bool {
	for _, o := range q.Options {
		if o == s {
			return true
		}
	}
	return false
}

// Configuration is an immutable question-set generation request.
type Configuration struct {
	Exam       string     `json:"exam"`
	Stream     string     `json:"stream,omitempty"`
	Syllabus   string     `json:"syllabus"`
	Difficulty Difficulty `json:"difficulty"`
	Count      int        `json:"count"`
	UserID     string     `json:"user_id"`
}

// Validate checks the fields every generation request must carry.
func (c Configuration) Validate() error {
	switch {
	case strings.TrimSpace(c.Exam) == "":
		return fmt.Errorf("exam is required")
	case strings.TrimSpace(c.Syllabus) == "":
		return fmt.Errorf("syllabus is required")
	case strings.TrimSpace(c.UserID) == "":
		return fmt.Errorf("user id is required")
	case !c.Difficulty.Valid():
		return fmt.Errorf("unknown difficulty %q", c.Difficulty)
	case c.Count < 1:
		return fmt.Errorf("count must be at least 1, got %d", c.Count)
	}
	return nil
}

// Quiz is a generated question set held by the server so that submissions
// reference stored questions instead of client-supplied answers.
type Quiz struct {
	ID        string        `json:"id"`
	UserID    string        `json:"user_id"`
	Config    Configuration `json:"configuration"`
	Questions []Question    `json:"questions"`
	CreatedAt time.Time     `json:"created_at"`
}

// NewQuiz assigns a fresh id to a generated question set.
func NewQuiz(cfg Configuration, questions []Question, now time.Time) *Quiz {
	return &Quiz{
		ID:        uuid.NewString(),
		UserID:    cfg.UserID,
		Config:    cfg,
		Questions: questions,
		CreatedAt: now.UTC(),
	}
}

// Texts returns the question texts in order.
func (z *Quiz) Texts() []string {
	texts := make([]string, len(z.Questions))
	for i, q := range z.Questions {
		texts[i] = q.Text
	}
	return texts
}
