package quiz

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
)

// DefaultNumericWindow is the half-width of the acceptance window used for
// numeric questions without an explicit tolerance. The window is open: an
// answer exactly DefaultNumericWindow away is incorrect.
const DefaultNumericWindow = 0.01

// windowEpsilon absorbs binary floating-point error at the window edge so
// that 10.01 against 10 is treated as lying on the boundary.
const windowEpsilon = 1e-9

// DataIntegrityWarning reports that a question's declared kind disagrees
// with the data actually present. It is never fatal: the answer is scored
// as incorrect.
type DataIntegrityWarning struct {
	Question string
	Kind     Kind
	Field    string // "correct_answer" or "user_answer"
	Detail   string
}

func (w *DataIntegrityWarning) Error() string {
	return fmt.Sprintf("data integrity: %s of %q (kind %s): %s", w.Field, w.Question, w.Kind, w.Detail)
}

// Check decides whether a is a correct answer to q. The returned warning is
// non-nil when either side's shape disagrees with q.Kind; the verdict is
// then always false.
func Check(q Question, a Answer) (bool, *DataIntegrityWarning) {
	c := q.Correct
	if !q.Kind.Valid() {
		return false, integrityWarning(q, "correct_answer", fmt.Sprintf("unknown kind %q", q.Kind))
	}
	if c.Status != StatusValid || c.Kind != q.Kind {
		return false, integrityWarning(q, "correct_answer", describe(c))
	}

	switch a.Status {
	case StatusUnanswered, StatusInvalid, "":
		return false, nil
	case StatusMismatch:
		return false, integrityWarning(q, "user_answer", describe(a))
	}
	if a.Kind != q.Kind {
		return false, integrityWarning(q, "user_answer", describe(a))
	}

	switch q.Kind {
	case KindSingleChoice:
		return a.Choice == c.Choice, nil
	case KindMultiChoice:
		return sameSet(a.Choices, c.Choices), nil
	default:
		return withinWindow(q, a.Number), nil
	}
}

// IsCorrect is Check without the warning.
func IsCorrect(q Question, a Answer) bool {
	ok, _ := Check(q, a)
	return ok
}

// Evaluator checks answers and logs data-integrity warnings.
type Evaluator struct {
	logger *slog.Logger
}

// NewEvaluator creates an Evaluator. A nil logger discards warnings.
func NewEvaluator(logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Evaluator{logger: logger}
}

// Evaluate normalizes raw against q and reports correctness along with the
// canonical answer.
func (e *Evaluator) Evaluate(q Question, raw any) (bool, Answer) {
	a := NormalizeFor(raw, q)
	ok, warn := Check(q, a)
	if warn != nil {
		e.logger.Warn("data integrity warning",
			"question", warn.Question,
			"kind", string(warn.Kind),
			"field", warn.Field,
			"detail", warn.Detail)
	}
	return ok, a
}

func withinWindow(q Question, v float64) bool {
	if q.Tolerance != nil {
		return q.Tolerance.Contains(v)
	}
	return math.Abs(v-q.Correct.Number) < DefaultNumericWindow-windowEpsilon
}

// sameSet reports whether a and b contain the same members.
func sameSet(a, b []string) bool {
	return slices.Equal(asSet(a), asSet(b))
}

func asSet(s []string) []string {
	s = slices.Clone(s)
	slices.Sort(s)
	return slices.Compact(s)
}

func integrityWarning(q Question, field, detail string) *DataIntegrityWarning {
	return &DataIntegrityWarning{Question: q.Text, Kind: q.Kind, Field: field, Detail: detail}
}

func describe(a Answer) string {
	switch a.Status {
	case StatusValid:
		return fmt.Sprintf("holds a %s value", a.Kind)
	case StatusUnanswered, "":
		return "missing"
	default:
		return fmt.Sprintf("%s value %s", a.Status, a.Raw)
	}
}
