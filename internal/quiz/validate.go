package quiz

import (
	"fmt"
	"strings"
)

// MaxTextLength bounds a question prompt.
const MaxTextLength = 1000

// Validator checks a generated question for correctness.
// Implementations should be stateless and safe for concurrent use.
type Validator interface {
	// Name returns a short identifier used in error messages and logs.
	Name() string

	// Validate returns nil if q passes.
	Validate(q Question) *ValidationError
}

// ValidationError describes why a question failed validation.
type ValidationError struct {
	Validator string
	Message   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validator %q: %s", e.Validator, e.Message)
}

// DefaultValidators returns the validator chain applied to every generated
// question.
func DefaultValidators() []Validator {
	return []Validator{
		&StructuralValidator{},
		&OptionsValidator{},
		&AnswerValidator{},
	}
}

// Validate runs the default validator chain and returns the first failure.
func Validate(q Question) error {
	for _, v := range DefaultValidators() {
		if verr := v.Validate(q); verr != nil {
			return verr
		}
	}
	return nil
}

// StructuralValidator checks required fields and enum values.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(q Question) *ValidationError {
	switch {
	case strings.TrimSpace(q.Text) == "":
		return &ValidationError{Validator: v.Name(), Message: "text is empty"}
	case len(q.Text) > MaxTextLength:
		return &ValidationError{Validator: v.Name(), Message: fmt.Sprintf("text exceeds %d characters", MaxTextLength)}
	case !q.Kind.Valid():
		return &ValidationError{Validator: v.Name(), Message: fmt.Sprintf("unknown kind %q", q.Kind)}
	case !q.Difficulty.Valid():
		return &ValidationError{Validator: v.Name(), Message: fmt.Sprintf("unknown difficulty %q", q.Difficulty)}
	}
	return nil
}

// OptionsValidator checks that choice questions carry exactly four unique,
// non-empty options and numeric questions carry none.
type OptionsValidator struct{}

func (v *OptionsValidator) Name() string { return "options" }

func (v *OptionsValidator) Validate(q Question) *ValidationError {
	if !q.Kind.HasOptions() {
		if len(q.Options) > 0 {
			return &ValidationError{Validator: v.Name(), Message: "numeric questions must not have options"}
		}
		return nil
	}

	if len(q.Options) != OptionCount {
		return &ValidationError{
			Validator: v.Name(),
			Message:   fmt.Sprintf("expected %d options, got %d", OptionCount, len(q.Options)),
		}
	}
	seen := make(map[string]bool, len(q.Options))
	for _, o := range q.Options {
		t := strings.TrimSpace(o)
		if t == "" {
			return &ValidationError{Validator: v.Name(), Message: "options must not be empty"}
		}
		if t != o {
			return &ValidationError{Validator: v.Name(), Message: fmt.Sprintf("option %q has surrounding whitespace", o)}
		}
		if seen[o] {
			return &ValidationError{Validator: v.Name(), Message: fmt.Sprintf("duplicate option %q", o)}
		}
		seen[o] = true
	}
	return nil
}

// AnswerValidator checks that the correct answer has the shape of the kind
// and, for choice kinds, names options of the question.
type AnswerValidator struct{}

func (v *AnswerValidator) Name() string { return "answer" }

func (v *AnswerValidator) Validate(q Question) *ValidationError {
	c := q.Correct
	if c.Status != StatusValid || c.Kind != q.Kind {
		return &ValidationError{Validator: v.Name(), Message: "correct answer " + describe(c)}
	}

	switch q.Kind {
	case KindSingleChoice:
		if !q.HasOption(c.Choice) {
			return &ValidationError{Validator: v.Name(), Message: fmt.Sprintf("answer %q is not one of the options", c.Choice)}
		}
	case KindMultiChoice:
		if n := len(c.Choices); n < 2 || n > 3 {
			return &ValidationError{Validator: v.Name(), Message: fmt.Sprintf("multi-choice needs 2 or 3 correct options, got %d", n)}
		}
		for _, choice := range c.Choices {
			if !q.HasOption(choice) {
				return &ValidationError{Validator: v.Name(), Message: fmt.Sprintf("answer %q is not one of the options", choice)}
			}
		}
	case KindNumeric:
		if t := q.Tolerance; t != nil {
			if t.Min > t.Max {
				return &ValidationError{Validator: v.Name(), Message: fmt.Sprintf("tolerance min %v exceeds max %v", t.Min, t.Max)}
			}
			if !t.Contains(c.Number) {
				return &ValidationError{Validator: v.Name(), Message: fmt.Sprintf("answer %v outside its tolerance [%v, %v]", c.Number, t.Min, t.Max)}
			}
		}
	}
	return nil
}
