package quiz

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Status tags the state of a canonical Answer.
type Status string

const (
	// StatusUnanswered is the sentinel for a missing or empty answer.
	StatusUnanswered Status = "unanswered"

	// StatusValid means the answer holds a value of its Kind.
	StatusValid Status = "valid"

	// StatusInvalid means the raw value had the right shape but could not be
	// parsed, e.g. a non-numeric string for a numeric question.
	StatusInvalid Status = "invalid"

	// StatusMismatch means the raw value's shape disagrees with the declared
	// kind, e.g. a multi-element array for a single-choice question.
	StatusMismatch Status = "mismatch"
)

// Answer is the canonical, kind-tagged form of a user or correct answer.
// Untyped input becomes an Answer only through Normalize.
type Answer struct {
	Status Status
	Kind   Kind

	// Choice is set for valid single-choice answers.
	Choice string

	// Choices is a sorted, duplicate-free set for valid multi-choice answers.
	Choices []string

	// Number is set for valid numeric answers.
	Number float64

	// Raw is a printable copy of the input for invalid and mismatched values.
	Raw string
}

// Unanswered returns the unanswered sentinel.
func Unanswered() Answer {
	return Answer{Status: StatusUnanswered}
}

// SingleAnswer builds a valid single-choice answer.
func SingleAnswer(choice string) Answer {
	return Answer{Status: StatusValid, Kind: KindSingleChoice, Choice: strings.TrimSpace(choice)}
}

// MultiAnswer builds a valid multi-choice answer from the given members.
// Members are trimmed, empties dropped and duplicates collapsed.
func MultiAnswer(choices ...string) Answer {
	set := make([]string, 0, len(choices))
	for _, c := range choices {
		if c = strings.TrimSpace(c); c != "" {
			set = append(set, c)
		}
	}
	slices.Sort(set)
	set = slices.Compact(set)
	if len(set) == 0 {
		return Unanswered()
	}
	return Answer{Status: StatusValid, Kind: KindMultiChoice, Choices: set}
}

// NumericAnswer builds a valid numeric answer.
func NumericAnswer(v float64) Answer {
	return Answer{Status: StatusValid, Kind: KindNumeric, Number: v}
}

// IsValid reports whether the answer holds a usable value.
func (a Answer) IsValid() bool { return a.Status == StatusValid }

// Value returns the answer as a plain Go value: string, []string, float64,
// or nil when the answer is not valid.
func (a Answer) Value() any {
	if a.Status != StatusValid {
		return nil
	}
	switch a.Kind {
	case KindSingleChoice:
		return a.Choice
	case KindMultiChoice:
		return slices.Clone(a.Choices)
	case KindNumeric:
		return a.Number
	}
	return nil
}

// String renders the answer for prompts and CLI output.
func (a Answer) String() string {
	switch a.Status {
	case StatusUnanswered, "":
		return "(unanswered)"
	case StatusInvalid, StatusMismatch:
		return fmt.Sprintf("(%s: %s)", a.Status, a.Raw)
	}
	switch a.Kind {
	case KindSingleChoice:
		return a.Choice
	case KindMultiChoice:
		return strings.Join(a.Choices, "; ")
	case KindNumeric:
		return strconv.FormatFloat(a.Number, 'f', -1, 64)
	}
	return ""
}

// MarshalJSON encodes a valid answer as a string, array or number according
// to its kind. Every other state encodes as null.
func (a Answer) MarshalJSON() ([]byte, error) {
	v := a.Value()
	if v == nil {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

// UnmarshalJSON infers the kind from the JSON shape: string for single
// choice, array for multi choice, number for numeric. null decodes as
// unanswered. Use Normalize when the kind is known.
func (a *Answer) UnmarshalJSON(data []byte) error {
	v, err := decodeLoose(data)
	if err != nil {
		return err
	}
	switch v.(type) {
	case nil:
		*a = Unanswered()
	case string:
		*a = Normalize(v, KindSingleChoice)
	case []any:
		*a = Normalize(v, KindMultiChoice)
	case json.Number:
		*a = Normalize(v, KindNumeric)
	default:
		return fmt.Errorf("answer must be a string, array, number or null, got %s", data)
	}
	return nil
}

// decodeLoose decodes JSON keeping numbers as json.Number.
func decodeLoose(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

type questionJSON struct {
	Text             string          `json:"text"`
	Kind             Kind            `json:"kind"`
	Options          []string        `json:"options,omitempty"`
	Correct          json.RawMessage `json:"correct_answer"`
	Tolerance        *Tolerance      `json:"numeric_tolerance,omitempty"`
	Difficulty       Difficulty      `json:"difficulty"`
	Topic            string          `json:"topic,omitempty"`
	TimeTakenSeconds float64         `json:"time_taken_seconds"`
}

// UnmarshalJSON decodes a question, normalizing the correct answer against
// the declared kind and options. A correct answer whose shape disagrees
// with the kind decodes as a mismatch rather than failing.
func (q *Question) UnmarshalJSON(data []byte) error {
	var raw questionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*q = Question{
		Text:             raw.Text,
		Kind:             raw.Kind,
		Options:          raw.Options,
		Tolerance:        raw.Tolerance,
		Difficulty:       raw.Difficulty,
		Topic:            raw.Topic,
		TimeTakenSeconds: raw.TimeTakenSeconds,
	}

	var correct any
	if len(raw.Correct) > 0 {
		v, err := decodeLoose(raw.Correct)
		if err != nil {
			return fmt.Errorf("decode correct_answer: %w", err)
		}
		correct = v
	}
	q.Correct = NormalizeFor(correct, *q)
	return nil
}
