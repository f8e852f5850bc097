package quiz

import (
	"encoding/json"
	"slices"
	"testing"
)

func TestNormalize_SingleChoice(t *testing.T) {
	tests := []struct {
		name   string
		raw    any
		status Status
		choice string
	}{
		{"nil", nil, StatusUnanswered, ""},
		{"empty string", "   ", StatusUnanswered, ""},
		{"trimmed", "  Mitochondria ", StatusValid, "Mitochondria"},
		{"number coerced", 42.0, StatusValid, "42"},
		{"int coerced", 7, StatusValid, "7"},
		{"bool coerced", true, StatusValid, "true"},
		{"json number", json.Number("3.5"), StatusValid, "3.5"},
		{"single element array", []any{" B "}, StatusValid, "B"},
		{"empty array", []any{}, StatusUnanswered, ""},
		{"multi element array", []any{"A", "B"}, StatusMismatch, ""},
		{"object", map[string]any{"a": 1}, StatusMismatch, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.raw, KindSingleChoice)
			if got.Status != tt.status {
				t.Fatalf("status = %q, want %q", got.Status, tt.status)
			}
			if got.Choice != tt.choice {
				t.Errorf("choice = %q, want %q", got.Choice, tt.choice)
			}
		})
	}
}

func TestNormalize_MultiChoice(t *testing.T) {
	tests := []struct {
		name    string
		raw     any
		status  Status
		choices []string
	}{
		{"nil", nil, StatusUnanswered, nil},
		{"delimited string", "A, B", StatusValid, []string{"A", "B"}},
		{"array trimmed", []any{"A", " B "}, StatusValid, []string{"A", "B"}},
		{"string slice", []string{"Y", "X"}, StatusValid, []string{"X", "Y"}},
		{"plain string", "A", StatusValid, []string{"A"}},
		{"empty segments dropped", "A,, ,B,", StatusValid, []string{"A", "B"}},
		{"duplicates collapse", []any{"A", "A", "B"}, StatusValid, []string{"A", "B"}},
		{"encoded array", `["Oxygen", "Carbon, dioxide"]`, StatusValid, []string{"Carbon, dioxide", "Oxygen"}},
		{"only commas", " , ,", StatusUnanswered, nil},
		{"empty array", []any{}, StatusUnanswered, nil},
		{"nested array", []any{[]any{"A"}}, StatusMismatch, nil},
		{"number", 4.0, StatusValid, []string{"4"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.raw, KindMultiChoice)
			if got.Status != tt.status {
				t.Fatalf("status = %q, want %q", got.Status, tt.status)
			}
			if !slices.Equal(got.Choices, tt.choices) {
				t.Errorf("choices = %v, want %v", got.Choices, tt.choices)
			}
		})
	}
}

func TestNormalizeFor_OptionWithComma(t *testing.T) {
	q := Question{
		Text:    "Which pair are noble gases?",
		Kind:    KindMultiChoice,
		Options: []string{"Helium, Neon", "Oxygen", "Argon", "Nitrogen"},
	}

	got := NormalizeFor("Helium, Neon", q)
	if !slices.Equal(got.Choices, []string{"Helium, Neon"}) {
		t.Fatalf("choices = %v, want the whole option", got.Choices)
	}

	// Without options in view the same string is split.
	split := Normalize("Helium, Neon", KindMultiChoice)
	if !slices.Equal(split.Choices, []string{"Helium", "Neon"}) {
		t.Fatalf("choices = %v, want split members", split.Choices)
	}
}

func TestNormalize_Numeric(t *testing.T) {
	tests := []struct {
		name   string
		raw    any
		status Status
		value  float64
	}{
		{"nil", nil, StatusUnanswered, 0},
		{"float", 9.81, StatusValid, 9.81},
		{"int", 12, StatusValid, 12},
		{"json number", json.Number("-0.5"), StatusValid, -0.5},
		{"numeric string", " 3.25 ", StatusValid, 3.25},
		{"empty string", "", StatusUnanswered, 0},
		{"word", "ten", StatusInvalid, 0},
		{"nan string", "NaN", StatusInvalid, 0},
		{"bool", true, StatusInvalid, 0},
		{"single element array", []any{"2"}, StatusValid, 2},
		{"two element array", []any{1.0, 2.0}, StatusMismatch, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.raw, KindNumeric)
			if got.Status != tt.status {
				t.Fatalf("status = %q, want %q", got.Status, tt.status)
			}
			if got.Number != tt.value {
				t.Errorf("number = %v, want %v", got.Number, tt.value)
			}
		})
	}
}

func TestNormalize_RawMessage(t *testing.T) {
	got := Normalize(json.RawMessage(`["A", "C"]`), KindMultiChoice)
	if !slices.Equal(got.Choices, []string{"A", "C"}) {
		t.Fatalf("choices = %v", got.Choices)
	}

	bad := Normalize(json.RawMessage(`{oops`), KindNumeric)
	if bad.Status != StatusInvalid {
		t.Fatalf("status = %q, want invalid", bad.Status)
	}
}

func TestAnswer_MarshalJSON(t *testing.T) {
	tests := []struct {
		a    Answer
		want string
	}{
		{SingleAnswer("B"), `"B"`},
		{MultiAnswer("B", "A"), `["A","B"]`},
		{NumericAnswer(2.5), `2.5`},
		{Unanswered(), `null`},
		{Normalize("ten", KindNumeric), `null`},
	}
	for _, tt := range tests {
		got, err := json.Marshal(tt.a)
		if err != nil {
			t.Fatalf("marshal %v: %v", tt.a, err)
		}
		if string(got) != tt.want {
			t.Errorf("marshal %v = %s, want %s", tt.a, got, tt.want)
		}
	}
}
