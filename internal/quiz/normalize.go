package quiz

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MultiChoiceDelimiter separates members of a multi-choice answer that
// arrives as a single string.
const MultiChoiceDelimiter = ","

// Normalize converts a raw answer value (string, number, bool, array or
// nil) into the canonical Answer for kind. It never fails: unusable input
// becomes an unanswered, invalid or mismatched Answer.
func Normalize(raw any, kind Kind) Answer {
	return normalize(raw, kind, nil)
}

// NormalizeFor is Normalize with the question's options in view. A
// multi-choice string that exactly equals one option is kept whole instead
// of being split on commas, so options that contain commas survive.
func NormalizeFor(raw any, q Question) Answer {
	return normalize(raw, q.Kind, q.Options)
}

func normalize(raw any, kind Kind, options []string) Answer {
	if raw == nil {
		return Unanswered()
	}
	if rm, ok := raw.(json.RawMessage); ok {
		v, err := decodeLoose(rm)
		if err != nil {
			return Answer{Status: StatusInvalid, Kind: kind, Raw: string(rm)}
		}
		raw = v
	}

	switch kind {
	case KindSingleChoice:
		return normalizeSingle(raw)
	case KindMultiChoice:
		return normalizeMulti(raw, options)
	case KindNumeric:
		return normalizeNumeric(raw)
	}
	return Answer{Status: StatusMismatch, Kind: kind, Raw: printable(raw)}
}

func normalizeSingle(raw any) Answer {
	if items, ok := asList(raw); ok {
		switch len(items) {
		case 0:
			return Unanswered()
		case 1:
			return normalizeSingle(items[0])
		default:
			return Answer{Status: StatusMismatch, Kind: KindSingleChoice, Raw: printable(raw)}
		}
	}

	s, ok := scalarString(raw)
	if !ok {
		return Answer{Status: StatusMismatch, Kind: KindSingleChoice, Raw: printable(raw)}
	}
	if s == "" {
		return Unanswered()
	}
	return SingleAnswer(s)
}

func normalizeMulti(raw any, options []string) Answer {
	if s, ok := raw.(string); ok {
		return multiFromString(s, options)
	}

	if items, ok := asList(raw); ok {
		members := make([]string, 0, len(items))
		for _, item := range items {
			m, ok := scalarString(item)
			if !ok {
				return Answer{Status: StatusMismatch, Kind: KindMultiChoice, Raw: printable(raw)}
			}
			members = append(members, m)
		}
		return multiOrUnanswered(members)
	}

	s, ok := scalarString(raw)
	if !ok {
		return Answer{Status: StatusMismatch, Kind: KindMultiChoice, Raw: printable(raw)}
	}
	return multiOrUnanswered([]string{s})
}

func multiFromString(s string, options []string) Answer {
	s = strings.TrimSpace(s)
	if s == "" {
		return Unanswered()
	}
	for _, o := range options {
		if strings.TrimSpace(o) == s {
			return MultiAnswer(s)
		}
	}

	// Stored answers sometimes hold an encoded JSON array.
	if strings.HasPrefix(s, "[") {
		if v, err := decodeLoose([]byte(s)); err == nil {
			if _, isList := asList(v); isList {
				return normalizeMulti(v, options)
			}
		}
	}

	return multiOrUnanswered(strings.Split(s, MultiChoiceDelimiter))
}

func multiOrUnanswered(members []string) Answer {
	a := MultiAnswer(members...)
	if !a.IsValid() {
		return Unanswered()
	}
	return a
}

func normalizeNumeric(raw any) Answer {
	if items, ok := asList(raw); ok {
		switch len(items) {
		case 0:
			return Unanswered()
		case 1:
			return normalizeNumeric(items[0])
		default:
			return Answer{Status: StatusMismatch, Kind: KindNumeric, Raw: printable(raw)}
		}
	}

	var (
		v   float64
		err error
	)
	switch n := raw.(type) {
	case float64:
		v = n
	case float32:
		v = float64(n)
	case int:
		v = float64(n)
	case int32:
		v = float64(n)
	case int64:
		v = float64(n)
	case json.Number:
		v, err = n.Float64()
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return Unanswered()
		}
		v, err = strconv.ParseFloat(s, 64)
	default:
		return Answer{Status: StatusInvalid, Kind: KindNumeric, Raw: printable(raw)}
	}
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Answer{Status: StatusInvalid, Kind: KindNumeric, Raw: printable(raw)}
	}
	return NumericAnswer(v)
}

// asList reports whether raw is an array value and returns its elements.
func asList(raw any) ([]any, bool) {
	switch v := raw.(type) {
	case []any:
		return v, true
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, true
	case []float64:
		out := make([]any, len(v))
		for i, f := range v {
			out[i] = f
		}
		return out, true
	}
	return nil, false
}

// scalarString converts a primitive to its trimmed string form. Arrays and
// objects are rejected.
func scalarString(raw any) (string, bool) {
	switch v := raw.(type) {
	case string:
		return strings.TrimSpace(v), true
	case json.Number:
		return v.String(), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case int32:
		return strconv.FormatInt(int64(v), 10), true
	case bool:
		return strconv.FormatBool(v), true
	}
	return "", false
}

func printable(raw any) string {
	if b, err := json.Marshal(raw); err == nil {
		return string(b)
	}
	return fmt.Sprint(raw)
}
