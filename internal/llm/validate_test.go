package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

func questionSchema() *Schema {
	return &Schema{
		Name:        "test-question",
		Description: "A single practice question",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"question":    map[string]any{"type": "string", "minLength": 1},
				"marks":       map[string]any{"type": "integer", "minimum": 1},
				"answer_type": map[string]any{"type": "string", "enum": []any{"single_choice", "numeric"}},
				"options": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "string"},
				},
			},
			"required": []any{"question", "answer_type"},
		},
	}
}

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", `{"question":"Which gas do plants absorb?","marks":2,"answer_type":"single_choice","options":["CO2","O2"]}`, false},
		{"optional fields omitted", `{"question":"2+2?","answer_type":"numeric"}`, false},
		{"missing required", `{"question":"2+2?"}`, true},
		{"wrong type", `{"question":"2+2?","answer_type":"numeric","marks":"two"}`, true},
		{"invalid enum", `{"question":"2+2?","answer_type":"essay"}`, true},
		{"empty question", `{"question":"","answer_type":"numeric"}`, true},
		{"wrong array item type", `{"question":"Pick","answer_type":"single_choice","options":[1,2]}`, true},
		{"malformed JSON", `{not json}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResponse(questionSchema(), json.RawMessage(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("validateResponse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var invErr *ErrInvalidResponse
				if !errors.As(err, &invErr) {
					t.Fatalf("expected ErrInvalidResponse, got: %T", err)
				}
			}
		})
	}
}

func TestValidateResponse_EmptyResponse(t *testing.T) {
	if err := validateResponse(questionSchema(), json.RawMessage(``)); err == nil {
		t.Fatal("expected error for empty response")
	}
}

func TestValidateResponse_NilSchema(t *testing.T) {
	if err := validateResponse(nil, json.RawMessage(`{"anything":"goes"}`)); err != nil {
		t.Fatalf("expected no error with nil schema, got: %v", err)
	}
}

func TestValidateResponse_SchemaCompiledOnce(t *testing.T) {
	s := questionSchema()
	s.Name = "test-question-cached"
	for range 3 {
		if err := validateResponse(s, json.RawMessage(`{"question":"q","answer_type":"numeric"}`)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if _, ok := compiledSchemas.Load(s.Name); !ok {
		t.Fatal("expected compiled schema to be cached by name")
	}
}
