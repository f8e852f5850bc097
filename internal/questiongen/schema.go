package questiongen

import "github.com/abhisek/examprep/internal/llm"

// QuestionSetSchema defines the JSON schema for question set responses.
var QuestionSetSchema = &llm.Schema{
	Name:        "question-set",
	Description: "A set of exam practice questions with correct answers",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type":  "array",
				"items": questionItemSchema,
			},
		},
		"required":             []any{"questions"},
		"additionalProperties": false,
	},
}

var questionItemSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"text": map[string]any{
			"type":        "string",
			"description": "The question prompt, self-contained and unique within the set",
		},
		"kind": map[string]any{
			"type":        "string",
			"enum":        []any{"single_choice", "multi_choice", "numeric"},
			"description": "single_choice has one correct option, multi_choice has two or three, numeric expects a number",
		},
		"options": map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string"},
			"description": "Exactly 4 unique options for choice kinds. Empty array for numeric.",
		},
		"correct_options": map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string"},
			"description": "The correct options copied verbatim from options. One for single_choice, two or three for multi_choice, empty for numeric.",
		},
		"numeric_answer": map[string]any{
			"type":        "number",
			"description": "The correct value for numeric questions. 0 for choice kinds.",
		},
		"numeric_tolerance": map[string]any{
			"type": []any{"object", "null"},
			"properties": map[string]any{
				"min": map[string]any{"type": "number"},
				"max": map[string]any{"type": "number"},
			},
			"required":             []any{"min", "max"},
			"additionalProperties": false,
			"description":          "Inclusive accepted range for numeric answers, or null for the default window",
		},
		"difficulty": map[string]any{
			"type": "string",
			"enum": []any{"easy", "medium", "hard"},
		},
		"topic": map[string]any{
			"type":        "string",
			"description": "Short syllabus topic label used to group weak areas",
		},
	},
	"required": []any{
		"text", "kind", "options", "correct_options",
		"numeric_answer", "numeric_tolerance", "difficulty", "topic",
	},
	"additionalProperties": false,
}
