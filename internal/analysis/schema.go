package analysis

import "github.com/abhisek/examprep/internal/llm"

// AnalysisSchema defines the JSON schema for performance analysis responses.
var AnalysisSchema = &llm.Schema{
	Name:        "performance-analysis",
	Description: "Classification of wrong answers plus weak topics and coaching feedback for one quiz attempt",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"feedback": map[string]any{
				"type":        "string",
				"description": "Two to four sentences of encouraging, specific coaching feedback",
			},
			"weakest_topics": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"maxItems":    5,
				"description": "Topics the learner struggled with most, weakest first",
			},
			"per_question": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"question_text": map[string]any{
							"type":        "string",
							"description": "The exact text of a wrongly answered question, copied verbatim",
						},
						"error_type": map[string]any{
							"type":        "string",
							"enum":        []any{"conceptual", "careless_slip", "question_misinterpretation"},
							"description": "Why the learner most likely got the question wrong",
						},
					},
					"required":             []any{"question_text", "error_type"},
					"additionalProperties": false,
				},
				"description": "One entry per wrongly answered question",
			},
		},
		"required":             []any{"feedback", "weakest_topics", "per_question"},
		"additionalProperties": false,
	},
}
