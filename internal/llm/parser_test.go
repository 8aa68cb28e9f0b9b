package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStructured(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected map[string]any
	}{
		{
			name:     "whole object",
			raw:      `{"summary": "strong candidate", "score": 8}`,
			expected: map[string]any{"summary": "strong candidate", "score": float64(8)},
		},
		{
			name:     "double encoded string",
			raw:      `"{\"stage\": \"interview\"}"`,
			expected: map[string]any{"stage": "interview"},
		},
		{
			name:     "fenced block with language tag",
			raw:      "Here is the result:\n```json\n{\"headline\": \"Senior Engineer\"}\n```\nDone.",
			expected: map[string]any{"headline": "Senior Engineer"},
		},
		{
			name:     "fenced block without tag",
			raw:      "```\n{\"priority\": \"high\"}\n```",
			expected: map[string]any{"priority": "high"},
		},
		{
			name:     "unclosed fence",
			raw:      "```json\n{\"priority\": \"low\"}",
			expected: map[string]any{"priority": "low"},
		},
		{
			name:     "brace span inside prose",
			raw:      `The candidate looks promising. {"recommendation": "advance"} Let me know.`,
			expected: map[string]any{"recommendation": "advance"},
		},
		{
			name:     "repairable trailing comma",
			raw:      `Result: {"location": "Berlin", "stage": "offer",}`,
			expected: map[string]any{"location": "Berlin", "stage": "offer"},
		},
		{
			name: "nested object",
			raw:  `{"analysis": {"sentiment": "positive"}, "tags": ["a", "b"]}`,
			expected: map[string]any{
				"analysis": map[string]any{"sentiment": "positive"},
				"tags":     []any{"a", "b"},
			},
		},
		{
			name:     "array answer",
			raw:      `[1, 2, 3]`,
			expected: nil,
		},
		{
			name:     "scalar answer",
			raw:      `42`,
			expected: nil,
		},
		{
			name:     "plain string answer",
			raw:      `"just a string answer"`,
			expected: nil,
		},
		{
			name:     "prose only",
			raw:      `The quarterly numbers look fine overall.`,
			expected: nil,
		},
		{
			name:     "empty input",
			raw:      "",
			expected: nil,
		},
		{
			name:     "unbalanced garbage",
			raw:      "{{{]]]",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed := ParseStructured(tt.raw)
			assert.Equal(t, tt.expected, parsed)
		})
	}
}
