package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanJSONBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "json code block",
			input:    "```json\n{\"key\": \"value\"}\n```",
			expected: `{"key": "value"}`,
		},
		{
			name:     "generic code block",
			input:    "```\n{\"key\": \"value\"}\n```",
			expected: `{"key": "value"}`,
		},
		{
			name:     "code block with language",
			input:    "```javascript\n{\"key\": \"value\"}\n```",
			expected: `{"key": "value"}`,
		},
		{
			name:     "plain JSON",
			input:    `{"key": "value"}`,
			expected: `{"key": "value"}`,
		},
		{
			name:     "korean preamble before object",
			input:    "분석 결과입니다:\n{\"domain\": \"IT/개발\"}",
			expected: `{"domain": "IT/개발"}`,
		},
		{
			name:     "preamble before JSON array",
			input:    "Here are the items:\n[{\"itemId\": 1}]",
			expected: `[{"itemId": 1}]`,
		},
		{
			name:     "JSON with trailing text",
			input:    "{\"key\": \"value\"}\n\nLet me know if you need anything else!",
			expected: `{"key": "value"}`,
		},
		{
			name:     "no JSON at all",
			input:    "  sorry, I cannot help  ",
			expected: "sorry, I cannot help",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanJSONBlock(tt.input))
		})
	}
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "simple object", input: `{"key": "value"}`, expected: `{"key": "value"}`},
		{name: "nested objects", input: `{"outer": {"inner": "value"}}`, expected: `{"outer": {"inner": "value"}}`},
		{name: "leading prose", input: `intent: {"a": [1, 2]} done`, expected: `{"a": [1, 2]}`},
		{name: "first of two blocks", input: `{"a": 1} {"b": 2}`, expected: `{"a": 1}`},
		{name: "string with braces inside", input: `{"template": "Hello {name}!"}`, expected: `{"template": "Hello {name}!"}`},
		{name: "escaped quote", input: `{"m": "say \"}\" now"}`, expected: `{"m": "say \"}\" now"}`},
		{name: "unbalanced", input: `{"key": "value"`, expected: ""},
		{name: "empty input", input: "", expected: ""},
		{name: "no brace", input: "not json", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractJSONObject(tt.input))
		})
	}
}

func TestExtractJSONArray(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "simple array", input: `["a", "b", "c"]`, expected: `["a", "b", "c"]`},
		{name: "nested arrays", input: `[[1, 2], [3, 4]]`, expected: `[[1, 2], [3, 4]]`},
		{name: "array of objects with prose", input: "결과:\n[{\"itemId\": 1}, {\"itemId\": 2}]\n끝", expected: `[{"itemId": 1}, {"itemId": 2}]`},
		{name: "bracket inside string", input: `["a]b"]`, expected: `["a]b"]`},
		{name: "empty input", input: "", expected: ""},
		{name: "no bracket", input: "not array", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractJSONArray(tt.input))
		})
	}
}
