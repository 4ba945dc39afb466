package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanJSONBlock(t *testing.T) {
	question := `{"question": "How would you shard a sessions table?", "difficulty": "hard"}`

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare object", question, question},
		{"json fence", "```json\n" + question + "\n```", question},
		{"unlabelled fence", "```\n" + question + "\n```", question},
		{"fence with surrounding whitespace", "\n\n```json\n" + question + "\n```\n", question},
		{"preamble", "Here is the next question:\n\n" + question, question},
		{"trailing commentary", question + "\n\nGood luck to the candidate!", question},
		{
			"evaluator preamble with nested breakdown",
			`I reviewed the transcript. {"score": 81, "scoreBreakdown": {"technicalKnowledge": 35}}`,
			`{"score": 81, "scoreBreakdown": {"technicalKnowledge": 35}}`,
		},
		{
			"braces and escaped quotes inside strings",
			`Result: {"feedback": "Said \"use {shard_key}\" twice"} done`,
			`{"feedback": "Said \"use {shard_key}\" twice"}`,
		},
		{"array", "Hints:\n[\"token bucket\", \"sliding window\"]", `["token bucket", "sliding window"]`},
		{"no json", "I cannot help with that.", "I cannot help with that."},
		{"unbalanced object is returned trimmed", `{"question": "cut off`, `{"question": "cut off`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanJSONBlock(tt.input))
		})
	}
}

func TestExtractBalanced(t *testing.T) {
	tests := []struct {
		name  string
		input string
		open  byte
		close byte
		want  string
	}{
		{"object with array", `{"hints": ["a", "b"]} tail`, '{', '}', `{"hints": ["a", "b"]}`},
		{"array of objects", `[{"id": 1}, {"id": 2}] tail`, '[', ']', `[{"id": 1}, {"id": 2}]`},
		{"wrong opener", `[1]`, '{', '}', ""},
		{"empty", "", '{', '}', ""},
		{"never closes", `{"a": {"b": 1}`, '{', '}', ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractBalanced(tt.input, tt.open, tt.close))
		})
	}
}
