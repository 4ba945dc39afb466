package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildOutputInstructions(t *testing.T) {
	schema := OutputSchema{
		Name: "InterviewerTurn",
		Fields: []SchemaField{
			{Name: "question", Type: "string", Description: "The next question", Required: true},
			{Name: "hints", Type: `["string"]`},
			{Name: "context"},
		},
	}

	out := BuildOutputInstructions(schema)

	assert.True(t, strings.HasPrefix(out, "Return ONLY valid JSON"))
	assert.Contains(t, out, `"question": string (required) // The next question,`)
	assert.Contains(t, out, `"hints": ["string"],`)
	assert.Contains(t, out, "\"context\": string\n}")
	assert.Contains(t, out, "no markdown")
}
