// Package llm - output.go renders the JSON output contract appended to role instructions.
package llm

import (
	"fmt"
	"strings"
)

// OutputSchema describes the JSON object a role must return.
type OutputSchema struct {
	Name   string        // Schema name (e.g., "InterviewerTurn")
	Fields []SchemaField // Expected output fields, in prompt order
}

// SchemaField defines a single field in the output.
type SchemaField struct {
	Name        string // JSON field name
	Type        string // Type hint rendered verbatim, e.g. "string", "[\"string\"]"
	Description string // Description for the model
	Required    bool
}

// BuildOutputInstructions renders the output contract for the schema.
func BuildOutputInstructions(schema OutputSchema) string {
	var sb strings.Builder

	sb.WriteString("Return ONLY valid JSON matching this exact structure:\n{\n")
	for i, field := range schema.Fields {
		typeHint := field.Type
		if typeHint == "" {
			typeHint = "string"
		}
		requiredHint := ""
		if field.Required {
			requiredHint = " (required)"
		}
		sb.WriteString(fmt.Sprintf("  \"%s\": %s%s", field.Name, typeHint, requiredHint))
		if field.Description != "" {
			sb.WriteString(fmt.Sprintf(" // %s", field.Description))
		}
		if i < len(schema.Fields)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("}\n\n")
	sb.WriteString("IMPORTANT: Return ONLY the JSON object, no markdown, no explanation, no code blocks.\n")

	return sb.String()
}
