// Package tools describes the functions the live model may call and
// validates the arguments it sends.
//
// The registry holds ToolDescriptors with JSON Schema (Draft-07) input
// schemas. Calls naming an unregistered tool, or carrying arguments that do
// not satisfy the schema, are rejected so the session can ignore them.
package tools

import (
	"encoding/json"
	"fmt"
)

// ToolDescriptor is a function declaration offered to the model.
type ToolDescriptor struct {
	Name        string          `json:"name" yaml:"name"`
	Description string          `json:"description" yaml:"description"`
	InputSchema json.RawMessage `json:"input_schema" yaml:"input_schema"` // JSON Schema Draft-07
}

// ToolCall is a function call received from the model.
type ToolCall struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Args json.RawMessage `json:"args"`
}

// ToolResponse acknowledges a ToolCall.
type ToolResponse struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

// ResultOK is the acknowledgement payload for fire-and-forget tools.
const ResultOK = "ok"

// OKResponse builds the standard acknowledgement for call.
func OKResponse(call *ToolCall) ToolResponse {
	return ToolResponse{
		ID:       call.ID,
		Name:     call.Name,
		Response: map[string]any{"result": ResultOK},
	}
}

// ValidationError represents a tool validation failure
type ValidationError struct {
	Type   string `json:"type"` // "args_invalid" | "args_malformed"
	Tool   string `json:"tool"`
	Detail string `json:"detail"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("tool %s validation error (%s): %s", e.Tool, e.Type, e.Detail)
}
