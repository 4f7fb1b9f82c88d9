package tools

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// SchemaValidator validates JSON documents against compiled, cached schemas.
type SchemaValidator struct {
	mu    sync.Mutex
	cache map[string]*gojsonschema.Schema
}

// NewSchemaValidator creates a new schema validator
func NewSchemaValidator() *SchemaValidator {
	return &SchemaValidator{
		cache: make(map[string]*gojsonschema.Schema),
	}
}

// ValidateArgs validates tool arguments against the input schema.
// Missing arguments are treated as an empty object.
func (sv *SchemaValidator) ValidateArgs(descriptor *ToolDescriptor, args json.RawMessage) error {
	schema, err := sv.Compile(descriptor.InputSchema)
	if err != nil {
		return fmt.Errorf("invalid input schema for tool %s: %w", descriptor.Name, err)
	}
	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(args))
	if err != nil {
		return &ValidationError{
			Type:   "args_malformed",
			Tool:   descriptor.Name,
			Detail: err.Error(),
		}
	}
	if !result.Valid() {
		return &ValidationError{
			Type:   "args_invalid",
			Tool:   descriptor.Name,
			Detail: fmt.Sprintf("argument validation failed: %s", ResultErrors(result)),
		}
	}
	return nil
}

// Compile returns the compiled form of schemaJSON, compiling it at most once.
func (sv *SchemaValidator) Compile(schemaJSON json.RawMessage) (*gojsonschema.Schema, error) {
	key := string(schemaJSON)

	sv.mu.Lock()
	defer sv.mu.Unlock()
	if schema, exists := sv.cache[key]; exists {
		return schema, nil
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(key))
	if err != nil {
		return nil, err
	}
	sv.cache[key] = schema
	return schema, nil
}

// ResultErrors joins the errors of a failed validation into one line.
func ResultErrors(result *gojsonschema.Result) string {
	msgs := make([]string, len(result.Errors()))
	for i, desc := range result.Errors() {
		msgs[i] = desc.String()
	}
	return strings.Join(msgs, "; ")
}
