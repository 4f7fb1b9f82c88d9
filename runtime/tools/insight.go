package tools

import (
	"encoding/json"
	"fmt"
)

// ShowInsightName is the tool the coach calls to flash a short tip on screen.
const ShowInsightName = "show_insight"

const showInsightSchema = `{
	"type": "object",
	"properties": {
		"title": {"type": "string", "description": "Two to four word headline."},
		"content": {"type": "string", "description": "One sentence of feedback."}
	},
	"required": ["title", "content"]
}`

// ShowInsight returns the show_insight descriptor.
func ShowInsight() *ToolDescriptor {
	return &ToolDescriptor{
		Name:        ShowInsightName,
		Description: "Show a short visual insight to the speaker without interrupting them.",
		InputSchema: json.RawMessage(showInsightSchema),
	}
}

// InsightArgs are the arguments of show_insight.
type InsightArgs struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// ParseInsightArgs decodes show_insight arguments.
func ParseInsightArgs(raw json.RawMessage) (InsightArgs, error) {
	var args InsightArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return InsightArgs{}, fmt.Errorf("decode %s args: %w", ShowInsightName, err)
	}
	return args, nil
}
