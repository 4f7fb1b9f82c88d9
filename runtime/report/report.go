// Package report defines the post-session report contract.
//
// A Requestor turns a finished transcript into a structured Report. An empty
// transcript yields no report and no request. Every failure is a report
// error, and callers treat any error as "no report".
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/AltairaLabs/rehearsal/runtime/transcript"
)

// Request is the input for one report.
type Request struct {
	Transcript []transcript.Entry
	Topic      string
	Script     string
}

// Empty reports whether the request has nothing to analyze.
func (r *Request) Empty() bool {
	return r == nil || len(r.Transcript) == 0
}

// Report is the structured post-session analysis.
type Report struct {
	Score            float64  `json:"score"`
	Summary          string   `json:"summary"`
	VideoDescription string   `json:"videoDescription,omitempty"`
	Strengths        []string `json:"strengths"`
	Tips             []string `json:"tips"`
}

// Requestor produces reports. Generate returns nil, nil for an empty transcript.
type Requestor interface {
	Generate(ctx context.Context, req *Request) (*Report, error)
}

// RequestorFunc adapts a function to Requestor.
type RequestorFunc func(ctx context.Context, req *Request) (*Report, error)

// Generate implements Requestor.
func (f RequestorFunc) Generate(ctx context.Context, req *Request) (*Report, error) {
	return f(ctx, req)
}

// Schema is the JSON schema a report response must satisfy. It doubles as
// the generateContent responseSchema, so it sticks to the OpenAPI subset
// both sides accept.
var Schema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "score": {"type": "number"},
    "summary": {"type": "string"},
    "videoDescription": {"type": "string"},
    "strengths": {"type": "array", "items": {"type": "string"}},
    "tips": {"type": "array", "items": {"type": "string"}}
  },
  "required": ["score", "summary", "strengths", "tips"]
}`)

// Prompt builds the analysis instruction for req.
func Prompt(req *Request) string {
	var b strings.Builder
	b.WriteString("You are a presentation coach. Analyze the rehearsal transcript below and return a JSON report. ")
	b.WriteString("Score the delivery from 0 to 100, summarize it in two or three sentences, ")
	b.WriteString("describe the speaker's on-camera presence if the transcript allows it, ")
	b.WriteString("and list concrete strengths and actionable tips.\n")
	if req.Topic != "" {
		fmt.Fprintf(&b, "\nTopic: %s\n", req.Topic)
	}
	if req.Script != "" {
		fmt.Fprintf(&b, "\nIntended script:\n%s\n", req.Script)
	}
	fmt.Fprintf(&b, "\nTranscript:\n%s\n", transcript.Format(req.Transcript))
	return b.String()
}
