package report

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AltairaLabs/rehearsal/runtime/transcript"
)

func TestRequest_Empty(t *testing.T) {
	var nilReq *Request
	assert.True(t, nilReq.Empty())
	assert.True(t, (&Request{Topic: "t"}).Empty())
	assert.False(t, (&Request{Transcript: []transcript.Entry{{Role: transcript.RoleUser, Text: "hi"}}}).Empty())
}

func TestPrompt(t *testing.T) {
	p := Prompt(&Request{
		Topic:  "Product launch",
		Script: "Open with the customer story.",
		Transcript: []transcript.Entry{
			{Role: transcript.RoleUser, Text: "Hello all "},
			{Role: transcript.RoleModel, Text: "Good start."},
		},
	})
	assert.Contains(t, p, "Topic: Product launch")
	assert.Contains(t, p, "Intended script:\nOpen with the customer story.")
	assert.Contains(t, p, "User: Hello all\nCoach: Good start.")
}

func TestPrompt_OmitsEmptySections(t *testing.T) {
	p := Prompt(&Request{Transcript: []transcript.Entry{{Role: transcript.RoleUser, Text: "x"}}})
	assert.NotContains(t, p, "Topic:")
	assert.NotContains(t, p, "Intended script:")
}

func TestSchema_IsValidJSON(t *testing.T) {
	var s map[string]any
	require.NoError(t, json.Unmarshal(Schema, &s))
	assert.ElementsMatch(t, []any{"score", "summary", "strengths", "tips"}, s["required"])
}

func TestReport_JSONFieldNames(t *testing.T) {
	var r Report
	require.NoError(t, json.Unmarshal([]byte(`{"score": 7.5, "summary": "s", "videoDescription": "v", "strengths": ["a"], "tips": ["b"]}`), &r))
	assert.Equal(t, Report{Score: 7.5, Summary: "s", VideoDescription: "v", Strengths: []string{"a"}, Tips: []string{"b"}}, r)
}

func TestRequestorFunc(t *testing.T) {
	want := &Report{Score: 1}
	var got *Request
	fn := RequestorFunc(func(_ context.Context, req *Request) (*Report, error) {
		got = req
		return want, nil
	})
	req := &Request{Topic: "t"}
	rep, err := fn.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Same(t, want, rep)
	assert.Same(t, req, got)
}
