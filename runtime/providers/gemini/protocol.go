package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	rerrors "github.com/AltairaLabs/rehearsal/pkg/errors"
	"github.com/AltairaLabs/rehearsal/runtime/logger"
	"github.com/AltairaLabs/rehearsal/runtime/providers"
	"github.com/AltairaLabs/rehearsal/runtime/tools"
	"github.com/AltairaLabs/rehearsal/runtime/types"
)

// Live API response modality. The Live API accepts exactly one modality per
// session; rehearsal sessions always ask for spoken replies and read text from
// the transcription streams.
const modalityAudio = "AUDIO"

// Top-level keys of BidiGenerateContentServerMessage.
var knownServerKeys = map[string]bool{
	"setupComplete":           true,
	"serverContent":           true,
	"toolCall":                true,
	"toolCallCancellation":    true,
	"usageMetadata":           true,
	"goAway":                  true,
	"sessionResumptionUpdate": true,
}

// ServerMessage is one inbound Live API message.
type ServerMessage struct {
	SetupComplete *struct{}      `json:"setupComplete,omitempty"`
	ServerContent *ServerContent `json:"serverContent,omitempty"`
	ToolCall      *ToolCallMsg   `json:"toolCall,omitempty"`
	GoAway        *GoAway        `json:"goAway,omitempty"`
	UsageMetadata *UsageMetadata `json:"usageMetadata,omitempty"`
}

// UsageMetadata reports token usage for the session so far.
type UsageMetadata struct {
	PromptTokenCount   int `json:"promptTokenCount,omitempty"`
	ResponseTokenCount int `json:"responseTokenCount,omitempty"`
	TotalTokenCount    int `json:"totalTokenCount,omitempty"`
}

// GoAway warns that the server will end the connection soon.
type GoAway struct {
	TimeLeft string `json:"timeLeft,omitempty"`
}

// ToolCallMsg carries function calls requested by the model.
type ToolCallMsg struct {
	FunctionCalls []FunctionCall `json:"functionCalls,omitempty"`
}

// FunctionCall is one function call. Args are kept raw for schema validation.
type FunctionCall struct {
	ID   string          `json:"id,omitempty"`
	Name string          `json:"name,omitempty"`
	Args json.RawMessage `json:"args,omitempty"`
}

// ServerContent is incremental model output for the current turn.
type ServerContent struct {
	ModelTurn           *ModelTurn     `json:"modelTurn,omitempty"`
	TurnComplete        bool           `json:"turnComplete,omitempty"`
	GenerationComplete  bool           `json:"generationComplete,omitempty"`
	Interrupted         bool           `json:"interrupted,omitempty"`
	InputTranscription  *Transcription `json:"inputTranscription,omitempty"`  // user speech
	OutputTranscription *Transcription `json:"outputTranscription,omitempty"` // model speech
}

// Transcription is a delta of transcribed speech.
type Transcription struct {
	Text string `json:"text,omitempty"`
}

// ModelTurn is the content of a model turn.
type ModelTurn struct {
	Parts []Part `json:"parts,omitempty"`
}

// Part is one piece of model content.
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inlineData,omitempty"`
}

// InlineData is base64 media inside a part.
type InlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

// DecodeServerMessage converts one raw message into live events, in the
// order a consumer must handle them: tool calls, interruption, input
// transcript, output transcript, audio, then turn completion.
//
// Malformed JSON is a decode error. Unknown top-level keys are logged and
// skipped. setupComplete, usageMetadata and goAway produce no events.
func DecodeServerMessage(data []byte) ([]providers.LiveEvent, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, rerrors.Decode("gemini", "DecodeServerMessage", err)
	}
	logUnknownKeys(raw)

	var msg ServerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, rerrors.Decode("gemini", "DecodeServerMessage", err)
	}

	var evts []providers.LiveEvent
	if msg.ToolCall != nil && len(msg.ToolCall.FunctionCalls) > 0 {
		calls := make([]tools.ToolCall, 0, len(msg.ToolCall.FunctionCalls))
		for _, fc := range msg.ToolCall.FunctionCalls {
			calls = append(calls, tools.ToolCall{ID: fc.ID, Name: fc.Name, Args: fc.Args})
		}
		evts = append(evts, providers.ToolCallEvent{Calls: calls})
	}
	if sc := msg.ServerContent; sc != nil {
		evts = appendServerContent(evts, sc)
	}
	if msg.GoAway != nil {
		logger.Warn("live server sent goAway", "time_left", msg.GoAway.TimeLeft)
	}
	if msg.UsageMetadata != nil {
		logger.Debug("live usage",
			"prompt_tokens", msg.UsageMetadata.PromptTokenCount,
			"response_tokens", msg.UsageMetadata.ResponseTokenCount)
	}
	return evts, nil
}

func appendServerContent(evts []providers.LiveEvent, sc *ServerContent) []providers.LiveEvent {
	if sc.Interrupted {
		evts = append(evts, providers.InterruptedEvent{})
	}
	if sc.InputTranscription != nil && sc.InputTranscription.Text != "" {
		evts = append(evts, providers.InputTranscriptEvent{Text: sc.InputTranscription.Text})
	}
	if sc.OutputTranscription != nil && sc.OutputTranscription.Text != "" {
		evts = append(evts, providers.OutputTranscriptEvent{Text: sc.OutputTranscription.Text})
	}
	if sc.ModelTurn != nil {
		for _, part := range sc.ModelTurn.Parts {
			if part.InlineData == nil || part.InlineData.Data == "" {
				continue
			}
			if !strings.HasPrefix(part.InlineData.MimeType, "audio/") {
				logger.Debug("ignoring non-audio inline data", "mime_type", part.InlineData.MimeType)
				continue
			}
			evts = append(evts, providers.AudioEvent{
				MIMEType: part.InlineData.MimeType,
				Data:     part.InlineData.Data,
			})
		}
	}
	if sc.TurnComplete {
		evts = append(evts, providers.TurnCompleteEvent{})
	}
	return evts
}

func logUnknownKeys(raw map[string]json.RawMessage) {
	for key := range raw {
		if !knownServerKeys[key] {
			logger.Debug("ignoring unknown live message key", "key", key)
		}
	}
}

// isSetupComplete reports whether data is the setup acknowledgement.
func isSetupComplete(data []byte) (bool, error) {
	var msg ServerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return false, rerrors.Decode("gemini", "setup", err)
	}
	return msg.SetupComplete != nil, nil
}

// buildSetupMessage constructs the BidiGenerateContentSetup message.
func buildSetupMessage(cfg *providers.LiveConfig) map[string]any {
	setupContent := map[string]any{
		"model":                    getModelPath(cfg.Model),
		"generationConfig":         buildGenerationConfig(cfg.Voice),
		"inputAudioTranscription":  map[string]any{},
		"outputAudioTranscription": map[string]any{},
	}
	addSystemInstruction(setupContent, cfg.SystemInstruction)
	addToolsConfig(setupContent, cfg.Tools)
	return map[string]any{"setup": setupContent}
}

// getModelPath ensures model is in the form models/{model}.
func getModelPath(model string) string {
	if strings.HasPrefix(model, "models/") {
		return model
	}
	return "models/" + model
}

func buildGenerationConfig(voice string) map[string]any {
	config := map[string]any{
		"responseModalities": []string{modalityAudio},
	}
	if voice != "" {
		config["speechConfig"] = map[string]any{
			"voiceConfig": map[string]any{
				"prebuiltVoiceConfig": map[string]any{
					"voiceName": voice,
				},
			},
		}
	}
	return config
}

func addSystemInstruction(setupContent map[string]any, instruction string) {
	if instruction == "" {
		return
	}
	setupContent["systemInstruction"] = map[string]any{
		"parts": []map[string]any{{"text": instruction}},
	}
}

func addToolsConfig(setupContent map[string]any, descriptors []*tools.ToolDescriptor) {
	if len(descriptors) == 0 {
		return
	}
	decls := make([]map[string]any, 0, len(descriptors))
	for _, d := range descriptors {
		decl := map[string]any{"name": d.Name}
		if d.Description != "" {
			decl["description"] = d.Description
		}
		if len(d.InputSchema) > 0 {
			decl["parameters"] = d.InputSchema
		}
		decls = append(decls, decl)
	}
	setupContent["tools"] = []map[string]any{{"functionDeclarations": decls}}
}

// realtimeInputMessage wraps one media chunk.
func realtimeInputMessage(mimeType, data string) map[string]any {
	return map[string]any{
		"realtimeInput": map[string]any{
			"mediaChunks": []map[string]any{
				{"mimeType": mimeType, "data": data},
			},
		},
	}
}

func audioMessage(chunk *types.AudioChunk) map[string]any {
	return realtimeInputMessage(chunk.MIMEType(), chunk.Data)
}

func frameMessage(chunk *types.FrameChunk) map[string]any {
	return realtimeInputMessage(chunk.MIMEType(), chunk.Data)
}

// textMessage is a complete user text turn.
func textMessage(text string) map[string]any {
	return map[string]any{
		"clientContent": map[string]any{
			"turns": []map[string]any{
				{"role": "user", "parts": []map[string]any{{"text": text}}},
			},
			"turnComplete": true,
		},
	}
}

func toolResponseMessage(responses []tools.ToolResponse) (map[string]any, error) {
	if len(responses) == 0 {
		return nil, fmt.Errorf("no tool responses")
	}
	fr := make([]map[string]any, 0, len(responses))
	for _, r := range responses {
		fr = append(fr, map[string]any{
			"id":       r.ID,
			"name":     r.Name,
			"response": r.Response,
		})
	}
	return map[string]any{
		"toolResponse": map[string]any{"functionResponses": fr},
	}, nil
}
