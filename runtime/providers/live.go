// Package providers defines the contract between a live rehearsal session and
// the remote conversational service it streams to.
//
// A LiveDialer opens a LiveSession. The session carries outbound media and
// tool responses, and delivers inbound messages as a closed set of LiveEvent
// variants decoded at the transport boundary.
package providers

import (
	"context"

	"github.com/AltairaLabs/rehearsal/runtime/tools"
	"github.com/AltairaLabs/rehearsal/runtime/types"
)

// LiveEvent is one decoded inbound message. The set of variants is closed:
// AudioEvent, ToolCallEvent, InterruptedEvent, InputTranscriptEvent,
// OutputTranscriptEvent and TurnCompleteEvent.
type LiveEvent interface {
	liveEvent()
}

// AudioEvent carries one base64 PCM16 payload from the model's turn.
type AudioEvent struct {
	MIMEType string
	Data     string
}

// ToolCallEvent carries every function call of one toolCall message.
type ToolCallEvent struct {
	Calls []tools.ToolCall
}

// InterruptedEvent signals that the user barged in over model audio.
type InterruptedEvent struct{}

// InputTranscriptEvent is a delta of the user's transcribed speech.
type InputTranscriptEvent struct {
	Text string
}

// OutputTranscriptEvent is a delta of the model's transcribed speech.
type OutputTranscriptEvent struct {
	Text string
}

// TurnCompleteEvent marks the end of a model turn.
type TurnCompleteEvent struct{}

func (AudioEvent) liveEvent()            {}
func (ToolCallEvent) liveEvent()         {}
func (InterruptedEvent) liveEvent()      {}
func (InputTranscriptEvent) liveEvent()  {}
func (OutputTranscriptEvent) liveEvent() {}
func (TurnCompleteEvent) liveEvent()     {}

// LiveConfig is the session setup sent once after the connection opens.
type LiveConfig struct {
	// Model is the live model name, with or without the "models/" prefix.
	Model string

	// Voice is the prebuilt voice used for spoken replies.
	Voice string

	// SystemInstruction is the composed coaching prompt.
	SystemInstruction string

	// Tools are the function declarations offered to the model.
	Tools []*tools.ToolDescriptor
}

// LiveSession is one open duplex connection. Send methods are safe for
// concurrent use. Events is closed when the connection ends, after which Err
// reports why (nil for a local Close or a normal remote close).
type LiveSession interface {
	SendAudio(ctx context.Context, chunk *types.AudioChunk) error
	SendFrame(ctx context.Context, chunk *types.FrameChunk) error
	SendToolResponses(ctx context.Context, responses []tools.ToolResponse) error
	SendText(ctx context.Context, text string) error

	Events() <-chan LiveEvent
	Done() <-chan struct{}
	Err() error
	Close() error
}

// LiveDialer opens live sessions. Dial returns once setup has been
// acknowledged by the service, or with the error that prevented it.
type LiveDialer interface {
	Dial(ctx context.Context, cfg *LiveConfig) (LiveSession, error)
}

// LiveDialerFunc adapts a function to LiveDialer.
type LiveDialerFunc func(ctx context.Context, cfg *LiveConfig) (LiveSession, error)

// Dial implements LiveDialer.
func (f LiveDialerFunc) Dial(ctx context.Context, cfg *LiveConfig) (LiveSession, error) {
	return f(ctx, cfg)
}
