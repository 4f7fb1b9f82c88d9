package events

import (
	"time"
)

// EventType identifies the type of event emitted by a live session.
type EventType string

const (
	// EventPhaseChanged marks a session lifecycle transition.
	EventPhaseChanged EventType = "session.phase_changed"

	// EventInsightShown marks a new insight becoming visible.
	EventInsightShown EventType = "insight.shown"
	// EventInsightExpired marks an insight leaving the screen, by timeout or replacement.
	EventInsightExpired EventType = "insight.expired"

	// EventUtteranceUpdated marks a change to the visible model utterance.
	EventUtteranceUpdated EventType = "utterance.updated"
	// EventUtteranceCleared marks the visible utterance being cleared after a turn.
	EventUtteranceCleared EventType = "utterance.cleared"

	// EventTranscriptDelta marks text appended to the transcript.
	EventTranscriptDelta EventType = "transcript.delta"

	// EventToolCall marks an inbound function call, recognized or not.
	EventToolCall EventType = "tool.call"

	// EventPlaybackInterrupted marks a barge-in that silenced model audio.
	EventPlaybackInterrupted EventType = "playback.interrupted"

	// EventMuteChanged marks the output mute flag changing.
	EventMuteChanged EventType = "playback.mute_changed"
)

// EventData is a marker interface for event payloads.
type EventData interface {
	eventData()
}

// Event represents a session event delivered to listeners.
type Event struct {
	Type      EventType
	Timestamp time.Time
	SessionID string
	Data      EventData
}

type baseEventData struct{}

func (baseEventData) eventData() {}

// PhaseChangedData describes a lifecycle transition. Err is set when the
// transition was caused by a failure.
type PhaseChangedData struct {
	baseEventData
	From string
	To   string
	Err  error
}

// InsightData describes an insight signal.
type InsightData struct {
	baseEventData
	ID      string
	Title   string
	Content string
	// Replaced is true on EventInsightExpired when a newer insight took its place.
	Replaced bool
}

// UtteranceData carries the visible model utterance.
type UtteranceData struct {
	baseEventData
	Text string
}

// TranscriptDeltaData carries one appended transcript delta.
type TranscriptDeltaData struct {
	baseEventData
	Role string
	Text string
}

// ToolCallData describes an inbound function call.
type ToolCallData struct {
	baseEventData
	CallID     string
	Name       string
	Recognized bool
}

// PlaybackInterruptedData describes a barge-in.
type PlaybackInterruptedData struct {
	baseEventData
	Stopped int
}

// MuteChangedData carries the new mute state.
type MuteChangedData struct {
	baseEventData
	Muted bool
}
