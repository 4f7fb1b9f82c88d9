package events

import "time"

// Emitter publishes session events stamped with a session id.
// A nil Emitter, or one without a bus, discards everything.
type Emitter struct {
	bus       *EventBus
	sessionID string
}

// NewEmitter creates a new event emitter.
func NewEmitter(bus *EventBus, sessionID string) *Emitter {
	return &Emitter{bus: bus, sessionID: sessionID}
}

func (e *Emitter) emit(eventType EventType, data EventData) {
	if e == nil || e.bus == nil {
		return
	}
	e.bus.Publish(&Event{
		Type:      eventType,
		Timestamp: time.Now(),
		SessionID: e.sessionID,
		Data:      data,
	})
}

// PhaseChanged publishes a lifecycle transition.
func (e *Emitter) PhaseChanged(from, to string, err error) {
	e.emit(EventPhaseChanged, &PhaseChangedData{From: from, To: to, Err: err})
}

// InsightShown publishes a newly visible insight.
func (e *Emitter) InsightShown(id, title, content string) {
	e.emit(EventInsightShown, &InsightData{ID: id, Title: title, Content: content})
}

// InsightExpired publishes the removal of an insight.
func (e *Emitter) InsightExpired(id string, replaced bool) {
	e.emit(EventInsightExpired, &InsightData{ID: id, Replaced: replaced})
}

// UtteranceUpdated publishes the current visible utterance.
func (e *Emitter) UtteranceUpdated(text string) {
	e.emit(EventUtteranceUpdated, &UtteranceData{Text: text})
}

// UtteranceCleared publishes that the visible utterance was cleared.
func (e *Emitter) UtteranceCleared() {
	e.emit(EventUtteranceCleared, &UtteranceData{})
}

// TranscriptDelta publishes an appended transcript delta.
func (e *Emitter) TranscriptDelta(role, text string) {
	e.emit(EventTranscriptDelta, &TranscriptDeltaData{Role: role, Text: text})
}

// ToolCall publishes an inbound function call.
func (e *Emitter) ToolCall(callID, name string, recognized bool) {
	e.emit(EventToolCall, &ToolCallData{CallID: callID, Name: name, Recognized: recognized})
}

// PlaybackInterrupted publishes a barge-in.
func (e *Emitter) PlaybackInterrupted(stopped int) {
	e.emit(EventPlaybackInterrupted, &PlaybackInterruptedData{Stopped: stopped})
}

// MuteChanged publishes a mute toggle.
func (e *Emitter) MuteChanged(muted bool) {
	e.emit(EventMuteChanged, &MuteChangedData{Muted: muted})
}
