package prometheus

import (
	rerrors "github.com/AltairaLabs/rehearsal/pkg/errors"
	"github.com/AltairaLabs/rehearsal/runtime/events"
)

// Phase names mirrored from the session package to avoid an import cycle.
const (
	phaseConnecting = "connecting"
	phaseOpen       = "open"
	phaseClosed     = "closed"
	phaseError      = "error"
)

// MetricsListener records session events as Prometheus metrics.
// Register it with EventBus.SubscribeAll.
//
// Media counters (audio, frames, playback) are recorded from the capture and
// playback hooks instead, since those paths do not publish events.
type MetricsListener struct{}

// NewMetricsListener creates a new MetricsListener.
func NewMetricsListener() *MetricsListener {
	return &MetricsListener{}
}

// Handle processes an event and records relevant metrics.
func (l *MetricsListener) Handle(event *events.Event) {
	//exhaustive:ignore
	switch event.Type {
	case events.EventPhaseChanged:
		l.handlePhaseChanged(event)
	case events.EventToolCall:
		if data, ok := event.Data.(*events.ToolCallData); ok {
			RecordToolCall(data.Name, data.Recognized)
		}
	case events.EventInsightShown:
		RecordInsight()
	case events.EventPlaybackInterrupted:
		if data, ok := event.Data.(*events.PlaybackInterruptedData); ok {
			RecordInterruption(data.Stopped)
		}
	default:
	}
}

func (l *MetricsListener) handlePhaseChanged(event *events.Event) {
	data, ok := event.Data.(*events.PhaseChangedData)
	if !ok {
		return
	}
	RecordPhase(data.To)

	wasLive := data.From == phaseConnecting || data.From == phaseOpen
	switch data.To {
	case phaseConnecting:
		RecordSessionStart()
	case phaseClosed, phaseError:
		if wasLive {
			RecordSessionEnd()
		}
	}
	if data.To == phaseError {
		RecordSessionError(errorKind(data.Err))
	}
}

func errorKind(err error) string {
	if err == nil {
		return ""
	}
	return rerrors.KindOf(err).String()
}

// Listener returns an events.Listener function that can be registered with an EventBus.
func (l *MetricsListener) Listener() events.Listener {
	return l.Handle
}
