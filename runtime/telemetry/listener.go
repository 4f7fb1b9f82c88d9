package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AltairaLabs/rehearsal/runtime/events"
)

// Span names.
const (
	SpanSession = "rehearsal.session"
	SpanConnect = "rehearsal.connect"
	SpanReport  = "rehearsal.report"
)

// Phase names mirrored from the session package to avoid an import cycle.
const (
	phaseConnecting = "connecting"
	phaseOpen       = "open"
	phaseClosed     = "closed"
	phaseError      = "error"
)

// connection tracks the spans of one connection generation.
type connection struct {
	session trace.Span
	connect trace.Span // nil once setup completed or failed
}

// OTelEventListener converts session events into OTel spans.
// Each connection generation gets a rehearsal.session root span with a
// rehearsal.connect child covering dial through setup. Tool calls, insights
// and interruptions become span events on the root.
// It is safe for concurrent use and can be passed to EventBus.SubscribeAll.
type OTelEventListener struct {
	tracer trace.Tracer

	mu    sync.Mutex
	conns map[string]*connection // sessionID → live generation
}

// NewOTelEventListener creates a listener that creates OTel spans from session events.
func NewOTelEventListener(tracer trace.Tracer) *OTelEventListener {
	return &OTelEventListener{
		tracer: tracer,
		conns:  make(map[string]*connection),
	}
}

// OnEvent handles a single session event.
func (l *OTelEventListener) OnEvent(evt *events.Event) {
	//nolint:exhaustive // Only handling span-producing events
	switch evt.Type {
	case events.EventPhaseChanged:
		if data, ok := evt.Data.(*events.PhaseChangedData); ok {
			l.handlePhase(evt.SessionID, data)
		}
	case events.EventToolCall:
		if data, ok := evt.Data.(*events.ToolCallData); ok {
			l.addEvent(evt.SessionID, "tool.call",
				attribute.String("tool.name", data.Name),
				attribute.String("tool.call_id", data.CallID),
				attribute.Bool("tool.recognized", data.Recognized),
			)
		}
	case events.EventInsightShown:
		if data, ok := evt.Data.(*events.InsightData); ok {
			l.addEvent(evt.SessionID, "insight.shown",
				attribute.String("insight.id", data.ID),
				attribute.String("insight.title", data.Title),
			)
		}
	case events.EventPlaybackInterrupted:
		if data, ok := evt.Data.(*events.PlaybackInterruptedData); ok {
			l.addEvent(evt.SessionID, "playback.interrupted",
				attribute.Int("playback.stopped_units", data.Stopped),
			)
		}
	}
}

// Listener returns OnEvent as an events.Listener.
func (l *OTelEventListener) Listener() events.Listener {
	return l.OnEvent
}

// Active reports how many connection generations have open spans.
func (l *OTelEventListener) Active() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.conns)
}

func (l *OTelEventListener) handlePhase(sessionID string, data *events.PhaseChangedData) {
	switch data.To {
	case phaseConnecting:
		l.startConnection(sessionID)
	case phaseOpen:
		l.mu.Lock()
		c := l.conns[sessionID]
		var connect trace.Span
		if c != nil {
			connect, c.connect = c.connect, nil
		}
		l.mu.Unlock()
		if connect != nil {
			connect.SetStatus(codes.Ok, "")
			connect.End()
		}
	case phaseClosed, phaseError:
		l.endConnection(sessionID, data.Err)
	}
}

func (l *OTelEventListener) startConnection(sessionID string) {
	// A stale generation that never reported a terminal phase is closed first.
	l.endConnection(sessionID, nil)

	ctx, session := l.tracer.Start(context.Background(), SpanSession,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("session.id", sessionID)),
	)
	_, connect := l.tracer.Start(ctx, SpanConnect, trace.WithSpanKind(trace.SpanKindClient))

	l.mu.Lock()
	l.conns[sessionID] = &connection{session: session, connect: connect}
	l.mu.Unlock()
}

func (l *OTelEventListener) endConnection(sessionID string, err error) {
	l.mu.Lock()
	c, ok := l.conns[sessionID]
	if ok {
		delete(l.conns, sessionID)
	}
	l.mu.Unlock()
	if !ok {
		return
	}

	if c.connect != nil {
		if err != nil {
			c.connect.RecordError(err)
			c.connect.SetStatus(codes.Error, err.Error())
		}
		c.connect.End()
	}
	if err != nil {
		c.session.RecordError(err)
		c.session.SetStatus(codes.Error, err.Error())
	} else {
		c.session.SetStatus(codes.Ok, "")
	}
	c.session.End()
}

func (l *OTelEventListener) addEvent(sessionID, name string, attrs ...attribute.KeyValue) {
	l.mu.Lock()
	c, ok := l.conns[sessionID]
	l.mu.Unlock()
	if ok {
		c.session.AddEvent(name, trace.WithAttributes(attrs...))
	}
}

// SessionContext returns a context carrying the live session span, for
// parenting spans such as report requests. Unknown sessions get ctx back.
func (l *OTelEventListener) SessionContext(ctx context.Context, sessionID string) context.Context {
	l.mu.Lock()
	c, ok := l.conns[sessionID]
	l.mu.Unlock()
	if !ok {
		return ctx
	}
	return trace.ContextWithSpan(ctx, c.session)
}
