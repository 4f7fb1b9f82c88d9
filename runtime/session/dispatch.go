package session

import (
	"context"
	"fmt"

	"github.com/AltairaLabs/rehearsal/runtime/logger"
	"github.com/AltairaLabs/rehearsal/runtime/providers"
	"github.com/AltairaLabs/rehearsal/runtime/tools"
	"github.com/AltairaLabs/rehearsal/runtime/transcript"
)

// dispatch handles one inbound event for generation c. It holds s.mu so a
// concurrent teardown either runs before (and the event is dropped) or after.
func (s *Session) dispatch(c *connection, live providers.LiveSession, evt providers.LiveEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != c {
		return
	}

	switch e := evt.(type) {
	case providers.ToolCallEvent:
		s.handleToolCalls(c, live, e.Calls)
	case providers.InterruptedEvent:
		stopped := s.scheduler.Interrupt()
		logger.DebugContext(c.ctx, "playback interrupted", "stopped", stopped)
		s.emitter.PlaybackInterrupted(stopped)
	case providers.InputTranscriptEvent:
		s.appendTranscript(transcript.RoleUser, e.Text)
	case providers.OutputTranscriptEvent:
		s.appendTranscript(transcript.RoleModel, e.Text)
		if !s.teleprompter.Load() {
			s.signals.appendUtterance(e.Text)
		}
	case providers.TurnCompleteEvent:
		s.signals.scheduleUtteranceClear()
	case providers.AudioEvent:
		if _, err := s.scheduler.Enqueue(e.Data); err != nil {
			logger.WarnContext(c.ctx, "dropping audio payload", "mime_type", e.MIMEType, "error", err)
		}
	default:
		logger.DebugContext(c.ctx, "ignoring live event", "type", fmt.Sprintf("%T", evt))
	}
}

func (s *Session) appendTranscript(role transcript.Role, text string) {
	if text == "" {
		return
	}
	s.transcript.Append(role, text)
	s.emitter.TranscriptDelta(string(role), text)
}

// handleToolCalls turns recognized calls into insights and acknowledges them.
// Unknown tools and invalid arguments are logged and get no response.
func (s *Session) handleToolCalls(c *connection, live providers.LiveSession, calls []tools.ToolCall) {
	var responses []tools.ToolResponse
	for i := range calls {
		call := &calls[i]
		descriptor, err := s.cfg.Registry.Resolve(call)
		if err != nil {
			logger.ToolCall(c.ctx, call.Name, call.ID, false, "error", err)
			s.emitter.ToolCall(call.ID, call.Name, false)
			continue
		}
		logger.ToolCall(c.ctx, call.Name, call.ID, true)
		s.emitter.ToolCall(call.ID, call.Name, true)

		if descriptor.Name == tools.ShowInsightName && !s.distractionFree.Load() {
			args, err := tools.ParseInsightArgs(call.Args)
			if err != nil {
				logger.WarnContext(c.ctx, "invalid insight arguments", "call_id", call.ID, "error", err)
			} else {
				s.signals.showInsight(args.Title, args.Content)
			}
		}
		responses = append(responses, tools.OKResponse(call))
	}
	if len(responses) == 0 {
		return
	}

	go func() {
		if c.ctx.Err() != nil {
			return
		}
		if err := live.SendToolResponses(c.ctx, responses); err != nil && c.ctx.Err() == nil {
			logger.WarnContext(c.ctx, "failed to send tool responses", "count", len(responses), "error", err)
		}
	}()
}

func logPhase(ctx context.Context, from, to Phase, err error) {
	if err != nil {
		logger.PhaseChange(ctx, from.String(), to.String(), "error", err)
		return
	}
	logger.PhaseChange(ctx, from.String(), to.String())
}
