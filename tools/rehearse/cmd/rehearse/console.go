package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/AltairaLabs/rehearsal/runtime/events"
)

// syncWriter serializes writes from the event dispatcher and the command.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// console prints session events for a human watching the run. It also
// signals when the session first opens.
type console struct {
	w         io.Writer
	utterance bool

	opened chan struct{}
	once   sync.Once
}

func newConsole(w io.Writer, showUtterance bool) *console {
	return &console{w: w, utterance: showUtterance, opened: make(chan struct{})}
}

// Opened is closed the first time the session reaches the open phase.
func (c *console) Opened() <-chan struct{} {
	return c.opened
}

// handle runs on the bus dispatcher goroutine.
func (c *console) handle(e *events.Event) {
	//nolint:exhaustive // Only printing user-facing events
	switch e.Type {
	case events.EventPhaseChanged:
		d, ok := e.Data.(*events.PhaseChangedData)
		if !ok {
			return
		}
		if d.Err != nil {
			fmt.Fprintf(c.w, "● %s → %s: %v\n", d.From, d.To, d.Err)
		} else {
			fmt.Fprintf(c.w, "● %s → %s\n", d.From, d.To)
		}
		if d.To == "open" {
			c.once.Do(func() { close(c.opened) })
		}
	case events.EventInsightShown:
		if d, ok := e.Data.(*events.InsightData); ok {
			fmt.Fprintf(c.w, "💡 %s: %s\n", d.Title, d.Content)
		}
	case events.EventUtteranceUpdated:
		if d, ok := e.Data.(*events.UtteranceData); ok && c.utterance {
			fmt.Fprintf(c.w, "🗣  %s\n", oneLine(d.Text))
		}
	case events.EventPlaybackInterrupted:
		if d, ok := e.Data.(*events.PlaybackInterruptedData); ok && d.Stopped > 0 {
			fmt.Fprintf(c.w, "✋ interrupted (%d stopped)\n", d.Stopped)
		}
	case events.EventToolCall:
		if d, ok := e.Data.(*events.ToolCallData); ok && !d.Recognized {
			fmt.Fprintf(c.w, "⚠ ignored tool call %q\n", d.Name)
		}
	}
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
