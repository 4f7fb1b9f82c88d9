package session

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/AltairaLabs/rehearsal/runtime/credentials"
	"github.com/AltairaLabs/rehearsal/runtime/events"
	"github.com/AltairaLabs/rehearsal/runtime/playback"
	"github.com/AltairaLabs/rehearsal/runtime/providers"
	"github.com/AltairaLabs/rehearsal/runtime/tools"
	"github.com/AltairaLabs/rehearsal/runtime/types"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

var errFakeClosed = errors.New("fake live closed")

// fakeLive is an in-memory providers.LiveSession.
type fakeLive struct {
	events chan providers.LiveEvent
	done   chan struct{}

	mu        sync.Mutex
	closed    bool
	err       error
	audio     []*types.AudioChunk
	frames    []*types.FrameChunk
	responses [][]tools.ToolResponse
	texts     []string
	closes    int
}

func newFakeLive() *fakeLive {
	return &fakeLive{
		events: make(chan providers.LiveEvent, 64),
		done:   make(chan struct{}),
	}
}

func (f *fakeLive) push(evts ...providers.LiveEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	for _, e := range evts {
		f.events <- e
	}
}

// end finishes the stream as a remote close (err nil) or failure.
func (f *fakeLive) end(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	f.err = err
	close(f.events)
	close(f.done)
}

func (f *fakeLive) SendAudio(_ context.Context, c *types.AudioChunk) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errFakeClosed
	}
	f.audio = append(f.audio, c)
	return nil
}

func (f *fakeLive) SendFrame(_ context.Context, c *types.FrameChunk) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errFakeClosed
	}
	f.frames = append(f.frames, c)
	return nil
}

func (f *fakeLive) SendToolResponses(_ context.Context, r []tools.ToolResponse) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errFakeClosed
	}
	f.responses = append(f.responses, r)
	return nil
}

func (f *fakeLive) SendText(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errFakeClosed
	}
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeLive) Events() <-chan providers.LiveEvent { return f.events }
func (f *fakeLive) Done() <-chan struct{}              { return f.done }

func (f *fakeLive) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *fakeLive) Close() error {
	f.mu.Lock()
	f.closes++
	f.mu.Unlock()
	f.end(nil)
	return nil
}

func (f *fakeLive) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeLive) audioCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.audio)
}

func (f *fakeLive) frameCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func (f *fakeLive) toolResponses() [][]tools.ToolResponse {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]tools.ToolResponse(nil), f.responses...)
}

func (f *fakeLive) sentTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

// fakeDialer hands out fakeLive sessions. With block set, Dial waits for it
// to be closed or for ctx.
type fakeDialer struct {
	mu       sync.Mutex
	err      error
	block    chan struct{}
	sessions []*fakeLive
	configs  []*providers.LiveConfig
}

func (d *fakeDialer) Dial(ctx context.Context, cfg *providers.LiveConfig) (providers.LiveSession, error) {
	d.mu.Lock()
	block := d.block
	d.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.configs = append(d.configs, cfg)
	if d.err != nil {
		return nil, d.err
	}
	l := newFakeLive()
	d.sessions = append(d.sessions, l)
	return l, nil
}

func (d *fakeDialer) dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.configs)
}

func (d *fakeDialer) last() *fakeLive {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.sessions) == 0 {
		return nil
	}
	return d.sessions[len(d.sessions)-1]
}

// chanSource is a microphone fed by the test.
type chanSource struct {
	rate   int
	blocks chan []float32
}

func newChanSource() *chanSource {
	return &chanSource{rate: 16000, blocks: make(chan []float32, 16)}
}

func (s *chanSource) SampleRate() int          { return s.rate }
func (s *chanSource) Blocks() <-chan []float32 { return s.blocks }

// stillCamera returns the same small frame on every call.
type stillCamera struct{}

func (*stillCamera) Frame() (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, 8, 8)), nil
}

// recorder collects bus events.
type recorder struct {
	mu     sync.Mutex
	events []*events.Event
}

func (r *recorder) listen(e *events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) ofType(t events.EventType) []*events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*events.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type harness struct {
	s        *Session
	dialer   *fakeDialer
	source   *chanSource
	renderer *playback.Renderer
	events   *recorder
}

func newHarness(t *testing.T, mutate func(*Config)) *harness {
	t.Helper()
	bus := events.NewEventBus()
	rec := &recorder{}
	bus.SubscribeAll(rec.listen)
	t.Cleanup(bus.Close)

	h := &harness{
		dialer:   &fakeDialer{},
		source:   newChanSource(),
		renderer: playback.NewRenderer(playback.OutputSampleRate),
		events:   rec,
	}
	cfg := Config{
		ID:            "test-session",
		Credential:    credentials.NewAPIKeyCredential("k"),
		Dialer:        h.dialer,
		AudioSource:   h.source,
		Output:        h.renderer,
		Bus:           bus,
		InsightTTL:    80 * time.Millisecond,
		UtteranceHold: 50 * time.Millisecond,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	h.s = New(cfg)
	t.Cleanup(h.s.Disconnect)
	return h
}

// open connects and waits for PhaseOpen.
func (h *harness) open(t *testing.T) *fakeLive {
	t.Helper()
	require.NoError(t, h.s.Connect(context.Background()))
	h.waitPhase(t, PhaseOpen)
	live := h.dialer.last()
	require.NotNil(t, live)
	return live
}

func (h *harness) waitPhase(t *testing.T, want Phase) {
	t.Helper()
	require.Eventually(t, func() bool { return h.s.Phase() == want }, waitFor, tick,
		"phase %s, want %s", h.s.Phase(), want)
}

// settle pushes a marker delta and waits until it reaches the transcript,
// which proves every earlier event was handled.
func (h *harness) settle(t *testing.T, live *fakeLive) {
	t.Helper()
	before := h.s.transcript.Format()
	live.push(providers.InputTranscriptEvent{Text: "."})
	require.Eventually(t, func() bool { return h.s.transcript.Format() != before }, waitFor, tick)
}
