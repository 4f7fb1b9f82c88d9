package session

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/AltairaLabs/rehearsal/runtime/capture"
	"github.com/AltairaLabs/rehearsal/runtime/credentials"
	"github.com/AltairaLabs/rehearsal/runtime/logger"
	metrics "github.com/AltairaLabs/rehearsal/runtime/metrics/prometheus"
	"github.com/AltairaLabs/rehearsal/runtime/providers"
	"github.com/AltairaLabs/rehearsal/runtime/types"
)

var errStale = errors.New("stale connection generation")

// connection is one generation of a live connection. It is current while
// s.conn points at it; every callback checks that before acting.
type connection struct {
	gen    uint64
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	// Guarded by Session.mu.
	live    providers.LiveSession
	tap     *capture.AudioTap
	sampler *capture.FrameSampler
}

// Connect validates the configuration, resets the transcript and starts
// connecting in the background. It returns immediately; progress is visible
// through Phase and PhaseChanged events.
//
// A missing credential or audio source is a configuration error and leaves
// the phase unchanged. Connect while Connecting or Open does nothing.
// Canceling ctx disconnects.
func (s *Session) Connect(ctx context.Context) error {
	if s.cfg.Credential == nil {
		return configurationError("Connect", credentials.ErrNoCredential)
	}
	if s.cfg.AudioSource == nil {
		return configurationError("Connect", ErrNoAudioSource)
	}

	s.mu.Lock()
	if s.phase.Live() {
		s.mu.Unlock()
		return nil
	}
	s.gen++
	c := &connection{gen: s.gen, done: make(chan struct{})}
	connCtx := logger.WithSessionID(ctx, s.cfg.ID)
	connCtx = logger.WithModel(connCtx, s.cfg.Model)
	connCtx = logger.WithGeneration(connCtx, strconv.FormatUint(c.gen, 10))
	c.ctx, c.cancel = context.WithCancel(connCtx)
	s.conn = c
	s.err = nil
	s.transcript.Reset()
	s.scheduler.Reopen()
	s.signals.reset()
	s.setPhaseLocked(c.ctx, PhaseConnecting, nil)
	s.mu.Unlock()

	go s.run(c)
	return nil
}

// Disconnect tears down the current connection and moves to PhaseClosed.
// When it returns, capture has stopped and no playback unit is audible.
// It is idempotent and a no-op when nothing is connected.
func (s *Session) Disconnect() {
	s.mu.Lock()
	c := s.conn
	if c == nil {
		s.mu.Unlock()
		return
	}
	s.detachLocked(c, PhaseClosed, nil)
	s.mu.Unlock()

	s.teardown(c)
}

// Wait blocks until the current connection's background goroutine has
// exited or ctx is done.
func (s *Session) Wait(ctx context.Context) error {
	s.mu.Lock()
	c := s.conn
	s.mu.Unlock()
	if c == nil {
		return nil
	}
	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run dials, activates and then receives until the connection ends.
func (s *Session) run(c *connection) {
	defer close(c.done)

	dialCtx := c.ctx
	if s.cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(c.ctx, s.cfg.ConnectTimeout)
		defer cancel()
	}

	start := time.Now()
	live, err := s.cfg.Dialer.Dial(dialCtx, s.liveConfig())
	elapsed := time.Since(start).Seconds()
	if err != nil {
		if c.ctx.Err() != nil {
			metrics.RecordConnect(s.cfg.Model, metrics.StatusSkipped, elapsed)
			s.terminate(c, PhaseClosed, nil)
			return
		}
		metrics.RecordConnect(s.cfg.Model, metrics.StatusError, elapsed)
		s.terminate(c, PhaseError, err)
		return
	}
	metrics.RecordConnect(s.cfg.Model, metrics.StatusSuccess, elapsed)

	if err := s.activate(c, live); err != nil {
		_ = live.Close()
		if err != errStale {
			s.terminate(c, PhaseError, err)
		}
		return
	}
	s.receive(c, live)
}

func (s *Session) liveConfig() *providers.LiveConfig {
	return &providers.LiveConfig{
		Model:             s.cfg.Model,
		Voice:             s.cfg.Voice,
		SystemInstruction: s.cfg.SystemInstruction,
		Tools:             s.cfg.Registry.Descriptors(),
	}
}

// activate moves a freshly dialed connection to PhaseOpen and starts capture.
// It returns errStale when the generation was torn down during the dial.
func (s *Session) activate(c *connection, live providers.LiveSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != c || c.ctx.Err() != nil {
		return errStale
	}

	hooks := captureHooks()
	tap, err := capture.NewAudioTap(s.cfg.AudioSource, s.audioSink(c, live), capture.AudioTapConfig{Hooks: hooks})
	if err != nil {
		return configurationError("Connect", err)
	}
	if err := tap.Start(c.ctx); err != nil {
		return configurationError("Connect", err)
	}
	c.live = live
	c.tap = tap

	if s.cfg.VideoSource != nil {
		sampler, err := capture.NewFrameSampler(s.cfg.VideoSource, s.frameSink(c, live), capture.FrameSamplerConfig{
			Interval: s.cfg.FrameInterval,
			Hooks:    hooks,
		})
		if err == nil {
			err = sampler.Start(c.ctx)
		}
		if err != nil {
			logger.WarnContext(c.ctx, "video capture disabled", "error", err)
		} else {
			c.sampler = sampler
		}
	}

	s.setPhaseLocked(c.ctx, PhaseOpen, nil)
	return nil
}

// audioSink forwards chunks for generation c only.
func (s *Session) audioSink(c *connection, live providers.LiveSession) capture.AudioSink {
	return capture.AudioSinkFunc(func(ctx context.Context, chunk *types.AudioChunk) error {
		if c.ctx.Err() != nil {
			return nil
		}
		return live.SendAudio(ctx, chunk)
	})
}

// frameSink forwards frames for generation c only.
func (s *Session) frameSink(c *connection, live providers.LiveSession) capture.FrameSink {
	return capture.FrameSinkFunc(func(ctx context.Context, chunk *types.FrameChunk) error {
		if c.ctx.Err() != nil {
			return nil
		}
		return live.SendFrame(ctx, chunk)
	})
}

// receive dispatches inbound events in order until the connection ends.
func (s *Session) receive(c *connection, live providers.LiveSession) {
	for {
		select {
		case <-c.ctx.Done():
			s.terminate(c, PhaseClosed, nil)
			return
		case evt, ok := <-live.Events():
			if !ok {
				if err := live.Err(); err != nil {
					s.terminate(c, PhaseError, err)
				} else {
					s.terminate(c, PhaseClosed, nil)
				}
				return
			}
			s.dispatch(c, live, evt)
		}
	}
}

// terminate ends generation c in phase to. It does nothing if c is stale.
func (s *Session) terminate(c *connection, to Phase, err error) {
	s.mu.Lock()
	if s.conn != c {
		s.mu.Unlock()
		return
	}
	s.detachLocked(c, to, err)
	s.mu.Unlock()

	s.teardown(c)
	if err != nil && s.cfg.OnError != nil {
		s.cfg.OnError(err)
	}
}

// detachLocked invalidates generation c, silences playback and cancels
// pending signals. s.mu must be held, so a following Connect cannot reopen
// the scheduler before this generation has closed it.
func (s *Session) detachLocked(c *connection, to Phase, err error) {
	s.conn = nil
	c.cancel()
	s.scheduler.Close()
	s.signals.stop()
	s.setPhaseLocked(c.ctx, to, err)
}

// teardown closes the transport and stops capture for a detached generation.
func (s *Session) teardown(c *connection) {
	s.mu.Lock()
	live, tap, sampler := c.live, c.tap, c.sampler
	c.live, c.tap, c.sampler = nil, nil, nil
	s.mu.Unlock()

	if live != nil {
		if err := live.Close(); err != nil {
			logger.DebugContext(c.ctx, "live close", "error", err)
		}
	}
	if tap != nil {
		tap.Stop()
	}
	if sampler != nil {
		sampler.Stop()
	}
}

// SendText sends a user text turn, for example to open the conversation.
// It fails with ErrNotOpen unless the session is Open.
func (s *Session) SendText(ctx context.Context, text string) error {
	s.mu.Lock()
	var live providers.LiveSession
	if s.conn != nil && s.phase == PhaseOpen {
		live = s.conn.live
	}
	s.mu.Unlock()
	if live == nil {
		return ErrNotOpen
	}
	return live.SendText(ctx, text)
}
