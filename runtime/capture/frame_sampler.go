package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AltairaLabs/rehearsal/runtime/logger"
	"github.com/AltairaLabs/rehearsal/runtime/media"
)

// DefaultFrameInterval is the sampling cadence when none is configured.
const DefaultFrameInterval = 2 * time.Second

// Skip reasons reported through Hooks.FrameSkipped.
const (
	SkipReasonInFlight = "in_flight"
	SkipReasonNoFrame  = "no_frame"
	SkipReasonEncode   = "encode_failed"
)

// FrameSamplerConfig configures a FrameSampler.
type FrameSamplerConfig struct {
	// Interval between samples. Defaults to DefaultFrameInterval.
	Interval time.Duration

	// Encode controls scaling and compression. Zero value means 320x180 JPEG.
	Encode media.FrameEncodeConfig

	// Ticks replaces the internal ticker when set.
	Ticks <-chan time.Time

	// Gate is the in-flight slot. A private gate is used when nil.
	Gate *Gate

	Now   func() time.Time
	Hooks *Hooks
}

// FrameSampler periodically samples a VideoSource and sends one frame at a time.
type FrameSampler struct {
	src  VideoSource
	sink FrameSink
	cfg  FrameSamplerConfig
	gate *Gate

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	seq     int64
	sent    atomic.Int64
	skipped atomic.Int64
}

// NewFrameSampler creates a sampler. Nothing is sampled until Start.
func NewFrameSampler(src VideoSource, sink FrameSink, cfg FrameSamplerConfig) (*FrameSampler, error) {
	if src == nil {
		return nil, fmt.Errorf("video source is required")
	}
	if sink == nil {
		return nil, fmt.Errorf("frame sink is required")
	}
	if cfg.Interval < 0 {
		return nil, fmt.Errorf("frame interval must be positive, got %s", cfg.Interval)
	}
	if cfg.Interval == 0 {
		cfg.Interval = DefaultFrameInterval
	}
	if cfg.Encode.Width == 0 && cfg.Encode.Height == 0 {
		cfg.Encode = media.DefaultFrameEncodeConfig()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	gate := cfg.Gate
	if gate == nil {
		gate = &Gate{}
	}
	return &FrameSampler{src: src, sink: sink, cfg: cfg, gate: gate}, nil
}

// Start begins sampling.
func (s *FrameSampler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return ErrTapStarted
	}
	s.started = true

	ctx, s.cancel = context.WithCancel(ctx)

	ticks := s.cfg.Ticks
	var ticker *time.Ticker
	if ticks == nil {
		ticker = time.NewTicker(s.cfg.Interval)
		ticks = ticker.C
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if ticker != nil {
			defer ticker.Stop()
		}
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-ticks:
				if !ok {
					return
				}
				s.tick(ctx)
			}
		}
	}()
	return nil
}

// Stop ends sampling and waits for the loop and any in-flight send.
// Safe to call multiple times and before Start.
func (s *FrameSampler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.started = true
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

// Sent returns the number of frames delivered to the sink.
func (s *FrameSampler) Sent() int64 {
	return s.sent.Load()
}

// Skipped returns the number of ticks that produced no frame.
func (s *FrameSampler) Skipped() int64 {
	return s.skipped.Load()
}

// Gate returns the sampler's in-flight slot.
func (s *FrameSampler) Gate() *Gate {
	return s.gate
}

func (s *FrameSampler) skip(ctx context.Context, reason string) {
	s.skipped.Add(1)
	s.cfg.Hooks.frameSkipped(reason)
	logger.MediaDropped(ctx, "frame", reason)
}

func (s *FrameSampler) tick(ctx context.Context) {
	if !s.gate.TryAcquire() {
		s.skip(ctx, SkipReasonInFlight)
		return
	}

	img, err := s.src.Frame()
	if err != nil {
		s.gate.Release()
		if !errors.Is(err, ErrNoFrame) {
			logger.DebugContext(ctx, "frame source error", "error", err)
		}
		s.skip(ctx, SkipReasonNoFrame)
		return
	}

	chunk, err := EncodeFrameChunk(img, s.cfg.Encode, s.seq, s.cfg.Now())
	if err != nil {
		s.gate.Release()
		s.skip(ctx, SkipReasonEncode)
		return
	}
	s.seq++

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.gate.Release()
		if ctx.Err() != nil {
			return
		}
		if err := s.sink.SendFrame(ctx, chunk); err != nil {
			s.cfg.Hooks.sendFailed("frame", err)
			logger.DebugContext(ctx, "frame send failed", "seq", chunk.SequenceNum, "error", err)
			return
		}
		s.sent.Add(1)
		s.cfg.Hooks.frameSent(chunk)
	}()
}
