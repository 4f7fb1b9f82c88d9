package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AltairaLabs/rehearsal/runtime/audio"
	"github.com/AltairaLabs/rehearsal/runtime/logger"
)

// DefaultAudioQueueSize bounds the windows waiting for the sender (about 8 s of audio).
const DefaultAudioQueueSize = 32

// Drop reasons reported through Hooks.AudioDropped.
const (
	DropReasonQueueFull = "queue_full"
	DropReasonStopped   = "stopped"
)

// ErrTapStarted is returned when Start is called more than once.
var ErrTapStarted = errors.New("capture already started")

// AudioTapConfig configures an AudioTap.
type AudioTapConfig struct {
	// SampleRate is the upload rate. Defaults to 16 kHz.
	SampleRate int

	// WindowSamples is the number of samples per chunk. Defaults to 4096.
	WindowSamples int

	// QueueSize bounds windows waiting to be sent. Defaults to DefaultAudioQueueSize.
	QueueSize int

	// Now stamps chunks. Defaults to time.Now.
	Now func() time.Time

	Hooks *Hooks
}

func (c *AudioTapConfig) defaults() {
	if c.SampleRate <= 0 {
		c.SampleRate = DefaultSampleRate
	}
	if c.WindowSamples <= 0 {
		c.WindowSamples = DefaultWindowSamples
	}
	if c.QueueSize <= 0 {
		c.QueueSize = DefaultAudioQueueSize
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

// AudioTap reads an AudioSource, encodes fixed windows and sends them in order
// on a background goroutine.
type AudioTap struct {
	src  AudioSource
	sink AudioSink
	cfg  AudioTapConfig

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	seq     int64
	sent    atomic.Int64
	dropped atomic.Int64
}

// NewAudioTap creates a tap. Nothing is read until Start.
func NewAudioTap(src AudioSource, sink AudioSink, cfg AudioTapConfig) (*AudioTap, error) {
	if src == nil {
		return nil, fmt.Errorf("audio source is required")
	}
	if sink == nil {
		return nil, fmt.Errorf("audio sink is required")
	}
	if src.SampleRate() <= 0 {
		return nil, fmt.Errorf("audio source reports invalid sample rate %d", src.SampleRate())
	}
	cfg.defaults()
	return &AudioTap{src: src, sink: sink, cfg: cfg}, nil
}

// Start begins capturing. The tap stops when ctx is canceled, Stop is called,
// or the source's channel closes.
func (t *AudioTap) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started {
		return ErrTapStarted
	}
	t.started = true

	resampler, err := audio.NewResampler(t.src.SampleRate(), t.cfg.SampleRate)
	if err != nil {
		return err
	}

	ctx, t.cancel = context.WithCancel(ctx)
	queue := make(chan *windowJob, t.cfg.QueueSize)

	t.wg.Add(2)
	go t.captureLoop(ctx, resampler, queue)
	go t.sendLoop(ctx, queue)

	logger.DebugContext(ctx, "audio tap started",
		"source_rate", t.src.SampleRate(),
		"upload_rate", t.cfg.SampleRate,
		"window_samples", t.cfg.WindowSamples,
	)
	return nil
}

// Stop ends capture and waits for the background goroutines. Windows still
// queued are discarded. Safe to call multiple times and before Start.
func (t *AudioTap) Stop() {
	t.mu.Lock()
	cancel := t.cancel
	t.started = true
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	t.wg.Wait()
}

// Sent returns the number of windows delivered to the sink.
func (t *AudioTap) Sent() int64 {
	return t.sent.Load()
}

// Dropped returns the number of windows discarded before sending.
func (t *AudioTap) Dropped() int64 {
	return t.dropped.Load()
}

type windowJob struct {
	samples []float32
	seq     int64
	at      time.Time
}

func (t *AudioTap) captureLoop(ctx context.Context, resampler *audio.Resampler, queue chan<- *windowJob) {
	defer t.wg.Done()
	defer close(queue)

	framer := NewFramer(t.cfg.WindowSamples)
	blocks := t.src.Blocks()

	for {
		select {
		case <-ctx.Done():
			return
		case block, ok := <-blocks:
			if !ok {
				logger.DebugContext(ctx, "audio source closed")
				return
			}
			for _, w := range framer.Push(resampler.Process(block)) {
				job := &windowJob{samples: w, seq: t.seq, at: t.cfg.Now()}
				t.seq++
				select {
				case queue <- job:
				default:
					t.dropped.Add(1)
					t.cfg.Hooks.audioDropped(DropReasonQueueFull)
					logger.MediaDropped(ctx, "audio", DropReasonQueueFull, "seq", job.seq)
				}
			}
		}
	}
}

// sendLoop encodes off the capture goroutine so a slow network never stalls
// the source, and preserves capture order.
func (t *AudioTap) sendLoop(ctx context.Context, queue <-chan *windowJob) {
	defer t.wg.Done()

	for job := range queue {
		if ctx.Err() != nil {
			t.dropped.Add(1)
			t.cfg.Hooks.audioDropped(DropReasonStopped)
			continue
		}
		chunk := EncodeAudioWindow(job.samples, t.cfg.SampleRate, job.seq, job.at)
		if err := t.sink.SendAudio(ctx, chunk); err != nil {
			t.cfg.Hooks.sendFailed("audio", err)
			logger.DebugContext(ctx, "audio send failed", "seq", chunk.SequenceNum, "error", err)
			continue
		}
		t.sent.Add(1)
		t.cfg.Hooks.audioSent(chunk)
	}
}
