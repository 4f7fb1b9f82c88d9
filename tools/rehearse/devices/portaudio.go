//go:build portaudio

// Package devices connects a session to the default microphone and speakers
// through PortAudio.
package devices

import (
	"context"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/AltairaLabs/rehearsal/runtime/logger"
	"github.com/AltairaLabs/rehearsal/runtime/playback"
)

const (
	// InputSampleRate is the microphone rate (16kHz for speech).
	InputSampleRate = 16000
	// InputFramesPerBuffer is 100ms of audio at 16kHz.
	InputFramesPerBuffer = 1600
	// OutputFramesPerBuffer is 20ms of audio at 24kHz.
	OutputFramesPerBuffer = 480
)

// System owns the PortAudio lifetime.
type System struct {
	mu      sync.Mutex
	streams []*portaudio.Stream
}

// Open initializes PortAudio. Close must be called to release it.
func Open() (*System, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return &System{}, nil
}

// Close stops every stream and terminates PortAudio.
func (s *System) Close() error {
	s.mu.Lock()
	streams := s.streams
	s.streams = nil
	s.mu.Unlock()

	for _, st := range streams {
		_ = st.Stop()
		_ = st.Close()
	}
	return portaudio.Terminate()
}

func (s *System) track(st *portaudio.Stream) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streams = append(s.streams, st)
}

// Microphone is a capture.AudioSource reading the default input device.
type Microphone struct {
	stream *portaudio.Stream
	in     []float32
	blocks chan []float32
}

// Microphone opens the default input device. Nothing is read until Run.
func (s *System) Microphone() (*Microphone, error) {
	in := make([]float32, InputFramesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(1, 0, InputSampleRate, InputFramesPerBuffer, in)
	if err != nil {
		return nil, fmt.Errorf("failed to open input stream: %w", err)
	}
	s.track(stream)
	return &Microphone{stream: stream, in: in, blocks: make(chan []float32, 8)}, nil
}

// SampleRate implements capture.AudioSource.
func (m *Microphone) SampleRate() int {
	return InputSampleRate
}

// Blocks implements capture.AudioSource. The channel is closed when Run returns.
func (m *Microphone) Blocks() <-chan []float32 {
	return m.blocks
}

// Run reads the device until ctx is done. Blocks are dropped when the
// consumer falls behind.
func (m *Microphone) Run(ctx context.Context) error {
	defer close(m.blocks)
	if err := m.stream.Start(); err != nil {
		return fmt.Errorf("failed to start input stream: %w", err)
	}
	defer func() { _ = m.stream.Stop() }()

	for ctx.Err() == nil {
		if err := m.stream.Read(); err != nil {
			if err == portaudio.InputOverflowed {
				logger.Debug("microphone overflow")
				continue
			}
			return fmt.Errorf("failed to read input stream: %w", err)
		}
		blk := make([]float32, len(m.in))
		copy(blk, m.in)
		select {
		case m.blocks <- blk:
		default:
			logger.MediaDropped(ctx, "audio", "device_backlog")
		}
	}
	return nil
}

// Speaker plays a renderer on the default output device. The device
// callback pulls samples, so the renderer's clock follows real playback.
type Speaker struct {
	stream *portaudio.Stream
}

// Speaker opens the default output device for r.
func (s *System) Speaker(r *playback.Renderer) (*Speaker, error) {
	stream, err := portaudio.OpenDefaultStream(0, 1, float64(r.SampleRate()), OutputFramesPerBuffer,
		func(out []float32) { r.Read(out) })
	if err != nil {
		return nil, fmt.Errorf("failed to open output stream: %w", err)
	}
	s.track(stream)
	return &Speaker{stream: stream}, nil
}

// Run plays until ctx is done.
func (sp *Speaker) Run(ctx context.Context) error {
	if err := sp.stream.Start(); err != nil {
		return fmt.Errorf("failed to start output stream: %w", err)
	}
	<-ctx.Done()
	return sp.stream.Stop()
}
