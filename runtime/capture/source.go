package capture

import (
	"context"
	"errors"
	"image"

	"github.com/AltairaLabs/rehearsal/runtime/types"
)

// ErrNoFrame is returned by a VideoSource that has nothing to show yet.
var ErrNoFrame = errors.New("no frame available")

// AudioSource delivers mono float32 samples in [-1, 1] at SampleRate.
// Blocks may be any size. The channel is owned by the source; the tap stops
// reading when it is closed or when the tap is stopped.
type AudioSource interface {
	SampleRate() int
	Blocks() <-chan []float32
}

// VideoSource returns the most recent camera frame.
type VideoSource interface {
	Frame() (image.Image, error)
}

// AudioSink receives encoded audio windows in capture order.
type AudioSink interface {
	SendAudio(ctx context.Context, chunk *types.AudioChunk) error
}

// FrameSink receives encoded frames.
type FrameSink interface {
	SendFrame(ctx context.Context, chunk *types.FrameChunk) error
}

// AudioSinkFunc adapts a function to AudioSink.
type AudioSinkFunc func(ctx context.Context, chunk *types.AudioChunk) error

// SendAudio implements AudioSink.
func (f AudioSinkFunc) SendAudio(ctx context.Context, chunk *types.AudioChunk) error {
	return f(ctx, chunk)
}

// FrameSinkFunc adapts a function to FrameSink.
type FrameSinkFunc func(ctx context.Context, chunk *types.FrameChunk) error

// SendFrame implements FrameSink.
func (f FrameSinkFunc) SendFrame(ctx context.Context, chunk *types.FrameChunk) error {
	return f(ctx, chunk)
}

// Hooks observe capture activity. Every field is optional.
type Hooks struct {
	AudioSent    func(chunk *types.AudioChunk)
	AudioDropped func(reason string)
	FrameSent    func(chunk *types.FrameChunk)
	FrameSkipped func(reason string)
	SendFailed   func(kind string, err error)
}

func (h *Hooks) audioSent(c *types.AudioChunk) {
	if h != nil && h.AudioSent != nil {
		h.AudioSent(c)
	}
}

func (h *Hooks) audioDropped(reason string) {
	if h != nil && h.AudioDropped != nil {
		h.AudioDropped(reason)
	}
}

func (h *Hooks) frameSent(c *types.FrameChunk) {
	if h != nil && h.FrameSent != nil {
		h.FrameSent(c)
	}
}

func (h *Hooks) frameSkipped(reason string) {
	if h != nil && h.FrameSkipped != nil {
		h.FrameSkipped(reason)
	}
}

func (h *Hooks) sendFailed(kind string, err error) {
	if h != nil && h.SendFailed != nil {
		h.SendFailed(kind, err)
	}
}
