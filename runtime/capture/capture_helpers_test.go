package capture

import (
	"context"
	"image"
	"image/color"
	"sync"

	"golang.org/x/image/draw"

	"github.com/AltairaLabs/rehearsal/runtime/types"
)

type chanSource struct {
	rate   int
	blocks chan []float32
}

func newChanSource(rate int) *chanSource {
	return &chanSource{rate: rate, blocks: make(chan []float32, 64)}
}

func (s *chanSource) SampleRate() int          { return s.rate }
func (s *chanSource) Blocks() <-chan []float32 { return s.blocks }

type recordingAudioSink struct {
	mu     sync.Mutex
	chunks []*types.AudioChunk
	gate   chan struct{} // when non-nil every send waits for a receive
}

func (s *recordingAudioSink) SendAudio(ctx context.Context, c *types.AudioChunk) error {
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = append(s.chunks, c)
	return nil
}

func (s *recordingAudioSink) snapshot() []*types.AudioChunk {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*types.AudioChunk(nil), s.chunks...)
}

type staticVideo struct {
	mu  sync.Mutex
	img image.Image
	err error
}

func (v *staticVideo) Frame() (image.Image, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.img, v.err
}

func solidFrame(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{R: 200, G: 80, B: 40, A: 255}), image.Point{}, draw.Src)
	return img
}

type recordingFrameSink struct {
	mu     sync.Mutex
	frames []*types.FrameChunk
	gate   chan struct{}
}

func (s *recordingFrameSink) SendFrame(ctx context.Context, c *types.FrameChunk) error {
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, c)
	return nil
}

func (s *recordingFrameSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}
