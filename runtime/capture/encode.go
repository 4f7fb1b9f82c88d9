package capture

import (
	"encoding/base64"
	"image"
	"time"

	"github.com/AltairaLabs/rehearsal/runtime/audio"
	"github.com/AltairaLabs/rehearsal/runtime/media"
	"github.com/AltairaLabs/rehearsal/runtime/types"
)

// Upload format defaults.
const (
	DefaultSampleRate    = audio.SampleRate16kHz
	DefaultWindowSamples = 4096
)

// EncodeAudioWindow converts one window of samples into an AudioChunk.
func EncodeAudioWindow(samples []float32, sampleRate int, seq int64, now time.Time) *types.AudioChunk {
	return &types.AudioChunk{
		Data:        audio.EncodePCM16Base64(samples),
		SampleRate:  sampleRate,
		Samples:     len(samples),
		SequenceNum: seq,
		Timestamp:   now,
	}
}

// EncodeFrameChunk scales and compresses img into a FrameChunk.
func EncodeFrameChunk(img image.Image, cfg media.FrameEncodeConfig, seq int64, now time.Time) (*types.FrameChunk, error) {
	data, err := media.EncodeFrame(img, cfg)
	if err != nil {
		return nil, err
	}
	w, h := cfg.Width, cfg.Height
	if w <= 0 {
		w = media.DefaultFrameWidth
	}
	if h <= 0 {
		h = media.DefaultFrameHeight
	}
	return &types.FrameChunk{
		Data:        base64.StdEncoding.EncodeToString(data),
		Width:       w,
		Height:      h,
		SequenceNum: seq,
		Timestamp:   now,
	}, nil
}

// Framer re-frames an arbitrary block stream into fixed-size windows.
type Framer struct {
	size int
	buf  []float32
}

// NewFramer creates a Framer producing windows of size samples.
func NewFramer(size int) *Framer {
	if size <= 0 {
		size = DefaultWindowSamples
	}
	return &Framer{size: size, buf: make([]float32, 0, size)}
}

// Push appends samples and returns every completed window. Returned windows
// do not alias the framer's buffer.
func (f *Framer) Push(samples []float32) [][]float32 {
	var windows [][]float32
	for len(samples) > 0 {
		n := f.size - len(f.buf)
		if n > len(samples) {
			n = len(samples)
		}
		f.buf = append(f.buf, samples[:n]...)
		samples = samples[n:]
		if len(f.buf) == f.size {
			w := make([]float32, f.size)
			copy(w, f.buf)
			windows = append(windows, w)
			f.buf = f.buf[:0]
		}
	}
	return windows
}

// Pending returns the number of buffered samples not yet forming a window.
func (f *Framer) Pending() int {
	return len(f.buf)
}

// Reset discards buffered samples.
func (f *Framer) Reset() {
	f.buf = f.buf[:0]
}
