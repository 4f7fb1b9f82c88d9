// Package types defines the media units exchanged between capture, transport and playback.
package types

import (
	"fmt"
	"time"
)

// MIME types used on the realtime wire.
const (
	MIMETypeJPEG      = "image/jpeg"
	mimeTypePCMPrefix = "audio/pcm;rate="
)

// PCMMIMEType returns the MIME hint for 16-bit PCM at sampleRate, e.g. "audio/pcm;rate=16000".
func PCMMIMEType(sampleRate int) string {
	return fmt.Sprintf("%s%d", mimeTypePCMPrefix, sampleRate)
}

// AudioChunk is one captured window of mono audio, encoded as base64 16-bit
// little-endian PCM. It is immutable once produced.
type AudioChunk struct {
	// Data is base64 PCM16LE.
	Data string `json:"data"`

	// SampleRate is the rate of the encoded samples in Hz.
	SampleRate int `json:"sample_rate"`

	// Samples is the number of samples in the window.
	Samples int `json:"samples"`

	// SequenceNum orders chunks within one session, starting at 0.
	SequenceNum int64 `json:"sequence_num"`

	// Timestamp is when the window was completed.
	Timestamp time.Time `json:"timestamp"`
}

// MIMEType returns the wire MIME hint for the chunk.
func (c *AudioChunk) MIMEType() string {
	return PCMMIMEType(c.SampleRate)
}

// Duration returns the length of audio in the chunk.
func (c *AudioChunk) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(c.Samples) * time.Second / time.Duration(c.SampleRate)
}

// FrameChunk is one sampled video frame, down-scaled and JPEG compressed, base64 encoded.
type FrameChunk struct {
	// Data is base64 JPEG.
	Data string `json:"data"`

	Width  int `json:"width"`
	Height int `json:"height"`

	// SequenceNum orders frames within one session, starting at 0.
	SequenceNum int64 `json:"sequence_num"`

	// Timestamp is when the frame was sampled.
	Timestamp time.Time `json:"timestamp"`
}

// MIMEType returns the wire MIME hint for the frame.
func (c *FrameChunk) MIMEType() string {
	return MIMETypeJPEG
}

// AudioFormat describes the layout of an audio stream.
type AudioFormat struct {
	// SampleRate in Hz.
	SampleRate int `json:"sample_rate"`

	// WindowSamples is the number of samples per chunk. Zero means the source decides.
	WindowSamples int `json:"window_samples,omitempty"`
}

// Validate checks the format for usable values.
func (f AudioFormat) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", f.SampleRate)
	}
	if f.WindowSamples < 0 {
		return fmt.Errorf("window samples must not be negative, got %d", f.WindowSamples)
	}
	return nil
}

// WindowDuration returns the time covered by one window.
func (f AudioFormat) WindowDuration() time.Duration {
	if f.SampleRate <= 0 {
		return 0
	}
	return time.Duration(f.WindowSamples) * time.Second / time.Duration(f.SampleRate)
}
