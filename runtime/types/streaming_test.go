package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAudioChunk_MIMETypeAndDuration(t *testing.T) {
	c := &AudioChunk{SampleRate: 16000, Samples: 4096}
	assert.Equal(t, "audio/pcm;rate=16000", c.MIMEType())
	assert.Equal(t, 256*time.Millisecond, c.Duration())

	assert.Equal(t, time.Duration(0), (&AudioChunk{Samples: 10}).Duration())
}

func TestFrameChunk_MIMEType(t *testing.T) {
	assert.Equal(t, "image/jpeg", (&FrameChunk{}).MIMEType())
}

func TestAudioFormat_Validate(t *testing.T) {
	assert.NoError(t, AudioFormat{SampleRate: 16000, WindowSamples: 4096}.Validate())
	assert.Error(t, AudioFormat{SampleRate: 0}.Validate())
	assert.Error(t, AudioFormat{SampleRate: 16000, WindowSamples: -1}.Validate())
}

func TestAudioFormat_WindowDuration(t *testing.T) {
	assert.Equal(t, 256*time.Millisecond, AudioFormat{SampleRate: 16000, WindowSamples: 4096}.WindowDuration())
	assert.Equal(t, time.Duration(0), AudioFormat{}.WindowDuration())
}
