package capture

import (
	"bytes"
	"encoding/base64"
	"image/jpeg"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AltairaLabs/rehearsal/runtime/media"
)

func TestFramer_Windows(t *testing.T) {
	f := NewFramer(4096)

	var windows [][]float32
	for i := 0; i < 10; i++ {
		windows = append(windows, f.Push(make([]float32, 1000))...)
	}
	assert.Len(t, windows, 2)
	assert.Equal(t, 10000-2*4096, f.Pending())
	for _, w := range windows {
		assert.Len(t, w, 4096)
	}

	f.Reset()
	assert.Zero(t, f.Pending())
}

func TestFramer_LargeBlockSplitsIntoSeveralWindows(t *testing.T) {
	f := NewFramer(4)
	in := []float32{1, 2, 3, 4, 5, 6, 7, 8, 9}
	windows := f.Push(in)
	require.Len(t, windows, 2)
	assert.Equal(t, []float32{1, 2, 3, 4}, windows[0])
	assert.Equal(t, []float32{5, 6, 7, 8}, windows[1])
	assert.Equal(t, 1, f.Pending())

	windows[0][0] = 99
	assert.Equal(t, float32(5), windows[1][0], "windows must not share storage")
}

func TestEncodeAudioWindow(t *testing.T) {
	now := time.Unix(100, 0)
	c := EncodeAudioWindow(make([]float32, 4096), 16000, 7, now)

	assert.Equal(t, "audio/pcm;rate=16000", c.MIMEType())
	assert.Equal(t, 256*time.Millisecond, c.Duration())
	assert.Equal(t, int64(7), c.SequenceNum)
	assert.Equal(t, now, c.Timestamp)

	raw, err := base64.StdEncoding.DecodeString(c.Data)
	require.NoError(t, err)
	assert.Len(t, raw, 8192)
}

func TestEncodeFrameChunk(t *testing.T) {
	c, err := EncodeFrameChunk(solidFrame(640, 480), media.DefaultFrameEncodeConfig(), 3, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", c.MIMEType())
	assert.Equal(t, 320, c.Width)
	assert.Equal(t, 180, c.Height)

	raw, err := base64.StdEncoding.DecodeString(c.Data)
	require.NoError(t, err)
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 320, cfg.Width)
	assert.Equal(t, 180, cfg.Height)

	_, err = EncodeFrameChunk(nil, media.DefaultFrameEncodeConfig(), 0, time.Now())
	assert.Error(t, err)
}
