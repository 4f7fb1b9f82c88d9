package capture

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AltairaLabs/rehearsal/runtime/types"
)

func TestFrameSampler_OneFramePerTickWhenEncodeIsFast(t *testing.T) {
	ticks := make(chan time.Time)
	sink := &recordingFrameSink{}
	s, err := NewFrameSampler(&staticVideo{img: solidFrame(640, 360)}, sink, FrameSamplerConfig{
		Interval: 2 * time.Second,
		Ticks:    ticks,
	})
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	for i := 1; i <= 3; i++ {
		ticks <- time.Now()
		require.Eventually(t, func() bool { return sink.count() == i }, time.Second, time.Millisecond)
		require.Eventually(t, func() bool { return !s.Gate().Busy() }, time.Second, time.Millisecond)
	}
	assert.Equal(t, int64(3), s.Sent())
	assert.Zero(t, s.Skipped())
}

func TestFrameSampler_SkipsTickWhileFrameInFlight(t *testing.T) {
	ticks := make(chan time.Time)
	sink := &recordingFrameSink{gate: make(chan struct{})}
	var skipped []string
	s, err := NewFrameSampler(&staticVideo{img: solidFrame(320, 180)}, sink, FrameSamplerConfig{
		Ticks: ticks,
		Hooks: &Hooks{FrameSkipped: func(r string) { skipped = append(skipped, r) }},
	})
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))

	ticks <- time.Now() // acquires the gate; the send blocks
	require.Eventually(t, func() bool { return s.Gate().Busy() }, time.Second, time.Millisecond)

	ticks <- time.Now() // must be skipped, not queued
	ticks <- time.Now()
	require.Eventually(t, func() bool { return s.Skipped() == 2 }, time.Second, time.Millisecond)

	sink.gate <- struct{}{}
	require.Eventually(t, func() bool { return sink.count() == 1 }, time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return !s.Gate().Busy() }, time.Second, time.Millisecond)

	s.Stop()
	assert.Equal(t, []string{SkipReasonInFlight, SkipReasonInFlight}, skipped)
	assert.Equal(t, 1, sink.count(), "skipped ticks must never be sent later")
}

func TestFrameSampler_NoFrameReleasesGate(t *testing.T) {
	ticks := make(chan time.Time)
	video := &staticVideo{err: ErrNoFrame}
	sink := &recordingFrameSink{}
	s, err := NewFrameSampler(video, sink, FrameSamplerConfig{Ticks: ticks})
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	ticks <- time.Now()
	require.Eventually(t, func() bool { return s.Skipped() == 1 }, time.Second, time.Millisecond)
	assert.False(t, s.Gate().Busy())

	video.mu.Lock()
	video.img, video.err = solidFrame(100, 100), nil
	video.mu.Unlock()

	ticks <- time.Now()
	require.Eventually(t, func() bool { return sink.count() == 1 }, time.Second, time.Millisecond)
}

func TestFrameSampler_SendFailureReleasesGate(t *testing.T) {
	ticks := make(chan time.Time)
	var failures int
	sink := FrameSinkFunc(func(_ context.Context, _ *types.FrameChunk) error { return errors.New("socket closed") })
	s, err := NewFrameSampler(&staticVideo{img: solidFrame(32, 32)}, sink, FrameSamplerConfig{
		Ticks: ticks,
		Hooks: &Hooks{SendFailed: func(kind string, _ error) {
			if kind == "frame" {
				failures++
			}
		}},
	})
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))

	ticks <- time.Now()
	require.Eventually(t, func() bool { return !s.Gate().Busy() }, time.Second, time.Millisecond)
	s.Stop()

	assert.Equal(t, 1, failures)
	assert.Zero(t, s.Sent())
}

func TestFrameSampler_StopWaitsForInFlightSend(t *testing.T) {
	ticks := make(chan time.Time)
	sink := &recordingFrameSink{gate: make(chan struct{})}
	s, err := NewFrameSampler(&staticVideo{img: solidFrame(32, 32)}, sink, FrameSamplerConfig{Ticks: ticks})
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))

	ticks <- time.Now()
	require.Eventually(t, func() bool { return s.Gate().Busy() }, time.Second, time.Millisecond)

	// Stop cancels the send context, which unblocks the sink.
	s.Stop()
	assert.False(t, s.Gate().Busy())
	assert.Zero(t, sink.count())
	s.Stop()
}

func TestNewFrameSampler_Validation(t *testing.T) {
	_, err := NewFrameSampler(nil, &recordingFrameSink{}, FrameSamplerConfig{})
	assert.Error(t, err)
	_, err = NewFrameSampler(&staticVideo{}, nil, FrameSamplerConfig{})
	assert.Error(t, err)
	_, err = NewFrameSampler(&staticVideo{}, &recordingFrameSink{}, FrameSamplerConfig{Interval: -time.Second})
	assert.Error(t, err)

	s, err := NewFrameSampler(&staticVideo{}, &recordingFrameSink{}, FrameSamplerConfig{})
	require.NoError(t, err)
	assert.Equal(t, DefaultFrameInterval, s.cfg.Interval)
	assert.Equal(t, 320, s.cfg.Encode.Width)
}
