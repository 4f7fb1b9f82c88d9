package playback

import (
	"encoding/base64"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rerrors "github.com/AltairaLabs/rehearsal/pkg/errors"
	"github.com/AltairaLabs/rehearsal/runtime/audio"
)

type fakeVoice struct {
	mu      sync.Mutex
	stopped bool
}

func (v *fakeVoice) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stopped = true
}

func (v *fakeVoice) isStopped() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.stopped
}

type fakeSink struct {
	mu      sync.Mutex
	now     time.Duration
	units   []*Unit
	voices  []*fakeVoice
	endings []func()
	gain    float64
}

func (s *fakeSink) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *fakeSink) setNow(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = d
}

func (s *fakeSink) Schedule(u *Unit, onEnded func()) Voice {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := &fakeVoice{}
	s.units = append(s.units, u)
	s.voices = append(s.voices, v)
	s.endings = append(s.endings, onEnded)
	return v
}

func (s *fakeSink) SetGain(g float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gain = g
}

func pcmPayload(n int, value float32) string {
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = value
	}
	return audio.EncodePCM16Base64(samples)
}

func TestScheduler_UnitsNeverOverlap(t *testing.T) {
	sink := &fakeSink{}
	s := NewScheduler(sink, 24000, nil)

	var units []*Unit
	for i := 0; i < 5; i++ {
		u, err := s.Enqueue(pcmPayload(2400, 0.1)) // 100ms each
		require.NoError(t, err)
		units = append(units, u)
	}

	assert.Equal(t, time.Duration(0), units[0].Start)
	for i := 1; i < len(units); i++ {
		assert.GreaterOrEqual(t, units[i].Start, units[i-1].End())
		assert.Equal(t, units[i-1].End(), units[i].Start, "units are scheduled back to back")
	}
	assert.Equal(t, 500*time.Millisecond, s.Clock())
	assert.Equal(t, 5, s.Active())
}

func TestScheduler_StartNeverBehindSinkClock(t *testing.T) {
	sink := &fakeSink{}
	s := NewScheduler(sink, 24000, nil)

	first, err := s.Enqueue(pcmPayload(2400, 0.1))
	require.NoError(t, err)

	// The output clock ran past the end of the first unit (a gap in arrivals).
	sink.setNow(2 * time.Second)
	second, err := s.Enqueue(pcmPayload(2400, 0.1))
	require.NoError(t, err)

	assert.Equal(t, time.Duration(0), first.Start)
	assert.Equal(t, 2*time.Second, second.Start)
	assert.Equal(t, 2100*time.Millisecond, s.Clock())
}

func TestScheduler_CompletionRemovesUnit(t *testing.T) {
	sink := &fakeSink{}
	var ended []uint64
	s := NewScheduler(sink, 24000, &Hooks{Ended: func(u *Unit) { ended = append(ended, u.ID) }})

	_, err := s.Enqueue(pcmPayload(240, 0.1))
	require.NoError(t, err)
	_, err = s.Enqueue(pcmPayload(240, 0.1))
	require.NoError(t, err)

	sink.endings[0]()
	assert.Equal(t, 1, s.Active())
	sink.endings[1]()
	assert.Zero(t, s.Active())
	assert.Equal(t, []uint64{1, 2}, ended)
}

func TestScheduler_InterruptStopsAndRewinds(t *testing.T) {
	sink := &fakeSink{}
	var interrupted int
	s := NewScheduler(sink, 24000, &Hooks{Interrupted: func(n int) { interrupted = n }})

	for i := 0; i < 3; i++ {
		_, err := s.Enqueue(pcmPayload(2400, 0.1))
		require.NoError(t, err)
	}
	require.Equal(t, 3, s.Active())

	assert.Equal(t, 3, s.Interrupt())
	assert.Equal(t, 3, interrupted)
	assert.Zero(t, s.Active())
	assert.Equal(t, time.Duration(0), s.Clock())
	for _, v := range sink.voices {
		assert.True(t, v.isStopped())
	}

	// A late completion from a stopped unit must not disturb the new schedule.
	u, err := s.Enqueue(pcmPayload(2400, 0.1))
	require.NoError(t, err)
	sink.endings[0]()
	assert.Equal(t, 1, s.Active())
	assert.Equal(t, time.Duration(0), u.Start)
}

func TestScheduler_DecodeFailureIsDropped(t *testing.T) {
	sink := &fakeSink{}
	var failures int
	s := NewScheduler(sink, 24000, &Hooks{DecodeFailed: func(error) { failures++ }})

	_, err := s.Enqueue("!!not base64!!")
	require.Error(t, err)
	assert.ErrorIs(t, err, rerrors.ErrDecode)

	// Odd byte count cannot be PCM16.
	_, err = s.Enqueue(base64.StdEncoding.EncodeToString([]byte{1, 2, 3}))
	assert.ErrorIs(t, err, rerrors.ErrDecode)

	assert.Equal(t, 2, failures)
	assert.Zero(t, s.Active())
	assert.Equal(t, time.Duration(0), s.Clock())

	_, err = s.Enqueue(pcmPayload(240, 0.1))
	assert.NoError(t, err, "scheduling continues after a bad payload")
}

func TestScheduler_EmptyPayloadIgnored(t *testing.T) {
	s := NewScheduler(&fakeSink{}, 24000, nil)
	u, err := s.Enqueue("")
	assert.NoError(t, err)
	assert.Nil(t, u)
	assert.Zero(t, s.Active())
}

func TestScheduler_CloseIsIdempotentAndRefusesUnits(t *testing.T) {
	sink := &fakeSink{}
	s := NewScheduler(sink, 24000, nil)
	_, err := s.Enqueue(pcmPayload(240, 0.1))
	require.NoError(t, err)

	s.Close()
	s.Close()
	assert.Zero(t, s.Active())
	assert.True(t, sink.voices[0].isStopped())

	_, err = s.Enqueue(pcmPayload(240, 0.1))
	assert.ErrorIs(t, err, ErrClosed)

	s.Reopen()
	_, err = s.Enqueue(pcmPayload(240, 0.1))
	assert.NoError(t, err)
}

func TestScheduler_ConcurrentEnqueueAndInterrupt(t *testing.T) {
	r := NewRenderer(24000)
	s := NewScheduler(r, 24000, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, _ = s.Enqueue(pcmPayload(48, 0.1))
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		buf := make([]float32, 64)
		for j := 0; j < 50; j++ {
			r.Read(buf)
			s.Interrupt()
		}
	}()
	wg.Wait()

	s.Interrupt()
	assert.Zero(t, s.Active())
	assert.Zero(t, r.Voices())
}
