package playback

import (
	"time"

	"github.com/AltairaLabs/rehearsal/pkg/errors"
	"github.com/AltairaLabs/rehearsal/runtime/audio"
)

// OutputSampleRate is the rate at which the live model produces audio.
const OutputSampleRate = audio.SampleRate24kHz

// Unit is one decoded buffer from one inbound audio event.
type Unit struct {
	ID         uint64
	Samples    []float32
	SampleRate int
	Start      time.Duration
	Duration   time.Duration
}

// End returns the time at which the unit finishes playing.
func (u *Unit) End() time.Duration {
	return u.Start + u.Duration
}

// Voice is a handle to a unit registered with a Sink.
type Voice interface {
	// Stop silences the unit immediately. onEnded is not invoked for stopped voices.
	Stop()
}

// Sink is an output clock plus a place to schedule units on it.
type Sink interface {
	// Now returns the sink's current output time.
	Now() time.Duration
	// Schedule registers u to start at u.Start. onEnded runs after the last
	// sample is rendered and never while the sink holds internal locks.
	Schedule(u *Unit, onEnded func()) Voice
	// SetGain sets the target output gain. Sinks approach it smoothly.
	SetGain(target float64)
}

// Decode converts a base64 PCM16 little-endian payload into float samples.
func Decode(data string) ([]float32, error) {
	samples, err := audio.DecodePCM16Base64(data)
	if err != nil {
		return nil, errors.Decode("playback", "Decode", err)
	}
	return samples, nil
}

func samplesDuration(n, rate int) time.Duration {
	return time.Duration(int64(n) * int64(time.Second) / int64(rate))
}
