package playback

import (
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
)

// DefaultGainTimeConstant is how quickly the renderer approaches a new gain.
const DefaultGainTimeConstant = 100 * time.Millisecond

// gainSnap is the distance at which the ramp lands exactly on its target.
const gainSnap = 1e-4

// Renderer is a software Sink. Consumers pull mixed mono samples with Read
// (or Stream for beep); each pull advances the output clock.
type Renderer struct {
	rate  int
	coeff float64

	mu     sync.Mutex
	pos    int64 // samples rendered so far
	voices []*voice
	gain   float64
	target float64
}

type voice struct {
	r       *Renderer
	unit    *Unit
	start   int64
	onEnded func()
	stopped bool
}

// NewRenderer creates a renderer at rate with DefaultGainTimeConstant.
func NewRenderer(rate int) *Renderer {
	return NewRendererWithRamp(rate, DefaultGainTimeConstant)
}

// NewRendererWithRamp creates a renderer whose gain follows an exponential
// curve with time constant tau. A non-positive tau makes gain changes instant.
func NewRendererWithRamp(rate int, tau time.Duration) *Renderer {
	if rate <= 0 {
		rate = OutputSampleRate
	}
	coeff := 1.0
	if tau > 0 {
		coeff = 1 - math.Exp(-1/(tau.Seconds()*float64(rate)))
	}
	return &Renderer{rate: rate, coeff: coeff, gain: 1, target: 1}
}

// SampleRate returns the output rate.
func (r *Renderer) SampleRate() int {
	return r.rate
}

// Now implements Sink.
func (r *Renderer) Now() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return samplesDuration(int(r.pos), r.rate)
}

// Schedule implements Sink. Units whose start is already in the past play
// from the next rendered sample.
func (r *Renderer) Schedule(u *Unit, onEnded func()) Voice {
	start := int64(math.Round(u.Start.Seconds() * float64(r.rate)))
	v := &voice{r: r, unit: u, start: start, onEnded: onEnded}

	r.mu.Lock()
	if v.start < r.pos {
		v.start = r.pos
	}
	r.voices = append(r.voices, v)
	r.mu.Unlock()
	return v
}

// SetGain implements Sink.
func (r *Renderer) SetGain(target float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.target = math.Max(0, target)
}

// Gain returns the current (ramping) gain.
func (r *Renderer) Gain() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gain
}

// Voices returns the number of voices that have not ended or been stopped.
func (r *Renderer) Voices() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.voices)
}

func (v *voice) Stop() {
	r := v.r
	r.mu.Lock()
	defer r.mu.Unlock()
	if v.stopped {
		return
	}
	v.stopped = true
	for i, other := range r.voices {
		if other == v {
			r.voices = append(r.voices[:i], r.voices[i+1:]...)
			break
		}
	}
}

// Read renders len(out) samples, advancing the clock by the same amount.
// Completion callbacks run after the lock is released.
func (r *Renderer) Read(out []float32) int {
	ended := r.render(out)
	for _, fn := range ended {
		fn()
	}
	return len(out)
}

func (r *Renderer) render(out []float32) []func() {
	n := int64(len(out))
	for i := range out {
		out[i] = 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	from, to := r.pos, r.pos+n
	var ended []func()
	kept := r.voices[:0]
	for _, v := range r.voices {
		end := v.start + int64(len(v.unit.Samples))
		lo, hi := max(v.start, from), min(end, to)
		for t := lo; t < hi; t++ {
			out[t-from] += v.unit.Samples[t-v.start]
		}
		if end <= to {
			v.stopped = true
			if v.onEnded != nil {
				ended = append(ended, v.onEnded)
			}
			continue
		}
		kept = append(kept, v)
	}
	for i := len(kept); i < len(r.voices); i++ {
		r.voices[i] = nil
	}
	r.voices = kept

	for i := range out {
		if r.gain != r.target {
			r.gain += (r.target - r.gain) * r.coeff
			if math.Abs(r.target-r.gain) < gainSnap {
				r.gain = r.target
			}
		}
		out[i] = clamp(out[i] * float32(r.gain))
	}
	r.pos = to
	return ended
}

func clamp(s float32) float32 {
	switch {
	case s > 1:
		return 1
	case s < -1:
		return -1
	default:
		return s
	}
}

// Stream implements beep.Streamer. The renderer never runs dry; silence is
// produced when nothing is scheduled.
func (r *Renderer) Stream(samples [][2]float64) (int, bool) {
	buf := make([]float32, len(samples))
	r.Read(buf)
	for i, s := range buf {
		samples[i][0] = float64(s)
		samples[i][1] = float64(s)
	}
	return len(samples), true
}

// Err implements beep.Streamer.
func (r *Renderer) Err() error {
	return nil
}

// Format returns the beep format matching the renderer's output.
func (r *Renderer) Format() beep.Format {
	return beep.Format{SampleRate: beep.SampleRate(r.rate), NumChannels: 1, Precision: 2}
}

var (
	_ Sink          = (*Renderer)(nil)
	_ beep.Streamer = (*Renderer)(nil)
)
