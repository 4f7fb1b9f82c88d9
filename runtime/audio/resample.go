package audio

import (
	"fmt"
	"math"
)

// ResampleFloat32 resamples a complete buffer using linear interpolation.
func ResampleFloat32(input []float32, fromRate, toRate int) ([]float32, error) {
	r, err := NewResampler(fromRate, toRate)
	if err != nil {
		return nil, err
	}
	return r.Process(input), nil
}

// Resampler converts a continuous float32 stream between sample rates using
// linear interpolation. It carries the last input sample and the fractional
// read position between calls so consecutive blocks join without gaps.
// A Resampler is not safe for concurrent use.
type Resampler struct {
	fromRate int
	toRate   int
	step     float64

	pos    float64
	prev   float32
	primed bool
}

// NewResampler creates a Resampler from fromRate to toRate.
func NewResampler(fromRate, toRate int) (*Resampler, error) {
	if fromRate <= 0 || toRate <= 0 {
		return nil, fmt.Errorf("invalid sample rates: from=%d, to=%d", fromRate, toRate)
	}
	return &Resampler{
		fromRate: fromRate,
		toRate:   toRate,
		step:     float64(fromRate) / float64(toRate),
	}, nil
}

// Passthrough reports whether the rates match.
func (r *Resampler) Passthrough() bool {
	return r.fromRate == r.toRate
}

// Process resamples the next block of the stream.
func (r *Resampler) Process(in []float32) []float32 {
	if r.Passthrough() {
		out := make([]float32, len(in))
		copy(out, in)
		return out
	}
	n := len(in)
	if n == 0 {
		return nil
	}

	at := func(i int) float32 {
		if i < 0 {
			return r.prev
		}
		return in[i]
	}

	out := make([]float32, 0, int(math.Ceil(float64(n)/r.step))+1)
	// Interpolation needs the sample after floor(pos), so stop one short of the
	// block end and pick up from there on the next call.
	for r.pos < float64(n-1) {
		i := int(math.Floor(r.pos))
		frac := float32(r.pos - float64(i))
		s0 := at(i)
		s1 := at(i + 1)
		out = append(out, s0+frac*(s1-s0))
		r.pos += r.step
	}

	r.pos -= float64(n)
	r.prev = in[n-1]
	r.primed = true
	return out
}

// Reset clears the carried stream state.
func (r *Resampler) Reset() {
	r.pos = 0
	r.prev = 0
	r.primed = false
}
