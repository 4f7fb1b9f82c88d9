package playback

import "sync"

// GainControl derives the output gain from the user's mute toggle, the
// teleprompter mode and whether audio output is enabled at all.
// Muting never stops units; the sink ramps towards the new gain.
type GainControl struct {
	sink Sink

	mu      sync.Mutex
	muted   bool
	silent  bool
	enabled bool
}

// NewGainControl creates a control bound to sink and applies the initial gain.
func NewGainControl(sink Sink, enabled bool) *GainControl {
	g := &GainControl{sink: sink, enabled: enabled}
	g.mu.Lock()
	g.applyLocked()
	g.mu.Unlock()
	return g
}

// SetMuted sets the user mute. It returns the new target gain and whether
// the mute state changed.
func (g *GainControl) SetMuted(muted bool) (float64, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	changed := g.muted != muted
	g.muted = muted
	return g.applyLocked(), changed
}

// SetForcedSilent silences output regardless of the mute toggle (teleprompter mode).
func (g *GainControl) SetForcedSilent(silent bool) float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.silent = silent
	return g.applyLocked()
}

// SetEnabled turns audio output on or off.
func (g *GainControl) SetEnabled(enabled bool) float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.enabled = enabled
	return g.applyLocked()
}

// Muted reports the user mute toggle.
func (g *GainControl) Muted() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.muted
}

// Target returns 0 when any silencing condition holds, else 1.
func (g *GainControl) Target() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.targetLocked()
}

func (g *GainControl) targetLocked() float64 {
	if g.muted || g.silent || !g.enabled {
		return 0
	}
	return 1
}

// applyLocked pushes the target to the sink while g.mu is held, so the sink
// always ends at the target of the last change. Sinks never call back here.
func (g *GainControl) applyLocked() float64 {
	t := g.targetLocked()
	g.sink.SetGain(t)
	return t
}
