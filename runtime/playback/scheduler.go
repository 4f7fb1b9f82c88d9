package playback

import (
	"errors"
	"sync"
	"time"

	rerrors "github.com/AltairaLabs/rehearsal/pkg/errors"
)

// ErrClosed is returned by Enqueue after Close.
var ErrClosed = errors.New("playback scheduler closed")

// Hooks observe scheduling activity. Every field is optional.
type Hooks struct {
	Scheduled    func(u *Unit)
	Ended        func(u *Unit)
	DecodeFailed func(err error)
	Interrupted  func(stopped int)
}

// Scheduler places units back to back on a virtual clock.
// One mutex guards the clock and the active set so an interrupt is atomic
// with respect to concurrent enqueues.
type Scheduler struct {
	sink  Sink
	rate  int
	hooks *Hooks

	mu     sync.Mutex
	clock  time.Duration
	active map[uint64]Voice
	nextID uint64
	closed bool
}

// NewScheduler creates a scheduler writing to sink at the given sample rate.
// A non-positive rate selects OutputSampleRate.
func NewScheduler(sink Sink, rate int, hooks *Hooks) *Scheduler {
	if rate <= 0 {
		rate = OutputSampleRate
	}
	return &Scheduler{
		sink:   sink,
		rate:   rate,
		hooks:  hooks,
		active: make(map[uint64]Voice),
	}
}

// Enqueue decodes a base64 PCM16 payload and schedules it.
// A decode failure returns a decode error and leaves the schedule untouched.
func (s *Scheduler) Enqueue(data string) (*Unit, error) {
	samples, err := Decode(data)
	if err != nil {
		if s.hooks != nil && s.hooks.DecodeFailed != nil {
			s.hooks.DecodeFailed(err)
		}
		return nil, err
	}
	return s.EnqueueSamples(samples)
}

// EnqueueSamples schedules already decoded samples. Empty buffers are ignored.
func (s *Scheduler) EnqueueSamples(samples []float32) (*Unit, error) {
	if len(samples) == 0 {
		return nil, nil
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, rerrors.New("playback", "Enqueue", ErrClosed)
	}

	start := s.clock
	if now := s.sink.Now(); now > start {
		start = now
	}
	s.nextID++
	u := &Unit{
		ID:         s.nextID,
		Samples:    samples,
		SampleRate: s.rate,
		Start:      start,
		Duration:   samplesDuration(len(samples), s.rate),
	}
	s.active[u.ID] = s.sink.Schedule(u, func() { s.ended(u) })
	s.clock = u.End()
	s.mu.Unlock()

	if s.hooks != nil && s.hooks.Scheduled != nil {
		s.hooks.Scheduled(u)
	}
	return u, nil
}

func (s *Scheduler) ended(u *Unit) {
	s.mu.Lock()
	_, live := s.active[u.ID]
	delete(s.active, u.ID)
	s.mu.Unlock()

	if live && s.hooks != nil && s.hooks.Ended != nil {
		s.hooks.Ended(u)
	}
}

// Interrupt stops every active unit, empties the set and rewinds the clock
// to zero. It returns the number of units stopped.
func (s *Scheduler) Interrupt() int {
	s.mu.Lock()
	stopped := s.stopAllLocked()
	s.mu.Unlock()

	if s.hooks != nil && s.hooks.Interrupted != nil {
		s.hooks.Interrupted(stopped)
	}
	return stopped
}

func (s *Scheduler) stopAllLocked() int {
	n := len(s.active)
	for id, v := range s.active {
		v.Stop()
		delete(s.active, id)
	}
	s.clock = 0
	return n
}

// Close stops every unit and refuses new ones. It is idempotent.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.stopAllLocked()
}

// Reopen accepts units again after Close, for a reconnected session.
func (s *Scheduler) Reopen() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = false
	s.clock = 0
}

// Clock returns the virtual clock: the earliest start for the next unit.
func (s *Scheduler) Clock() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clock
}

// Active returns the number of units scheduled and not yet finished.
func (s *Scheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}
