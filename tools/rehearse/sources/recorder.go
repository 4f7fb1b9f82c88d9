package sources

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
)

// DefaultPullInterval is how often a Recorder drains its source.
const DefaultPullInterval = 20 * time.Millisecond

// Recorder drains a never-ending streamer in real time, standing in for a
// speaker, and keeps what it pulled for WriteFile.
type Recorder struct {
	src    beep.Streamer
	format beep.Format

	mu  sync.Mutex
	buf *beep.Buffer
}

// NewRecorder records src, typically a playback.Renderer, in format.
func NewRecorder(src beep.Streamer, format beep.Format) *Recorder {
	return &Recorder{src: src, format: format, buf: beep.NewBuffer(format)}
}

// Pull takes n samples from the source.
func (r *Recorder) Pull(n int) {
	if n <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf.Append(beep.Take(n, r.src))
}

// Len returns the number of samples recorded.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.Len()
}

// Duration returns the recorded playing time.
func (r *Recorder) Duration() time.Duration {
	return r.format.SampleRate.D(r.Len())
}

// Run pulls as many samples as wall time has advanced, every interval,
// until ctx is done. It always returns nil.
func (r *Recorder) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultPullInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	start := time.Now()
	pulled := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			due := r.format.SampleRate.N(now.Sub(start))
			r.Pull(due - pulled)
			pulled = due
		}
	}
}

// WriteFile encodes everything recorded so far as a WAV file.
func (r *Recorder) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	r.mu.Lock()
	err = wav.Encode(f, r.buf.Streamer(0, r.buf.Len()), r.format)
	r.mu.Unlock()
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
