// Package sources provides file-backed media for rehearsals without devices:
// a WAV microphone, a directory of camera frames and a WAV recorder for the
// model's voice.
package sources

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
	"golang.org/x/time/rate"
)

// Defaults for WAVOptions.
const (
	DefaultBlockDuration   = 100 * time.Millisecond
	DefaultTrailingSilence = 3 * time.Second
)

// WAVOptions configures a WAVSource.
type WAVOptions struct {
	// BlockDuration is the length of each block. Defaults to DefaultBlockDuration.
	BlockDuration time.Duration

	// TrailingSilence is appended after the file so the service can detect
	// the end of speech. Negative disables it; zero selects the default.
	TrailingSilence time.Duration

	// Unpaced delivers blocks as fast as they are read instead of in real time.
	Unpaced bool
}

// WAVSource plays a WAV file as a microphone. Stereo input is mixed to mono.
type WAVSource struct {
	rate    int
	samples []float32
	block   int
	silence int
	limiter *rate.Limiter
	blocks  chan []float32
}

// OpenWAV decodes path fully into memory.
func OpenWAV(path string, opts WAVOptions) (*WAVSource, error) {
	//nolint:gosec // G304: path comes from the command line
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	streamer, format, err := wav.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	defer streamer.Close()

	samples := readMono(streamer, pcmScale(format))
	if err := streamer.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return newWAVSource(samples, int(format.SampleRate), opts)
}

func newWAVSource(samples []float32, sampleRate int, opts WAVOptions) (*WAVSource, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	if opts.BlockDuration <= 0 {
		opts.BlockDuration = DefaultBlockDuration
	}
	if opts.TrailingSilence == 0 {
		opts.TrailingSilence = DefaultTrailingSilence
	}

	block := int(opts.BlockDuration.Seconds() * float64(sampleRate))
	if block < 1 {
		block = 1
	}
	s := &WAVSource{
		rate:    sampleRate,
		samples: samples,
		block:   block,
		blocks:  make(chan []float32),
	}
	if opts.TrailingSilence > 0 {
		s.silence = int(opts.TrailingSilence.Seconds() * float64(sampleRate))
	}
	if !opts.Unpaced {
		s.limiter = rate.NewLimiter(rate.Every(opts.BlockDuration), 1)
	}
	return s, nil
}

// pcmScale corrects beep's 16-bit decoding, which divides by 65535 rather
// than 32768 and so halves every sample.
func pcmScale(format beep.Format) float64 {
	if format.Precision == 2 {
		return 65535.0 / 32768.0
	}
	return 1
}

func readMono(s beep.Streamer, scale float64) []float32 {
	var out []float32
	buf := make([][2]float64, 4096)
	for {
		n, ok := s.Stream(buf)
		for _, frame := range buf[:n] {
			out = append(out, float32((frame[0]+frame[1])/2*scale))
		}
		if !ok {
			return out
		}
	}
}

// SampleRate implements capture.AudioSource.
func (s *WAVSource) SampleRate() int {
	return s.rate
}

// Blocks implements capture.AudioSource. The channel is closed when Run returns.
func (s *WAVSource) Blocks() <-chan []float32 {
	return s.blocks
}

// Duration is the playing time including trailing silence.
func (s *WAVSource) Duration() time.Duration {
	n := len(s.samples) + s.silence
	return time.Duration(int64(n) * int64(time.Second) / int64(s.rate))
}

// Run delivers the file, then the trailing silence. It returns nil once
// everything was delivered and ctx.Err() if canceled first.
func (s *WAVSource) Run(ctx context.Context) error {
	defer close(s.blocks)

	total := len(s.samples) + s.silence
	for off := 0; off < total; off += s.block {
		end := min(off+s.block, total)
		blk := make([]float32, end-off)
		if off < len(s.samples) {
			copy(blk, s.samples[off:min(end, len(s.samples))])
		}

		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return ctx.Err()
			}
		}
		select {
		case s.blocks <- blk:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
