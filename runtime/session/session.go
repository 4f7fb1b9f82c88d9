// Package session coordinates one live rehearsal: a duplex connection to the
// coaching model, microphone and camera uploads, scheduled playback of the
// model's voice and the transcript of both sides.
//
// A Session moves through Idle, Connecting, Open and then Closed or Error.
// Each Connect starts a new connection generation; teardown invalidates it so
// timers and sends left over from an earlier generation do nothing.
package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/AltairaLabs/rehearsal/pkg/config"
	rerrors "github.com/AltairaLabs/rehearsal/pkg/errors"
	"github.com/AltairaLabs/rehearsal/runtime/capture"
	"github.com/AltairaLabs/rehearsal/runtime/credentials"
	"github.com/AltairaLabs/rehearsal/runtime/events"
	"github.com/AltairaLabs/rehearsal/runtime/playback"
	"github.com/AltairaLabs/rehearsal/runtime/providers"
	"github.com/AltairaLabs/rehearsal/runtime/providers/gemini"
	"github.com/AltairaLabs/rehearsal/runtime/report"
	"github.com/AltairaLabs/rehearsal/runtime/tools"
	"github.com/AltairaLabs/rehearsal/runtime/transcript"
)

const component = "session"

// Phase is the lifecycle state of a Session.
type Phase int

// Phases.
const (
	PhaseIdle Phase = iota
	PhaseConnecting
	PhaseOpen
	PhaseClosed
	PhaseError
)

// String returns the lowercase phase name used in events and metrics.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseConnecting:
		return "connecting"
	case PhaseOpen:
		return "open"
	case PhaseClosed:
		return "closed"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// Live reports whether the phase holds a connection.
func (p Phase) Live() bool {
	return p == PhaseConnecting || p == PhaseOpen
}

// Session errors.
var (
	ErrNoAudioSource = errors.New("audio source is required")
	ErrNoReporter    = errors.New("no report requestor configured")
	ErrNotOpen       = errors.New("session is not open")
)

// Config configures a Session.
type Config struct {
	// ID identifies the session in logs, events and traces. Generated when empty.
	ID string

	// Credential authenticates the live and report endpoints. Required by Connect.
	Credential credentials.Credential

	// Dialer opens the live connection. Defaults to a Gemini dialer using
	// Credential and LiveURL.
	Dialer providers.LiveDialer

	// LiveURL overrides the live endpoint of the default dialer.
	LiveURL string

	Model             string
	Voice             string
	SystemInstruction string

	// Topic and Script give the report its context.
	Topic  string
	Script string

	// AudioSource is the microphone. Required by Connect.
	AudioSource capture.AudioSource

	// VideoSource is the camera. Optional; no frames are sent without it.
	VideoSource capture.VideoSource

	// Output receives scheduled playback. Defaults to a playback.Renderer.
	Output playback.Sink

	// Registry lists the tools offered to the model. Defaults to show_insight only.
	Registry *tools.Registry

	// Reporter produces the post-session report. Defaults to a Gemini report
	// client using Credential, APIBaseURL and ReportModel.
	Reporter    report.Requestor
	APIBaseURL  string
	ReportModel string

	// Bus receives session events. Optional.
	Bus *events.EventBus

	// AudioDisabled silences model audio entirely.
	AudioDisabled bool
	// DistractionFree suppresses insights. Tool calls are still acknowledged.
	DistractionFree bool
	// Teleprompter silences model audio and hides the live utterance.
	Teleprompter bool

	FrameInterval time.Duration
	InsightTTL    time.Duration
	UtteranceHold time.Duration

	// ConnectTimeout bounds Connecting. Zero means no timeout.
	ConnectTimeout time.Duration

	// OnError is called once per connection that ends in PhaseError.
	OnError func(err error)
}

func (c *Config) defaults() {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Model == "" {
		c.Model = config.DefaultLiveModel
	}
	if c.Voice == "" {
		c.Voice = config.DefaultVoice
	}
	if c.FrameInterval <= 0 {
		c.FrameInterval = config.DefaultFrameInterval
	}
	if c.InsightTTL <= 0 {
		c.InsightTTL = config.DefaultInsightTTL
	}
	if c.UtteranceHold <= 0 {
		c.UtteranceHold = config.DefaultUtteranceHold
	}
	if c.Registry == nil {
		c.Registry = tools.NewDefaultRegistry()
	}
	if c.Output == nil {
		c.Output = playback.NewRenderer(playback.OutputSampleRate)
	}
	if c.Dialer == nil {
		c.Dialer = gemini.NewDialer(gemini.DialerConfig{
			URL:           c.LiveURL,
			Credential:    c.Credential,
			OnDecodeError: wireDecodeFailed,
		})
	}
	if c.Reporter == nil && c.Credential != nil {
		c.Reporter = gemini.NewReportClient(gemini.ReportConfig{
			BaseURL:    c.APIBaseURL,
			Model:      c.ReportModel,
			Credential: c.Credential,
		})
	}
}

// Session is one live rehearsal connection. It may be reconnected after it
// reaches PhaseClosed or PhaseError. All methods are safe for concurrent use.
type Session struct {
	cfg        Config
	emitter    *events.Emitter
	transcript *transcript.Accumulator
	scheduler  *playback.Scheduler
	gain       *playback.GainControl
	signals    *signals

	teleprompter    atomic.Bool
	distractionFree atomic.Bool

	// muteMu orders mute changes with their events.
	muteMu sync.Mutex

	mu    sync.Mutex
	phase Phase
	gen   uint64
	conn  *connection
	err   error
}

// New creates an idle session.
func New(cfg Config) *Session {
	cfg.defaults()
	emitter := events.NewEmitter(cfg.Bus, cfg.ID)
	s := &Session{
		cfg:        cfg,
		emitter:    emitter,
		transcript: transcript.New(),
		scheduler:  playback.NewScheduler(cfg.Output, playback.OutputSampleRate, playbackHooks()),
		gain:       playback.NewGainControl(cfg.Output, !cfg.AudioDisabled),
		signals:    newSignals(cfg.InsightTTL, cfg.UtteranceHold, emitter),
	}
	s.teleprompter.Store(cfg.Teleprompter)
	s.distractionFree.Store(cfg.DistractionFree)
	s.gain.SetForcedSilent(cfg.Teleprompter)
	return s
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.cfg.ID
}

// Phase returns the current lifecycle phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Err returns the failure that moved the session to PhaseError, or nil.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Transcript returns a copy of the transcript so far.
func (s *Session) Transcript() []transcript.Entry {
	return s.transcript.Snapshot()
}

// Utterance returns the visible tail of the model's current utterance.
func (s *Session) Utterance() string {
	return s.signals.Utterance()
}

// Insight returns the visible insight, or nil.
func (s *Session) Insight() *Insight {
	return s.signals.Insight()
}

// Output returns the playback sink.
func (s *Session) Output() playback.Sink {
	return s.cfg.Output
}

// Muted reports the user mute toggle.
func (s *Session) Muted() bool {
	return s.gain.Muted()
}

// SetMuted toggles the user mute. Playing units keep playing; the output
// ramps to the new gain.
func (s *Session) SetMuted(muted bool) {
	s.muteMu.Lock()
	defer s.muteMu.Unlock()
	if _, changed := s.gain.SetMuted(muted); changed {
		s.emitter.MuteChanged(muted)
	}
}

// SetTeleprompter switches teleprompter mode, which silences model audio
// and hides the live utterance.
func (s *Session) SetTeleprompter(on bool) {
	s.teleprompter.Store(on)
	s.gain.SetForcedSilent(on)
	if on {
		s.signals.clearUtterance()
	}
}

// SetDistractionFree switches insight suppression.
func (s *Session) SetDistractionFree(on bool) {
	s.distractionFree.Store(on)
}

// SetAudioEnabled turns model audio output on or off.
func (s *Session) SetAudioEnabled(enabled bool) {
	s.gain.SetEnabled(enabled)
}

// setPhaseLocked records a transition and publishes it. s.mu must be held.
func (s *Session) setPhaseLocked(ctx context.Context, to Phase, err error) {
	from := s.phase
	s.phase = to
	if to == PhaseError {
		s.err = err
	}
	logPhase(ctx, from, to, err)
	s.emitter.PhaseChanged(from.String(), to.String(), err)
}

func configurationError(op string, err error) error {
	return rerrors.Configuration(component, op, err)
}
