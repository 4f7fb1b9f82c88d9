// Package gemini implements the Gemini Live duplex session and the
// generateContent report client.
//
// The Live API accepts exactly one response modality per session. Rehearsal
// sessions request AUDIO and read text from the input and output
// transcription streams.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AltairaLabs/rehearsal/pkg/config"
	rerrors "github.com/AltairaLabs/rehearsal/pkg/errors"
	"github.com/AltairaLabs/rehearsal/runtime/credentials"
	"github.com/AltairaLabs/rehearsal/runtime/logger"
	"github.com/AltairaLabs/rehearsal/runtime/providers"
	"github.com/AltairaLabs/rehearsal/runtime/providers/internal/streaming"
	"github.com/AltairaLabs/rehearsal/runtime/tools"
	"github.com/AltairaLabs/rehearsal/runtime/types"
)

// Live connection defaults.
const (
	// MaxMessageSize is the maximum allowed WebSocket message size (16MB).
	MaxMessageSize = 16 * 1024 * 1024

	DefaultHeartbeatInterval = 30 * time.Second
	DefaultSetupTimeout      = 10 * time.Second

	liveDialTimeout = 45 * time.Second
)

const component = "gemini"

// DialerConfig configures a live Dialer.
type DialerConfig struct {
	// URL is the BidiGenerateContent websocket endpoint. Defaults to config.DefaultLiveURL.
	URL string

	// Credential authenticates the handshake. Required.
	Credential credentials.Credential

	// HeartbeatInterval between websocket pings. Defaults to DefaultHeartbeatInterval.
	HeartbeatInterval time.Duration

	// SetupTimeout bounds the wait for setupComplete. Defaults to DefaultSetupTimeout.
	SetupTimeout time.Duration

	// OnDecodeError observes inbound messages dropped as undecodable. Optional.
	OnDecodeError func(err error)
}

// Dialer opens Gemini Live sessions. It implements providers.LiveDialer.
type Dialer struct {
	cfg DialerConfig
}

var _ providers.LiveDialer = (*Dialer)(nil)

// NewDialer creates a Dialer.
func NewDialer(cfg DialerConfig) *Dialer {
	if cfg.URL == "" {
		cfg.URL = config.DefaultLiveURL
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if cfg.SetupTimeout <= 0 {
		cfg.SetupTimeout = DefaultSetupTimeout
	}
	return &Dialer{cfg: cfg}
}

// Dial connects, sends the setup message, waits for setupComplete and starts
// the receive loop. ctx bounds only the handshake; the returned session lives
// until Close or a transport failure.
func (d *Dialer) Dial(ctx context.Context, cfg *providers.LiveConfig) (providers.LiveSession, error) {
	if d.cfg.Credential == nil {
		return nil, rerrors.Configuration(component, "Dial", credentials.ErrNoCredential)
	}
	if cfg == nil {
		cfg = &providers.LiveConfig{}
	}
	if cfg.Model == "" {
		cfg.Model = config.DefaultLiveModel
	}

	headers, err := credentials.Headers(ctx, d.cfg.Credential, d.cfg.URL)
	if err != nil {
		return nil, rerrors.Configuration(component, "Dial", err)
	}

	conn := streaming.NewConn(&streaming.ConnConfig{
		URL:            d.cfg.URL,
		Headers:        headers,
		DialTimeout:    liveDialTimeout,
		MaxMessageSize: MaxMessageSize,
		Logger:         &geminiLoggerAdapter{},
	})
	if err := conn.Connect(ctx); err != nil {
		return nil, transportError("Connect", classifyDialError(err))
	}

	setupMsg := buildSetupMessage(cfg)
	logger.Debug("live setup", "model", getModelPath(cfg.Model), "tools", len(cfg.Tools))
	if err := d.sendAndWaitForSetup(ctx, conn, setupMsg); err != nil {
		_ = conn.Close()
		return nil, transportError("Setup", err)
	}

	// The receive loop outlives the dial context.
	sessCtx := context.WithoutCancel(ctx)
	stream, err := streaming.NewSession(sessCtx, streaming.SessionConfig{
		Conn:          conn,
		OnMessage:     DecodeServerMessage,
		OnDecodeError: d.cfg.OnDecodeError,
		Logger:        &geminiLoggerAdapter{},
	})
	if err != nil {
		_ = conn.Close()
		return nil, transportError("Dial", err)
	}
	conn.StartHeartbeat(sessCtx, d.cfg.HeartbeatInterval)

	return &liveSession{stream: stream}, nil
}

func (d *Dialer) sendAndWaitForSetup(ctx context.Context, conn *streaming.Conn, setupMsg map[string]any) error {
	if err := conn.Send(setupMsg); err != nil {
		return fmt.Errorf("failed to send setup message: %w", err)
	}

	setupCtx, cancel := context.WithTimeout(ctx, d.cfg.SetupTimeout)
	defer cancel()

	data, err := conn.Receive(setupCtx)
	if err != nil {
		return fmt.Errorf("failed to receive setup response: %w", err)
	}
	ok, err := isSetupComplete(data)
	if err != nil {
		return err
	}
	if !ok {
		return ErrSetupRejected
	}
	return nil
}

func classifyDialError(err error) error {
	var statusErr *streaming.HTTPStatusError
	if errors.As(err, &statusErr) {
		return fmt.Errorf("%w: %w", classifyStatus(statusErr.StatusCode), err)
	}
	return err
}

func transportError(op string, err error) error {
	return rerrors.Transport(component, op, err)
}

// liveSession adapts streaming.Session to providers.LiveSession.
type liveSession struct {
	stream *streaming.Session
}

var _ providers.LiveSession = (*liveSession)(nil)

func (s *liveSession) send(op string, msg any) error {
	if err := s.stream.Send(msg); err != nil {
		return transportError(op, err)
	}
	return nil
}

// SendAudio sends one PCM chunk as realtime input.
func (s *liveSession) SendAudio(_ context.Context, chunk *types.AudioChunk) error {
	return s.send("SendAudio", audioMessage(chunk))
}

// SendFrame sends one JPEG frame as realtime input.
func (s *liveSession) SendFrame(_ context.Context, chunk *types.FrameChunk) error {
	return s.send("SendFrame", frameMessage(chunk))
}

// SendToolResponses acknowledges function calls.
func (s *liveSession) SendToolResponses(_ context.Context, responses []tools.ToolResponse) error {
	msg, err := toolResponseMessage(responses)
	if err != nil {
		return err
	}
	return s.send("SendToolResponses", msg)
}

// SendText sends a complete user text turn.
func (s *liveSession) SendText(_ context.Context, text string) error {
	return s.send("SendText", textMessage(text))
}

func (s *liveSession) Events() <-chan providers.LiveEvent { return s.stream.Events() }
func (s *liveSession) Done() <-chan struct{}              { return s.stream.Done() }
func (s *liveSession) Close() error                       { return s.stream.Close() }

// Err returns the transport failure that ended the session, or nil.
func (s *liveSession) Err() error {
	if err := s.stream.Err(); err != nil {
		return transportError("Receive", err)
	}
	return nil
}
