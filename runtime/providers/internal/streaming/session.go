package streaming

import (
	"context"
	"errors"
	"sync"

	rerrors "github.com/AltairaLabs/rehearsal/pkg/errors"
	"github.com/AltairaLabs/rehearsal/runtime/providers"
)

// DefaultEventChannelSize is the buffer of the decoded event channel.
const DefaultEventChannelSize = 32

// ErrSessionClosed is returned by sends after Close.
var ErrSessionClosed = errors.New("session is closed")

// MessageHandler decodes one raw message into zero or more events.
// An error of kind decode drops the message and the session continues;
// any other error ends the session.
type MessageHandler func(data []byte) ([]providers.LiveEvent, error)

// SessionConfig configures a streaming Session.
type SessionConfig struct {
	// Conn is the connected WebSocket. Required.
	Conn *Conn

	// OnMessage decodes raw messages. Required.
	OnMessage MessageHandler

	// OnDecodeError observes messages dropped by OnMessage. Optional.
	OnDecodeError func(err error)

	// EventChannelSize sets the buffer of the Events channel.
	// Defaults to DefaultEventChannelSize.
	EventChannelSize int

	// Logger for session-level messages. Optional.
	Logger Logger
}

// Session runs the receive loop for one connection. Messages are decoded
// and delivered on Events in arrival order by a single goroutine.
type Session struct {
	conn   *Conn
	cfg    SessionConfig
	ctx    context.Context
	cancel context.CancelFunc

	events chan providers.LiveEvent
	done   chan struct{}

	mu     sync.Mutex
	closed bool
	err    error
}

// NewSession creates a session and starts its receive loop.
func NewSession(ctx context.Context, cfg SessionConfig) (*Session, error) {
	if cfg.Conn == nil {
		return nil, errors.New("streaming.SessionConfig.Conn is required")
	}
	if cfg.OnMessage == nil {
		return nil, errors.New("streaming.SessionConfig.OnMessage is required")
	}
	if cfg.EventChannelSize <= 0 {
		cfg.EventChannelSize = DefaultEventChannelSize
	}
	if cfg.Logger == nil {
		cfg.Logger = noopLogger{}
	}

	sessionCtx, cancel := context.WithCancel(ctx)
	s := &Session{
		conn:   cfg.Conn,
		cfg:    cfg,
		ctx:    sessionCtx,
		cancel: cancel,
		events: make(chan providers.LiveEvent, cfg.EventChannelSize),
		done:   make(chan struct{}),
	}
	go s.receiveLoop()
	return s, nil
}

// Send JSON-encodes and sends msg.
func (s *Session) Send(msg any) error {
	if s.Closed() {
		return ErrSessionClosed
	}
	return s.conn.Send(msg)
}

// Events returns decoded events. It is closed when the receive loop ends.
func (s *Session) Events() <-chan providers.LiveEvent {
	return s.events
}

// Done is closed when the receive loop has ended.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Err returns the error that ended the session, or nil.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close stops the receive loop and closes the connection. Safe to call
// multiple times. A session ended by Close reports no error.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	return s.conn.Close()
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Conn returns the underlying connection.
func (s *Session) Conn() *Conn {
	return s.conn
}

func (s *Session) receiveLoop() {
	defer func() {
		close(s.events)
		close(s.done)
	}()

	msgCh := make(chan []byte, s.cfg.EventChannelSize)
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.conn.ReceiveLoop(s.ctx, msgCh)
	}()

	for {
		select {
		case <-s.ctx.Done():
			return
		case err := <-errCh:
			if !s.drain(msgCh) {
				return
			}
			if err != nil && !errors.Is(err, context.Canceled) {
				s.cfg.Logger.Error("receive loop error", "error", err)
				s.fail(err)
			}
			return
		case data := <-msgCh:
			if !s.handleMessage(data) {
				return
			}
		}
	}
}

// drain handles messages read before the connection ended.
func (s *Session) drain(msgCh <-chan []byte) bool {
	for {
		select {
		case data := <-msgCh:
			if !s.handleMessage(data) {
				return false
			}
		default:
			return true
		}
	}
}

// handleMessage reports whether the loop should continue.
func (s *Session) handleMessage(data []byte) bool {
	evts, err := s.cfg.OnMessage(data)
	if err != nil {
		if errors.Is(err, rerrors.ErrDecode) {
			s.cfg.Logger.Warn("dropping undecodable message", "error", err)
			if s.cfg.OnDecodeError != nil {
				s.cfg.OnDecodeError(err)
			}
			return true
		}
		s.cfg.Logger.Error("message handler error", "error", err)
		s.fail(err)
		return false
	}
	for _, evt := range evts {
		select {
		case s.events <- evt:
		case <-s.ctx.Done():
			return false
		}
	}
	return true
}

func (s *Session) fail(err error) {
	s.mu.Lock()
	if s.err == nil && !s.closed {
		s.err = err
	}
	s.mu.Unlock()
	s.cancel()
	_ = s.conn.Close()
}
