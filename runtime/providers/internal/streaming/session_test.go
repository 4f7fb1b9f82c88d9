package streaming

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rerrors "github.com/AltairaLabs/rehearsal/pkg/errors"
	"github.com/AltairaLabs/rehearsal/runtime/providers"
)

// serverThatSends returns a server that writes messages then waits for the
// client to close. A non-zero closeCode sends that close frame instead.
func serverThatSends(t *testing.T, messages []string, closeCode int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := wsUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, msg := range messages {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}
		}
		if closeCode != 0 {
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(closeCode, "bye"))
			return
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

// textHandler decodes {"text": "..."} into output transcript events.
// "garbage" is a decode error and {"fatal": true} ends the session.
func textHandler(data []byte) ([]providers.LiveEvent, error) {
	var msg struct {
		Text  string `json:"text"`
		Fatal bool   `json:"fatal"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, rerrors.Decode("test", "decode", err)
	}
	if msg.Fatal {
		return nil, errors.New("server reported fatal error")
	}
	if msg.Text == "" {
		return nil, nil
	}
	return []providers.LiveEvent{providers.OutputTranscriptEvent{Text: msg.Text}}, nil
}

func startSession(t *testing.T, srv *httptest.Server, cfg SessionConfig) *Session {
	t.Helper()
	c := NewConn(&ConnConfig{URL: wsURL(srv)})
	require.NoError(t, c.Connect(context.Background()))
	cfg.Conn = c
	if cfg.OnMessage == nil {
		cfg.OnMessage = textHandler
	}
	s, err := NewSession(context.Background(), cfg)
	require.NoError(t, err)
	return s
}

func collect(t *testing.T, s *Session, n int) []providers.LiveEvent {
	t.Helper()
	var out []providers.LiveEvent
	timeout := time.After(2 * time.Second)
	for len(out) < n {
		select {
		case evt, ok := <-s.Events():
			if !ok {
				return out
			}
			out = append(out, evt)
		case <-timeout:
			t.Fatalf("received %d of %d events", len(out), n)
		}
	}
	return out
}

func TestSession_DeliversInOrder(t *testing.T) {
	srv := serverThatSends(t, []string{`{"text":"a"}`, `{"text":"b"}`, `{"text":"c"}`}, 0)
	defer srv.Close()

	s := startSession(t, srv, SessionConfig{})
	defer s.Close()

	got := collect(t, s, 3)
	assert.Equal(t, []providers.LiveEvent{
		providers.OutputTranscriptEvent{Text: "a"},
		providers.OutputTranscriptEvent{Text: "b"},
		providers.OutputTranscriptEvent{Text: "c"},
	}, got)
}

func TestSession_DecodeErrorIsNotFatal(t *testing.T) {
	srv := serverThatSends(t, []string{`{"text":"a"}`, `garbage`, `{"text":"b"}`}, 0)
	defer srv.Close()

	var dropped atomic.Int32
	s := startSession(t, srv, SessionConfig{
		OnDecodeError: func(err error) {
			assert.ErrorIs(t, err, rerrors.ErrDecode)
			dropped.Add(1)
		},
	})
	defer s.Close()

	got := collect(t, s, 2)
	assert.Len(t, got, 2)
	assert.Equal(t, int32(1), dropped.Load())
	assert.NoError(t, s.Err())
}

func TestSession_FatalHandlerErrorEndsSession(t *testing.T) {
	srv := serverThatSends(t, []string{`{"fatal":true}`, `{"text":"never"}`}, 0)
	defer srv.Close()

	s := startSession(t, srv, SessionConfig{})
	defer s.Close()

	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session did not end")
	}
	require.Error(t, s.Err())
	assert.Contains(t, s.Err().Error(), "fatal")

	_, open := <-s.Events()
	assert.False(t, open)
}

func TestSession_RemoteNormalCloseIsClean(t *testing.T) {
	srv := serverThatSends(t, []string{`{"text":"last"}`}, websocket.CloseNormalClosure)
	defer srv.Close()

	s := startSession(t, srv, SessionConfig{})
	defer s.Close()

	got := collect(t, s, 1)
	assert.Len(t, got, 1)
	<-s.Done()
	assert.NoError(t, s.Err())
}

func TestSession_RemoteAbnormalCloseIsError(t *testing.T) {
	srv := serverThatSends(t, nil, websocket.CloseInternalServerErr)
	defer srv.Close()

	s := startSession(t, srv, SessionConfig{})
	defer s.Close()

	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session did not end")
	}
	assert.Error(t, s.Err())
}

func TestSession_CloseIsCleanAndIdempotent(t *testing.T) {
	srv := serverThatSends(t, nil, 0)
	defer srv.Close()

	s := startSession(t, srv, SessionConfig{})
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.True(t, s.Closed())

	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session did not end")
	}
	assert.NoError(t, s.Err())
	assert.ErrorIs(t, s.Send(map[string]string{"a": "b"}), ErrSessionClosed)
}

func TestSession_Send(t *testing.T) {
	srv := echoServer(t)
	defer srv.Close()

	s := startSession(t, srv, SessionConfig{})
	defer s.Close()

	require.NoError(t, s.Send(map[string]string{"text": "echo"}))
	got := collect(t, s, 1)
	assert.Equal(t, providers.OutputTranscriptEvent{Text: "echo"}, got[0])
}

func TestNewSession_Validation(t *testing.T) {
	_, err := NewSession(context.Background(), SessionConfig{OnMessage: textHandler})
	assert.Error(t, err)

	_, err = NewSession(context.Background(), SessionConfig{Conn: NewConn(&ConnConfig{URL: "ws://unused"})})
	assert.Error(t, err)
}
