package errors_test

import (
	"errors"
	"fmt"
	"io"
	"testing"

	pkgerrors "github.com/AltairaLabs/rehearsal/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := pkgerrors.New("session", "Connect", cause)

	assert.Equal(t, "session", err.Component)
	assert.Equal(t, "Connect", err.Operation)
	assert.Equal(t, pkgerrors.KindUnknown, err.Kind)
	assert.Equal(t, 0, err.StatusCode)
	assert.Nil(t, err.Details)
	assert.Equal(t, cause, err.Cause)
}

func TestError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  *pkgerrors.ContextualError
		want string
	}{
		{"plain", pkgerrors.New("capture", "EncodeFrame", io.EOF), "[capture] EncodeFrame: EOF"},
		{"no cause", pkgerrors.New("capture", "EncodeFrame", nil), "[capture] EncodeFrame"},
		{"kind", pkgerrors.Decode("playback", "Enqueue", io.ErrUnexpectedEOF), "[playback] Enqueue decode error: unexpected EOF"},
		{
			"status",
			pkgerrors.Transport("streaming", "Dial", io.EOF).WithStatusCode(1011),
			"[streaming] Dial transport error (status 1011): EOF",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestIs_Sentinels(t *testing.T) {
	tests := []struct {
		err      error
		sentinel error
	}{
		{pkgerrors.Configuration("session", "Connect", nil), pkgerrors.ErrConfiguration},
		{pkgerrors.Transport("session", "Receive", io.EOF), pkgerrors.ErrTransport},
		{pkgerrors.Decode("playback", "Enqueue", nil), pkgerrors.ErrDecode},
		{pkgerrors.Report("report", "Generate", nil), pkgerrors.ErrReport},
	}
	for _, tt := range tests {
		assert.ErrorIs(t, tt.err, tt.sentinel)
		wrapped := fmt.Errorf("outer: %w", tt.err)
		assert.ErrorIs(t, wrapped, tt.sentinel)
	}

	assert.NotErrorIs(t, pkgerrors.Decode("p", "o", nil), pkgerrors.ErrTransport)
	assert.NotErrorIs(t, pkgerrors.New("p", "o", nil), pkgerrors.ErrDecode)
}

func TestIs_PreservesCause(t *testing.T) {
	err := pkgerrors.Transport("streaming", "Send", io.ErrClosedPipe)
	assert.ErrorIs(t, err, io.ErrClosedPipe)
	assert.ErrorIs(t, err, pkgerrors.ErrTransport)
}

func TestKindOfAndFatal(t *testing.T) {
	assert.Equal(t, pkgerrors.KindReport, pkgerrors.KindOf(fmt.Errorf("x: %w", pkgerrors.Report("r", "o", nil))))
	assert.Equal(t, pkgerrors.KindUnknown, pkgerrors.KindOf(errors.New("plain")))

	assert.True(t, pkgerrors.IsFatal(pkgerrors.Configuration("s", "o", nil)))
	assert.True(t, pkgerrors.IsFatal(pkgerrors.Transport("s", "o", nil)))
	assert.False(t, pkgerrors.IsFatal(pkgerrors.Decode("s", "o", nil)))
	assert.False(t, pkgerrors.IsFatal(pkgerrors.Report("s", "o", nil)))
	assert.False(t, pkgerrors.IsFatal(nil))
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "configuration", pkgerrors.KindConfiguration.String())
	assert.Equal(t, "transport", pkgerrors.KindTransport.String())
	assert.Equal(t, "decode", pkgerrors.KindDecode.String())
	assert.Equal(t, "report", pkgerrors.KindReport.String())
	assert.Equal(t, "unknown", pkgerrors.Kind(99).String())
}

func TestWithDetails(t *testing.T) {
	err := pkgerrors.Decode("gemini", "DecodeServerMessage", nil).
		WithDetails(map[string]any{"bytes": 12})

	var ce *pkgerrors.ContextualError
	require.True(t, errors.As(fmt.Errorf("wrap: %w", err), &ce))
	assert.Equal(t, 12, ce.Details["bytes"])
}
