package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AltairaLabs/rehearsal/runtime/report"
)

// gemini fakes both Gemini endpoints for one run.
type gemini struct {
	live    *httptest.Server
	api     *httptest.Server
	replies []string

	mu        sync.Mutex
	setup     map[string]any
	audioMsgs int
	texts     []string
	reports   int
}

func newGemini(t *testing.T, replies ...string) *gemini {
	t.Helper()
	g := &gemini{replies: replies}
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

	g.live = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var setup map[string]any
		if err := conn.ReadJSON(&setup); err != nil {
			return
		}
		g.mu.Lock()
		g.setup = setup
		g.mu.Unlock()
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"setupComplete": {}}`))
		for _, reply := range g.replies {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(reply))
		}
		for {
			var msg map[string]any
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			g.mu.Lock()
			if _, ok := msg["realtimeInput"]; ok {
				g.audioMsgs++
			}
			if _, ok := msg["clientContent"]; ok {
				g.texts = append(g.texts, fmt.Sprint(msg["clientContent"]))
			}
			g.mu.Unlock()
		}
	}))
	t.Cleanup(g.live.Close)

	g.api = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		g.mu.Lock()
		g.reports++
		g.mu.Unlock()
		body, _ := json.Marshal(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{"parts": []map[string]any{{
					"text": `{"score": 77, "summary": "Solid delivery.", "strengths": ["clear voice"], "tips": ["slow down"]}`,
				}}},
			}},
		})
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	t.Cleanup(g.api.Close)
	return g
}

func (g *gemini) manifest(t *testing.T, extra string) string {
	t.Helper()
	doc := fmt.Sprintf(`apiVersion: rehearsal.altairalabs.ai/v1alpha1
kind: SessionConfig
metadata:
  name: cli-test
spec:
  mode: pitch
  topic: Seed round
  credential:
    apiKey: test-key
  endpoints:
    liveURL: %s
    apiBaseURL: %s
  timing:
    connectTimeout: 5s
%s`, "ws"+strings.TrimPrefix(g.live.URL, "http"), g.api.URL, extra)
	path := filepath.Join(t.TempDir(), "session.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	return path
}

func writeTestWAV(t *testing.T, d time.Duration) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	format := beep.Format{SampleRate: 16000, NumChannels: 1, Precision: 2}
	silence := beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			samples[i] = [2]float64{}
		}
		return len(samples), true
	})
	require.NoError(t, wav.Encode(f, beep.Take(format.SampleRate.N(d), silence), format))
	return path
}

const insightReply = `{"toolCall": {"functionCalls": [{"id": "c1", "name": "show_insight", "args": {"title": "Pace", "content": "Breathe between points."}}]}}`

func TestLive_EndToEnd(t *testing.T) {
	g := newGemini(t,
		insightReply,
		`{"serverContent": {"inputTranscription": {"text": "Hi, we are building rockets."}}}`,
		`{"serverContent": {"outputTranscription": {"text": "Great opener."}, "turnComplete": true}}`,
	)
	dir := t.TempDir()
	opts := liveOptions{
		config:  g.manifest(t, ""),
		audio:   writeTestWAV(t, 300*time.Millisecond),
		out:     filepath.Join(dir, "coach.wav"),
		report:  filepath.Join(dir, "report.json"),
		opening: "Let's start.",
		linger:  400 * time.Millisecond,
	}

	var out bytes.Buffer
	require.NoError(t, opts.run(context.Background(), &out))

	printed := out.String()
	assert.Contains(t, printed, "idle → connecting")
	assert.Contains(t, printed, "connecting → open")
	assert.Contains(t, printed, "💡 Pace: Breathe between points.")

	g.mu.Lock()
	assert.Positive(t, g.audioMsgs)
	assert.Len(t, g.texts, 1)
	assert.Equal(t, 1, g.reports)
	setup := g.setup
	g.mu.Unlock()
	instruction := fmt.Sprint(setup["setup"])
	assert.Contains(t, instruction, "Seed round")

	data, err := os.ReadFile(opts.report)
	require.NoError(t, err)
	var rep report.Report
	require.NoError(t, json.Unmarshal(data, &rep))
	assert.InDelta(t, 77, rep.Score, 0.001)
	assert.Equal(t, []string{"slow down"}, rep.Tips)

	info, err := os.Stat(opts.out)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(44), "WAV has samples beyond the header")
}

func TestLive_ReportDisabledAndPrinted(t *testing.T) {
	g := newGemini(t, `{"serverContent": {"inputTranscription": {"text": "hello"}}}`)
	opts := liveOptions{
		config: g.manifest(t, "  report:\n    disabled: true\n"),
		audio:  writeTestWAV(t, 100*time.Millisecond),
		linger: 200 * time.Millisecond,
	}
	var out bytes.Buffer
	require.NoError(t, opts.run(context.Background(), &out))

	g.mu.Lock()
	defer g.mu.Unlock()
	assert.Zero(t, g.reports)
	assert.NotContains(t, out.String(), "generating report")
}

func TestLive_DurationStopsSession(t *testing.T) {
	g := newGemini(t)
	opts := liveOptions{
		config:   g.manifest(t, "  report:\n    disabled: true\n"),
		audio:    writeTestWAV(t, 5*time.Second),
		duration: 300 * time.Millisecond,
	}
	start := time.Now()
	var out bytes.Buffer
	require.NoError(t, opts.run(context.Background(), &out))
	assert.Less(t, time.Since(start), 4*time.Second)
	assert.Contains(t, out.String(), "open → closed")
}

func TestLive_ConnectionFailureIsReturned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error": {"code": 401, "message": "bad key", "status": "UNAUTHENTICATED"}}`, http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	doc := fmt.Sprintf(`apiVersion: rehearsal.altairalabs.ai/v1alpha1
kind: SessionConfig
spec:
  credential:
    apiKey: nope
  endpoints:
    liveURL: %s
  report:
    disabled: true
`, "ws"+strings.TrimPrefix(srv.URL, "http"))
	cfgPath := filepath.Join(t.TempDir(), "s.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(doc), 0o600))

	opts := liveOptions{config: cfgPath, audio: writeTestWAV(t, time.Second)}
	var out bytes.Buffer
	err := opts.run(context.Background(), &out)
	require.Error(t, err)
	assert.Contains(t, out.String(), "connecting → error")
}

func TestLiveOptions_Validate(t *testing.T) {
	assert.Error(t, (&liveOptions{}).validate())
	assert.Error(t, (&liveOptions{audio: "a.wav", device: true}).validate())
	assert.Error(t, (&liveOptions{device: true, out: "x.wav"}).validate())
	assert.NoError(t, (&liveOptions{audio: "a.wav"}).validate())
	assert.NoError(t, (&liveOptions{device: true}).validate())
}

func TestLive_MissingAudioFile(t *testing.T) {
	g := newGemini(t)
	opts := liveOptions{config: g.manifest(t, ""), audio: filepath.Join(t.TempDir(), "missing.wav")}
	assert.Error(t, opts.run(context.Background(), &bytes.Buffer{}))
}

func TestPrintReport(t *testing.T) {
	var b bytes.Buffer
	printReport(&b, &report.Report{
		Score:            64.4,
		Summary:          "Good content, rushed ending.",
		VideoDescription: "Steady eye contact.",
		Strengths:        []string{"structure"},
		Tips:             []string{"slow the close"},
	})
	s := b.String()
	assert.Contains(t, s, "Score: 64/100")
	assert.Contains(t, s, "On camera: Steady eye contact.")
	assert.Contains(t, s, "  + structure")
	assert.Contains(t, s, "  - slow the close")
}
