package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AltairaLabs/rehearsal/runtime/events"
)

// MaxUtteranceRunes caps the visible utterance to its trailing runes.
const MaxUtteranceRunes = 300

// Insight is a short coaching hint shown on screen until it expires or the
// next one replaces it.
type Insight struct {
	ID        string
	Title     string
	Content   string
	Timestamp time.Time
}

// signals owns the ephemeral UI state: the visible insight and the visible
// utterance, each with a cancellable timer. Timer callbacks are bound to the
// value they were armed for and do nothing once it has been replaced.
type signals struct {
	ttl     time.Duration
	hold    time.Duration
	emitter *events.Emitter

	mu           sync.Mutex
	closed       bool
	insight      *Insight
	insightTimer *time.Timer
	utterance    []rune
	clearTimer   *time.Timer
	clearSeq     uint64
}

func newSignals(ttl, hold time.Duration, emitter *events.Emitter) *signals {
	return &signals{ttl: ttl, hold: hold, emitter: emitter}
}

// Insight returns a copy of the visible insight, or nil.
func (g *signals) Insight() *Insight {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.insight == nil {
		return nil
	}
	cp := *g.insight
	return &cp
}

// Utterance returns the visible utterance.
func (g *signals) Utterance() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return string(g.utterance)
}

func (g *signals) showInsight(title, content string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}
	if prev := g.insight; prev != nil {
		g.insightTimer.Stop()
		g.emitter.InsightExpired(prev.ID, true)
	}

	ins := &Insight{ID: uuid.NewString(), Title: title, Content: content, Timestamp: time.Now()}
	g.insight = ins
	g.insightTimer = time.AfterFunc(g.ttl, func() { g.expireInsight(ins) })
	g.emitter.InsightShown(ins.ID, ins.Title, ins.Content)
}

func (g *signals) expireInsight(ins *Insight) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.insight != ins {
		return
	}
	g.insight = nil
	g.insightTimer = nil
	g.emitter.InsightExpired(ins.ID, false)
}

// appendUtterance extends the visible utterance and cancels a pending clear.
func (g *signals) appendUtterance(delta string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed || delta == "" {
		return
	}
	g.cancelClearLocked()
	g.utterance = append(g.utterance, []rune(delta)...)
	if n := len(g.utterance); n > MaxUtteranceRunes {
		g.utterance = append([]rune(nil), g.utterance[n-MaxUtteranceRunes:]...)
	}
	g.emitter.UtteranceUpdated(string(g.utterance))
}

// scheduleUtteranceClear clears the utterance after the hold delay. The
// transcript is never touched.
func (g *signals) scheduleUtteranceClear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}
	g.cancelClearLocked()
	seq := g.clearSeq
	g.clearTimer = time.AfterFunc(g.hold, func() { g.clearIf(seq) })
}

func (g *signals) clearIf(seq uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.clearSeq != seq {
		return
	}
	g.clearTimer = nil
	g.clearUtteranceLocked()
}

// clearUtterance clears immediately, for teleprompter mode.
func (g *signals) clearUtterance() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cancelClearLocked()
	g.clearUtteranceLocked()
}

func (g *signals) clearUtteranceLocked() {
	if len(g.utterance) == 0 {
		return
	}
	g.utterance = nil
	g.emitter.UtteranceCleared()
}

// cancelClearLocked invalidates any armed clear timer.
func (g *signals) cancelClearLocked() {
	g.clearSeq++
	if g.clearTimer != nil {
		g.clearTimer.Stop()
		g.clearTimer = nil
	}
}

// stop cancels every timer and hides both signals. Later calls are ignored
// until reset.
func (g *signals) stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	g.cancelClearLocked()
	g.clearUtteranceLocked()
	if g.insight != nil {
		g.insightTimer.Stop()
		g.emitter.InsightExpired(g.insight.ID, false)
		g.insight = nil
		g.insightTimer = nil
	}
}

// reset accepts signals again for a new connection.
func (g *signals) reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = false
}
