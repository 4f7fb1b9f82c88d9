package session

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AltairaLabs/rehearsal/runtime/events"
)

func newTestSignals(t *testing.T, ttl, hold time.Duration) (*signals, *recorder) {
	t.Helper()
	bus := events.NewEventBus()
	rec := &recorder{}
	bus.SubscribeAll(rec.listen)
	t.Cleanup(bus.Close)
	return newSignals(ttl, hold, events.NewEmitter(bus, "s1")), rec
}

func TestSignals_InsightExpires(t *testing.T) {
	g, rec := newTestSignals(t, 30*time.Millisecond, time.Hour)

	g.showInsight("Eye contact", "Look at the lens.")
	ins := g.Insight()
	require.NotNil(t, ins)
	assert.Equal(t, "Eye contact", ins.Title)
	assert.False(t, ins.Timestamp.IsZero())

	require.Eventually(t, func() bool { return g.Insight() == nil }, waitFor, tick)
	require.Eventually(t, func() bool { return len(rec.ofType(events.EventInsightExpired)) == 1 }, waitFor, tick)
	expired := rec.ofType(events.EventInsightExpired)[0].Data.(*events.InsightData)
	assert.Equal(t, ins.ID, expired.ID)
	assert.False(t, expired.Replaced)
}

func TestSignals_ReplacedInsightTimerIsInert(t *testing.T) {
	g, _ := newTestSignals(t, 40*time.Millisecond, time.Hour)

	g.showInsight("one", "a")
	time.Sleep(25 * time.Millisecond)
	g.showInsight("two", "b")

	// The first timer would have fired by now.
	time.Sleep(25 * time.Millisecond)
	ins := g.Insight()
	require.NotNil(t, ins)
	assert.Equal(t, "two", ins.Title)

	require.Eventually(t, func() bool { return g.Insight() == nil }, waitFor, tick)
}

func TestSignals_InsightCopyIsDetached(t *testing.T) {
	g, _ := newTestSignals(t, time.Hour, time.Hour)
	g.showInsight("t", "c")
	g.Insight().Title = "changed"
	assert.Equal(t, "t", g.Insight().Title)
	g.stop()
}

func TestSignals_UtteranceKeepsTail(t *testing.T) {
	g, rec := newTestSignals(t, time.Hour, time.Hour)

	g.appendUtterance(strings.Repeat("a", MaxUtteranceRunes))
	g.appendUtterance("xyz")
	got := g.Utterance()
	assert.Len(t, []rune(got), MaxUtteranceRunes)
	assert.True(t, strings.HasSuffix(got, "xyz"))
	assert.True(t, strings.HasPrefix(got, "aaa"))

	g.appendUtterance("")
	require.Eventually(t, func() bool { return len(rec.ofType(events.EventUtteranceUpdated)) == 2 }, waitFor, tick)
	g.stop()
}

func TestSignals_ClearAfterHold(t *testing.T) {
	g, rec := newTestSignals(t, time.Hour, 20*time.Millisecond)

	g.appendUtterance("done")
	g.scheduleUtteranceClear()
	assert.Equal(t, "done", g.Utterance())
	require.Eventually(t, func() bool { return g.Utterance() == "" }, waitFor, tick)
	require.Eventually(t, func() bool { return len(rec.ofType(events.EventUtteranceCleared)) == 1 }, waitFor, tick)
}

func TestSignals_ClearImmediately(t *testing.T) {
	g, rec := newTestSignals(t, time.Hour, time.Hour)
	g.clearUtterance()
	g.appendUtterance("hi")
	g.clearUtterance()
	assert.Empty(t, g.Utterance())
	require.Eventually(t, func() bool { return len(rec.ofType(events.EventUtteranceCleared)) == 1 }, waitFor, tick)
}

func TestSignals_StopAndReset(t *testing.T) {
	g, _ := newTestSignals(t, 20*time.Millisecond, 20*time.Millisecond)
	g.showInsight("t", "c")
	g.appendUtterance("u")
	g.scheduleUtteranceClear()

	g.stop()
	assert.Nil(t, g.Insight())
	assert.Empty(t, g.Utterance())

	g.showInsight("ignored", "x")
	g.appendUtterance("ignored")
	assert.Nil(t, g.Insight())
	assert.Empty(t, g.Utterance())

	g.reset()
	g.appendUtterance("back")
	assert.Equal(t, "back", g.Utterance())
	g.stop()
}
