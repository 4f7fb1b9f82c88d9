// Package prometheus provides Prometheus metrics for live rehearsal sessions.
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "rehearsal"

var (
	// sessionsActive is a gauge of sessions currently connecting or open.
	sessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of live sessions currently connecting or open",
		},
	)

	// sessionPhasesTotal counts lifecycle transitions by target phase.
	sessionPhasesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_phase_transitions_total",
			Help:      "Total number of session phase transitions",
		},
		[]string{"phase"},
	)

	// sessionErrorsTotal counts sessions that ended in the error phase, by error kind.
	sessionErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_errors_total",
			Help:      "Total number of sessions that ended with an error",
		},
		[]string{"kind"}, // kind: configuration, transport, decode, report, unknown
	)

	// connectDuration is a histogram of time from dial to setupComplete.
	connectDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "connect_duration_seconds",
			Help:      "Time from dial to setup completion in seconds",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"model", "status"}, // status: success, error
	)

	// audioChunksTotal counts outbound audio windows.
	audioChunksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_chunks_total",
			Help:      "Total number of captured audio chunks by outcome",
		},
		[]string{"status"}, // status: sent, dropped, failed
	)

	// audioDroppedTotal counts dropped audio windows by reason.
	audioDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_chunks_dropped_total",
			Help:      "Total number of audio chunks dropped before sending",
		},
		[]string{"reason"},
	)

	// framesTotal counts frame sampler ticks by outcome.
	framesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Total number of frame sampler ticks by outcome",
		},
		[]string{"status"}, // status: sent, skipped, failed
	)

	// framesSkippedTotal counts skipped frame ticks by reason.
	framesSkippedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_skipped_total",
			Help:      "Total number of frame ticks skipped",
		},
		[]string{"reason"},
	)

	// playbackUnitsTotal counts scheduled and completed playback units.
	playbackUnitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "playback_units_total",
			Help:      "Total number of playback units by lifecycle stage",
		},
		[]string{"stage"}, // stage: scheduled, ended
	)

	// playbackSeconds accumulates scheduled model audio.
	playbackSeconds = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "playback_audio_seconds_total",
			Help:      "Total seconds of model audio scheduled for playback",
		},
	)

	// decodeFailuresTotal counts inbound audio payloads that could not be decoded.
	decodeFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_failures_total",
			Help:      "Total number of inbound audio payloads dropped on decode failure",
		},
	)

	// interruptionsTotal counts barge-in interruptions.
	interruptionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interruptions_total",
			Help:      "Total number of server interruptions",
		},
	)

	// interruptedUnitsTotal counts units stopped by interruptions.
	interruptedUnitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interrupted_units_total",
			Help:      "Total number of playback units stopped by interruptions",
		},
	)

	// toolCallsTotal counts inbound function calls.
	toolCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Total number of inbound tool calls",
		},
		[]string{"tool", "status"}, // status: recognized, ignored
	)

	// insightsTotal counts insights shown.
	insightsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "insights_shown_total",
			Help:      "Total number of insights shown",
		},
	)

	// reportDuration is a histogram of report request latency.
	reportDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_duration_seconds",
			Help:      "Duration of report requests in seconds",
			Buckets:   []float64{.25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"model"},
	)

	// reportRequestsTotal counts report requests by outcome.
	reportRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_requests_total",
			Help:      "Total number of report requests",
		},
		[]string{"model", "status"}, // status: success, error, skipped
	)

	// allMetrics is a list of all metrics for registration.
	allMetrics = []prometheus.Collector{
		sessionsActive,
		sessionPhasesTotal,
		sessionErrorsTotal,
		connectDuration,
		audioChunksTotal,
		audioDroppedTotal,
		framesTotal,
		framesSkippedTotal,
		playbackUnitsTotal,
		playbackSeconds,
		decodeFailuresTotal,
		interruptionsTotal,
		interruptedUnitsTotal,
		toolCallsTotal,
		insightsTotal,
		reportDuration,
		reportRequestsTotal,
	}
)

// Label values shared by callers.
const (
	StatusSuccess    = "success"
	StatusError      = "error"
	StatusSkipped    = "skipped"
	StatusSent       = "sent"
	StatusDropped    = "dropped"
	StatusFailed     = "failed"
	StatusRecognized = "recognized"
	StatusIgnored    = "ignored"
)

// RecordSessionStart records a session entering Connecting.
func RecordSessionStart() {
	sessionsActive.Inc()
}

// RecordSessionEnd records a session leaving Connecting or Open.
func RecordSessionEnd() {
	sessionsActive.Dec()
}

// RecordPhase records a transition into phase.
func RecordPhase(phase string) {
	sessionPhasesTotal.WithLabelValues(phase).Inc()
}

// RecordSessionError records a session failure of the given kind.
func RecordSessionError(kind string) {
	if kind == "" {
		kind = "unknown"
	}
	sessionErrorsTotal.WithLabelValues(kind).Inc()
}

// RecordConnect records the outcome and latency of one connection attempt.
func RecordConnect(model, status string, durationSeconds float64) {
	connectDuration.WithLabelValues(model, status).Observe(durationSeconds)
}

// RecordAudioSent records a sent audio chunk.
func RecordAudioSent() {
	audioChunksTotal.WithLabelValues(StatusSent).Inc()
}

// RecordAudioDropped records an audio chunk dropped for reason.
func RecordAudioDropped(reason string) {
	audioChunksTotal.WithLabelValues(StatusDropped).Inc()
	audioDroppedTotal.WithLabelValues(reason).Inc()
}

// RecordAudioFailed records an audio chunk whose send failed.
func RecordAudioFailed() {
	audioChunksTotal.WithLabelValues(StatusFailed).Inc()
}

// RecordFrameSent records a sent frame.
func RecordFrameSent() {
	framesTotal.WithLabelValues(StatusSent).Inc()
}

// RecordFrameSkipped records a skipped frame tick.
func RecordFrameSkipped(reason string) {
	framesTotal.WithLabelValues(StatusSkipped).Inc()
	framesSkippedTotal.WithLabelValues(reason).Inc()
}

// RecordFrameFailed records a frame whose send failed.
func RecordFrameFailed() {
	framesTotal.WithLabelValues(StatusFailed).Inc()
}

// RecordPlaybackScheduled records a unit of durationSeconds entering the active set.
func RecordPlaybackScheduled(durationSeconds float64) {
	playbackUnitsTotal.WithLabelValues("scheduled").Inc()
	if durationSeconds > 0 {
		playbackSeconds.Add(durationSeconds)
	}
}

// RecordPlaybackEnded records a unit finishing naturally.
func RecordPlaybackEnded() {
	playbackUnitsTotal.WithLabelValues("ended").Inc()
}

// RecordDecodeFailure records a dropped inbound audio payload.
func RecordDecodeFailure() {
	decodeFailuresTotal.Inc()
}

// RecordInterruption records a barge-in that stopped the given number of units.
func RecordInterruption(stopped int) {
	interruptionsTotal.Inc()
	if stopped > 0 {
		interruptedUnitsTotal.Add(float64(stopped))
	}
}

// RecordToolCall records an inbound function call.
func RecordToolCall(toolName string, recognized bool) {
	status := StatusIgnored
	if recognized {
		status = StatusRecognized
	}
	toolCallsTotal.WithLabelValues(toolName, status).Inc()
}

// RecordInsight records an insight becoming visible.
func RecordInsight() {
	insightsTotal.Inc()
}

// RecordReport records a report request. Skipped requests have no latency.
func RecordReport(model, status string, durationSeconds float64) {
	reportRequestsTotal.WithLabelValues(model, status).Inc()
	if status != StatusSkipped {
		reportDuration.WithLabelValues(model).Observe(durationSeconds)
	}
}
