package session

import (
	"github.com/AltairaLabs/rehearsal/runtime/capture"
	"github.com/AltairaLabs/rehearsal/runtime/logger"
	metrics "github.com/AltairaLabs/rehearsal/runtime/metrics/prometheus"
	"github.com/AltairaLabs/rehearsal/runtime/playback"
	"github.com/AltairaLabs/rehearsal/runtime/types"
)

// captureHooks records upload activity.
func captureHooks() *capture.Hooks {
	return &capture.Hooks{
		AudioSent:    func(*types.AudioChunk) { metrics.RecordAudioSent() },
		AudioDropped: metrics.RecordAudioDropped,
		FrameSent:    func(*types.FrameChunk) { metrics.RecordFrameSent() },
		FrameSkipped: metrics.RecordFrameSkipped,
		SendFailed: func(kind string, err error) {
			logger.Debug("media send failed", "kind", kind, "error", err)
			switch kind {
			case "audio":
				metrics.RecordAudioFailed()
			case "frame":
				metrics.RecordFrameFailed()
			}
		},
	}
}

// playbackHooks records scheduling activity. Interruptions are counted from
// the PlaybackInterrupted event instead.
func playbackHooks() *playback.Hooks {
	return &playback.Hooks{
		Scheduled:    func(u *playback.Unit) { metrics.RecordPlaybackScheduled(u.Duration.Seconds()) },
		Ended:        func(*playback.Unit) { metrics.RecordPlaybackEnded() },
		DecodeFailed: func(error) { metrics.RecordDecodeFailure() },
	}
}

// wireDecodeFailed counts inbound messages the transport could not decode.
func wireDecodeFailed(err error) {
	logger.Warn("undecodable live message", "error", err)
	metrics.RecordDecodeFailure()
}
