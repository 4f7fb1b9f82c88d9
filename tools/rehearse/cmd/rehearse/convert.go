package main

import (
	"github.com/AltairaLabs/rehearsal/pkg/config"
	"github.com/AltairaLabs/rehearsal/runtime/capture"
	"github.com/AltairaLabs/rehearsal/runtime/credentials"
	"github.com/AltairaLabs/rehearsal/runtime/events"
	"github.com/AltairaLabs/rehearsal/runtime/playback"
	"github.com/AltairaLabs/rehearsal/runtime/session"
)

// sessionMedia holds the runtime objects a manifest cannot describe.
type sessionMedia struct {
	audio  capture.AudioSource
	video  capture.VideoSource
	output playback.Sink
	bus    *events.EventBus
}

// sessionConfig converts a defaulted manifest into a session.Config.
func sessionConfig(cfg *config.SessionConfig, cred credentials.Credential, m sessionMedia) session.Config {
	s := &cfg.Spec
	return session.Config{
		Credential:        cred,
		LiveURL:           s.Endpoints.LiveURL,
		Model:             s.Model,
		Voice:             s.Voice,
		SystemInstruction: config.ComposeInstruction(s),
		Topic:             s.Topic,
		Script:            s.Script,
		AudioSource:       m.audio,
		VideoSource:       m.video,
		Output:            m.output,
		APIBaseURL:        s.Endpoints.APIBaseURL,
		ReportModel:       s.Report.Model,
		Bus:               m.bus,
		AudioDisabled:     !s.Audio(),
		DistractionFree:   s.DistractionFree,
		Teleprompter:      s.Teleprompter,
		FrameInterval:     s.Timing.FrameInterval.Std(),
		InsightTTL:        s.Timing.InsightTTL.Std(),
		UtteranceHold:     s.Timing.UtteranceHold.Std(),
		ConnectTimeout:    s.Timing.ConnectTimeout.Std(),
	}
}
