//go:build portaudio

package main

import (
	"github.com/AltairaLabs/rehearsal/runtime/playback"
	"github.com/AltairaLabs/rehearsal/tools/rehearse/devices"
)

func init() {
	liveCmd.Flags().BoolVar(&liveOpts.device, "device", false, "Use the default microphone and speakers")
}

// openDevices opens the microphone and a speaker playing r.
func openDevices(r *playback.Renderer) (*deviceIO, error) {
	sys, err := devices.Open()
	if err != nil {
		return nil, err
	}
	mic, err := sys.Microphone()
	if err != nil {
		_ = sys.Close()
		return nil, err
	}
	speaker, err := sys.Speaker(r)
	if err != nil {
		_ = sys.Close()
		return nil, err
	}
	return &deviceIO{
		audio:   mic,
		capture: mic.Run,
		play:    speaker.Run,
		close:   sys.Close,
	}, nil
}
