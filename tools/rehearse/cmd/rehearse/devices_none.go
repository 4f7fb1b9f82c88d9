//go:build !portaudio

package main

import (
	"errors"

	"github.com/AltairaLabs/rehearsal/runtime/playback"
)

var errNoDeviceSupport = errors.New("built without portaudio; rebuild with -tags portaudio to use devices")

func openDevices(*playback.Renderer) (*deviceIO, error) {
	return nil, errNoDeviceSupport
}
