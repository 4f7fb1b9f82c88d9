package audio

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
)

// Standard audio sample rates for the realtime paths.
const (
	SampleRate24kHz = 24000 // model speech output
	SampleRate16kHz = 16000 // microphone upload
	SampleRate48kHz = 48000 // common device rate
)

const bytesPerSample = 2

// ClampSample limits s to [-1, 1]. NaN maps to silence.
func ClampSample(s float32) float32 {
	switch {
	case s != s: //nolint:gocritic // NaN check
		return 0
	case s > 1:
		return 1
	case s < -1:
		return -1
	default:
		return s
	}
}

// FloatToPCM16 clamps each sample and packs it as signed 16-bit little-endian.
// Negative values scale by 0x8000 and positive values by 0x7FFF so both
// extremes land exactly on the int16 limits.
func FloatToPCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*bytesPerSample)
	for i, s := range samples {
		s = ClampSample(s)
		var v int16
		if s < 0 {
			v = int16(math.Round(float64(s) * 0x8000))
		} else {
			v = int16(math.Round(float64(s) * 0x7FFF))
		}
		binary.LittleEndian.PutUint16(out[i*bytesPerSample:], uint16(v)) //nolint:gosec // PCM16 bit pattern
	}
	return out
}

// PCM16ToFloat unpacks signed 16-bit little-endian samples into [-1, 1).
func PCM16ToFloat(data []byte) ([]float32, error) {
	if len(data)%bytesPerSample != 0 {
		return nil, fmt.Errorf("pcm16 data length %d is not a multiple of %d", len(data), bytesPerSample)
	}
	out := make([]float32, len(data)/bytesPerSample)
	for i := range out {
		v := int16(binary.LittleEndian.Uint16(data[i*bytesPerSample:])) //nolint:gosec // PCM16 bit pattern
		out[i] = float32(v) / 0x8000
	}
	return out, nil
}

// EncodePCM16Base64 converts samples to PCM16 and base64 encodes the result.
func EncodePCM16Base64(samples []float32) string {
	return base64.StdEncoding.EncodeToString(FloatToPCM16(samples))
}

// DecodePCM16Base64 decodes base64 PCM16 into float samples.
func DecodePCM16Base64(data string) ([]float32, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 audio: %w", err)
	}
	return PCM16ToFloat(raw)
}

// RMS returns the root mean square level of samples.
func RMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(samples)))
}
