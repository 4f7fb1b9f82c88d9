// Package audio provides sample-format conversion and resampling for the
// realtime audio paths.
//
// Captured audio arrives as float32 samples in [-1, 1] at the device rate and
// leaves as 16-bit little-endian PCM at 16 kHz. Model audio arrives as base64
// PCM16 at 24 kHz and is decoded back to float32 for mixing.
//
//	pcm := audio.FloatToPCM16(window)       // clamp + scale + pack
//	samples, err := audio.PCM16ToFloat(pcm) // unpack + normalize
//
// Resampler converts a continuous stream block by block without clicks at
// block boundaries.
package audio
