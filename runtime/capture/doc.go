// Package capture turns caller-owned microphone and camera sources into
// outbound realtime chunks.
//
// The audio path re-frames captured samples into fixed windows (4096 samples at
// 16 kHz by default, 256 ms each), converts them to base64 PCM16 and hands them
// to an ordered background sender. Capture never waits on the network: when the
// outbound queue is full the window is dropped.
//
// The video path samples the current frame on a ticker, scales it to 320x180,
// JPEG-encodes it and sends it in the background. A single-slot Gate keeps at
// most one frame in flight; a tick that finds the gate busy is skipped, never queued.
//
// Sources are tapped, never closed: their lifetime belongs to the caller.
package capture
