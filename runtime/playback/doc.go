// Package playback schedules model audio for gapless output.
//
// A Scheduler turns inbound PCM payloads into Units placed back to back on a
// virtual clock that never runs behind the output Sink's own clock. Barge-in
// is handled by Interrupt, which silences every active unit at once and
// rewinds the virtual clock.
//
// Renderer is a software Sink: a pull-model mixer driven by whatever consumes
// audio (a speaker callback, a WAV encoder, a test). It also implements
// beep.Streamer so it can be handed to beep's encoders and speakers directly.
package playback
