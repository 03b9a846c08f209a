// Package audio provides the shared sample-buffer model used by every
// rendering stage, plus the small utility surface around it: dB/linear gain
// conversion, peak and RMS scans, fade envelopes, WAV encode/decode bridging
// to beep streamers, and atomic file writes for published artifacts.
//
// Buffers are non-interleaved float64 slices, one per channel, all the same
// length. Stages allocate buffers once and mutate them in place; ownership
// passes strictly down the pipeline, so no locking is needed.
package audio
