// Package assets resolves manifest effect references to decoded audio
// buffers supplied by the external asset collaborator.
//
// The library decodes WAV files from a configured directory, resamples them
// to the project rate, and widens mono cues to stereo. Decoded buffers live
// in an explicit per-render cache keyed by reference and rate; nothing is
// memoized at package level. Reads are retried a bounded number of times
// before surfacing an asset error.
package assets
