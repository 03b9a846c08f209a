// Package sfx renders discrete timed effect events into an independent
// effects stem the length of the full session.
//
// Tonal bursts are synthesized in place; sampled cues come decoded from the
// asset library and get their fades and gain here. Events sum additively, so
// overlapping cues stack rather than replace each other. Narrative markers
// ("a chime sounds here") are aligned to audio time with a proportional
// word-count estimate against the narration script; the estimate is
// intentionally approximate and callers should test against tolerance
// windows, not exact timestamps.
package sfx
