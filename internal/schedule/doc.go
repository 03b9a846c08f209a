// Package schedule turns the manifest's timed frequency sections into a
// continuous beat-offset function over the session.
//
// Resolve validates ordering, overlap, and coverage before handing back a
// pure OffsetFunc the synthesizer integrates per sample. Transition shapes
// (hold, linear, smoothstep) share one evaluation contract dispatched through
// a strategy table, and optional per-section modulation is added on top of
// the base value.
package schedule
