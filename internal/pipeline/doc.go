// Package pipeline runs the full session render: resolve the frequency
// schedule, synthesize the binaural bed, render timed effects, load the
// narration, mix the stems, master to the loudness target, and write the
// program plus its render report atomically. Stages execute in order and the
// first failure aborts the render with the session record carrying the
// reason.
package pipeline
