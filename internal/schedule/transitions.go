package schedule

import "github.com/randysalars/dreamweaving-sub000/internal/manifest"

// transitionFunc evaluates a section's offset at time t given the section
// bounds [t0, t1) and the start/end offsets v0, v1. Every variant honors the
// same contract so the resolver dispatches through the table below instead of
// branching on names.
type transitionFunc func(t0, t1, v0, v1, t float64) float64

var transitions = map[manifest.Transition]transitionFunc{
	manifest.TransitionHold:   evalHold,
	manifest.TransitionLinear: evalLinear,
	manifest.TransitionSmooth: evalSmooth,
}

func evalHold(_, _, v0, _, _ float64) float64 {
	return v0
}

func evalLinear(t0, t1, v0, v1, t float64) float64 {
	return v0 + (v1-v0)*progress(t0, t1, t)
}

// evalSmooth uses smoothstep, whose first derivative vanishes at both
// boundaries, so the offset's rate of change never jumps at section edges.
func evalSmooth(t0, t1, v0, v1, t float64) float64 {
	u := progress(t0, t1, t)
	return v0 + (v1-v0)*u*u*(3-2*u)
}

func progress(t0, t1, t float64) float64 {
	if t1 <= t0 {
		return 0
	}
	u := (t - t0) / (t1 - t0)
	if u < 0 {
		return 0
	}
	if u > 1 {
		return 1
	}
	return u
}
