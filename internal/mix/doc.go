// Package mix sums session stems into a single stereo program. Each stem
// carries its own dB gain, and background stems can be sidechain-ducked by
// the voice. The mixer never clips: peaks above full scale are reported in
// the mix metrics for the mastering stage to handle.
package mix
