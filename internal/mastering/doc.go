// Package mastering normalizes a mixed session to an integrated loudness
// target and enforces a true-peak ceiling. Loudness measurement follows
// ITU-R BS.1770-4 with EBU R128 gating; shaping uses cookbook biquad EQ and
// a lookahead brick-wall limiter.
package mastering
