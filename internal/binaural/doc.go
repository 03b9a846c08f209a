// Package binaural synthesizes the stereo entrainment bed.
//
// The left ear hears the bare carrier; the right ear hears carrier plus the
// scheduled beat offset. The right channel's phase is integrated sample by
// sample rather than computed as 2π·f·t, which is only correct for a constant
// offset and clicks audibly when the schedule ramps. Buffer edges get a
// raised-cosine fade so session boundaries are silent.
package binaural
