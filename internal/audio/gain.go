package audio

import "math"

// SilenceFloorDB is the decibel value reported for a zero signal, standing in
// for negative infinity so metrics stay JSON-safe.
const SilenceFloorDB = -150.0

// DBToLinear converts a decibel gain to a linear multiplier.
func DBToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}

// LinearToDB converts a linear amplitude to decibels. Zero or negative input
// returns SilenceFloorDB rather than -Inf.
func LinearToDB(linear float64) float64 {
	if linear <= 0 {
		return SilenceFloorDB
	}
	db := 20 * math.Log10(linear)
	if db < SilenceFloorDB {
		return SilenceFloorDB
	}
	return db
}
