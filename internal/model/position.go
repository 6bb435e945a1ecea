package model

import "math"

// Position is a pose in space: an integer (X, Y, Z) in some fixed unit,
// plus an (Azimuth, Elevation) orientation in degrees. There is no
// third-party geometry library in the retrieval pack suited to this
// narrow distance/bearing computation, so it is implemented directly on
// top of math.Hypot/math.Atan2 (see DESIGN.md).
type Position struct {
	X, Y, Z             int
	Azimuth, Elevation  int
}

// RangeAzimuthElevation computes the distance, azimuth, and elevation of
// other as observed from this position's own orientation. Distance is
// symmetric (RangeAzimuthElevation called on either end returns the same
// distance); azimuth and elevation are not, since they are relative to the
// observer's own heading.
func (p Position) RangeAzimuthElevation(other Position) (distance uint16, azimuth int16, elevation int8) {
	dx := float64(other.X - p.X)
	dy := float64(other.Y - p.Y)
	dz := float64(other.Z - p.Z)

	horizontal := math.Hypot(dx, dy)
	dist := math.Hypot(horizontal, dz)

	az := normalizeDegrees(radToDeg(math.Atan2(dy, dx)) - float64(p.Azimuth))
	el := radToDeg(math.Atan2(dz, horizontal)) - float64(p.Elevation)

	return clampU16(dist), clampI16(az), clampI8(el)
}

func radToDeg(r float64) float64 {
	return r * 180 / math.Pi
}

// normalizeDegrees folds an angle into (-180, 180].
func normalizeDegrees(deg float64) float64 {
	for deg <= -180 {
		deg += 360
	}
	for deg > 180 {
		deg -= 360
	}
	return deg
}

func clampU16(v float64) uint16 {
	if v < 0 {
		return 0
	}
	if v > math.MaxUint16 {
		return math.MaxUint16
	}
	return uint16(v)
}

func clampI16(v float64) int16 {
	if v < math.MinInt16 {
		return math.MinInt16
	}
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	return int16(v)
}

func clampI8(v float64) int8 {
	if v < math.MinInt8 {
		return math.MinInt8
	}
	if v > math.MaxInt8 {
		return math.MaxInt8
	}
	return int8(v)
}
