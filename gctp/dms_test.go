package gctp

import "math"

// toPackedDMS is the inverse of PackedDMS.
func toPackedDMS(deg float64) float64 {
	sign := 1.0
	if deg < 0 {
		sign, deg = -1, -deg
	}
	d := math.Floor(deg)
	m := math.Floor((deg - d) * 60)
	s := (deg - d - m/60) * 3600
	return sign * (d*1e6 + m*1e3 + s)
}
