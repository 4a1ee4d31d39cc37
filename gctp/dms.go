package gctp

import "math"

// PackedDMS converts an angle packed as DDDMMMSSS.SS (degrees times 1e6 plus
// minutes times 1e3 plus seconds) to decimal degrees.
func PackedDMS(v float64) float64 {
	sign := 1.0
	if v < 0 {
		sign, v = -1, -v
	}
	deg := math.Floor(v / 1e6)
	mins := math.Floor((v - deg*1e6) / 1e3)
	sec := v - deg*1e6 - mins*1e3
	return sign * (deg + mins/60 + sec/3600)
}
