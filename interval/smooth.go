package interval

import "math"

// NearZone is the multiple of the smoothing radius beyond which the smooth
// union is computed as a plain minimum.
const NearZone = 5

// SmoothMin is the point form of SmoothUnion. Within ±NearZone·radius of the
// surface it is the log-sum-exp smooth minimum of a and b, elsewhere it is
// min(a, b). radius must be positive.
func SmoothMin(a, b, radius float64) float64 {
	m := math.Min(a, b)
	if math.Abs(m) > NearZone*radius {
		return m
	}
	return logSumExpMin(a, b, radius)
}

// logSumExpMin returns -r·ln(e^{-a/r} + e^{-b/r}) evaluated without
// overflow. It never exceeds min(a, b) and is non-decreasing in a and b.
func logSumExpMin(a, b, r float64) float64 {
	m := math.Min(a, b)
	if math.IsInf(m, 0) || math.IsNaN(m) {
		return m
	}
	return m - r*math.Log(math.Exp((m-a)/r)+math.Exp((m-b)/r))
}

// SmoothUnion bounds SmoothMin over a and b. Parts of the inputs whose
// minimum lies in the far zone are bounded by the plain interval minimum.
// Operands straddling the ±NearZone·radius boundaries are split and the
// pieces hulled, so the wide log-sum-exp bound only applies to the near zone.
func SmoothUnion(a, b Interval, radius float64) Interval {
	zone := NearZone * radius
	m := a.Min(b)
	if m.min > zone || m.max < -zone {
		return m
	}
	for _, c := range [2]float64{-zone, zone} {
		if a.min < c && c < a.max {
			return SmoothUnion(Interval{a.min, c}, b, radius).Hull(SmoothUnion(Interval{c, a.max}, b, radius))
		}
		if b.min < c && c < b.max {
			return SmoothUnion(a, Interval{b.min, c}, radius).Hull(SmoothUnion(a, Interval{c, b.max}, radius))
		}
	}
	// g(a,b) >= lse(a,b) >= lse(a.min,b.min) since lse is monotone, and g <= min(a,b).
	return iv(logSumExpMin(a.min, b.min, radius), m.max)
}
