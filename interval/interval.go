// Package interval implements closed real interval arithmetic.
//
// Every operation returns an interval that contains all values of the
// corresponding real operation over all operand choices within the inputs.
// Operations never fail: degenerate inputs such as divisors containing zero
// or negative square root arguments widen or clamp the result instead.
package interval

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalid is returned by New for NaN or inverted bounds.
var ErrInvalid = errors.New("invalid interval bounds")

// Interval is the closed set of reals [min, max]. The zero value is [0, 0].
type Interval struct {
	min, max float64
}

// New returns the interval [min, max]. Bounds may be infinite.
func New(min, max float64) (Interval, error) {
	if math.IsNaN(min) || math.IsNaN(max) {
		return Interval{}, fmt.Errorf("%w: NaN bound [%g, %g]", ErrInvalid, min, max)
	}
	if min > max {
		return Interval{}, fmt.Errorf("%w: min %g greater than max %g", ErrInvalid, min, max)
	}
	return Interval{min: min, max: max}, nil
}

// MustNew is like New but panics on invalid bounds.
func MustNew(min, max float64) Interval {
	i, err := New(min, max)
	if err != nil {
		panic(err)
	}
	return i
}

// Point returns the degenerate interval [v, v].
func Point(v float64) Interval { return iv(v, v) }

// Entire returns [-∞, +∞].
func Entire() Interval { return Interval{min: math.Inf(-1), max: math.Inf(1)} }

// iv builds an interval from operation results. A NaN bound can only come
// from undefined corner operations, so it widens to infinity.
func iv(lo, hi float64) Interval {
	if math.IsNaN(lo) {
		lo = math.Inf(-1)
	}
	if math.IsNaN(hi) {
		hi = math.Inf(1)
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	return Interval{min: lo, max: hi}
}

// Lo returns the lower bound.
func (a Interval) Lo() float64 { return a.min }

// Hi returns the upper bound.
func (a Interval) Hi() float64 { return a.max }

// Width returns max-min.
func (a Interval) Width() float64 { return a.max - a.min }

// Mid returns the midpoint of the interval.
func (a Interval) Mid() float64 {
	if math.IsInf(a.min, 0) || math.IsInf(a.max, 0) {
		return a.min/2 + a.max/2
	}
	return a.min + (a.max-a.min)/2
}

// Contains reports whether min <= v <= max.
func (a Interval) Contains(v float64) bool { return a.min <= v && v <= a.max }

// ContainsZero reports whether 0 is in the interval.
func (a Interval) ContainsZero() bool { return a.min <= 0 && 0 <= a.max }

// Overlaps reports whether a and b share at least one value.
func (a Interval) Overlaps(b Interval) bool { return a.min <= b.max && b.min <= a.max }

// Hull returns the smallest interval containing both a and b.
func (a Interval) Hull(b Interval) Interval {
	return Interval{min: math.Min(a.min, b.min), max: math.Max(a.max, b.max)}
}

func (a Interval) String() string { return fmt.Sprintf("[%g, %g]", a.min, a.max) }

func (a Interval) Add(b Interval) Interval { return iv(a.min+b.min, a.max+b.max) }
func (a Interval) Sub(b Interval) Interval { return iv(a.min-b.max, a.max-b.min) }
func (a Interval) Neg() Interval           { return Interval{min: -a.max, max: -a.min} }

// Scale multiplies the interval by a scalar.
func (a Interval) Scale(k float64) Interval { return iv(mulBound(a.min, k), mulBound(a.max, k)) }

// Mul returns the product interval, the min/max of the four corner products.
func (a Interval) Mul(b Interval) Interval {
	p0 := mulBound(a.min, b.min)
	p1 := mulBound(a.min, b.max)
	p2 := mulBound(a.max, b.min)
	p3 := mulBound(a.max, b.max)
	return iv(min4(p0, p1, p2, p3), max4(p0, p1, p2, p3))
}

// Div returns a/b. If b contains zero the result is [-∞, +∞].
func (a Interval) Div(b Interval) Interval {
	if b.ContainsZero() {
		return Entire()
	}
	q0 := a.min / b.min
	q1 := a.min / b.max
	q2 := a.max / b.min
	q3 := a.max / b.max
	if math.IsNaN(q0) || math.IsNaN(q1) || math.IsNaN(q2) || math.IsNaN(q3) {
		// ∞/∞ corners.
		return Entire()
	}
	return iv(min4(q0, q1, q2, q3), max4(q0, q1, q2, q3))
}

// Sqrt clamps negative values to zero before taking the root.
func (a Interval) Sqrt() Interval {
	return iv(math.Sqrt(math.Max(a.min, 0)), math.Sqrt(math.Max(a.max, 0)))
}

// Abs returns the interval of |x|.
func (a Interval) Abs() Interval {
	switch {
	case a.min >= 0:
		return a
	case a.max <= 0:
		return a.Neg()
	}
	return iv(0, math.Max(-a.min, a.max))
}

// Sqr returns the interval of x². It is tighter than a.Mul(a).
func (a Interval) Sqr() Interval {
	abs := a.Abs()
	return iv(abs.min*abs.min, abs.max*abs.max)
}

func (a Interval) Exp() Interval { return iv(math.Exp(a.min), math.Exp(a.max)) }

// Log clamps non-positive values to zero, yielding -∞ lower bounds.
func (a Interval) Log() Interval {
	return iv(math.Log(math.Max(a.min, 0)), math.Log(math.Max(a.max, 0)))
}

// Min returns the interval of min(x, y).
func (a Interval) Min(b Interval) Interval {
	return Interval{min: math.Min(a.min, b.min), max: math.Min(a.max, b.max)}
}

// Max returns the interval of max(x, y).
func (a Interval) Max(b Interval) Interval {
	return Interval{min: math.Max(a.min, b.min), max: math.Max(a.max, b.max)}
}

// trigSamples is the number of interior samples used by Sin and Cos.
const trigSamples = 32

// Sin bounds sin(x) by sampling the interval at fixed steps. The result is
// not certified: a narrow extremum between samples may be missed.
func (a Interval) Sin() Interval { return a.sampleTrig(math.Sin) }

// Cos bounds cos(x) the same way Sin does.
func (a Interval) Cos() Interval { return a.sampleTrig(math.Cos) }

func (a Interval) sampleTrig(f func(float64) float64) Interval {
	w := a.Width()
	if math.IsInf(w, 0) || math.IsNaN(w) || w >= 2*math.Pi {
		return Interval{min: -1, max: 1}
	}
	lo, hi := f(a.min), f(a.min)
	for i := 1; i <= trigSamples; i++ {
		x := a.min + w*float64(i)/trigSamples
		if i == trigSamples {
			x = a.max
		}
		v := f(x)
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return iv(math.Max(lo, -1), math.Min(hi, 1))
}

// mulBound multiplies interval endpoints treating 0·∞ as 0.
func mulBound(a, b float64) float64 {
	if a == 0 || b == 0 {
		return 0
	}
	return a * b
}

func min4(a, b, c, d float64) float64 { return math.Min(math.Min(a, b), math.Min(c, d)) }
func max4(a, b, c, d float64) float64 { return math.Max(math.Max(a, b), math.Max(c, d)) }
