package sdf

import (
	"errors"
	"math"

	"github.com/soypat/sdfmesh/interval"
	"gonum.org/v1/gonum/spatial/r3"
)

// Arithmetic nodes carry no surface information: their Content is never ok.

// Const returns a node that evaluates to v everywhere.
func Const(v float64) Node { return constant(v) }

type constant float64

func (c constant) Evaluate(r3.Vec) float64         { return float64(c) }
func (c constant) Bounds(r3.Box) interval.Interval { return interval.Point(float64(c)) }
func (c constant) Content(r3.Box) (Content, bool)  { return Content{}, false }

// X returns the x coordinate variable.
func X() Node { return variable(0) }

// Y returns the y coordinate variable.
func Y() Node { return variable(1) }

// Z returns the z coordinate variable.
func Z() Node { return variable(2) }

type variable int

func (v variable) Evaluate(p r3.Vec) float64 {
	switch v {
	case 0:
		return p.X
	case 1:
		return p.Y
	}
	return p.Z
}

func (v variable) Bounds(box r3.Box) interval.Interval {
	switch v {
	case 0:
		return interval.MustNew(box.Min.X, box.Max.X)
	case 1:
		return interval.MustNew(box.Min.Y, box.Max.Y)
	}
	return interval.MustNew(box.Min.Z, box.Max.Z)
}

func (v variable) Content(r3.Box) (Content, bool) { return Content{}, false }

var errNilNode = errors.New("nil sdf.Node argument")

func checkArgs(nodes ...Node) {
	for _, n := range nodes {
		if n == nil {
			panic(errNilNode)
		}
	}
}

// Add returns a+b.
func Add(a, b Node) Node {
	checkArgs(a, b)
	return &add{a: a, b: b}
}

type add struct{ a, b Node }

func (s *add) Evaluate(p r3.Vec) float64 { return s.a.Evaluate(p) + s.b.Evaluate(p) }
func (s *add) Bounds(box r3.Box) interval.Interval {
	return s.a.Bounds(box).Add(s.b.Bounds(box))
}
func (s *add) Content(r3.Box) (Content, bool) { return Content{}, false }

// Sub returns a-b.
func Sub(a, b Node) Node {
	checkArgs(a, b)
	return &sub{a: a, b: b}
}

type sub struct{ a, b Node }

func (s *sub) Evaluate(p r3.Vec) float64 { return s.a.Evaluate(p) - s.b.Evaluate(p) }
func (s *sub) Bounds(box r3.Box) interval.Interval {
	return s.a.Bounds(box).Sub(s.b.Bounds(box))
}
func (s *sub) Content(r3.Box) (Content, bool) { return Content{}, false }

// Mul returns a*b.
func Mul(a, b Node) Node {
	checkArgs(a, b)
	return &mul{a: a, b: b}
}

type mul struct{ a, b Node }

func (s *mul) Evaluate(p r3.Vec) float64 { return s.a.Evaluate(p) * s.b.Evaluate(p) }
func (s *mul) Bounds(box r3.Box) interval.Interval {
	return s.a.Bounds(box).Mul(s.b.Bounds(box))
}
func (s *mul) Content(r3.Box) (Content, bool) { return Content{}, false }

// Div returns a/b. Its bounds widen to the entire real line where b may be zero.
func Div(a, b Node) Node {
	checkArgs(a, b)
	return &div{a: a, b: b}
}

type div struct{ a, b Node }

func (s *div) Evaluate(p r3.Vec) float64 { return s.a.Evaluate(p) / s.b.Evaluate(p) }
func (s *div) Bounds(box r3.Box) interval.Interval {
	return s.a.Bounds(box).Div(s.b.Bounds(box))
}
func (s *div) Content(r3.Box) (Content, bool) { return Content{}, false }

// Neg returns -a.
func Neg(a Node) Node {
	checkArgs(a)
	return &neg{a: a}
}

type neg struct{ a Node }

func (s *neg) Evaluate(p r3.Vec) float64           { return -s.a.Evaluate(p) }
func (s *neg) Bounds(box r3.Box) interval.Interval { return s.a.Bounds(box).Neg() }
func (s *neg) Content(r3.Box) (Content, bool)      { return Content{}, false }

// Sin returns sin(a). Its bounds are sampled and not certified.
func Sin(a Node) Node {
	checkArgs(a)
	return &sin{a: a}
}

type sin struct{ a Node }

func (s *sin) Evaluate(p r3.Vec) float64           { return math.Sin(s.a.Evaluate(p)) }
func (s *sin) Bounds(box r3.Box) interval.Interval { return s.a.Bounds(box).Sin() }
func (s *sin) Content(r3.Box) (Content, bool)      { return Content{}, false }

// Cos returns cos(a). Its bounds are sampled and not certified.
func Cos(a Node) Node {
	checkArgs(a)
	return &cos{a: a}
}

type cos struct{ a Node }

func (s *cos) Evaluate(p r3.Vec) float64           { return math.Cos(s.a.Evaluate(p)) }
func (s *cos) Bounds(box r3.Box) interval.Interval { return s.a.Bounds(box).Cos() }
func (s *cos) Content(r3.Box) (Content, bool)      { return Content{}, false }

// Sqrt returns the square root of a, clamping negative values to zero.
func Sqrt(a Node) Node {
	checkArgs(a)
	return &sqrt{a: a}
}

type sqrt struct{ a Node }

func (s *sqrt) Evaluate(p r3.Vec) float64           { return math.Sqrt(math.Max(s.a.Evaluate(p), 0)) }
func (s *sqrt) Bounds(box r3.Box) interval.Interval { return s.a.Bounds(box).Sqrt() }
func (s *sqrt) Content(r3.Box) (Content, bool)      { return Content{}, false }

// Sqr returns a².
func Sqr(a Node) Node {
	checkArgs(a)
	return &sqr{a: a}
}

type sqr struct{ a Node }

func (s *sqr) Evaluate(p r3.Vec) float64 {
	v := s.a.Evaluate(p)
	return v * v
}
func (s *sqr) Bounds(box r3.Box) interval.Interval { return s.a.Bounds(box).Sqr() }
func (s *sqr) Content(r3.Box) (Content, bool)      { return Content{}, false }

// Log returns the natural logarithm of a. Non-positive values yield -Inf.
func Log(a Node) Node {
	checkArgs(a)
	return &log{a: a}
}

type log struct{ a Node }

func (s *log) Evaluate(p r3.Vec) float64           { return math.Log(math.Max(s.a.Evaluate(p), 0)) }
func (s *log) Bounds(box r3.Box) interval.Interval { return s.a.Bounds(box).Log() }
func (s *log) Content(r3.Box) (Content, bool)      { return Content{}, false }

// Exp returns e^a.
func Exp(a Node) Node {
	checkArgs(a)
	return &exp{a: a}
}

type exp struct{ a Node }

func (s *exp) Evaluate(p r3.Vec) float64           { return math.Exp(s.a.Evaluate(p)) }
func (s *exp) Bounds(box r3.Box) interval.Interval { return s.a.Bounds(box).Exp() }
func (s *exp) Content(r3.Box) (Content, bool)      { return Content{}, false }

// Abs returns |a|.
func Abs(a Node) Node {
	checkArgs(a)
	return &abs{a: a}
}

type abs struct{ a Node }

func (s *abs) Evaluate(p r3.Vec) float64           { return math.Abs(s.a.Evaluate(p)) }
func (s *abs) Bounds(box r3.Box) interval.Interval { return s.a.Bounds(box).Abs() }
func (s *abs) Content(r3.Box) (Content, bool)      { return Content{}, false }
