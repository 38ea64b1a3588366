package meshgen

import (
	"math"

	"github.com/soypat/sdfmesh/sdf"
	"gonum.org/v1/gonum/spatial/r3"
)

// projector moves points onto the zero level set by gradient descent.
type projector struct {
	s   sdf.Node
	cfg ProjectionConfig
	// missed counts projections that ended without reaching Epsilon.
	missed int
}

// project repeatedly steps p by -f(p) along the normalized central
// difference gradient of f. It stops once |f(p)| falls below Epsilon, after
// MaxIterations steps or at a degenerate gradient. The last two count as
// missed.
func (pr *projector) project(p r3.Vec) r3.Vec {
	h := pr.cfg.Step
	step := r3.Vec{X: h, Y: h, Z: h}
	for i := 0; ; i++ {
		d := pr.s.Evaluate(p)
		if math.Abs(d) < pr.cfg.Epsilon {
			return p
		}
		if i == pr.cfg.MaxIterations || math.IsNaN(d) || math.IsInf(d, 0) {
			break
		}
		g := r3.Gradient(p, step, pr.s.Evaluate)
		n := r3.Norm(g)
		if n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
			break
		}
		p = r3.Sub(p, r3.Scale(d/n, g))
	}
	pr.missed++
	return p
}
