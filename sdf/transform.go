package sdf

import (
	"fmt"
	"math"

	"github.com/soypat/sdfmesh"
	"github.com/soypat/sdfmesh/internal/d3"
	"github.com/soypat/sdfmesh/interval"
	"gonum.org/v1/gonum/spatial/r3"
)

// Transform nodes pull query points and boxes back into the child's frame.
// Content sources returned by the child are wrapped in the same transform so
// they keep evaluating in world coordinates.

// Translate moves n by offset.
func Translate(n Node, offset r3.Vec) Node {
	checkArgs(n)
	return &translate{n: n, offset: offset}
}

type translate struct {
	n      Node
	offset r3.Vec
}

func (s *translate) Evaluate(p r3.Vec) float64 {
	return s.n.Evaluate(r3.Sub(p, s.offset))
}

func (s *translate) local(box r3.Box) r3.Box {
	return r3.Box(d3.Box(box).Translate(r3.Scale(-1, s.offset)))
}

func (s *translate) Bounds(box r3.Box) interval.Interval {
	return s.n.Bounds(s.local(box))
}

func (s *translate) Content(box r3.Box) (Content, bool) {
	c, ok := s.n.Content(s.local(box))
	if ok && c.Source != nil {
		c.Source = &translate{n: c.Source, offset: s.offset}
	}
	return c, ok
}

// Rotate rotates n by angle radians about axis through the origin,
// counter-clockwise when looking down axis.
func Rotate(n Node, angle float64, axis r3.Vec) (Node, error) {
	checkArgs(n)
	norm := r3.Norm(axis)
	if norm == 0 || !d3.IsFinite(axis) || math.IsNaN(angle) || math.IsInf(angle, 0) {
		return nil, fmt.Errorf("%w: bad rotation angle %g axis %v", sdfmesh.ErrConfiguration, angle, axis)
	}
	axis = r3.Scale(1/norm, axis)
	return &rotate{
		n:     n,
		angle: angle,
		axis:  axis,
		inv:   r3.NewRotation(-angle, axis),
	}, nil
}

type rotate struct {
	n     Node
	angle float64
	axis  r3.Vec
	// inv maps world points to the child's frame.
	inv r3.Rotation
}

func (s *rotate) Evaluate(p r3.Vec) float64 {
	return s.n.Evaluate(s.inv.Rotate(p))
}

// local encloses the rotated box by rotating all of its corners. Rotating
// each axis interval separately would not be sound.
func (s *rotate) local(box r3.Box) r3.Box {
	return r3.Box(d3.Box(box).TransformBounds(s.inv.Rotate))
}

func (s *rotate) Bounds(box r3.Box) interval.Interval {
	return s.n.Bounds(s.local(box))
}

func (s *rotate) Content(box r3.Box) (Content, bool) {
	c, ok := s.n.Content(s.local(box))
	if ok && c.Source != nil {
		c.Source = &rotate{n: c.Source, angle: s.angle, axis: s.axis, inv: s.inv}
	}
	return c, ok
}

// Scale scales n uniformly about the origin by k. The field is scaled as
// well so distances remain distances.
func Scale(n Node, k float64) (Node, error) {
	checkArgs(n)
	if !(k > 0) || math.IsInf(k, 0) {
		return nil, fmt.Errorf("%w: scale factor must be positive and finite, got %g", sdfmesh.ErrConfiguration, k)
	}
	return &scale{n: n, k: k}, nil
}

type scale struct {
	n Node
	k float64
}

func (s *scale) Evaluate(p r3.Vec) float64 {
	return s.k * s.n.Evaluate(r3.Scale(1/s.k, p))
}

func (s *scale) local(box r3.Box) r3.Box {
	return r3.Box(d3.Box(box).ScaleUniform(1 / s.k))
}

func (s *scale) Bounds(box r3.Box) interval.Interval {
	return s.n.Bounds(s.local(box)).Scale(s.k)
}

func (s *scale) Content(box r3.Box) (Content, bool) {
	c, ok := s.n.Content(s.local(box))
	if !ok {
		return c, false
	}
	c.Bounds = c.Bounds.Scale(s.k)
	c.MinFeatureSize *= s.k
	if c.Source != nil {
		c.Source = &scale{n: c.Source, k: s.k}
	}
	return c, true
}
