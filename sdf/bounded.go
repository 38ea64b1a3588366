package sdf

import (
	"fmt"
	"math"

	"github.com/soypat/sdfmesh"
	"github.com/soypat/sdfmesh/internal/d3"
	"github.com/soypat/sdfmesh/interval"
	"gonum.org/v1/gonum/spatial/r3"
)

// Bounded filters queries against n by the constant box aabb, which must
// enclose every point where n is negative or zero, and n must not
// overestimate distance. Query boxes farther than margin from aabb are
// reported outside without evaluating n.
func Bounded(n Node, aabb r3.Box, margin float64) (Node, error) {
	checkArgs(n)
	if !d3.IsFinite(aabb.Min) || !d3.IsFinite(aabb.Max) ||
		aabb.Min.X > aabb.Max.X || aabb.Min.Y > aabb.Max.Y || aabb.Min.Z > aabb.Max.Z {
		return nil, fmt.Errorf("%w: bad bounding box %v", sdfmesh.ErrConfiguration, aabb)
	}
	if !(margin >= 0) || math.IsInf(margin, 0) {
		return nil, fmt.Errorf("%w: bounding margin must be non-negative, got %g", sdfmesh.ErrConfiguration, margin)
	}
	return &bounded{n: n, aabb: d3.Box(aabb), expanded: d3.Box(aabb).Enlarge(margin)}, nil
}

type bounded struct {
	n        Node
	aabb     d3.Box
	expanded d3.Box
}

func (s *bounded) Evaluate(p r3.Vec) float64 { return s.n.Evaluate(p) }

// far returns the distance lower bound for a box missing the expanded aabb.
func (s *bounded) far(box r3.Box) (interval.Interval, bool) {
	if s.expanded.Intersects(d3.Box(box)) {
		return interval.Interval{}, false
	}
	return interval.MustNew(s.aabb.Distance(d3.Box(box)), math.Inf(1)), true
}

func (s *bounded) Bounds(box r3.Box) interval.Interval {
	if b, ok := s.far(box); ok {
		return b
	}
	return s.n.Bounds(box)
}

func (s *bounded) Content(box r3.Box) (Content, bool) {
	if b, ok := s.far(box); ok {
		return Content{Category: ContentOutside, Bounds: b}, true
	}
	return s.n.Content(box)
}
