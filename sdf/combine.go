package sdf

import (
	"fmt"
	"math"

	"github.com/soypat/sdfmesh"
	"github.com/soypat/sdfmesh/interval"
	"gonum.org/v1/gonum/spatial/r3"
)

// Min returns the union of nodes, the pointwise minimum of their fields.
// A single node is returned unchanged.
func Min(nodes ...Node) Node {
	if len(nodes) == 0 {
		panic("Min needs at least one sdf.Node")
	}
	checkArgs(nodes...)
	if len(nodes) == 1 {
		return nodes[0]
	}
	return &minimum{children: append([]Node(nil), nodes...)}
}

// Union is an alias of Min.
func Union(nodes ...Node) Node { return Min(nodes...) }

type minimum struct {
	children []Node
}

func (s *minimum) Evaluate(p r3.Vec) float64 {
	d := s.children[0].Evaluate(p)
	for _, c := range s.children[1:] {
		d = math.Min(d, c.Evaluate(p))
	}
	return d
}

func (s *minimum) Bounds(box r3.Box) interval.Interval {
	b := s.children[0].Bounds(box)
	for _, c := range s.children[1:] {
		b = b.Min(c.Bounds(box))
	}
	return b
}

// Content of a union. An inside child makes the union inside. A single face
// child remains a face only if no other child may come as close to the
// surface within the box.
func (s *minimum) Content(box r3.Box) (Content, bool) {
	return combine(s.children, box, ContentInside, ContentOutside, interval.Interval.Min)
}

// Max returns the intersection of nodes, the pointwise maximum of their fields.
// A single node is returned unchanged.
func Max(nodes ...Node) Node {
	if len(nodes) == 0 {
		panic("Max needs at least one sdf.Node")
	}
	checkArgs(nodes...)
	if len(nodes) == 1 {
		return nodes[0]
	}
	return &maximum{children: append([]Node(nil), nodes...)}
}

// Intersect is an alias of Max.
func Intersect(nodes ...Node) Node { return Max(nodes...) }

// Difference returns a with b carved out of it.
func Difference(a, b Node) Node {
	checkArgs(a, b)
	return Max(a, Face(Neg(b)))
}

type maximum struct {
	children []Node
}

func (s *maximum) Evaluate(p r3.Vec) float64 {
	d := s.children[0].Evaluate(p)
	for _, c := range s.children[1:] {
		d = math.Max(d, c.Evaluate(p))
	}
	return d
}

func (s *maximum) Bounds(box r3.Box) interval.Interval {
	b := s.children[0].Bounds(box)
	for _, c := range s.children[1:] {
		b = b.Max(c.Bounds(box))
	}
	return b
}

// Content of an intersection mirrors that of a union with inside and
// outside swapped.
func (s *maximum) Content(box r3.Box) (Content, bool) {
	return combine(s.children, box, ContentOutside, ContentInside, interval.Interval.Max)
}

// combine implements the content rules shared by Min and Max. dominant is the
// category that decides the result on its own (inside for a union) and
// rest is the category left when no face is present.
func combine(children []Node, box r3.Box, dominant, rest Category, fold func(a, b interval.Interval) interval.Interval) (Content, bool) {
	contents := make([]Content, len(children))
	for i, child := range children {
		c, ok := child.Content(box)
		if !ok {
			return Content{}, false
		}
		contents[i] = c
	}
	bounds := contents[0].Bounds
	feature := contents[0].MinFeatureSize
	for _, c := range contents[1:] {
		bounds = fold(bounds, c.Bounds)
		feature = minFeature(feature, c.MinFeatureSize)
	}
	result := Content{Bounds: bounds, MinFeatureSize: feature}
	face := -1
	for _, c := range contents {
		if c.Category == dominant {
			result.Category = dominant
			return result, true
		}
	}
	for i, c := range contents {
		switch c.Category {
		case ContentAmbiguous:
			result.Category = ContentAmbiguous
			return result, true
		case ContentFace:
			if face >= 0 {
				result.Category = ContentAmbiguous
				return result, true
			}
			face = i
		}
	}
	if face < 0 {
		result.Category = rest
		return result, true
	}
	f := contents[face]
	for i, c := range contents {
		if i != face && c.Bounds.Overlaps(f.Bounds) {
			result.Category = ContentAmbiguous
			return result, true
		}
	}
	f.Bounds = bounds
	return f, true
}

// minFeature returns the smallest known feature size, zero meaning unknown.
func minFeature(a, b float64) float64 {
	switch {
	case a <= 0:
		return b
	case b <= 0:
		return a
	}
	return math.Min(a, b)
}

// SmoothUnion returns the union of a and b blended over radius. The blend
// applies within [interval.NearZone]·radius of the surface.
func SmoothUnion(a, b Node, radius float64) (Node, error) {
	checkArgs(a, b)
	if !(radius > 0) || math.IsInf(radius, 0) {
		return nil, fmt.Errorf("%w: smooth union radius must be positive and finite, got %g", sdfmesh.ErrConfiguration, radius)
	}
	return &smoothUnion{a: a, b: b, radius: radius}, nil
}

type smoothUnion struct {
	a, b   Node
	radius float64
}

func (s *smoothUnion) Evaluate(p r3.Vec) float64 {
	return interval.SmoothMin(s.a.Evaluate(p), s.b.Evaluate(p), s.radius)
}

func (s *smoothUnion) Bounds(box r3.Box) interval.Interval {
	return interval.SmoothUnion(s.a.Bounds(box), s.b.Bounds(box), s.radius)
}

// Content classifies the blended surface as a face of its own.
func (s *smoothUnion) Content(box r3.Box) (Content, bool) {
	return faceContent(s, s.Bounds(box), s.radius), true
}

// Face marks n as a single surface: its content is classified over its own
// interval bounds and it is its own source.
func Face(n Node) Node {
	checkArgs(n)
	if f, ok := n.(*face); ok {
		return f
	}
	return &face{n: n}
}

type face struct {
	n Node
}

func (s *face) Evaluate(p r3.Vec) float64           { return s.n.Evaluate(p) }
func (s *face) Bounds(box r3.Box) interval.Interval { return s.n.Bounds(box) }
func (s *face) Content(box r3.Box) (Content, bool) {
	return faceContent(s, s.n.Bounds(box), 0), true
}
