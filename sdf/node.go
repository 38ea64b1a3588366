// Package sdf implements signed distance field expression trees.
//
// A tree is built from nodes, one concrete type per operator. Every node can
// be evaluated at a point, bounded over an axis aligned box with interval
// arithmetic and asked to classify a box region by its content. Trees are
// immutable once built and safe to share.
package sdf

import (
	"strconv"

	"github.com/soypat/sdfmesh/interval"
	"gonum.org/v1/gonum/spatial/r3"
)

// Node is a signed distance field expression. Distances are negative inside
// the solid.
type Node interface {
	// Evaluate returns the field value at p.
	Evaluate(p r3.Vec) float64
	// Bounds returns an interval containing Evaluate(p) for every p in box.
	Bounds(box r3.Box) interval.Interval
	// Content classifies box. ok is false when the node carries no
	// information about where a surface lies, as is the case for plain
	// arithmetic.
	Content(box r3.Box) (c Content, ok bool)
}

// Category is the classification of a box region.
type Category uint8

const (
	// ContentFace means the box may contain the surface of a single face.
	ContentFace Category = iota
	// ContentAmbiguous means more than one surface may be near the box.
	ContentAmbiguous
	// ContentInside means the box lies entirely within the solid.
	ContentInside
	// ContentOutside means the box lies entirely outside the solid.
	ContentOutside
)

func (c Category) String() string {
	switch c {
	case ContentFace:
		return "face"
	case ContentAmbiguous:
		return "ambiguous"
	case ContentInside:
		return "inside"
	case ContentOutside:
		return "outside"
	}
	return "Category(" + strconv.Itoa(int(c)) + ")"
}

// Content is the result of classifying a box against a node.
type Content struct {
	Category Category
	// Source is the node that alone determines the field within the box for
	// ContentFace results. It evaluates in world coordinates.
	Source Node
	// Bounds is an interval estimate of the field over the box.
	Bounds interval.Interval
	// MinFeatureSize is the smallest feature the content may have, zero if unknown.
	MinFeatureSize float64
}

// Classify returns n's content over box. Nodes reporting no content are
// treated as a single face over their own interval bounds.
func Classify(n Node, box r3.Box) Content {
	c, ok := n.Content(box)
	if ok {
		return c
	}
	return faceContent(n, n.Bounds(box), 0)
}

// faceContent classifies a surface-carrying node by its interval.
func faceContent(self Node, b interval.Interval, featureSize float64) Content {
	c := Content{Bounds: b, MinFeatureSize: featureSize}
	switch {
	case b.Hi() < 0:
		c.Category = ContentInside
	case b.Lo() > 0:
		c.Category = ContentOutside
	default:
		c.Category = ContentFace
		c.Source = self
	}
	return c
}

// Must panics if err is not nil. It is meant for static tree construction.
func Must(n Node, err error) Node {
	if err != nil {
		panic(err)
	}
	return n
}
