package d3

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Box is a 3d axis aligned box.
type Box r3.Box

// CenteredBox creates a cube with a given center and edge length.
func CenteredBox(center r3.Vec, size float64) Box {
	half := Elem(size / 2)
	return Box{Min: r3.Sub(center, half), Max: r3.Add(center, half)}
}

// Size returns the size of a 3d box.
func (a Box) Size() r3.Vec {
	return r3.Sub(a.Max, a.Min)
}

// Center returns the center of a 3d box.
func (a Box) Center() r3.Vec {
	return r3.Add(a.Min, r3.Scale(0.5, a.Size()))
}

// Translate translates a 3d box.
func (a Box) Translate(v r3.Vec) Box {
	return Box{r3.Add(a.Min, v), r3.Add(a.Max, v)}
}

// ScaleUniform scales both box corners by k > 0 about the origin.
func (a Box) ScaleUniform(k float64) Box {
	return Box{Min: r3.Scale(k, a.Min), Max: r3.Scale(k, a.Max)}
}

// Enlarge returns a box grown by margin on every side.
func (a Box) Enlarge(margin float64) Box {
	m := Elem(margin)
	return Box{Min: r3.Sub(a.Min, m), Max: r3.Add(a.Max, m)}
}

// Include enlarges a 3d box to include a point.
func (a Box) Include(v r3.Vec) Box {
	return Box{
		Min: MinElem(a.Min, v),
		Max: MaxElem(a.Max, v),
	}
}

// Intersects reports whether the closed boxes a and b share at least one point.
func (a Box) Intersects(b Box) bool {
	return a.Min.X <= b.Max.X && b.Min.X <= a.Max.X &&
		a.Min.Y <= b.Max.Y && b.Min.Y <= a.Max.Y &&
		a.Min.Z <= b.Max.Z && b.Min.Z <= a.Max.Z
}

// Distance returns the minimum euclidean distance between points of a and b.
// It is zero for intersecting boxes.
func (a Box) Distance(b Box) float64 {
	gap := func(amin, amax, bmin, bmax float64) float64 {
		return math.Max(0, math.Max(bmin-amax, amin-bmax))
	}
	return r3.Norm(r3.Vec{
		X: gap(a.Min.X, a.Max.X, b.Min.X, b.Max.X),
		Y: gap(a.Min.Y, a.Max.Y, b.Min.Y, b.Max.Y),
		Z: gap(a.Min.Z, a.Max.Z, b.Min.Z, b.Max.Z),
	})
}

// Vertices returns the 8 box corners. Corner i takes the Max component on
// axis j when bit j of i is set, matching octant numbering.
func (a Box) Vertices() [8]r3.Vec {
	var v [8]r3.Vec
	for i := range v {
		v[i] = a.Min
		if i&1 != 0 {
			v[i].X = a.Max.X
		}
		if i&2 != 0 {
			v[i].Y = a.Max.Y
		}
		if i&4 != 0 {
			v[i].Z = a.Max.Z
		}
	}
	return v
}

// Octant returns the child box of index i when the box is split in halves
// along every axis. Bit j of i selects the upper half of axis j.
func (a Box) Octant(i int) Box {
	c := a.Center()
	b := Box{Min: a.Min, Max: c}
	if i&1 != 0 {
		b.Min.X, b.Max.X = c.X, a.Max.X
	}
	if i&2 != 0 {
		b.Min.Y, b.Max.Y = c.Y, a.Max.Y
	}
	if i&4 != 0 {
		b.Min.Z, b.Max.Z = c.Z, a.Max.Z
	}
	return b
}

// TransformBounds maps the 8 corners of a through f and returns the axis
// aligned box enclosing the results. For affine f this encloses the image
// of the whole box.
func (a Box) TransformBounds(f func(r3.Vec) r3.Vec) Box {
	v := a.Vertices()
	p := f(v[0])
	out := Box{Min: p, Max: p}
	for _, c := range v[1:] {
		out = out.Include(f(c))
	}
	return out
}
