package d3

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestOctantsTileBox(t *testing.T) {
	b := CenteredBox(r3.Vec{X: 1, Y: -2, Z: 3}, 4)
	var vol float64
	for i := 0; i < 8; i++ {
		o := b.Octant(i)
		s := o.Size()
		if s != Elem(2) {
			t.Fatalf("octant %d has size %v", i, s)
		}
		if !r3.Box(b).Contains(o.Min) || !r3.Box(b).Contains(o.Max) {
			t.Fatalf("octant %d escapes parent box", i)
		}
		vol += s.X * s.Y * s.Z
		v := b.Vertices()[i]
		if !r3.Box(o).Contains(v) {
			t.Errorf("octant %d does not contain corner %d", i, i)
		}
	}
	if vol != 64 {
		t.Errorf("octant volume %g, want 64", vol)
	}
}

func TestDistance(t *testing.T) {
	a := Box{Min: r3.Vec{}, Max: Elem(1)}
	b := a.Translate(r3.Vec{X: 4, Y: 5})
	if got := a.Distance(b); got != 5 {
		t.Errorf("got distance %g, want 5", got)
	}
	if got := a.Distance(a.Translate(Elem(0.5))); got != 0 {
		t.Errorf("overlapping boxes got distance %g", got)
	}
	if a.Intersects(b) {
		t.Error("disjoint boxes intersect")
	}
}

func TestTransformBounds(t *testing.T) {
	a := Box{Min: Elem(-1), Max: Elem(1)}
	got := a.TransformBounds(func(v r3.Vec) r3.Vec { return r3.Scale(2, v) })
	if got.Min != Elem(-2) || got.Max != Elem(2) {
		t.Errorf("unexpected bounds %+v", got)
	}
}
