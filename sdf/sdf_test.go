package sdf

import (
	"math"
	"math/rand"
	"testing"

	"github.com/soypat/sdfmesh"
	"github.com/soypat/sdfmesh/internal/d3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func cube(center r3.Vec, size float64) r3.Box {
	return r3.Box(d3.CenteredBox(center, size))
}

func TestSphereContent(t *testing.T) {
	s := Must(Sphere(1))
	for _, test := range []struct {
		name string
		box  r3.Box
		want Category
	}{
		{"outside", cube(r3.Vec{X: 3}, 1), ContentOutside},
		{"inside", cube(r3.Vec{}, 0.5), ContentInside},
		{"straddling", cube(r3.Vec{X: 1}, 0.5), ContentFace},
	} {
		t.Run(test.name, func(t *testing.T) {
			c := Classify(s, test.box)
			assert.Equal(t, test.want, c.Category)
			if test.want == ContentFace {
				require.NotNil(t, c.Source)
				assert.InDelta(t, 0, c.Source.Evaluate(r3.Vec{X: 1}), 1e-12)
			}
		})
	}
}

func TestBoundsSoundness(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	sphere := Must(Sphere(1))
	box := Must(Box(r3.Vec{X: 1, Y: 2, Z: 0.5}))
	torus := Must(Torus(1, 0.25))
	nodes := map[string]Node{
		"sphere":     sphere,
		"box":        box,
		"torus":      torus,
		"union":      Union(sphere, Translate(box, r3.Vec{X: 1})),
		"difference": Difference(box, sphere),
		"smooth":     Must(SmoothUnion(sphere, Translate(torus, r3.Vec{Z: 0.5}), 0.2)),
		"rotate":     Must(Rotate(box, 0.7, r3.Vec{X: 1, Y: 1})),
		"scale":      Must(Scale(torus, 2.5)),
		"bounded":    Must(Bounded(sphere, cube(r3.Vec{}, 2), 0.1)),
		"arith":      Add(Mul(X(), Y()), Div(Z(), Const(3))),
	}
	for name, n := range nodes {
		for i := 0; i < 300; i++ {
			center := r3.Vec{X: rng.Float64()*6 - 3, Y: rng.Float64()*6 - 3, Z: rng.Float64()*6 - 3}
			b := cube(center, rng.Float64()*2)
			bounds := n.Bounds(b)
			for j := 0; j < 20; j++ {
				p := r3.Vec{
					X: b.Min.X + rng.Float64()*(b.Max.X-b.Min.X),
					Y: b.Min.Y + rng.Float64()*(b.Max.Y-b.Min.Y),
					Z: b.Min.Z + rng.Float64()*(b.Max.Z-b.Min.Z),
				}
				v := n.Evaluate(p)
				if v < bounds.Lo()-1e-9 || v > bounds.Hi()+1e-9 {
					t.Fatalf("%s: value %g at %v outside bounds %v of box %v", name, v, p, bounds, b)
				}
			}
		}
	}
}

func TestMinContent(t *testing.T) {
	a := Must(Sphere(1))
	b := Translate(Must(Sphere(1)), r3.Vec{X: 5})

	// Box around the first sphere surface, far from the second.
	c := Classify(Union(a, b), cube(r3.Vec{X: -1}, 0.2))
	assert.Equal(t, ContentFace, c.Category)
	assert.Same(t, a, c.Source)

	// Box containing both surfaces.
	c = Classify(Union(a, b), cube(r3.Vec{X: 2.5}, 4))
	assert.Equal(t, ContentAmbiguous, c.Category)

	// Inside one sphere wins regardless of the other.
	c = Classify(Union(a, b), cube(r3.Vec{X: 5}, 0.3))
	assert.Equal(t, ContentInside, c.Category)

	c = Classify(Union(a, b), cube(r3.Vec{X: 2.5, Y: 5}, 0.3))
	assert.Equal(t, ContentOutside, c.Category)

	// A single face whose interval overlaps another child is ambiguous.
	big := Translate(Must(Sphere(1)), r3.Vec{X: 2.35})
	c = Classify(Union(a, big), cube(r3.Vec{X: 1}, 0.4))
	assert.Equal(t, ContentAmbiguous, c.Category)
}

func TestMaxContent(t *testing.T) {
	a := Must(Sphere(1))
	b := Translate(Must(Sphere(1)), r3.Vec{X: 1})
	// Far outside the intersection: outside wins.
	c := Classify(Intersect(a, b), cube(r3.Vec{X: -3}, 0.5))
	assert.Equal(t, ContentOutside, c.Category)
	// Deep inside both.
	c = Classify(Intersect(a, b), cube(r3.Vec{X: 0.5}, 0.2))
	assert.Equal(t, ContentInside, c.Category)
	// On the surface of b only, deep within a.
	c = Classify(Intersect(a, b), cube(r3.Vec{}, 0.1))
	assert.Equal(t, ContentFace, c.Category)
	assert.InDelta(t, 0, c.Source.Evaluate(r3.Vec{}), 1e-12)
}

func TestArithmeticHasNoContent(t *testing.T) {
	for _, n := range []Node{Const(1), X(), Add(X(), Y()), Sqrt(Z()), Min(X(), Y())} {
		_, ok := n.Content(cube(r3.Vec{}, 1))
		assert.False(t, ok)
	}
	// Classify falls back on the interval.
	c := Classify(Sub(X(), Const(10)), cube(r3.Vec{}, 1))
	assert.Equal(t, ContentInside, c.Category)
}

func TestTransformSourceWorldSpace(t *testing.T) {
	s := Must(Sphere(1))
	offset := r3.Vec{X: 3, Y: -1, Z: 2}
	rot := Must(Rotate(Translate(s, r3.Vec{X: 2}), math.Pi/2, r3.Vec{Z: 1}))
	scaled := Must(Scale(Translate(s, offset), 2))
	for _, test := range []struct {
		node Node
		p    r3.Vec
	}{
		{Translate(s, offset), r3.Add(offset, r3.Vec{Y: 1})},
		{rot, r3.Vec{Y: 3}},
		{scaled, r3.Scale(2, r3.Add(offset, r3.Vec{Z: 1}))},
	} {
		c := Classify(test.node, cube(test.p, 0.1))
		require.Equal(t, ContentFace, c.Category)
		assert.InDelta(t, 0, c.Source.Evaluate(test.p), 1e-9)
		assert.InDelta(t, test.node.Evaluate(test.p), c.Source.Evaluate(test.p), 1e-9)
	}
}

func TestScaleFeatureSize(t *testing.T) {
	u := Must(SmoothUnion(Must(Sphere(1)), Translate(Must(Sphere(1)), r3.Vec{X: 1.5}), 0.1))
	c := Classify(Must(Scale(u, 3)), cube(r3.Vec{X: -3}, 0.3))
	assert.Equal(t, ContentFace, c.Category)
	assert.InDelta(t, 0.3, c.MinFeatureSize, 1e-12)
}

func TestRotationSoundCorners(t *testing.T) {
	// A slab x <= 0 rotated 45 degrees about z. A per-axis rotation of the
	// query box would miss the corner reaching into the slab.
	slab := Face(X())
	r := Must(Rotate(slab, math.Pi/4, r3.Vec{Z: 1}))
	b := r3.Box{Min: r3.Vec{X: 0.1, Y: -1, Z: 0}, Max: r3.Vec{X: 1, Y: 0, Z: 1}}
	bounds := r.Bounds(b)
	for _, v := range d3.Box(b).Vertices() {
		assert.True(t, bounds.Contains(r.Evaluate(v)), "corner %v", v)
	}
}

func TestBoundedShortCircuit(t *testing.T) {
	calls := 0
	inner := &countingNode{Node: Must(Sphere(1)), calls: &calls}
	n := Must(Bounded(inner, cube(r3.Vec{}, 2), 0.5))
	c, ok := n.Content(cube(r3.Vec{X: 5}, 1))
	require.True(t, ok)
	assert.Equal(t, ContentOutside, c.Category)
	assert.Equal(t, 0, calls)
	assert.InDelta(t, 3.5, c.Bounds.Lo(), 1e-12)
	assert.True(t, math.IsInf(c.Bounds.Hi(), 1))

	c, ok = n.Content(cube(r3.Vec{X: 1}, 0.5))
	require.True(t, ok)
	assert.Equal(t, ContentFace, c.Category)
	assert.Positive(t, calls)
}

func TestInvalidParameters(t *testing.T) {
	_, err := Sphere(-1)
	assert.ErrorIs(t, err, sdfmesh.ErrConfiguration)
	_, err = SmoothUnion(X(), Y(), 0)
	assert.ErrorIs(t, err, sdfmesh.ErrConfiguration)
	_, err = Rotate(X(), 1, r3.Vec{})
	assert.ErrorIs(t, err, sdfmesh.ErrConfiguration)
	_, err = Scale(X(), -2)
	assert.ErrorIs(t, err, sdfmesh.ErrConfiguration)
	_, err = Torus(1, 2)
	assert.ErrorIs(t, err, sdfmesh.ErrConfiguration)
	_, err = Bounded(X(), cube(r3.Vec{}, 1), -1)
	assert.ErrorIs(t, err, sdfmesh.ErrConfiguration)
	assert.Panics(t, func() { Add(nil, X()) })
}

type countingNode struct {
	Node
	calls *int
}

func (c *countingNode) Content(box r3.Box) (Content, bool) {
	*c.calls++
	return c.Node.Content(box)
}
