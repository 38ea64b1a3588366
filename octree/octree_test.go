package octree

import (
	"errors"
	"math"
	"testing"

	"github.com/soypat/sdfmesh"
	"github.com/soypat/sdfmesh/internal/d3"
	"github.com/soypat/sdfmesh/sdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func unitSphere(t *testing.T) sdf.Node {
	t.Helper()
	s, err := sdf.Sphere(1)
	require.NoError(t, err)
	return s
}

func build(t *testing.T, s sdf.Node, size, minSize float64, cells int) *Tree {
	t.Helper()
	budget, err := NewBudget(cells)
	require.NoError(t, err)
	tree, err := Build(s, r3.Vec{}, size, minSize, budget)
	require.NoError(t, err)
	return tree
}

func TestUniformBoundaryLeaves(t *testing.T) {
	tree := build(t, unitSphere(t), 4, 0.1, 1_000_000)
	st := tree.Stats()
	require.Positive(t, st.Boundary)
	assert.Equal(t, st.MinBoundaryDepth, st.MaxBoundaryDepth)
	assert.LessOrEqual(t, tree.CellSize(st.MaxBoundaryDepth), 0.1)
	assert.Greater(t, tree.CellSize(st.MaxBoundaryDepth), 0.05)
	assert.Equal(t, st.Cells, st.Outside+st.Inside+st.Boundary+st.Subdivided)
	assert.Equal(t, st.Cells, 1+8*st.Subdivided)

	// Every boundary leaf box must come close to the surface.
	diag := math.Sqrt(3) * tree.CellSize(st.MaxBoundaryDepth)
	err := tree.Walk(func(k Key, c *Cell) error {
		if c.State != Boundary {
			return nil
		}
		center := d3.Box(tree.Box(k)).Center()
		if math.Abs(r3.Norm(center)-1) > diag {
			return errors.New("boundary leaf far from surface")
		}
		return nil
	})
	assert.NoError(t, err)
}

func TestCellCountScalesWithArea(t *testing.T) {
	s := unitSphere(t)
	var counts []int
	for _, minSize := range []float64{0.2, 0.1, 0.05} {
		counts = append(counts, build(t, s, 4, minSize, 10_000_000).Stats().Cells)
	}
	for i := 1; i < len(counts); i++ {
		ratio := float64(counts[i]) / float64(counts[i-1])
		// Halving the cell size multiplies volume cells by 8 but surface cells by 4.
		assert.Less(t, ratio, 6.0, "counts %v", counts)
		assert.Greater(t, ratio, 2.0, "counts %v", counts)
	}
}

func TestBudgetExhausted(t *testing.T) {
	budget, err := NewBudget(16)
	require.NoError(t, err)
	_, err = Build(unitSphere(t), r3.Vec{}, 4, 0.01, budget)
	assert.ErrorIs(t, err, sdfmesh.ErrBudgetExhausted)
	assert.Less(t, budget.Remaining(), 8)
}

func TestBuildConfiguration(t *testing.T) {
	s := unitSphere(t)
	budget, err := NewBudget(100)
	require.NoError(t, err)
	for name, fn := range map[string]func() error{
		"zero size":   func() error { _, err := Build(s, r3.Vec{}, 0, 0.1, budget); return err },
		"nan min":     func() error { _, err := Build(s, r3.Vec{}, 1, math.NaN(), budget); return err },
		"nil budget":  func() error { _, err := Build(s, r3.Vec{}, 1, 0.1, nil); return err },
		"too deep":    func() error { _, err := Build(s, r3.Vec{}, 1, 1e-300, budget); return err },
		"zero budget": func() error { _, err := NewBudget(0); return err },
	} {
		assert.ErrorIs(t, fn(), sdfmesh.ErrConfiguration, name)
	}
}

func TestMinSizeAboveRoot(t *testing.T) {
	tree := build(t, unitSphere(t), 4, 8, 10)
	assert.Equal(t, Boundary, tree.Root.State)
	assert.True(t, tree.Root.IsLeaf())
}

func TestOutsideRoot(t *testing.T) {
	s := sdf.Translate(unitSphere(t), r3.Vec{X: 10})
	tree := build(t, s, 4, 0.1, 10)
	assert.Equal(t, Outside, tree.Root.State)
	assert.Equal(t, 1, tree.Stats().Cells)
}

func TestKey(t *testing.T) {
	k := Key{X: 1, Y: 2, Z: 3, Depth: 2}
	for i := 0; i < 8; i++ {
		c := k.Child(i)
		assert.Equal(t, i, c.Octant())
		assert.Equal(t, k, c.Parent())
	}
	assert.Equal(t, Key{}, Key{}.Parent())
	assert.Equal(t, Key{X: 0, Y: 2, Z: 3, Depth: 2}, k.Step(NegX))
	assert.Equal(t, Key{X: 1, Y: 2, Z: 4, Depth: 2}, k.Step(PosZ))
	for _, d := range Directions {
		assert.Equal(t, d, d.Opposite().Opposite())
		assert.Equal(t, d.Axis(), d.Opposite().Axis())
		assert.Equal(t, -d.Sign(), d.Opposite().Sign())
	}
}

func TestBoxGeometry(t *testing.T) {
	tree := build(t, unitSphere(t), 4, 1, 1000)
	root := tree.Bounds()
	assert.Equal(t, r3.Vec{X: -2, Y: -2, Z: -2}, root.Min)
	assert.Equal(t, r3.Vec{X: 2, Y: 2, Z: 2}, root.Max)
	b := tree.Box(Key{}.Child(5))
	assert.Equal(t, r3.Vec{X: 0, Y: -2, Z: 0}, b.Min)
	assert.Equal(t, r3.Vec{X: 2, Y: 0, Z: 2}, b.Max)
}

func TestNeighborAt(t *testing.T) {
	tree := build(t, unitSphere(t), 4, 0.25, 1_000_000)
	var checked int
	err := tree.Walk(func(k Key, c *Cell) error {
		if !c.IsLeaf() {
			return nil
		}
		box := d3.Box(tree.Box(k))
		size := box.Size().X
		for _, d := range Directions {
			n, nk, err := tree.NeighborAt(k, d)
			// Point just across the face center.
			across := d3.SetComponent(box.Center(), d.Axis(), d3.Component(box.Center(), d.Axis())+float64(d.Sign())*(size/2+1e-9))
			if !tree.Bounds().Contains(across) {
				if !errors.Is(err, ErrDomainBoundary) {
					return err
				}
				continue
			}
			if err != nil {
				return err
			}
			if nk.Depth > k.Depth {
				return errors.New("neighbor deeper than cell")
			}
			if !tree.Box(nk).Contains(across) {
				return errors.New("neighbor does not share face")
			}
			if tree.Cell(nk) != n {
				return errors.New("neighbor key does not address neighbor cell")
			}
			checked++
		}
		return nil
	})
	require.NoError(t, err)
	assert.Positive(t, checked)
}

func TestNeighborInvalidTopology(t *testing.T) {
	tree := build(t, unitSphere(t), 4, 1, 1000)
	require.Equal(t, BoundarySubdivided, tree.Root.State)
	tree.Root.Children[1].Children = nil
	_, _, err := tree.NeighborAt(Key{Depth: 1}, PosX)
	assert.ErrorIs(t, err, sdfmesh.ErrInvalidTopology)
}

func TestDisjointUnion(t *testing.T) {
	a := unitSphere(t)
	b := sdf.Translate(unitSphere(t), r3.Vec{X: 2.5})
	union := sdf.Union(a, b)
	tree := build(t, sdf.Translate(union, r3.Vec{X: -1.25}), 8, 0.125, 10_000_000)
	st := tree.Stats()
	assert.Equal(t, st.MinBoundaryDepth, st.MaxBoundaryDepth)
	single := build(t, sdf.Translate(a, r3.Vec{X: -1.25}), 8, 0.125, 10_000_000).Stats()
	assert.Greater(t, st.Boundary, single.Boundary)
	assert.Less(t, st.Boundary, 3*single.Boundary)
}
