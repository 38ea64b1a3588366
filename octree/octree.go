// Package octree builds adaptive octrees over signed distance fields.
//
// Cells are classified by the content of the field over their box. Cells
// that may contain the surface are subdivided until they reach a minimum
// size, so that every Boundary leaf of a finished tree has the same size.
// Subdivision draws from a shared cell budget and running out of it fails
// the whole build.
package octree

import (
	"errors"
	"fmt"
	"math"

	"github.com/soypat/sdfmesh"
	"github.com/soypat/sdfmesh/internal/d3"
	"github.com/soypat/sdfmesh/sdf"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrDomainBoundary is returned by neighbor lookups that leave the root cube.
var ErrDomainBoundary = errors.New("octree: neighbor outside domain")

// maxDepth bounds the tree depth so cell keys fit in an int.
const maxDepth = 48

// State is the classification of a cell.
type State uint8

const (
	Outside State = iota
	Inside
	// Boundary is a leaf that may contain the surface.
	Boundary
	// BoundarySubdivided is an internal cell with 8 children.
	BoundarySubdivided
)

func (s State) String() string {
	switch s {
	case Outside:
		return "outside"
	case Inside:
		return "inside"
	case Boundary:
		return "boundary"
	case BoundarySubdivided:
		return "boundary-subdivided"
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// Cell is an octree node. Children is non-nil only for BoundarySubdivided
// cells and is indexed by octant: bit 0 selects the upper x half, bit 1 the
// upper y half and bit 2 the upper z half.
type Cell struct {
	State    State
	Children *[8]Cell
}

// IsLeaf reports whether c has no children.
func (c *Cell) IsLeaf() bool { return c.Children == nil }

// Budget limits the number of cells created during a build.
type Budget struct {
	remaining int
}

// NewBudget returns a budget allowing the creation of cells cells.
func NewBudget(cells int) (*Budget, error) {
	if cells <= 0 {
		return nil, fmt.Errorf("%w: cell budget must be positive, got %d", sdfmesh.ErrConfiguration, cells)
	}
	return &Budget{remaining: cells}, nil
}

// Remaining returns the number of cells that may still be created.
func (b *Budget) Remaining() int { return b.remaining }

// take consumes n cells from the budget if available.
func (b *Budget) take(n int) bool {
	if b.remaining < n {
		return false
	}
	b.remaining -= n
	return true
}

// Tree is a classified octree over a cubic root region. Cell geometry is
// implicit: it follows from the root cube and a cell's Key.
type Tree struct {
	Root    Cell
	origin  r3.Vec
	size    float64
	minSize float64
}

// Build classifies the cube of edge length size centered at center against s
// and subdivides every cell that may contain the surface until cells are at
// most minSize long. Each subdivision takes 8 cells from budget. If the
// budget cannot cover a required subdivision Build fails with
// [sdfmesh.ErrBudgetExhausted] instead of returning a partial tree.
func Build(s sdf.Node, center r3.Vec, size, minSize float64, budget *Budget) (*Tree, error) {
	switch {
	case s == nil:
		return nil, fmt.Errorf("%w: nil sdf", sdfmesh.ErrConfiguration)
	case budget == nil:
		return nil, fmt.Errorf("%w: nil budget", sdfmesh.ErrConfiguration)
	case !d3.IsFinite(center):
		return nil, fmt.Errorf("%w: root center %v not finite", sdfmesh.ErrConfiguration, center)
	case !(size > 0) || math.IsInf(size, 0):
		return nil, fmt.Errorf("%w: root size must be positive and finite, got %g", sdfmesh.ErrConfiguration, size)
	case !(minSize > 0) || math.IsInf(minSize, 0):
		return nil, fmt.Errorf("%w: minimum cell size must be positive and finite, got %g", sdfmesh.ErrConfiguration, minSize)
	case math.Log2(size/minSize) > maxDepth:
		return nil, fmt.Errorf("%w: root size %g over minimum size %g exceeds %d levels", sdfmesh.ErrConfiguration, size, minSize, maxDepth)
	}
	t := &Tree{
		origin:  r3.Sub(center, d3.Elem(size/2)),
		size:    size,
		minSize: minSize,
	}
	b := builder{tree: t, budget: budget}
	if err := b.build(&t.Root, Key{}, s); err != nil {
		return nil, err
	}
	return t, nil
}

type builder struct {
	tree   *Tree
	budget *Budget
}

func (b *builder) build(c *Cell, k Key, s sdf.Node) error {
	box := b.tree.Box(k)
	content := sdf.Classify(s, box)
	switch content.Category {
	case sdf.ContentInside:
		c.State = Inside
		return nil
	case sdf.ContentOutside:
		c.State = Outside
		return nil
	}
	if b.tree.CellSize(k.Depth) <= b.tree.minSize {
		// Ambiguous content may still be settled by the interval bound.
		switch {
		case content.Bounds.Lo() > 0:
			c.State = Outside
		case content.Bounds.Hi() < 0:
			c.State = Inside
		default:
			c.State = Boundary
		}
		return nil
	}
	if !b.budget.take(8) {
		return fmt.Errorf("%w: subdividing cell %v with %d cells left", sdfmesh.ErrBudgetExhausted, k, b.budget.Remaining())
	}
	if content.Category == sdf.ContentFace && content.Source != nil {
		// Within this cell the field equals the face source.
		s = content.Source
	}
	c.State = BoundarySubdivided
	c.Children = new([8]Cell)
	for i := range c.Children {
		if err := b.build(&c.Children[i], k.Child(i), s); err != nil {
			return err
		}
	}
	return nil
}

// Size returns the root cube edge length.
func (t *Tree) Size() float64 { return t.size }

// MinSize returns the minimum cell size the tree was built with.
func (t *Tree) MinSize() float64 { return t.minSize }

// Bounds returns the root cube.
func (t *Tree) Bounds() r3.Box { return t.Box(Key{}) }

// CellSize returns the edge length of cells at depth.
func (t *Tree) CellSize(depth uint) float64 { return math.Ldexp(t.size, -int(depth)) }

// Box returns the region covered by the cell at k.
func (t *Tree) Box(k Key) r3.Box {
	s := t.CellSize(k.Depth)
	min := r3.Add(t.origin, r3.Vec{X: s * float64(k.X), Y: s * float64(k.Y), Z: s * float64(k.Z)})
	return r3.Box{Min: min, Max: r3.Add(min, d3.Elem(s))}
}

// Cell returns the cell at exactly k, or nil if the tree does not reach it.
func (t *Tree) Cell(k Key) *Cell {
	if !k.valid() {
		return nil
	}
	c, found, err := t.descend(k)
	if err != nil || found != k {
		return nil
	}
	return c
}

// Walk calls fn for every cell in depth first octant order, parents before
// children. Walk stops and returns the first error returned by fn.
func (t *Tree) Walk(fn func(k Key, c *Cell) error) error {
	return walk(&t.Root, Key{}, fn)
}

func walk(c *Cell, k Key, fn func(Key, *Cell) error) error {
	if err := fn(k, c); err != nil {
		return err
	}
	if c.Children == nil {
		return nil
	}
	for i := range c.Children {
		if err := walk(&c.Children[i], k.Child(i), fn); err != nil {
			return err
		}
	}
	return nil
}

// Stats summarizes a tree.
type Stats struct {
	Cells      int
	Outside    int
	Inside     int
	Boundary   int
	Subdivided int
	MaxDepth   uint
	// MinBoundaryDepth and MaxBoundaryDepth are the depth range of Boundary
	// leaves. They are equal in a well formed tree with boundary leaves.
	MinBoundaryDepth uint
	MaxBoundaryDepth uint
}

// Stats counts the cells of t by state.
func (t *Tree) Stats() Stats {
	var st Stats
	st.MinBoundaryDepth = math.MaxUint
	t.Walk(func(k Key, c *Cell) error {
		st.Cells++
		st.MaxDepth = max(st.MaxDepth, k.Depth)
		switch c.State {
		case Outside:
			st.Outside++
		case Inside:
			st.Inside++
		case Boundary:
			st.Boundary++
			st.MinBoundaryDepth = min(st.MinBoundaryDepth, k.Depth)
			st.MaxBoundaryDepth = max(st.MaxBoundaryDepth, k.Depth)
		case BoundarySubdivided:
			st.Subdivided++
		}
		return nil
	})
	if st.Boundary == 0 {
		st.MinBoundaryDepth = 0
	}
	return st
}
