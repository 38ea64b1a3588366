package octree

import (
	"fmt"

	"github.com/soypat/sdfmesh"
)

// Key addresses a cell by its integer position among the 2^Depth cells per
// axis at its depth. The root is the zero Key.
type Key struct {
	X, Y, Z int
	Depth   uint
}

func (k Key) String() string { return fmt.Sprintf("(%d,%d,%d)@%d", k.X, k.Y, k.Z, k.Depth) }

// Child returns the key of octant i of k.
func (k Key) Child(i int) Key {
	return Key{
		X:     2*k.X + i&1,
		Y:     2*k.Y + (i>>1)&1,
		Z:     2*k.Z + (i>>2)&1,
		Depth: k.Depth + 1,
	}
}

// Parent returns the key of the cell containing k. The root is its own parent.
func (k Key) Parent() Key {
	if k.Depth == 0 {
		return k
	}
	return Key{X: k.X >> 1, Y: k.Y >> 1, Z: k.Z >> 1, Depth: k.Depth - 1}
}

// Octant returns the index of k within its parent.
func (k Key) Octant() int {
	return k.X&1 | (k.Y&1)<<1 | (k.Z&1)<<2
}

func (k Key) valid() bool {
	n := 1 << k.Depth
	return k.Depth <= maxDepth && k.X >= 0 && k.Y >= 0 && k.Z >= 0 && k.X < n && k.Y < n && k.Z < n
}

// Step returns the key of the same depth adjacent to k in direction d. The
// result may lie outside the root.
func (k Key) Step(d Direction) Key {
	switch d.Axis() {
	case 0:
		k.X += d.Sign()
	case 1:
		k.Y += d.Sign()
	default:
		k.Z += d.Sign()
	}
	return k
}

// Direction is one of the 6 axis aligned directions between cube faces.
type Direction uint8

const (
	NegX Direction = iota
	PosX
	NegY
	PosY
	NegZ
	PosZ
)

// Directions lists all directions in axis order.
var Directions = [6]Direction{NegX, PosX, NegY, PosY, NegZ, PosZ}

// Axis returns 0, 1 or 2 for the x, y and z axis.
func (d Direction) Axis() int { return int(d) / 2 }

// Sign returns -1 or 1.
func (d Direction) Sign() int {
	if d&1 == 0 {
		return -1
	}
	return 1
}

// Opposite returns the direction pointing the other way.
func (d Direction) Opposite() Direction { return d ^ 1 }

func (d Direction) String() string {
	if d > PosZ {
		return fmt.Sprintf("Direction(%d)", uint8(d))
	}
	return [...]string{"-x", "+x", "-y", "+y", "-z", "+z"}[d]
}

// NeighborAt returns the cell sharing the face of k in direction d along
// with its key. The neighbor is found by ascending to the common ancestor
// and descending the mirrored octant path, which amounts to descending from
// the root towards the adjacent key at k's depth. The returned cell is at
// k's depth or a coarser leaf. Leaving the root cube yields
// [ErrDomainBoundary]; a subdivided cell without children on the path is
// reported as [sdfmesh.ErrInvalidTopology].
func (t *Tree) NeighborAt(k Key, d Direction) (*Cell, Key, error) {
	if !k.valid() {
		return nil, Key{}, fmt.Errorf("%w: key %v outside tree", sdfmesh.ErrInvalidTopology, k)
	}
	n := k.Step(d)
	if !n.valid() {
		return nil, Key{}, ErrDomainBoundary
	}
	return t.descend(n)
}

// descend walks from the root towards target and returns the deepest
// existing cell on the way.
func (t *Tree) descend(target Key) (*Cell, Key, error) {
	c := &t.Root
	var k Key
	for k.Depth < target.Depth {
		if c.Children == nil {
			if c.State == BoundarySubdivided {
				return nil, Key{}, fmt.Errorf("%w: subdivided cell %v has no children", sdfmesh.ErrInvalidTopology, k)
			}
			return c, k, nil
		}
		if c.State != BoundarySubdivided {
			return nil, Key{}, fmt.Errorf("%w: %v cell %v has children", sdfmesh.ErrInvalidTopology, c.State, k)
		}
		shift := target.Depth - k.Depth - 1
		i := (target.X>>shift)&1 | ((target.Y>>shift)&1)<<1 | ((target.Z>>shift)&1)<<2
		c = &c.Children[i]
		k = k.Child(i)
	}
	if c.State == BoundarySubdivided && c.Children == nil {
		return nil, Key{}, fmt.Errorf("%w: subdivided cell %v has no children", sdfmesh.ErrInvalidTopology, k)
	}
	return c, k, nil
}
