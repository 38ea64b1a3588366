package meshgen

import (
	"errors"
	"fmt"
	"math"

	"github.com/soypat/sdfmesh"
	"github.com/soypat/sdfmesh/halfedge"
	"github.com/soypat/sdfmesh/internal/d3"
	"github.com/soypat/sdfmesh/octree"
	"gonum.org/v1/gonum/spatial/r3"
)

// extractor emits the faces of boundary leaves that face outside.
type extractor struct {
	tree *octree.Tree
	mesh *halfedge.Mesh
	// verts deduplicates vertices by position rounded to quantum.
	verts   map[[3]int64]int
	quantum float64
	// faces holds emitted triangles until pinched edges are resolved.
	faces []face
	// owner numbers the boundary leaf currently emitting.
	owner int
}

type face struct {
	v     [3]int
	owner int
}

// halfRef is the half-edge from corner i to corner i+1 of a face.
type halfRef struct{ face, corner int }

func extract(tree *octree.Tree) (*halfedge.Mesh, error) {
	x := extractor{
		tree:  tree,
		mesh:  halfedge.New(),
		verts: make(map[[3]int64]int),
		// Quartered faces reach at most one level below the deepest cell.
		quantum: tree.CellSize(tree.Stats().MaxDepth) / 8,
	}
	err := tree.Walk(func(k octree.Key, c *octree.Cell) error {
		if c.State != octree.Boundary {
			return nil
		}
		x.owner++
		box := d3.Box(tree.Box(k))
		for _, d := range octree.Directions {
			quad := faceOf(box, d)
			n, _, err := tree.NeighborAt(k, d)
			switch {
			case errors.Is(err, octree.ErrDomainBoundary):
				// Nothing lies beyond the root cube.
				err = x.emit(quad, d)
			case err == nil:
				err = x.across(quad, d, n)
			}
			if err != nil {
				return fmt.Errorf("cell %v face %v: %w", k, d, err)
			}
		}
		return nil
	})
	if err == nil {
		err = x.resolvePinches()
	}
	for i := 0; err == nil && i < len(x.faces); i++ {
		f := x.faces[i].v
		err = x.mesh.AddFace(f[0], f[1], f[2])
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", sdfmesh.ErrNonManifold, err)
	}
	return x.mesh, nil
}

// resolvePinches separates edges shared by four triangles. They appear where
// two boundary leaves touch only along an edge and the two other cells
// around it are outside. Each leaf contributes one triangle pair that meets
// at the edge. The first pair keeps the edge, every other pair gets its own
// vertex at the edge midpoint so each vertex pair is used by exactly two
// half-edges.
func (x *extractor) resolvePinches() error {
	uses := make(map[[2]int][]halfRef)
	var order [][2]int
	for fi, f := range x.faces {
		for i := 0; i < 3; i++ {
			a, b := f.v[i], f.v[(i+1)%3]
			if a > b {
				a, b = b, a
			}
			k := [2]int{a, b}
			if _, ok := uses[k]; !ok {
				order = append(order, k)
			}
			uses[k] = append(uses[k], halfRef{face: fi, corner: i})
		}
	}
	splits := make(map[halfRef]int)
	for _, k := range order {
		refs := uses[k]
		if len(refs) <= 2 {
			continue
		}
		var owners []int
		groups := make(map[int][]halfRef)
		for _, r := range refs {
			o := x.faces[r.face].owner
			if _, ok := groups[o]; !ok {
				owners = append(owners, o)
			}
			groups[o] = append(groups[o], r)
		}
		for gi, o := range owners {
			g := groups[o]
			if len(g) != 2 || x.faces[g[0].face].v[g[0].corner] == x.faces[g[1].face].v[g[1].corner] {
				return fmt.Errorf("%w: edge (%d,%d) shared by %d triangles", sdfmesh.ErrInvalidTopology, k[0], k[1], len(refs))
			}
			if gi == 0 {
				continue
			}
			mid := r3.Scale(0.5, r3.Add(x.mesh.Vertices[k[0]], x.mesh.Vertices[k[1]]))
			m := x.mesh.AddVertex(mid)
			splits[g[0]], splits[g[1]] = m, m
		}
	}
	if len(splits) == 0 {
		return nil
	}
	out := make([]face, 0, len(x.faces)+len(splits))
	for fi, f := range x.faces {
		poly := make([]int, 0, 6)
		first := -1
		for i := 0; i < 3; i++ {
			poly = append(poly, f.v[i])
			if m, ok := splits[halfRef{face: fi, corner: i}]; ok {
				if first < 0 {
					first = len(poly)
				}
				poly = append(poly, m)
			}
		}
		if first < 0 {
			out = append(out, f)
			continue
		}
		// Fan from a midpoint: its polygon neighbors are the ends of its own
		// edge, so no triangle is collinear.
		n := len(poly)
		for k := 1; k < n-1; k++ {
			out = append(out, face{
				v:     [3]int{poly[first], poly[(first+k)%n], poly[(first+k+1)%n]},
				owner: f.owner,
			})
		}
	}
	x.faces = out
	return nil
}

// faceOf returns the side of box in direction d as a box flat along d's axis.
func faceOf(box d3.Box, d octree.Direction) d3.Box {
	a := d.Axis()
	plane := d3.Component(box.Min, a)
	if d.Sign() > 0 {
		plane = d3.Component(box.Max, a)
	}
	box.Min = d3.SetComponent(box.Min, a, plane)
	box.Max = d3.SetComponent(box.Max, a, plane)
	return box
}

// across emits quad if the cell n beyond it is outside. Quads facing a
// subdivided cell are quartered to match the children touching them so no
// T-junctions form between cells of different size.
func (x *extractor) across(quad d3.Box, d octree.Direction, n *octree.Cell) error {
	switch n.State {
	case octree.Outside:
		return x.emit(quad, d)
	case octree.BoundarySubdivided:
		if n.Children == nil {
			return fmt.Errorf("%w: subdivided cell without children", sdfmesh.ErrInvalidTopology)
		}
		a := d.Axis()
		// The children touching quad lie in the lower half of n along the
		// axis for positive d and in the upper half otherwise.
		near := 0
		if d.Sign() < 0 {
			near = 1
		}
		for i := range n.Children {
			if (i>>a)&1 != near {
				continue
			}
			if err := x.across(quad.Octant(i), d, &n.Children[i]); err != nil {
				return err
			}
		}
	}
	// Inside and boundary neighbors hide the face.
	return nil
}

// emit adds quad as two triangles wound counter clockwise when seen from
// direction d.
func (x *extractor) emit(quad d3.Box, d octree.Direction) error {
	a := d.Axis()
	u, v := (a+1)%3, (a+2)%3
	corner := func(hiU, hiV bool) r3.Vec {
		p := quad.Min
		if hiU {
			p = d3.SetComponent(p, u, d3.Component(quad.Max, u))
		}
		if hiV {
			p = d3.SetComponent(p, v, d3.Component(quad.Max, v))
		}
		return p
	}
	// u×v points along +a.
	idx := [4]int{
		x.vertex(corner(false, false)),
		x.vertex(corner(true, false)),
		x.vertex(corner(true, true)),
		x.vertex(corner(false, true)),
	}
	if d.Sign() < 0 {
		idx[1], idx[3] = idx[3], idx[1]
	}
	x.faces = append(x.faces,
		face{v: [3]int{idx[0], idx[1], idx[2]}, owner: x.owner},
		face{v: [3]int{idx[0], idx[2], idx[3]}, owner: x.owner},
	)
	return nil
}

func (x *extractor) vertex(p r3.Vec) int {
	key := [3]int64{
		int64(math.Round(p.X / x.quantum)),
		int64(math.Round(p.Y / x.quantum)),
		int64(math.Round(p.Z / x.quantum)),
	}
	if v, ok := x.verts[key]; ok {
		return v
	}
	v := x.mesh.AddVertex(p)
	x.verts[key] = v
	return v
}
