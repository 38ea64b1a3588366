package render

import (
	"errors"

	sdfxrender "github.com/deadsy/sdfx/render"
	sdfx "github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/soypat/sdfmesh/sdf"
	"gonum.org/v1/gonum/spatial/r3"
)

// Compile-time interface check.
var _ sdfx.SDF3 = sdfxNode{}

// sdfxNode exposes a Node as an sdfx SDF3 so sdfx renderers can mesh it.
type sdfxNode struct {
	n  sdf.Node
	bb sdfx.Box3
}

// AsSDFX adapts n to the sdfx SDF3 interface. sdfx renderers sample only
// within bounds.
func AsSDFX(n sdf.Node, bounds r3.Box) sdfx.SDF3 {
	return sdfxNode{
		n: n,
		bb: sdfx.Box3{
			Min: v3.Vec{X: bounds.Min.X, Y: bounds.Min.Y, Z: bounds.Min.Z},
			Max: v3.Vec{X: bounds.Max.X, Y: bounds.Max.Y, Z: bounds.Max.Z},
		},
	}
}

func (s sdfxNode) Evaluate(p v3.Vec) float64 {
	return s.n.Evaluate(r3.Vec{X: p.X, Y: p.Y, Z: p.Z})
}

func (s sdfxNode) BoundingBox() sdfx.Box3 { return s.bb }

// MarchingCubes meshes n with sdfx's uniform marching cubes over bounds,
// using cells cells along the longest axis. The result is an unindexed
// triangle soup in the same flat layout as the octree mesher output, useful
// as a reference when comparing meshes.
func MarchingCubes(n sdf.Node, bounds r3.Box, cells int) (vertices []float32, indices []uint32, err error) {
	if cells < 2 {
		return nil, nil, errors.New("marching cubes needs at least 2 cells")
	}
	triangles := sdfxrender.ToTriangles(AsSDFX(n, bounds), sdfxrender.NewMarchingCubesUniform(cells))
	vertices = make([]float32, 0, 9*len(triangles))
	indices = make([]uint32, 0, 3*len(triangles))
	for i, tri := range triangles {
		for j := 0; j < 3; j++ {
			v := tri[j]
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			indices = append(indices, uint32(i*3+j))
		}
	}
	return vertices, indices, nil
}
