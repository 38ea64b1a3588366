package meshgen

import (
	"math"

	"github.com/soypat/sdfmesh/halfedge"
	"github.com/soypat/sdfmesh/sdf"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"
)

// Mesh is a serialized triangle mesh. Vertices holds 3 coordinates per
// vertex and Indices 3 vertex indices per triangle, wound counter clockwise
// when seen from outside.
type Mesh struct {
	Vertices []float32
	Indices  []uint32
}

// VertexCount returns the number of vertices.
func (m Mesh) VertexCount() int { return len(m.Vertices) / 3 }

// TriangleCount returns the number of triangles.
func (m Mesh) TriangleCount() int { return len(m.Indices) / 3 }

// Vertex returns vertex i.
func (m Mesh) Vertex(i int) r3.Vec {
	return r3.Vec{
		X: float64(m.Vertices[3*i]),
		Y: float64(m.Vertices[3*i+1]),
		Z: float64(m.Vertices[3*i+2]),
	}
}

func serialize(hm *halfedge.Mesh) Mesh {
	m := Mesh{
		Vertices: make([]float32, 0, 3*len(hm.Vertices)),
		Indices:  make([]uint32, 0, 3*hm.TriangleCount()),
	}
	for _, v := range hm.Vertices {
		m.Vertices = append(m.Vertices, float32(v.X), float32(v.Y), float32(v.Z))
	}
	hm.Triangles(func(a, b, c int) bool {
		m.Indices = append(m.Indices, uint32(a), uint32(b), uint32(c))
		return true
	})
	return m
}

// Report summarizes how closely a mesh follows a surface.
type Report struct {
	Vertices  int
	Triangles int
	// Errors is |f(v)| for every vertex v.
	Errors    []float64
	MeanError float64
	StdError  float64
	MaxError  float64
	// Edge length statistics over all triangle edges, counting shared
	// edges once per triangle.
	MinEdge  float64
	MeanEdge float64
	MaxEdge  float64
}

// Analyze evaluates s at every vertex of m.
func Analyze(m Mesh, s sdf.Node) Report {
	r := Report{
		Vertices:  m.VertexCount(),
		Triangles: m.TriangleCount(),
		Errors:    make([]float64, m.VertexCount()),
	}
	if r.Vertices == 0 || r.Triangles == 0 {
		return r
	}
	for i := range r.Errors {
		r.Errors[i] = math.Abs(s.Evaluate(m.Vertex(i)))
	}
	r.MeanError, r.StdError = stat.MeanStdDev(r.Errors, nil)
	r.MaxError = floats.Max(r.Errors)

	edges := make([]float64, 0, len(m.Indices))
	for t := 0; t < len(m.Indices); t += 3 {
		for j := 0; j < 3; j++ {
			a := m.Vertex(int(m.Indices[t+j]))
			b := m.Vertex(int(m.Indices[t+(j+1)%3]))
			edges = append(edges, r3.Norm(r3.Sub(b, a)))
		}
	}
	r.MinEdge = floats.Min(edges)
	r.MaxEdge = floats.Max(edges)
	r.MeanEdge = stat.Mean(edges, nil)
	return r
}
