// Package halfedge implements an index based half-edge triangle mesh.
//
// Every triangle is stored as three half-edges linked in a Next cycle. Each
// half-edge records the vertex it points to and the opposite half-edge of
// the adjacent triangle. Half-edges waiting for their opposite are tracked
// by unordered vertex pair, so a mesh is manifold exactly when none are
// waiting. A vertex pair whose two half-edges are linked is closed: no
// further triangle may use it.
package halfedge

import (
	"fmt"

	"github.com/soypat/sdfmesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// NoPair marks an unpaired half-edge.
const NoPair = -1

// HalfEdge is a directed triangle edge.
type HalfEdge struct {
	// Vertex is the index of the vertex the edge points to.
	Vertex int
	// Next is the following half-edge around the same triangle.
	Next int
	// Pair is the opposite half-edge or NoPair.
	Pair int
}

type edgeKey struct{ lo, hi int }

func keyOf(a, b int) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{lo: a, hi: b}
}

// Mesh is a half-edge triangle mesh. The zero value is not ready for use,
// create meshes with New.
type Mesh struct {
	Vertices []r3.Vec
	Edges    []HalfEdge
	// pending holds half-edges still missing their opposite.
	pending map[edgeKey]int
	// paired holds vertex pairs already used by two linked half-edges.
	paired map[edgeKey]struct{}
}

// New returns an empty mesh.
func New() *Mesh {
	return &Mesh{pending: make(map[edgeKey]int), paired: make(map[edgeKey]struct{})}
}

// AddVertex appends a vertex and returns its index.
func (m *Mesh) AddVertex(p r3.Vec) int {
	m.Vertices = append(m.Vertices, p)
	return len(m.Vertices) - 1
}

// SetVertex moves vertex v to p.
func (m *Mesh) SetVertex(v int, p r3.Vec) { m.Vertices[v] = p }

// Origin returns the vertex half-edge e starts from.
func (m *Mesh) Origin(e int) int {
	return m.Edges[m.Edges[m.Edges[e].Next].Next].Vertex
}

// Midpoint returns the point halfway along edge e.
func (m *Mesh) Midpoint(e int) r3.Vec {
	a := m.Vertices[m.Origin(e)]
	b := m.Vertices[m.Edges[e].Vertex]
	return r3.Scale(0.5, r3.Add(a, b))
}

// EdgeLength returns the length of edge e.
func (m *Mesh) EdgeLength(e int) float64 {
	return r3.Norm(r3.Sub(m.Vertices[m.Edges[e].Vertex], m.Vertices[m.Origin(e)]))
}

// AddFace adds the triangle a→b→c. Each of its edges is paired with the
// waiting opposite edge of a previous triangle if there is one. The mesh is
// left unchanged when AddFace fails with [sdfmesh.ErrInvalidTopology].
func (m *Mesh) AddFace(a, b, c int) error {
	nv := len(m.Vertices)
	for _, v := range [3]int{a, b, c} {
		if v < 0 || v >= nv {
			return fmt.Errorf("%w: face vertex %d out of range [0,%d)", sdfmesh.ErrInvalidTopology, v, nv)
		}
	}
	if a == b || b == c || c == a {
		return fmt.Errorf("%w: degenerate face (%d,%d,%d)", sdfmesh.ErrInvalidTopology, a, b, c)
	}
	verts := [3]int{a, b, c}
	var twins [3]int
	for i := range verts {
		from, to := verts[i], verts[(i+1)%3]
		key := keyOf(from, to)
		if _, closed := m.paired[key]; closed {
			return fmt.Errorf("%w: edge (%d,%d) already paired", sdfmesh.ErrInvalidTopology, from, to)
		}
		twin, ok := m.pending[key]
		if !ok {
			twins[i] = NoPair
			continue
		}
		if m.Edges[twin].Vertex != from {
			return fmt.Errorf("%w: edge (%d,%d) has same direction as its twin, inconsistent winding", sdfmesh.ErrInvalidTopology, from, to)
		}
		twins[i] = twin
	}
	base := len(m.Edges)
	for i := range verts {
		e := base + i
		m.Edges = append(m.Edges, HalfEdge{
			Vertex: verts[(i+1)%3],
			Next:   base + (i+1)%3,
			Pair:   twins[i],
		})
		key := keyOf(verts[i], verts[(i+1)%3])
		if twins[i] == NoPair {
			m.pending[key] = e
		} else {
			m.Edges[twins[i]].Pair = e
			delete(m.pending, key)
			m.paired[key] = struct{}{}
		}
	}
	return nil
}

// SplitEdge inserts a vertex at p on the paired edge e and splits both
// triangles sharing the edge in two. For e = A→B in triangle A,B,C with
// opposite B→A in triangle B,A,D the result is the triangles A,X,C and
// X,B,C on one side and B,X,D and X,A,D on the other. SplitEdge returns one
// half-edge for each of the four edges leaving X, all of them paired:
// X-A, X-B, X-C and X-D in that order.
func (m *Mesh) SplitEdge(e int, p r3.Vec) ([]int, error) {
	if e < 0 || e >= len(m.Edges) {
		return nil, fmt.Errorf("%w: edge %d out of range", sdfmesh.ErrInvalidTopology, e)
	}
	f := m.Edges[e].Pair
	if f == NoPair {
		return nil, fmt.Errorf("%w: cannot split unpaired edge %d", sdfmesh.ErrInvalidTopology, e)
	}
	if m.Edges[f].Pair != e || !m.isTriangle(e) || !m.isTriangle(f) {
		return nil, fmt.Errorf("%w: corrupt neighborhood at edge %d", sdfmesh.ErrInvalidTopology, e)
	}
	e1 := m.Edges[e].Next // B→C
	f1 := m.Edges[f].Next // A→D
	f2 := m.Edges[f1].Next
	a := m.Edges[f].Vertex
	b := m.Edges[e].Vertex
	c := m.Edges[e1].Vertex
	d := m.Edges[f1].Vertex
	if c == d {
		return nil, fmt.Errorf("%w: edge %d closes a two triangle pocket", sdfmesh.ErrInvalidTopology, e)
	}
	x := m.AddVertex(p)

	n := len(m.Edges)
	xc, xb, cx := n, n+1, n+2
	xd, xa, dx := n+3, n+4, n+5
	e2 := m.Edges[e1].Next // C→A
	m.Edges = append(m.Edges,
		HalfEdge{Vertex: c, Next: e2, Pair: cx},
		HalfEdge{Vertex: b, Next: e1, Pair: f},
		HalfEdge{Vertex: x, Next: xb, Pair: xc},
		HalfEdge{Vertex: d, Next: f2, Pair: dx},
		HalfEdge{Vertex: a, Next: f1, Pair: e},
		HalfEdge{Vertex: x, Next: xa, Pair: xd},
	)
	// A→X, X→C, C→A.
	m.Edges[e] = HalfEdge{Vertex: x, Next: xc, Pair: xa}
	// X→B, B→C, C→X.
	m.Edges[e1].Next = cx
	// B→X, X→D, D→B.
	m.Edges[f] = HalfEdge{Vertex: x, Next: xd, Pair: xb}
	// X→A, A→D, D→X.
	m.Edges[f1].Next = dx
	delete(m.paired, keyOf(a, b))
	for _, v := range [4]int{a, b, c, d} {
		m.paired[keyOf(x, v)] = struct{}{}
	}
	return []int{xa, xb, xc, xd}, nil
}

func (m *Mesh) isTriangle(e int) bool {
	n1 := m.Edges[e].Next
	if n1 < 0 || n1 >= len(m.Edges) {
		return false
	}
	n2 := m.Edges[n1].Next
	if n2 < 0 || n2 >= len(m.Edges) {
		return false
	}
	return m.Edges[n2].Next == e && e != n1 && e != n2 && n1 != n2
}

// IsManifold reports whether every half-edge found its opposite.
func (m *Mesh) IsManifold() bool { return len(m.pending) == 0 }

// Unpaired returns the number of half-edges still missing their opposite.
func (m *Mesh) Unpaired() int { return len(m.pending) }

// TriangleCount returns the number of triangles in the mesh.
func (m *Mesh) TriangleCount() int { return len(m.Edges) / 3 }

// Triangles calls fn with the vertices of every triangle in counter
// clockwise order, following Next cycles. Iteration stops if fn returns false.
func (m *Mesh) Triangles(fn func(a, b, c int) bool) {
	visited := make([]bool, len(m.Edges))
	for e := range m.Edges {
		if visited[e] {
			continue
		}
		n1 := m.Edges[e].Next
		n2 := m.Edges[n1].Next
		visited[e], visited[n1], visited[n2] = true, true, true
		if !fn(m.Edges[n2].Vertex, m.Edges[e].Vertex, m.Edges[n1].Vertex) {
			return
		}
	}
}

// ForEachEdge calls fn once for every undirected paired edge with the lower
// of its two half-edge indices. Unpaired half-edges are visited as well.
func (m *Mesh) ForEachEdge(fn func(e int)) {
	for e, he := range m.Edges {
		if he.Pair == NoPair || e < he.Pair {
			fn(e)
		}
	}
}

// Validate checks the structural invariants of the mesh: indices are in
// range, Next cycles have length 3, pairs are symmetric and opposite in
// direction and no vertex pair is used by more than two half-edges.
func (m *Mesh) Validate() error {
	ne, nv := len(m.Edges), len(m.Vertices)
	if ne%3 != 0 {
		return fmt.Errorf("%w: %d half-edges is not a multiple of 3", sdfmesh.ErrInvalidTopology, ne)
	}
	uses := make(map[edgeKey]int, ne/2)
	for i, he := range m.Edges {
		if he.Vertex < 0 || he.Vertex >= nv {
			return fmt.Errorf("%w: half-edge %d points to vertex %d out of range", sdfmesh.ErrInvalidTopology, i, he.Vertex)
		}
		if !m.isTriangle(i) {
			return fmt.Errorf("%w: half-edge %d not in a triangle cycle", sdfmesh.ErrInvalidTopology, i)
		}
		key := keyOf(m.Origin(i), he.Vertex)
		uses[key]++
		if uses[key] > 2 {
			return fmt.Errorf("%w: edge (%d,%d) used by more than two half-edges", sdfmesh.ErrInvalidTopology, key.lo, key.hi)
		}
		if he.Pair == NoPair {
			continue
		}
		if he.Pair < 0 || he.Pair >= ne {
			return fmt.Errorf("%w: half-edge %d pair %d out of range", sdfmesh.ErrInvalidTopology, i, he.Pair)
		}
		if m.Edges[he.Pair].Pair != i {
			return fmt.Errorf("%w: asymmetric pair %d→%d→%d", sdfmesh.ErrInvalidTopology, i, he.Pair, m.Edges[he.Pair].Pair)
		}
		if m.Edges[he.Pair].Vertex != m.Origin(i) || m.Origin(he.Pair) != he.Vertex {
			return fmt.Errorf("%w: half-edge %d and pair %d do not run opposite", sdfmesh.ErrInvalidTopology, i, he.Pair)
		}
	}
	return nil
}
