package meshgen

import (
	"container/heap"
	"math"

	"github.com/soypat/sdfmesh/halfedge"
)

// edgeError is a refinement candidate.
type edgeError struct {
	edge int
	err  float64
}

// edgeQueue is a max-heap of edges by error. Ties break on the lower edge
// index so refinement is deterministic.
type edgeQueue []edgeError

func (q edgeQueue) Len() int { return len(q) }
func (q edgeQueue) Less(i, j int) bool {
	if q[i].err != q[j].err {
		return q[i].err > q[j].err
	}
	return q[i].edge < q[j].edge
}
func (q edgeQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *edgeQueue) Push(x any)   { *q = append(*q, x.(edgeError)) }
func (q *edgeQueue) Pop() any {
	old := *q
	n := len(old)
	it := old[n-1]
	*q = old[:n-1]
	return it
}

type refiner struct {
	mesh  *halfedge.Mesh
	proj  *projector
	cfg   RefineConfig
	queue edgeQueue
}

// refine splits the edges whose midpoints lie farthest from the surface,
// worst first, projecting every inserted vertex onto the surface. It returns
// the number of splits performed.
func refine(m *halfedge.Mesh, proj *projector, cfg RefineConfig) (int, error) {
	r := refiner{mesh: m, proj: proj, cfg: cfg}
	m.ForEachEdge(func(e int) {
		if m.Edges[e].Pair != halfedge.NoPair {
			r.push(e)
		}
	})
	heap.Init(&r.queue)
	splits := 0
	for r.queue.Len() > 0 && splits < cfg.MaxSplits {
		it := heap.Pop(&r.queue).(edgeError)
		fresh, ok := r.edgeError(it.edge)
		if !ok || fresh < it.err {
			// Stale entry: an earlier split changed this edge.
			continue
		}
		spokes, err := m.SplitEdge(it.edge, m.Midpoint(it.edge))
		if err != nil {
			return splits, err
		}
		splits++
		x := len(m.Vertices) - 1
		m.SetVertex(x, proj.project(m.Vertices[x]))
		for _, e := range spokes {
			if pair := m.Edges[e].Pair; pair < e {
				e = pair
			}
			if v, ok := r.edgeError(e); ok {
				heap.Push(&r.queue, edgeError{edge: e, err: v})
			}
		}
	}
	return splits, nil
}

// push appends e to the queue without restoring the heap order.
func (r *refiner) push(e int) {
	if v, ok := r.edgeError(e); ok {
		r.queue = append(r.queue, edgeError{edge: e, err: v})
	}
}

// edgeError returns the distance of the midpoint of e from the surface,
// optionally per unit length. ok is false for edges too short or too
// accurate to be worth splitting.
func (r *refiner) edgeError(e int) (float64, bool) {
	length := r.mesh.EdgeLength(e)
	if length < r.cfg.MinEdgeLength || length == 0 {
		return 0, false
	}
	err := math.Abs(r.proj.s.Evaluate(r.mesh.Midpoint(e)))
	if r.cfg.NormalizeByLength {
		err /= length
	}
	if err < r.cfg.ErrorThreshold || math.IsNaN(err) {
		return 0, false
	}
	return err, true
}
