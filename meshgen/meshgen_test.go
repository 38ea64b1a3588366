package meshgen

import (
	"context"
	"math"
	"testing"

	"github.com/soypat/sdfmesh"
	"github.com/soypat/sdfmesh/octree"
	"github.com/soypat/sdfmesh/sdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"gonum.org/v1/gonum/spatial/r3"
)

func unitSphere(t *testing.T) sdf.Node {
	t.Helper()
	s, err := sdf.Sphere(1)
	require.NoError(t, err)
	return s
}

func sphereConfig(minSize float64) Config {
	cfg := DefaultConfig()
	cfg.Size = 4
	cfg.MinSize = minSize
	cfg.Budget = 10000
	return cfg
}

func generate(t *testing.T, cfg Config, s sdf.Node, opts ...Option) Mesh {
	t.Helper()
	opts = append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)
	g, err := New(cfg, opts...)
	require.NoError(t, err)
	m, err := g.Generate(context.Background(), s)
	require.NoError(t, err)
	return m
}

func TestSphereEndToEnd(t *testing.T) {
	m := generate(t, sphereConfig(2), unitSphere(t))
	require.NotEmpty(t, m.Indices)
	assert.Zero(t, len(m.Indices)%3)
	assert.Zero(t, len(m.Vertices)%3)
	for i := 0; i < m.VertexCount(); i++ {
		r := r3.Norm(m.Vertex(i))
		assert.InDelta(t, 1, r, 0.01, "vertex %d at %v", i, m.Vertex(i))
	}
	for _, idx := range m.Indices {
		assert.Less(t, int(idx), m.VertexCount())
	}
	// 8 cells of the root expose 3 outer faces each.
	assert.Equal(t, 48, m.TriangleCount())
	assert.Equal(t, 26, m.VertexCount())
}

func TestOutwardWinding(t *testing.T) {
	m := generate(t, sphereConfig(0.25), unitSphere(t))
	// Signed volume of a closed outward wound mesh is positive.
	var volume float64
	for i := 0; i < len(m.Indices); i += 3 {
		a, b, c := m.Vertex(int(m.Indices[i])), m.Vertex(int(m.Indices[i+1])), m.Vertex(int(m.Indices[i+2]))
		volume += r3.Dot(a, r3.Cross(b, c)) / 6
	}
	// Chords cut inside the sphere, so the volume falls a little short.
	assert.Less(t, volume, 4*math.Pi/3)
	assert.Greater(t, volume, 0.85*4*math.Pi/3)
}

func TestRefinement(t *testing.T) {
	s := unitSphere(t)
	cfg := sphereConfig(1)
	coarse := generate(t, cfg, s)

	cfg.Refine = &RefineConfig{
		ErrorThreshold: 1e-3,
		MinEdgeLength:  0.05,
		MaxSplits:      5000,
	}
	var splits int
	fine := generate(t, cfg, s, WithObserver(ObserverFunc(func(p Progress) {
		if p.Phase == PhaseRefine {
			splits = p.Splits
		}
	})))
	assert.Positive(t, splits)
	assert.Equal(t, coarse.VertexCount()+splits, fine.VertexCount())
	assert.Equal(t, coarse.TriangleCount()+2*splits, fine.TriangleCount())

	rep := Analyze(fine, s)
	assert.Less(t, rep.MaxError, 1e-3)
	assert.Less(t, rep.MaxEdge, Analyze(coarse, s).MaxEdge)
}

func TestRefinementNormalized(t *testing.T) {
	s := unitSphere(t)
	cfg := sphereConfig(1)
	coarse := generate(t, cfg, s)
	cfg.Refine = &RefineConfig{
		ErrorThreshold:    0.01,
		MinEdgeLength:     0.1,
		MaxSplits:         100,
		NormalizeByLength: true,
	}
	m := generate(t, cfg, s)
	assert.LessOrEqual(t, m.TriangleCount(), coarse.TriangleCount()+2*100)
	assert.Greater(t, m.TriangleCount(), coarse.TriangleCount())
	assert.Less(t, Analyze(m, s).MaxError, 1e-3)
}

func TestPhases(t *testing.T) {
	var phases []Phase
	obs := ObserverFunc(func(p Progress) { phases = append(phases, p.Phase) })
	generate(t, sphereConfig(1), unitSphere(t), WithObserver(obs))
	assert.Equal(t, []Phase{PhaseSubdivide, PhaseExtract, PhaseProject, PhaseSerialize}, phases)

	phases = nil
	cfg := sphereConfig(1)
	rc := DefaultRefineConfig(cfg.MinSize)
	cfg.Refine = &rc
	generate(t, cfg, unitSphere(t), WithObserver(obs))
	assert.Equal(t, []Phase{PhaseSubdivide, PhaseExtract, PhaseProject, PhaseRefine, PhaseSerialize}, phases)
}

func TestDeterministic(t *testing.T) {
	s := sdf.Union(unitSphere(t), sdf.Translate(unitSphere(t), r3.Vec{X: 0.8, Y: 0.3}))
	cfg := sphereConfig(0.25)
	cfg.Budget = 1 << 20
	rc := DefaultRefineConfig(cfg.MinSize)
	cfg.Refine = &rc
	a := generate(t, cfg, s)
	b := generate(t, cfg, s)
	assert.Equal(t, a, b)
}

func TestErrors(t *testing.T) {
	_, err := New(Config{Size: 4, MinSize: 0, Budget: 10})
	assert.ErrorIs(t, err, sdfmesh.ErrConfiguration)
	cfg := sphereConfig(1)
	cfg.Refine = &RefineConfig{MaxSplits: 0}
	_, err = New(cfg)
	assert.ErrorIs(t, err, sdfmesh.ErrConfiguration)

	cfg = sphereConfig(0.01)
	cfg.Budget = 64
	g, err := New(cfg)
	require.NoError(t, err)
	_, err = g.Generate(context.Background(), unitSphere(t))
	assert.ErrorIs(t, err, sdfmesh.ErrBudgetExhausted)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g, err = New(sphereConfig(1))
	require.NoError(t, err)
	_, err = g.Generate(ctx, unitSphere(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtractQuartersAgainstSubdivided(t *testing.T) {
	budget, err := octree.NewBudget(100)
	require.NoError(t, err)
	tree, err := octree.Build(unitSphere(t), r3.Vec{}, 4, 2, budget)
	require.NoError(t, err)
	// Carve octant 1 into 8 outside children.
	hole := &tree.Root.Children[1]
	require.Equal(t, octree.Boundary, hole.State)
	hole.State = octree.BoundarySubdivided
	hole.Children = new([8]octree.Cell)

	m, err := extract(tree)
	require.NoError(t, err)
	// 21 remaining outer quads and 3 hole sides split in 4 quads each.
	assert.Equal(t, 2*(21+12), m.TriangleCount())
	var found bool
	for _, v := range m.Vertices {
		if v == (r3.Vec{X: 0, Y: -1, Z: -1}) {
			found = true
		}
	}
	assert.True(t, found, "quartered face center vertex missing")
	require.NoError(t, m.Validate())
}

// edgeUses counts the triangles on every undirected edge of m.
func edgeUses(m Mesh) map[[2]uint32]int {
	uses := make(map[[2]uint32]int)
	for i := 0; i < len(m.Indices); i += 3 {
		for j := 0; j < 3; j++ {
			a, b := m.Indices[i+j], m.Indices[i+(j+1)%3]
			if a > b {
				a, b = b, a
			}
			uses[[2]uint32{a, b}]++
		}
	}
	return uses
}

func TestEveryEdgeSharedByTwoTriangles(t *testing.T) {
	box, err := sdf.Box(r3.Vec{X: 1.5, Y: 1.5, Z: 1.5})
	require.NoError(t, err)
	rotated, err := sdf.Rotate(box, 0.6, r3.Vec{X: 1, Y: 1})
	require.NoError(t, err)
	tests := []struct {
		name    string
		s       sdf.Node
		minSize float64
	}{
		{"sphere", unitSphere(t), 0.25},
		{"rotated box coarse", rotated, 0.25},
		{"rotated box fine", rotated, 0.1},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.MinSize = test.minSize
			m := generate(t, cfg, test.s)
			require.NotEmpty(t, m.Indices)
			for e, n := range edgeUses(m) {
				require.Equal(t, 2, n, "edge %v", e)
			}
		})
	}
}

func TestExtractSeparatesPinchedEdge(t *testing.T) {
	budget, err := octree.NewBudget(100)
	require.NoError(t, err)
	tree, err := octree.Build(unitSphere(t), r3.Vec{}, 4, 2, budget)
	require.NoError(t, err)
	// Octants 0 and 3 touch only along the z axis below the origin.
	for i := range tree.Root.Children {
		if i != 0 && i != 3 {
			tree.Root.Children[i].State = octree.Outside
		}
	}
	m, err := extract(tree)
	require.NoError(t, err)
	require.True(t, m.IsManifold())
	require.NoError(t, m.Validate())
	// Two cubes, one of them with its two faces at the shared edge halved.
	assert.Equal(t, 2*12+2, m.TriangleCount())
	assert.Equal(t, 8+8-2+1, len(m.Vertices))
	assert.Equal(t, r3.Vec{Z: -1}, m.Vertices[len(m.Vertices)-1])
}

func TestUnconvergedProjection(t *testing.T) {
	var progress []Progress
	obs := ObserverFunc(func(p Progress) { progress = append(progress, p) })
	m := generate(t, sphereConfig(0.25), unitSphere(t), WithObserver(obs))
	require.Len(t, progress, 4)
	assert.Zero(t, progress[2].Unconverged)

	core, logs := observer.New(zapcore.WarnLevel)
	cfg := sphereConfig(0.25)
	cfg.Projection.MaxIterations = 0
	progress = nil
	generate(t, cfg, unitSphere(t), WithLogger(zap.New(core)), WithObserver(obs))
	require.Len(t, progress, 4)
	assert.Greater(t, progress[2].Unconverged, 0)
	assert.LessOrEqual(t, progress[2].Unconverged, m.VertexCount())
	assert.Equal(t, 1, logs.FilterMessage("vertices not projected onto surface").Len())
}

func TestProjectDegenerateGradient(t *testing.T) {
	pr := &projector{s: sdf.Const(1), cfg: ProjectionConfig{MaxIterations: 8, Epsilon: 1e-7, Step: 1e-4}}
	p := r3.Vec{X: 0.5}
	assert.Equal(t, p, pr.project(p))
	assert.Equal(t, 1, pr.missed)

	pr = &projector{s: unitSphere(t), cfg: pr.cfg}
	got := pr.project(r3.Vec{X: 3, Y: 1})
	assert.InDelta(t, 1, r3.Norm(got), 1e-7)
	assert.Zero(t, pr.missed)
}
