// Package meshgen converts signed distance fields into closed triangle meshes.
//
// Generation runs in phases: the root cube is subdivided into an octree, the
// faces between boundary and outside cells are extracted into a half-edge
// mesh, extracted vertices are projected onto the surface, the mesh is
// optionally refined by splitting the edges that deviate most from the
// surface and finally serialized into flat buffers. The mesh is checked for
// manifoldness after extraction and after refinement.
package meshgen

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/soypat/sdfmesh"
	"github.com/soypat/sdfmesh/halfedge"
	"github.com/soypat/sdfmesh/octree"
	"github.com/soypat/sdfmesh/sdf"
	"go.uber.org/zap"
)

// Phase identifies a generation phase.
type Phase uint8

const (
	PhaseSubdivide Phase = iota
	PhaseExtract
	PhaseProject
	PhaseRefine
	PhaseSerialize
)

func (p Phase) String() string {
	switch p {
	case PhaseSubdivide:
		return "subdivide"
	case PhaseExtract:
		return "extract"
	case PhaseProject:
		return "project"
	case PhaseRefine:
		return "refine"
	case PhaseSerialize:
		return "serialize"
	}
	return "Phase(" + strconv.Itoa(int(p)) + ")"
}

// Progress describes a completed phase.
type Progress struct {
	Phase   Phase
	Elapsed time.Duration
	// Cells is the number of octree cells, set from PhaseSubdivide on.
	Cells     int
	Vertices  int
	Triangles int
	// Splits is the number of refinement edge splits.
	Splits int
	// Unconverged counts vertex projections that stopped short of the
	// surface, either at the iteration cap or at a degenerate gradient.
	Unconverged int
}

// Observer receives progress once per completed phase. Observers must not
// retain or modify generator state.
type Observer interface {
	ObservePhase(Progress)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Progress)

func (f ObserverFunc) ObservePhase(p Progress) { f(p) }

// Generator meshes signed distance fields with a fixed configuration. A
// Generator holds no per request state and may be reused.
type Generator struct {
	cfg       Config
	log       *zap.Logger
	observers []Observer
}

// New validates cfg and returns a Generator.
func New(cfg Config, opts ...Option) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Projection.Step == 0 {
		cfg.Projection.Step = cfg.MinSize / 1000
	}
	if cfg.Refine != nil {
		rc := *cfg.Refine
		cfg.Refine = &rc
	}
	g := &Generator{cfg: cfg, log: zap.NewNop()}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Config returns the generator configuration with defaults applied.
func (g *Generator) Config() Config { return g.cfg }

// Generate meshes the surface of s within the configured root cube. ctx is
// checked between phases only. Generation fails with
// [sdfmesh.ErrBudgetExhausted] if the octree budget runs out and with
// [sdfmesh.ErrNonManifold] if the mesh is not a closed manifold after
// extraction or refinement.
func (g *Generator) Generate(ctx context.Context, s sdf.Node) (Mesh, error) {
	if s == nil {
		return Mesh{}, fmt.Errorf("%w: nil sdf", sdfmesh.ErrConfiguration)
	}
	var progress Progress
	phase := func(p Phase, start time.Time) {
		progress.Phase = p
		progress.Elapsed = time.Since(start)
		g.log.Debug("phase done",
			zap.Stringer("phase", p),
			zap.Duration("elapsed", progress.Elapsed),
			zap.Int("cells", progress.Cells),
			zap.Int("vertices", progress.Vertices),
			zap.Int("triangles", progress.Triangles),
			zap.Int("splits", progress.Splits),
			zap.Int("unconverged", progress.Unconverged),
		)
		for _, o := range g.observers {
			o.ObservePhase(progress)
		}
	}

	if err := ctx.Err(); err != nil {
		return Mesh{}, err
	}
	start := time.Now()
	budget, err := octree.NewBudget(g.cfg.Budget)
	if err != nil {
		return Mesh{}, err
	}
	tree, err := octree.Build(s, g.cfg.Center, g.cfg.Size, g.cfg.MinSize, budget)
	if err != nil {
		return Mesh{}, fmt.Errorf("subdivide: %w", err)
	}
	stats := tree.Stats()
	progress.Cells = stats.Cells
	phase(PhaseSubdivide, start)

	if err := ctx.Err(); err != nil {
		return Mesh{}, err
	}
	start = time.Now()
	mesh, err := extract(tree)
	if err != nil {
		return Mesh{}, fmt.Errorf("extract: %w", err)
	}
	if err := checkManifold(mesh); err != nil {
		return Mesh{}, fmt.Errorf("extract: %w", err)
	}
	progress.Vertices, progress.Triangles = len(mesh.Vertices), mesh.TriangleCount()
	phase(PhaseExtract, start)

	if err := ctx.Err(); err != nil {
		return Mesh{}, err
	}
	start = time.Now()
	proj := &projector{s: s, cfg: g.cfg.Projection}
	for v, p := range mesh.Vertices {
		mesh.SetVertex(v, proj.project(p))
	}
	g.warnUnconverged(PhaseProject, proj.missed, len(mesh.Vertices))
	progress.Unconverged = proj.missed
	phase(PhaseProject, start)

	if g.cfg.Refine != nil {
		if err := ctx.Err(); err != nil {
			return Mesh{}, err
		}
		start = time.Now()
		splits, err := refine(mesh, proj, *g.cfg.Refine)
		if err != nil {
			return Mesh{}, fmt.Errorf("refine: %w", err)
		}
		if err := checkManifold(mesh); err != nil {
			return Mesh{}, fmt.Errorf("refine: %w", err)
		}
		g.warnUnconverged(PhaseRefine, proj.missed-progress.Unconverged, splits)
		progress.Unconverged = proj.missed
		progress.Splits = splits
		progress.Vertices, progress.Triangles = len(mesh.Vertices), mesh.TriangleCount()
		phase(PhaseRefine, start)
	}

	if err := ctx.Err(); err != nil {
		return Mesh{}, err
	}
	start = time.Now()
	out := serialize(mesh)
	phase(PhaseSerialize, start)
	g.log.Info("mesh generated",
		zap.Int("cells", progress.Cells),
		zap.Int("vertices", out.VertexCount()),
		zap.Int("triangles", out.TriangleCount()),
		zap.Int("splits", progress.Splits),
		zap.Int("unconverged", progress.Unconverged),
	)
	return out, nil
}

func (g *Generator) warnUnconverged(p Phase, missed, total int) {
	if missed == 0 {
		return
	}
	g.log.Warn("vertices not projected onto surface",
		zap.Stringer("phase", p),
		zap.Int("unconverged", missed),
		zap.Int("projected", total),
		zap.Int("max_iterations", g.cfg.Projection.MaxIterations),
		zap.Float64("epsilon", g.cfg.Projection.Epsilon),
	)
}

// checkManifold requires every edge to be paired and the structure to be
// consistent.
func checkManifold(m *halfedge.Mesh) error {
	if !m.IsManifold() {
		return fmt.Errorf("%w: %d unpaired half-edges", sdfmesh.ErrNonManifold, m.Unpaired())
	}
	if err := m.Validate(); err != nil {
		return fmt.Errorf("%w: %w", sdfmesh.ErrNonManifold, err)
	}
	return nil
}
