// Package sdfmesh converts signed distance field trees into closed triangle
// meshes suitable for 3D printing.
//
// The work is split across subpackages:
//
//	interval  closed interval arithmetic used to bound SDFs over boxes.
//	sdf       SDF node types: point evaluation, interval bounds and content classification.
//	octree    budget bounded adaptive subdivision of a root cube.
//	halfedge  index based half-edge triangle mesh.
//	meshgen   extraction, projection, refinement and serialization.
//
// This package holds the error kinds shared by all of them. Callers should
// test for them with errors.Is.
package sdfmesh

import "errors"

var (
	// ErrConfiguration is returned for invalid sizes, budgets or refinement parameters.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrBudgetExhausted is returned when octree subdivision runs out of cells
	// before terminating. No partial tree is returned.
	ErrBudgetExhausted = errors.New("cell budget exhausted")
	// ErrNonManifold is returned when an extracted or refined mesh has unpaired edges.
	ErrNonManifold = errors.New("non-manifold mesh")
	// ErrInvalidTopology is returned when splitting an unpaired edge or pairing
	// an edge that is already paired.
	ErrInvalidTopology = errors.New("invalid mesh topology")
)
