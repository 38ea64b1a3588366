package meshgen

import (
	"fmt"
	"math"

	"github.com/soypat/sdfmesh"
	"github.com/soypat/sdfmesh/internal/d3"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

// Config holds the parameters of a mesh generation request.
type Config struct {
	// Center and Size define the cubic root region.
	Center r3.Vec  `mapstructure:"center" yaml:"center"`
	Size   float64 `mapstructure:"size" yaml:"size"`
	// MinSize is the maximum edge length of boundary cells.
	MinSize float64 `mapstructure:"min_size" yaml:"min_size"`
	// Budget is the number of octree cells that may be created.
	Budget     int              `mapstructure:"budget" yaml:"budget"`
	Projection ProjectionConfig `mapstructure:"projection" yaml:"projection"`
	// Refine enables error driven refinement when not nil.
	Refine *RefineConfig `mapstructure:"refine" yaml:"refine"`
}

// ProjectionConfig controls the gradient descent that moves vertices onto
// the surface.
type ProjectionConfig struct {
	MaxIterations int `mapstructure:"max_iterations" yaml:"max_iterations"`
	// Epsilon stops the descent once the field magnitude falls below it.
	Epsilon float64 `mapstructure:"epsilon" yaml:"epsilon"`
	// Step is the finite difference step. Zero selects MinSize/1000.
	Step float64 `mapstructure:"step" yaml:"step"`
}

// RefineConfig controls error driven edge splitting.
type RefineConfig struct {
	// ErrorThreshold discards edges whose error is below it.
	ErrorThreshold float64 `mapstructure:"error_threshold" yaml:"error_threshold"`
	// MinEdgeLength discards edges shorter than it.
	MinEdgeLength float64 `mapstructure:"min_edge_length" yaml:"min_edge_length"`
	MaxSplits     int     `mapstructure:"max_splits" yaml:"max_splits"`
	// NormalizeByLength divides the midpoint error by the edge length.
	NormalizeByLength bool `mapstructure:"normalize_by_length" yaml:"normalize_by_length"`
}

// DefaultConfig returns a configuration meshing the cube of size 4 around
// the origin without refinement.
func DefaultConfig() Config {
	return Config{
		Size:    4,
		MinSize: 0.1,
		Budget:  1 << 22,
		Projection: ProjectionConfig{
			MaxIterations: 16,
			Epsilon:       1e-7,
		},
	}
}

// DefaultRefineConfig returns refinement parameters suited to a mesh with
// boundary cells of size minSize.
func DefaultRefineConfig(minSize float64) RefineConfig {
	return RefineConfig{
		ErrorThreshold: minSize / 100,
		MinEdgeLength:  minSize / 8,
		MaxSplits:      1 << 16,
	}
}

func positive(v float64) bool { return v > 0 && !math.IsInf(v, 0) }

func nonNegative(v float64) bool { return v >= 0 && !math.IsInf(v, 0) }

// Validate reports configuration errors wrapping [sdfmesh.ErrConfiguration].
func (c Config) Validate() error {
	var reason string
	switch {
	case !d3.IsFinite(c.Center):
		reason = fmt.Sprintf("center %v not finite", c.Center)
	case !positive(c.Size):
		reason = fmt.Sprintf("size must be positive, got %g", c.Size)
	case !positive(c.MinSize):
		reason = fmt.Sprintf("min size must be positive, got %g", c.MinSize)
	case c.Budget <= 0:
		reason = fmt.Sprintf("budget must be positive, got %d", c.Budget)
	case c.Projection.MaxIterations < 0:
		reason = fmt.Sprintf("projection iterations must not be negative, got %d", c.Projection.MaxIterations)
	case !nonNegative(c.Projection.Epsilon):
		reason = fmt.Sprintf("projection epsilon must not be negative, got %g", c.Projection.Epsilon)
	case !nonNegative(c.Projection.Step):
		reason = fmt.Sprintf("projection step must not be negative, got %g", c.Projection.Step)
	case c.Refine != nil && !nonNegative(c.Refine.ErrorThreshold):
		reason = fmt.Sprintf("refine error threshold must not be negative, got %g", c.Refine.ErrorThreshold)
	case c.Refine != nil && !nonNegative(c.Refine.MinEdgeLength):
		reason = fmt.Sprintf("refine min edge length must not be negative, got %g", c.Refine.MinEdgeLength)
	case c.Refine != nil && c.Refine.MaxSplits <= 0:
		reason = fmt.Sprintf("refine max splits must be positive, got %d", c.Refine.MaxSplits)
	default:
		return nil
	}
	return fmt.Errorf("%w: %s", sdfmesh.ErrConfiguration, reason)
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger phase boundaries are reported to.
func WithLogger(log *zap.Logger) Option {
	return func(g *Generator) {
		if log != nil {
			g.log = log
		}
	}
}

// WithObserver registers an observer notified after every phase.
func WithObserver(o Observer) Option {
	return func(g *Generator) {
		if o != nil {
			g.observers = append(g.observers, o)
		}
	}
}
