// Package scene decodes YAML scene files into SDF trees and mesh settings.
//
// A scene file has a mesh section holding a meshgen.Config and a shape
// section holding the node tree:
//
//	mesh:
//	  size: 4
//	  min_size: 0.05
//	shape:
//	  op: difference
//	  children:
//	    - op: box
//	      size: {x: 2, y: 2, z: 2}
//	    - op: sphere
//	      radius: 1.2
//
// Vectors are written as mappings with x, y and z keys.
package scene

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/soypat/sdfmesh"
	"github.com/soypat/sdfmesh/meshgen"
	"github.com/soypat/sdfmesh/sdf"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"
)

// Scene is a decoded scene file.
type Scene struct {
	Config meshgen.Config
	Shape  sdf.Node
}

type file struct {
	Mesh  meshgen.Config `yaml:"mesh"`
	Shape *Shape         `yaml:"shape"`
}

// Shape is the YAML form of a node. Op selects the node kind, the other
// fields are read only by the ops that use them.
type Shape struct {
	Op       string  `yaml:"op"`
	Children []Shape `yaml:"children,omitempty"`

	Value  float64 `yaml:"value,omitempty"`
	Radius float64 `yaml:"radius,omitempty"`
	Major  float64 `yaml:"major,omitempty"`
	Minor  float64 `yaml:"minor,omitempty"`
	Size   r3.Vec  `yaml:"size,omitempty"`
	Offset r3.Vec  `yaml:"offset,omitempty"`
	Axis   r3.Vec  `yaml:"axis,omitempty"`
	// Angle is in radians.
	Angle  float64 `yaml:"angle,omitempty"`
	Factor float64 `yaml:"factor,omitempty"`
	Min    r3.Vec  `yaml:"min,omitempty"`
	Max    r3.Vec  `yaml:"max,omitempty"`
	Margin float64 `yaml:"margin,omitempty"`
}

// Decode reads a scene from r. Mesh settings missing from the file take
// their meshgen.DefaultConfig values. Unknown keys are rejected.
func Decode(r io.Reader) (*Scene, error) {
	f := file{Mesh: meshgen.DefaultConfig()}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty scene", sdfmesh.ErrConfiguration)
		}
		return nil, fmt.Errorf("%w: decoding scene: %v", sdfmesh.ErrConfiguration, err)
	}
	if f.Shape == nil {
		return nil, fmt.Errorf("%w: scene has no shape", sdfmesh.ErrConfiguration)
	}
	if err := f.Mesh.Validate(); err != nil {
		return nil, err
	}
	node, err := f.Shape.Build()
	if err != nil {
		return nil, err
	}
	return &Scene{Config: f.Mesh, Shape: node}, nil
}

// Build converts the shape tree into a node.
func (s Shape) Build() (sdf.Node, error) {
	node, err := s.build()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sdfmesh.ErrConfiguration, err)
	}
	return node, nil
}

func (s Shape) build() (sdf.Node, error) {
	op := strings.ToLower(s.Op)
	arity, ok := arities[op]
	if !ok {
		return nil, fmt.Errorf("unknown op %q", s.Op)
	}
	if arity >= 0 && len(s.Children) != arity {
		return nil, fmt.Errorf("%s: want %d children, got %d", op, arity, len(s.Children))
	} else if arity < 0 && len(s.Children) == 0 {
		return nil, fmt.Errorf("%s: want at least one child", op)
	}
	children := make([]sdf.Node, len(s.Children))
	for i, child := range s.Children {
		n, err := child.build()
		if err != nil {
			return nil, fmt.Errorf("%s child %d: %w", op, i, err)
		}
		children[i] = n
	}
	var (
		n   sdf.Node
		err error
	)
	switch op {
	case "sphere":
		n, err = sdf.Sphere(s.Radius)
	case "box":
		n, err = sdf.Box(s.Size)
	case "torus":
		n, err = sdf.Torus(s.Major, s.Minor)
	case "const":
		n = sdf.Const(s.Value)
	case "x":
		n = sdf.X()
	case "y":
		n = sdf.Y()
	case "z":
		n = sdf.Z()
	case "union", "min":
		n = sdf.Union(children...)
	case "intersect", "max":
		n = sdf.Intersect(children...)
	case "difference":
		n = sdf.Difference(children[0], children[1])
	case "smooth_union":
		n, err = sdf.SmoothUnion(children[0], children[1], s.Radius)
	case "face":
		n = sdf.Face(children[0])
	case "translate":
		n = sdf.Translate(children[0], s.Offset)
	case "rotate":
		n, err = sdf.Rotate(children[0], s.Angle, s.Axis)
	case "scale":
		n, err = sdf.Scale(children[0], s.Factor)
	case "bounded":
		n, err = sdf.Bounded(children[0], r3.Box{Min: s.Min, Max: s.Max}, s.Margin)
	case "add":
		n = sdf.Add(children[0], children[1])
	case "sub":
		n = sdf.Sub(children[0], children[1])
	case "mul":
		n = sdf.Mul(children[0], children[1])
	case "div":
		n = sdf.Div(children[0], children[1])
	case "neg":
		n = sdf.Neg(children[0])
	case "sin":
		n = sdf.Sin(children[0])
	case "cos":
		n = sdf.Cos(children[0])
	case "sqrt":
		n = sdf.Sqrt(children[0])
	case "sqr":
		n = sdf.Sqr(children[0])
	case "log":
		n = sdf.Log(children[0])
	case "exp":
		n = sdf.Exp(children[0])
	case "abs":
		n = sdf.Abs(children[0])
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// arities maps each op to its child count. Negative means one or more.
var arities = map[string]int{
	"sphere": 0, "box": 0, "torus": 0, "const": 0, "x": 0, "y": 0, "z": 0,
	"union": -1, "min": -1, "intersect": -1, "max": -1,
	"difference": 2, "smooth_union": 2,
	"face": 1, "translate": 1, "rotate": 1, "scale": 1, "bounded": 1,
	"add": 2, "sub": 2, "mul": 2, "div": 2,
	"neg": 1, "sin": 1, "cos": 1, "sqrt": 1, "sqr": 1, "log": 1, "exp": 1, "abs": 1,
}
