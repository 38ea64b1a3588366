package sdf

import (
	"fmt"
	"math"

	"github.com/soypat/sdfmesh"
	"gonum.org/v1/gonum/spatial/r3"
)

func checkDim(name string, v float64) error {
	if !(v > 0) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s must be positive and finite, got %g", sdfmesh.ErrConfiguration, name, v)
	}
	return nil
}

// Sphere returns a sphere of radius r centered at the origin.
func Sphere(r float64) (Node, error) {
	if err := checkDim("sphere radius", r); err != nil {
		return nil, err
	}
	length := Sqrt(Add(Add(Sqr(X()), Sqr(Y())), Sqr(Z())))
	return Face(Sub(length, Const(r))), nil
}

// Box returns an exact box distance field with the given dimensions
// centered at the origin.
func Box(dims r3.Vec) (Node, error) {
	for _, d := range [3]float64{dims.X, dims.Y, dims.Z} {
		if err := checkDim("box dimension", d); err != nil {
			return nil, err
		}
	}
	qx := Sub(Abs(X()), Const(dims.X/2))
	qy := Sub(Abs(Y()), Const(dims.Y/2))
	qz := Sub(Abs(Z()), Const(dims.Z/2))
	zero := Const(0)
	outside := Sqrt(Add(Add(Sqr(Max(qx, zero)), Sqr(Max(qy, zero))), Sqr(Max(qz, zero))))
	inside := Min(Max(qx, qy, qz), zero)
	return Face(Add(outside, inside)), nil
}

// Torus returns a torus around the z axis. major is the distance from the
// origin to the tube center and minor the tube radius.
func Torus(major, minor float64) (Node, error) {
	if err := checkDim("torus major radius", major); err != nil {
		return nil, err
	}
	if err := checkDim("torus minor radius", minor); err != nil {
		return nil, err
	}
	if minor >= major {
		return nil, fmt.Errorf("%w: torus minor radius %g must be less than major radius %g", sdfmesh.ErrConfiguration, minor, major)
	}
	ring := Sub(Sqrt(Add(Sqr(X()), Sqr(Y()))), Const(major))
	return Face(Sub(Sqrt(Add(Sqr(ring), Sqr(Z()))), Const(minor))), nil
}
