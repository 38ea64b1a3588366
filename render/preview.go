package render

import (
	"errors"
	"image"

	"github.com/fogleman/fauxgl"
	"github.com/nfnt/resize"
	"gonum.org/v1/gonum/spatial/r3"
)

// PreviewOptions configures the software renderer used by Preview.
type PreviewOptions struct {
	Width, Height int
	// Supersampling factor. The image is rendered at Scale times the
	// final resolution and downsampled.
	Scale int
	// Camera. The mesh is first fitted into the [-1,1] cube.
	Eye, LookAt, Up r3.Vec
	Fovy            float64
	Color           string
	Background      string
}

// DefaultPreviewOptions returns an isometric view of the unit cube.
func DefaultPreviewOptions() PreviewOptions {
	return PreviewOptions{
		Width:      800,
		Height:     600,
		Scale:      2,
		Eye:        r3.Vec{X: 3, Y: 1, Z: 0.75},
		LookAt:     r3.Vec{},
		Up:         r3.Vec{Z: 1},
		Fovy:       20,
		Color:      "#468966",
		Background: "#FFF8E3",
	}
}

// RenderPreview shades the mesh with a Phong shader and returns the image.
func RenderPreview(vertices []float32, indices []uint32, opts PreviewOptions) (image.Image, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, errors.New("preview dimensions must be positive")
	}
	if opts.Scale < 1 {
		opts.Scale = 1
	}
	tris, err := Triangles(vertices, indices)
	if err != nil {
		return nil, err
	}
	if len(tris) == 0 {
		return nil, errors.New("empty triangle slice")
	}
	faux := make([]*fauxgl.Triangle, len(tris))
	for i, t := range tris {
		faux[i] = fauxgl.NewTriangleForPoints(
			fauxgl.V(float64(t[0].X), float64(t[0].Y), float64(t[0].Z)),
			fauxgl.V(float64(t[1].X), float64(t[1].Y), float64(t[1].Z)),
			fauxgl.V(float64(t[2].X), float64(t[2].Y), float64(t[2].Z)),
		)
	}
	mesh := fauxgl.NewTriangleMesh(faux)
	// fit mesh in a bi-unit cube centered at the origin
	mesh.BiUnitCube()

	const (
		near = 1
		far  = 10
	)
	var (
		eye    = fauxgl.V(opts.Eye.X, opts.Eye.Y, opts.Eye.Z)          // camera position
		center = fauxgl.V(opts.LookAt.X, opts.LookAt.Y, opts.LookAt.Z) // view center position
		up     = fauxgl.V(opts.Up.X, opts.Up.Y, opts.Up.Z)             // up vector
		light  = fauxgl.V(-0.75, 1, 0.25).Normalize()                  // light direction
	)
	width, height := opts.Width*opts.Scale, opts.Height*opts.Scale
	context := fauxgl.NewContext(width, height)
	context.ClearColorBufferWith(fauxgl.HexColor(opts.Background))
	aspect := float64(opts.Width) / float64(opts.Height)
	matrix := fauxgl.LookAt(eye, center, up).Perspective(opts.Fovy, aspect, near, far)
	shader := fauxgl.NewPhongShader(matrix, light, eye)
	shader.ObjectColor = fauxgl.HexColor(opts.Color)
	context.Shader = shader
	context.DrawMesh(mesh)

	img := context.Image()
	if opts.Scale > 1 {
		img = resize.Resize(uint(opts.Width), uint(opts.Height), img, resize.Bilinear)
	}
	return img, nil
}

// Preview renders the mesh and saves it as a PNG file at path.
func Preview(path string, vertices []float32, indices []uint32, opts PreviewOptions) error {
	img, err := RenderPreview(vertices, indices, opts)
	if err != nil {
		return err
	}
	return fauxgl.SavePNG(path, img)
}
