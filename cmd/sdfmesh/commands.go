package main

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/soypat/sdfmesh/internal/d3"
	"github.com/soypat/sdfmesh/internal/logging"
	"github.com/soypat/sdfmesh/meshgen"
	"github.com/soypat/sdfmesh/metrics"
	"github.com/soypat/sdfmesh/render"
	"github.com/soypat/sdfmesh/scene"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

type globalOptions struct {
	configPath string
	logLevel   string
	logJSON    bool
}

func newRootCmd() *cobra.Command {
	var opts globalOptions
	root := &cobra.Command{
		Use:          "sdfmesh",
		Short:        "Mesh signed distance field scenes into closed triangle meshes",
		SilenceUsage: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "YAML file overriding the scene mesh settings")
	pf.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	pf.BoolVar(&opts.logJSON, "log-json", false, "write JSON encoded logs")

	root.AddCommand(newMeshCmd(&opts), newReferenceCmd(&opts), newVersionCmd())
	return root
}

func (o *globalOptions) logger(cmd *cobra.Command) (*zap.Logger, error) {
	return logging.New(cmd.ErrOrStderr(), o.logLevel, o.logJSON)
}

// loadScene decodes the scene at path and applies configuration overrides.
func (o *globalOptions) loadScene(cmd *cobra.Command, path string) (*scene.Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sc, err := scene.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", path, err)
	}
	sc.Config, err = loadConfig(sc.Config, o.configPath, cmd.Flags())
	if err != nil {
		return nil, err
	}
	return sc, nil
}

type meshOptions struct {
	output    string
	preview   string
	histogram string
	metrics   string
}

func newMeshCmd(g *globalOptions) *cobra.Command {
	var opts meshOptions
	cmd := &cobra.Command{
		Use:   "mesh <scene.yaml>",
		Short: "Generate an adaptive octree mesh of a scene and write it as binary STL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMesh(cmd, g, &opts, args[0])
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&opts.output, "output", "o", "out.stl", "output STL file")
	fs.StringVar(&opts.preview, "preview", "", "write a shaded PNG preview to this file")
	fs.StringVar(&opts.histogram, "histogram", "", "write a vertex error histogram PNG to this file")
	fs.StringVar(&opts.metrics, "metrics", "", "write Prometheus text format metrics to this file")
	fs.Float64("size", 0, "root cube edge length")
	fs.Float64("min-size", 0, "maximum boundary cell edge length")
	fs.Int("budget", 0, "maximum number of octree cells")
	fs.Bool("refine", false, "enable error driven refinement with default parameters")
	return cmd
}

func runMesh(cmd *cobra.Command, g *globalOptions, opts *meshOptions, path string) error {
	log, err := g.logger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()
	sc, err := g.loadScene(cmd, path)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	if err != nil {
		return err
	}
	gen, err := meshgen.New(sc.Config, meshgen.WithLogger(log), meshgen.WithObserver(m))
	if err != nil {
		return err
	}
	mesh, err := gen.Generate(cmd.Context(), sc.Shape)
	if err != nil {
		return err
	}
	if err := writeSTL(opts.output, mesh.Vertices, mesh.Indices); err != nil {
		return err
	}

	report := meshgen.Analyze(mesh, sc.Shape)
	log.Info("mesh written",
		zap.String("output", opts.output),
		zap.Int("vertices", report.Vertices),
		zap.Int("triangles", report.Triangles),
		zap.Float64("mean_error", report.MeanError),
		zap.Float64("max_error", report.MaxError),
		zap.Float64("min_edge", report.MinEdge),
		zap.Float64("max_edge", report.MaxEdge),
	)
	if opts.preview != "" {
		if err := render.Preview(opts.preview, mesh.Vertices, mesh.Indices, render.DefaultPreviewOptions()); err != nil {
			return fmt.Errorf("preview: %w", err)
		}
	}
	if opts.histogram != "" {
		if err := render.PlotHistogram(opts.histogram, "vertex error |f(v)|", report.Errors, 32); err != nil {
			return fmt.Errorf("histogram: %w", err)
		}
	}
	if opts.metrics != "" {
		if err := metrics.WriteTextfile(opts.metrics, reg); err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
	}
	return nil
}

func newReferenceCmd(g *globalOptions) *cobra.Command {
	var (
		output string
		cells  int
	)
	cmd := &cobra.Command{
		Use:   "reference <scene.yaml>",
		Short: "Mesh a scene with uniform marching cubes for comparison",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := g.logger(cmd)
			if err != nil {
				return err
			}
			defer log.Sync()
			sc, err := g.loadScene(cmd, args[0])
			if err != nil {
				return err
			}
			bounds := d3.CenteredBox(sc.Config.Center, sc.Config.Size)
			vertices, indices, err := render.MarchingCubes(sc.Shape, r3.Box(bounds), cells)
			if err != nil {
				return err
			}
			if err := writeSTL(output, vertices, indices); err != nil {
				return err
			}
			log.Info("reference mesh written",
				zap.String("output", output),
				zap.Int("cells", cells),
				zap.Int("triangles", len(indices)/3),
			)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "reference.stl", "output STL file")
	cmd.Flags().IntVar(&cells, "cells", 64, "marching cubes cells along the longest axis")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the sdfmesh version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "sdfmesh", version)
		},
	}
}

func writeSTL(path string, vertices []float32, indices []uint32) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := render.WriteBinarySTL(f, vertices, indices); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
