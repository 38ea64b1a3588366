package render

import (
	"errors"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// PlotHistogram saves a histogram of values to path. The image format is
// chosen from the file extension.
func PlotHistogram(path, title string, values []float64, bins int) error {
	if len(values) == 0 {
		return errors.New("no values to plot")
	}
	if bins < 1 {
		bins = 16
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "value"
	p.Y.Label.Text = "count"
	h, err := plotter.NewHist(plotter.Values(values), bins)
	if err != nil {
		return err
	}
	p.Add(h)
	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
